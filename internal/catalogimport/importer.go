package catalogimport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CategoryStore is the category persistence used by the importer.
type CategoryStore interface {
	UpsertByName(ctx context.Context, category *model.Category) (uuid.UUID, error)
	GetByName(ctx context.Context, name string) (*model.Category, error)
}

// ProductStore is the product persistence used by the importer.
type ProductStore interface {
	UpsertBySlug(ctx context.Context, product *model.Product) error
}

// Summary counts what an import wrote.
type Summary struct {
	Files      int
	Categories int
	Products   int
}

// Importer loads catalog files and upserts their records.
type Importer struct {
	loader     Loader
	categories CategoryStore
	products   ProductStore
	logger     zerolog.Logger
	now        func() time.Time
}

// NewImporter creates an importer.
func NewImporter(loader Loader, categories CategoryStore, products ProductStore, logger zerolog.Logger) *Importer {
	return &Importer{
		loader:     loader,
		categories: categories,
		products:   products,
		logger:     logger.With().Str("component", "catalog-importer").Logger(),
		now:        time.Now,
	}
}

// Import loads every path concurrently, then upserts all categories by name
// before any product so products can resolve categories from other files.
func (im *Importer) Import(ctx context.Context, paths ...string) (*Summary, error) {
	batches := make([]*Batch, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			batch, err := im.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load catalog file %s: %w", path, err)
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Files: len(paths)}
	categoryIDs := make(map[string]uuid.UUID)

	for _, batch := range batches {
		for _, rec := range batch.Categories {
			id, err := im.upsertCategory(ctx, rec)
			if err != nil {
				return summary, err
			}
			categoryIDs[strings.ToLower(rec.Name)] = id
			summary.Categories++
		}
	}

	for _, batch := range batches {
		for _, rec := range batch.Products {
			categoryID, err := im.resolveCategory(ctx, rec.Category, categoryIDs)
			if err != nil {
				return summary, err
			}
			if err := im.upsertProduct(ctx, rec, categoryID); err != nil {
				return summary, err
			}
			summary.Products++
		}
	}

	im.logger.Info().
		Int("files", summary.Files).
		Int("categories", summary.Categories).
		Int("products", summary.Products).
		Msg("catalog import completed")

	return summary, nil
}

func (im *Importer) upsertCategory(ctx context.Context, rec Record) (uuid.UUID, error) {
	active := true
	if rec.IsActive != nil {
		active = *rec.IsActive
	}
	id, err := im.categories.UpsertByName(ctx, &model.Category{
		ID:          uuid.New(),
		Name:        rec.Name,
		Description: rec.Description,
		Image:       rec.Image,
		IsActive:    active,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to import category %q: %w", rec.Name, err)
	}
	return id, nil
}

func (im *Importer) resolveCategory(ctx context.Context, name string, known map[string]uuid.UUID) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if id, ok := known[strings.ToLower(name)]; ok {
		return id, nil
	}

	category, err := im.categories.GetByName(ctx, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	if category == nil {
		return uuid.Nil, fmt.Errorf("unknown category %q", name)
	}
	known[strings.ToLower(name)] = category.ID
	return category.ID, nil
}

func (im *Importer) upsertProduct(ctx context.Context, rec Record, categoryID uuid.UUID) error {
	slug := rec.Slug
	if slug == "" {
		slug = model.Slugify(rec.Name)
	}
	now := im.now()

	product := &model.Product{
		ID:          uuid.New(),
		Name:        rec.Name,
		Slug:        slug,
		Description: rec.Description,
		Price:       rec.Price,
		Discount:    rec.Discount,
		Stock:       rec.Stock,
		Images:      rec.Images,
		Tags:        rec.Tags,
		Featured:    rec.Featured,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := im.products.UpsertBySlug(ctx, product); err != nil {
		return fmt.Errorf("failed to import product %q: %w", rec.Name, err)
	}
	return nil
}
