package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"handmade-kart/internal/model"
	"handmade-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logger       zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves products with pagination.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", filter.Limit).
		Int("offset", filter.Offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if id == uuid.Nil {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

func (s *productService) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slug).Msg("failed to get product by slug")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, identity model.Identity, req *model.ProductRequest) (*model.Product, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &model.Product{ID: uuid.New(), CreatedAt: now}
	applyProductRequest(product, req, now)

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("A product with this name already exists")
		}
		s.logger.Error().Err(err).Str("slug", product.Slug).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", product.ID.String()).Str("slug", product.Slug).Msg("product created")
	return product, nil
}

func (s *productService) Update(ctx context.Context, identity model.Identity, id uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductRequest(product, req, time.Now())

	found, err := s.productRepo.Update(ctx, product)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("A product with this name already exists")
		}
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if !found {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

func (s *productService) Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error {
	if err := identity.RequireAdmin(); err != nil {
		return err
	}

	found, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !found {
		return model.ErrProductNotFound
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// validate checks the payload and that its category exists.
func (s *productService) validate(ctx context.Context, req *model.ProductRequest) error {
	if req == nil {
		return model.NewValidationError("Product payload is required")
	}

	var fields []string
	if strings.TrimSpace(req.Name) == "" || model.Slugify(req.Name) == "" {
		fields = append(fields, "name")
	}
	if req.Price.IsNegative() {
		fields = append(fields, "price")
	}
	if req.Discount < 0 || req.Discount > 100 {
		fields = append(fields, "discount")
	}
	if req.Stock < 0 {
		fields = append(fields, "stock")
	}
	if req.CategoryID == uuid.Nil {
		fields = append(fields, "categoryId")
	}
	if len(fields) > 0 {
		return model.NewValidationError("Invalid product fields", fields...)
	}

	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return model.ErrCategoryNotFound
	}
	return nil
}

func applyProductRequest(p *model.Product, req *model.ProductRequest, now time.Time) {
	p.Name = strings.TrimSpace(req.Name)
	p.Slug = model.Slugify(req.Name)
	p.Description = req.Description
	p.Price = req.Price
	p.Discount = req.Discount
	p.Stock = req.Stock
	p.Images = req.Images
	p.Tags = req.Tags
	p.Featured = req.Featured
	p.CategoryID = req.CategoryID
	p.UpdatedAt = now
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
