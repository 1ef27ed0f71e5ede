package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const categorySelect = `
	SELECT c.id, c.name, c.description, c.image, c.is_active,
		(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id) AS product_count,
		c.created_at, c.updated_at
	FROM categories c
`

type categoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) CategoryRepository {
	return &categoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "category").Logger(),
	}
}

func scanCategory(row pgx.Row) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.IsActive, &c.ProductCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, categorySelect+` WHERE c.is_active ORDER BY c.name`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category row")
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) get(ctx context.Context, where string, arg any) (*model.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, categorySelect+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Interface("key", arg).Msg("failed to query category")
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return r.get(ctx, ` WHERE c.id = $1`, id)
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*model.Category, error) {
	return r.get(ctx, ` WHERE c.name = $1`, name)
}

func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
		INSERT INTO categories (id, name, description, image, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Description, c.Image, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrDuplicate) {
			r.logger.Error().Err(err).Str("name", c.Name).Msg("failed to create category")
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, c *model.Category) (bool, error) {
	query := `
		UPDATE categories
		SET name = $2, description = $3, image = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Description, c.Image, c.IsActive, c.UpdatedAt)
	if err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrDuplicate) {
			r.logger.Error().Err(err).Str("category_id", c.ID.String()).Msg("failed to update category")
		}
		return false, fmt.Errorf("failed to update category: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("category_id", id.String()).Msg("failed to delete category")
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *categoryRepository) UpsertByName(ctx context.Context, c *model.Category) (uuid.UUID, error) {
	query := `
		INSERT INTO categories (id, name, description, image, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description, image = EXCLUDED.image,
			is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	now := time.Now()
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, c.ID, c.Name, c.Description, c.Image, c.IsActive, now).Scan(&id)
	if err != nil {
		r.logger.Error().Err(err).Str("name", c.Name).Msg("failed to upsert category")
		return uuid.Nil, fmt.Errorf("failed to upsert category: %w", err)
	}
	return id, nil
}
