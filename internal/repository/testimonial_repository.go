package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const testimonialSelect = `
	SELECT t.id, t.user_id, t.product_id, p.name, u.username, t.rating, t.comment, t.status, t.created_at
	FROM testimonials t
	JOIN products p ON p.id = t.product_id
	JOIN users u ON u.id = t.user_id
`

type testimonialRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewTestimonialRepository creates a new PostgreSQL-backed testimonial repository.
func NewTestimonialRepository(pool *pgxpool.Pool, logger zerolog.Logger) TestimonialRepository {
	return &testimonialRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "testimonial").Logger(),
	}
}

func scanTestimonial(row pgx.Row) (*model.Testimonial, error) {
	var t model.Testimonial
	err := row.Scan(&t.ID, &t.UserID, &t.ProductID, &t.ProductName, &t.Username, &t.Rating, &t.Comment, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *testimonialRepository) Create(ctx context.Context, t *model.Testimonial) error {
	query := `
		INSERT INTO testimonials (id, user_id, product_id, rating, comment, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, t.ID, t.UserID, t.ProductID, t.Rating, t.Comment, t.Status, t.CreatedAt)
	if err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrDuplicate) {
			r.logger.Error().Err(err).Str("user_id", t.UserID.String()).Msg("failed to create testimonial")
		}
		return fmt.Errorf("failed to create testimonial: %w", err)
	}
	return nil
}

func (r *testimonialRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM testimonials WHERE user_id = $1 AND product_id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, productID).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Msg("failed to check testimonial existence")
		return false, fmt.Errorf("failed to check testimonial existence: %w", err)
	}
	return exists, nil
}

func (r *testimonialRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Testimonial, error) {
	t, err := scanTestimonial(r.pool.QueryRow(ctx, testimonialSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("testimonial_id", id.String()).Msg("failed to query testimonial")
		return nil, fmt.Errorf("failed to query testimonial: %w", err)
	}
	return t, nil
}

func (r *testimonialRepository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status model.TestimonialStatus) (bool, error) {
	query := `UPDATE testimonials SET status = $2 WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error().Err(err).Str("testimonial_id", id.String()).Msg("failed to moderate testimonial")
		return false, fmt.Errorf("failed to moderate testimonial: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *testimonialRepository) List(ctx context.Context, filter model.TestimonialFilter) ([]model.Testimonial, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		where = append(where, fmt.Sprintf("t.product_id = $%d", len(args)))
	}
	if filter.ProductName != "" {
		args = append(args, filter.ProductName)
		where = append(where, fmt.Sprintf("p.name = $%d", len(args)))
	}

	query := testimonialSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY t.created_at DESC, t.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query testimonials")
		return nil, fmt.Errorf("failed to query testimonials: %w", err)
	}
	defer rows.Close()

	out := []model.Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan testimonial: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating testimonials: %w", err)
	}
	return out, nil
}
