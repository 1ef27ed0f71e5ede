package repository

import (
	"context"
	"fmt"

	"handmade-kart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type statsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStatsRepository creates the aggregate query repository behind the admin dashboard.
func NewStatsRepository(pool *pgxpool.Pool, logger zerolog.Logger) StatsRepository {
	return &statsRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "stats").Logger(),
	}
}

func (r *statsRepository) count(ctx context.Context, name, query string, args ...any) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error().Err(err).Str("aggregate", name).Msg("failed to count")
		return 0, fmt.Errorf("failed to count %s: %w", name, err)
	}
	return n, nil
}

func (r *statsRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'`
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to sum sales")
		return decimal.Zero, fmt.Errorf("failed to sum sales: %w", err)
	}
	return total, nil
}

func (r *statsRepository) CountProducts(ctx context.Context) (int, error) {
	return r.count(ctx, "products", `SELECT COUNT(*) FROM products`)
}

func (r *statsRepository) CountOrders(ctx context.Context) (int, error) {
	return r.count(ctx, "orders", `SELECT COUNT(*) FROM orders`)
}

func (r *statsRepository) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, "users", `SELECT COUNT(*) FROM users`)
}

func (r *statsRepository) CountLowStock(ctx context.Context, threshold int) (int, error) {
	return r.count(ctx, "low stock", `SELECT COUNT(*) FROM products WHERE stock <= $1`, threshold)
}

func (r *statsRepository) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `, u.email, u.username
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.order_date DESC, o.id
		LIMIT $1
	`
	orders, err := scanOrders(ctx, r.pool, query, true, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query recent orders")
		return nil, err
	}
	return orders, nil
}
