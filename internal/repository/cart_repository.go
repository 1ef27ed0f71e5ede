package repository

import (
	"context"
	"errors"
	"fmt"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *cartRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// UpsertCart returns the ID of the user's cart, creating it if needed. The
// UNIQUE(user_id) conflict target makes concurrent first adds converge on one row.
func (r *cartRepository) UpsertCart(ctx context.Context, tx pgx.Tx, cart *model.Cart) (uuid.UUID, error) {
	query := `
		INSERT INTO carts (id, user_id, customer_name, customer_email, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $5)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	var id uuid.UUID
	err := querier(r.pool, tx).QueryRow(ctx, query,
		cart.ID, cart.UserID, cart.CustomerName, cart.CustomerEmail, cart.CreatedAt,
	).Scan(&id)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", cart.UserID.String()).Msg("failed to upsert cart")
		return uuid.Nil, fmt.Errorf("failed to upsert cart: %w", err)
	}
	return id, nil
}

// UpsertItem adds quantity to the product's line, inserting it if absent.
func (r *cartRepository) UpsertItem(ctx context.Context, tx pgx.Tx, item *model.CartItem) (*model.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity, price = EXCLUDED.price
		RETURNING id, cart_id, product_id, quantity, price
	`

	var out model.CartItem
	err := querier(r.pool, tx).QueryRow(ctx, query,
		item.ID, item.CartID, item.ProductID, item.Quantity, item.Price,
	).Scan(&out.ID, &out.CartID, &out.ProductID, &out.Quantity, &out.Price)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cart_id", item.CartID.String()).
			Str("product_id", item.ProductID.String()).
			Msg("failed to upsert cart item")
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return &out, nil
}

// RecalculateTotal stores and returns the sum of price times quantity over the cart.
func (r *cartRepository) RecalculateTotal(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (decimal.Decimal, error) {
	query := `
		UPDATE carts
		SET total = (
			SELECT COALESCE(SUM(price * quantity), 0) FROM cart_items WHERE cart_id = $1
		), updated_at = NOW()
		WHERE id = $1
		RETURNING total
	`

	var total decimal.Decimal
	if err := querier(r.pool, tx).QueryRow(ctx, query, cartID).Scan(&total); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to recalculate cart total")
		return decimal.Zero, fmt.Errorf("failed to recalculate cart total: %w", err)
	}
	return total, nil
}

// GetByUserID retrieves the user's cart.
func (r *cartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	query := `
		SELECT id, user_id, customer_name, customer_email, total, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	var c model.Cart
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&c.ID, &c.UserID, &c.CustomerName, &c.CustomerEmail, &c.Total, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	return &c, nil
}

// GetItems retrieves the cart's lines with product summaries.
func (r *cartRepository) GetItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.price,
			p.name, p.description, p.images, p.price, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY p.name, ci.id
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var (
			item    model.CartItem
			product model.ProductSummary
		)
		err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Price,
			&product.Name, &product.Description, &product.Images, &product.Price, &product.Stock,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		product.ID = item.ProductID
		item.Product = &product
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

// GetItemForUser retrieves and locks a line belonging to the user's cart.
func (r *cartRepository) GetItemForUser(ctx context.Context, tx pgx.Tx, itemID, userID uuid.UUID) (*model.CartItem, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.price
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = $1 AND c.user_id = $2
		FOR UPDATE OF ci
	`

	var item model.CartItem
	err := querier(r.pool, tx).QueryRow(ctx, query, itemID, userID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to query cart item")
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}
	return &item, nil
}

// UpdateItemQuantity sets a line's quantity.
func (r *cartRepository) UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error {
	_, err := querier(r.pool, tx).Exec(ctx, `UPDATE cart_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to update cart item")
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

// DeleteItem removes a line.
func (r *cartRepository) DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error {
	if _, err := querier(r.pool, tx).Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to delete cart item")
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// DeleteByUserID removes the user's cart; lines go with it by cascade.
func (r *cartRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to delete cart")
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
