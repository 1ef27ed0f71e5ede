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
)

const orderColumns = `o.id, o.user_id, o.customer_name, o.customer_email, o.customer_phone,
	o.shipping_address, o.total, o.status, o.payment_status, o.payment_method, o.payment_id,
	o.gateway_order_id, o.tracking_number, o.order_date, o.updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

func orderScanTargets(o *model.Order) []any {
	return []any{
		&o.ID, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.Total, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.PaymentID,
		&o.GatewayOrderID, &o.TrackingNumber, &o.OrderDate, &o.UpdatedAt,
	}
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, customer_name, customer_email, customer_phone,
			shipping_address, total, status, payment_status, payment_method, order_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := querier(r.pool, tx).Exec(ctx, query,
		order.ID, order.UserID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.ShippingAddress, order.Total, order.Status, order.PaymentStatus, order.PaymentMethod,
		order.OrderDate, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

func (r *orderRepository) getOne(ctx context.Context, q DBTX, query string, arg any) (*model.Order, error) {
	var order model.Order
	err := q.QueryRow(ctx, query, arg).Scan(orderScanTargets(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Interface("key", arg).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Interface("key", arg).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.loadItems(ctx, q, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return &order, nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, r.pool, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id)
}

// GetForUpdate retrieves and row-locks an order with its items.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, querier(r.pool, tx), `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE`, id)
}

// GetByGatewayOrderID retrieves the order whose latest gateway intent is gatewayOrderID.
func (r *orderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	return r.getOne(ctx, r.pool, `SELECT `+orderColumns+` FROM orders o WHERE o.gateway_order_id = $1`, gatewayOrderID)
}

// ListByUser retrieves a user's orders newest-first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 ORDER BY o.order_date DESC, o.id`
	return r.list(ctx, query, false, userID)
}

// ListAll retrieves every order newest-first with the ordering user.
func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `, u.email, u.username
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.order_date DESC, o.id
	`
	return r.list(ctx, query, true)
}

func (r *orderRepository) list(ctx context.Context, query string, withUser bool, args ...any) ([]model.Order, error) {
	orders, err := scanOrders(ctx, r.pool, query, withUser, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list orders")
		return nil, err
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := r.loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// scanOrders runs query and scans order rows, optionally followed by user email and username.
func scanOrders(ctx context.Context, q DBTX, query string, withUser bool, args ...any) ([]model.Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		targets := orderScanTargets(&o)
		var user model.UserSummary
		if withUser {
			targets = append(targets, &user.Email, &user.Username)
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if withUser {
			user.ID = o.UserID
			o.User = &user
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// loadItems fetches the items of the given orders with product summaries, keyed by order.
func (r *orderRepository) loadItems(ctx context.Context, q DBTX, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	out := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
			p.name, p.description, p.images, p.price, p.stock
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, p.name, oi.id
	`

	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(orderIDs)).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    model.OrderItem
			product model.ProductSummary
		)
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price,
			&product.Name, &product.Description, &product.Images, &product.Price, &product.Stock,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		product.ID = item.ProductID
		item.Product = &product
		out[item.OrderID] = append(out[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return out, nil
}

// Update writes status, payment and tracking fields.
func (r *orderRepository) Update(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, payment_method = $4, payment_id = $5,
			gateway_order_id = $6, tracking_number = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := querier(r.pool, tx).Exec(ctx, query,
		order.ID, order.Status, order.PaymentStatus, order.PaymentMethod, order.PaymentID,
		order.GatewayOrderID, order.TrackingNumber, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update order %s: %w", order.ID, pgx.ErrNoRows)
	}
	return nil
}

// SetGatewayOrderID records the gateway intent for an order.
func (r *orderRepository) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	query := `UPDATE orders SET gateway_order_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, gatewayOrderID); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to store gateway order id")
		return fmt.Errorf("failed to store gateway order id: %w", err)
	}
	return nil
}
