package service

import (
	"context"
	"fmt"
	"time"

	"handmade-kart/internal/events"
	"handmade-kart/internal/model"
	"handmade-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	publisher   events.Publisher
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder creates a pending order from the checkout lines and reserves their stock.
// The cart itself is left untouched.
func (s *orderService) PlaceOrder(ctx context.Context, identity model.Identity, req *model.OrderRequest) (*model.Order, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	// Extract product IDs and validate they exist
	productIDs := make([]uuid.UUID, 0, len(req.CartItems))
	seen := make(map[uuid.UUID]bool, len(req.CartItems))
	for _, item := range req.CartItems {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(productIDs)).Msg("failed to retrieve products")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if len(products) != len(productIDs) {
		s.logger.Warn().
			Int("requested", len(productIDs)).
			Int("found", len(products)).
			Msg("order references unknown products")
		return nil, model.ErrProductNotFound
	}
	summaries := make(map[uuid.UUID]*model.ProductSummary, len(products))
	for _, p := range products {
		summaries[p.ID] = &model.ProductSummary{ID: p.ID, Name: p.Name, Images: p.Images, Price: p.Price, Stock: p.Stock}
	}

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	defer rollback(ctx, tx, s.logger)

	now := time.Now()
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          identity.UserID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.FullAddress(),
		Total:           req.Total,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   model.PaymentMethodOnline,
		OrderDate:       now,
		UpdatedAt:       now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	orderItems := make([]model.OrderItem, len(req.CartItems))
	for i, item := range req.CartItems {
		orderItems[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(orderItems)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	for _, item := range orderItems {
		ok, err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", item.ProductID.String()).Msg("failed to reserve stock")
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
		if !ok {
			s.logger.Warn().
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("insufficient stock at checkout")
			return nil, model.ErrInsufficientStock
		}
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range orderItems {
		orderItems[i].Product = summaries[orderItems[i].ProductID]
	}
	order.Items = orderItems

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", identity.UserID.String()).
		Int("item_count", len(orderItems)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed")

	s.publish(ctx, model.EventOrderPlaced, order)
	return order, nil
}

// validateOrderRequest checks shipping fields, lines and the declared total.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewValidationError("Order payload is required")
	}

	missing := req.MissingFields()
	if len(req.CartItems) == 0 {
		missing = append(missing, "cartItems")
	}
	if len(missing) > 0 {
		return model.NewValidationError("Missing required fields", missing...)
	}

	computed := decimal.Zero
	for i, item := range req.CartItems {
		if item.ProductID == uuid.Nil {
			return model.NewValidationError(fmt.Sprintf("Item %d: product id is required", i), "productId")
		}
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
		if item.Price.IsNegative() {
			return model.NewValidationError(fmt.Sprintf("Item %d: price cannot be negative", i), "price")
		}
		computed = computed.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if !computed.Equal(req.Total) {
		s.logger.Warn().
			Str("declared", req.Total.String()).
			Str("computed", computed.String()).
			Msg("order total mismatch")
		return model.NewValidationError("Order total does not match items", "total")
	}
	return nil
}

func (s *orderService) ListForUser(ctx context.Context, identity model.Identity) ([]model.Order, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListByUser(ctx, identity.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) ListAll(ctx context.Context, identity model.Identity) ([]model.Order, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list all orders")
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// GetByID hides orders owned by someone else behind ErrOrderNotFound.
func (s *orderService) GetByID(ctx context.Context, identity model.Identity, id uuid.UUID) (*model.Order, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || (order.UserID != identity.UserID && !identity.IsAdmin()) {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// UpdateAdmin applies the non-nil fields of update. Moving an order into
// cancelled returns its stock; moving it out of cancelled reserves it again.
func (s *orderService) UpdateAdmin(ctx context.Context, identity model.Identity, update *model.OrderUpdate) (*model.Order, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	if update == nil || update.OrderID == uuid.Nil {
		return nil, model.NewValidationError("Order id is required", "orderId")
	}
	if update.Status == nil && update.PaymentStatus == nil && update.TrackingNumber == nil {
		return nil, model.NewValidationError("Nothing to update", "status", "paymentStatus", "trackingNumber")
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, model.NewValidationError("Invalid order status", "status")
	}
	if update.PaymentStatus != nil && !update.PaymentStatus.Valid() {
		return nil, model.NewValidationError("Invalid payment status", "paymentStatus")
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	defer rollback(ctx, tx, s.logger)

	order, err := s.orderRepo.GetForUpdate(ctx, tx, update.OrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", update.OrderID.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	previous := order.Status
	if update.Status != nil {
		order.Status = *update.Status
	}
	if update.PaymentStatus != nil {
		order.PaymentStatus = *update.PaymentStatus
	}
	if update.TrackingNumber != nil {
		order.TrackingNumber = update.TrackingNumber
	}
	order.UpdatedAt = time.Now()

	if err = s.adjustStock(ctx, tx, order, previous); err != nil {
		return nil, err
	}

	if err = s.orderRepo.Update(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("from", string(previous)).
		Str("status", string(order.Status)).
		Str("payment_status", string(order.PaymentStatus)).
		Msg("order updated")

	return order, nil
}

func (s *orderService) adjustStock(ctx context.Context, tx pgx.Tx, order *model.Order, previous model.OrderStatus) error {
	cancelling := previous != model.OrderStatusCancelled && order.Status == model.OrderStatusCancelled
	reopening := previous == model.OrderStatusCancelled && order.Status != model.OrderStatusCancelled

	for _, item := range order.Items {
		switch {
		case cancelling:
			if err := s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				s.logger.Error().Err(err).Str("product_id", item.ProductID.String()).Msg("failed to restock")
				return fmt.Errorf("failed to restock: %w", err)
			}
		case reopening:
			ok, err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				s.logger.Error().Err(err).Str("product_id", item.ProductID.String()).Msg("failed to reserve stock")
				return fmt.Errorf("failed to reserve stock: %w", err)
			}
			if !ok {
				return model.ErrInsufficientStock
			}
		}
	}
	return nil
}

// publish emits an order event. Delivery failures are logged, never returned.
func (s *orderService) publish(ctx context.Context, eventType string, order *model.Order) {
	if err := s.publisher.Publish(ctx, model.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Str("event", eventType).Msg("failed to publish order event")
	}
}
