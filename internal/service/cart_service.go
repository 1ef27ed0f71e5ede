package service

import (
	"context"
	"fmt"
	"time"

	"handmade-kart/internal/model"
	"handmade-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// AddItem merges quantity into the user's cart, creating the cart on first use.
// Stock is checked against the requested quantity; it is reserved only when an
// order is placed.
func (s *cartService) AddItem(ctx context.Context, identity model.Identity, req *model.AddToCartRequest) (*model.AddedCartItem, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	if req == nil || req.ProductID == uuid.Nil {
		return nil, model.NewValidationError("Product id is required", "productId")
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	if quantity > product.Stock {
		s.logger.Warn().
			Str("product_id", product.ID.String()).
			Int("requested", quantity).
			Int("stock", product.Stock).
			Msg("insufficient stock for cart add")
		return nil, model.ErrInsufficientStock
	}

	tx, err := s.cartRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}
	defer rollback(ctx, tx, s.logger)

	now := time.Now()
	cartID, err := s.cartRepo.UpsertCart(ctx, tx, &model.Cart{
		ID:            uuid.New(),
		UserID:        identity.UserID,
		CustomerName:  identity.Username,
		CustomerEmail: identity.Email,
		Total:         decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID.String()).Msg("failed to upsert cart")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	item, err := s.cartRepo.UpsertItem(ctx, tx, &model.CartItem{
		ID:        uuid.New(),
		CartID:    cartID,
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.Price,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to upsert cart item")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	if _, err = s.cartRepo.RecalculateTotal(ctx, tx, cartID); err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to recalculate cart total")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	s.logger.Debug().
		Str("cart_id", cartID.String()).
		Str("product_id", product.ID.String()).
		Int("quantity", item.Quantity).
		Msg("item added to cart")

	return &model.AddedCartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  item.Quantity,
		Price:     item.Price,
	}, nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int) (*model.CartView, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	return s.mutateItem(ctx, identity, itemID, quantity)
}

func (s *cartService) RemoveItem(ctx context.Context, identity model.Identity, itemID uuid.UUID) (*model.CartView, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	return s.mutateItem(ctx, identity, itemID, 0)
}

// mutateItem sets the line's quantity, deleting it at zero, and returns the refreshed cart.
func (s *cartService) mutateItem(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int) (*model.CartView, error) {
	tx, err := s.cartRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	defer rollback(ctx, tx, s.logger)

	item, err := s.cartRepo.GetItemForUser(ctx, tx, itemID, identity.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to get cart item")
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	if item == nil {
		return nil, model.ErrCartItemNotFound
	}

	if quantity <= 0 {
		err = s.cartRepo.DeleteItem(ctx, tx, itemID)
	} else {
		if quantity > item.Quantity {
			if err = s.checkStock(ctx, item.ProductID, quantity); err != nil {
				return nil, err
			}
		}
		err = s.cartRepo.UpdateItemQuantity(ctx, tx, itemID, quantity)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to modify cart item")
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}

	if _, err = s.cartRepo.RecalculateTotal(ctx, tx, item.CartID); err != nil {
		s.logger.Error().Err(err).Str("cart_id", item.CartID.String()).Msg("failed to recalculate cart total")
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}

	return s.GetCart(ctx, identity)
}

func (s *cartService) checkStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return model.ErrProductNotFound
	}
	if quantity > product.Stock {
		return model.ErrInsufficientStock
	}
	return nil
}

// GetCart returns the user's cart. A user without one gets an empty view.
func (s *cartService) GetCart(ctx context.Context, identity model.Identity) (*model.CartView, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetByUserID(ctx, identity.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID.String()).Msg("failed to get cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return &model.CartView{Items: []model.CartItem{}, Total: decimal.Zero}, nil
	}

	items, err := s.cartRepo.GetItems(ctx, cart.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to get cart items")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	return &model.CartView{
		ID:        &cart.ID,
		Items:     items,
		Total:     cart.Total,
		ItemCount: count,
	}, nil
}

func (s *cartService) ClearCart(ctx context.Context, identity model.Identity) error {
	if err := identity.RequireUser(); err != nil {
		return err
	}
	if err := s.cartRepo.DeleteByUserID(ctx, identity.UserID); err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
