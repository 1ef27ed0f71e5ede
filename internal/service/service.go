package service

import (
	"context"
	"errors"
	"time"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Every operation takes the caller's Identity explicitly. Business failures are
// returned as *model.DomainError; anything else is an infrastructure error.

// ProductService defines operations for product management.
type ProductService interface {
	// List retrieves products with pagination and filters.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetBySlug retrieves a single product by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// Create adds a product to the catalogue. Admin only.
	Create(ctx context.Context, identity model.Identity, req *model.ProductRequest) (*model.Product, error)

	// Update replaces a product's fields. Admin only.
	Update(ctx context.Context, identity model.Identity, id uuid.UUID, req *model.ProductRequest) (*model.Product, error)

	// Delete removes a product. Admin only.
	Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error
}

// CategoryService defines operations for category management.
type CategoryService interface {
	// ListActive retrieves active categories with product counts.
	ListActive(ctx context.Context) ([]model.Category, error)

	// Create adds a category. Admin only.
	Create(ctx context.Context, identity model.Identity, req *model.CategoryRequest) (*model.Category, error)

	// Update renames or edits a category. Admin only.
	Update(ctx context.Context, identity model.Identity, req *model.CategoryRequest) (*model.Category, error)

	// Delete removes an empty category. Admin only.
	Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error
}

// CartService manages a user's shopping cart.
type CartService interface {
	// AddItem adds quantity of a product, merging with an existing line.
	AddItem(ctx context.Context, identity model.Identity, req *model.AddToCartRequest) (*model.AddedCartItem, error)

	// UpdateItemQuantity sets a line's quantity; zero or less removes it.
	UpdateItemQuantity(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int) (*model.CartView, error)

	// RemoveItem deletes a line.
	RemoveItem(ctx context.Context, identity model.Identity, itemID uuid.UUID) (*model.CartView, error)

	// GetCart returns the user's cart, empty if none exists.
	GetCart(ctx context.Context, identity model.Identity) (*model.CartView, error)

	// ClearCart deletes the cart and all its lines.
	ClearCart(ctx context.Context, identity model.Identity) error
}

// OrderService defines operations for order management.
type OrderService interface {
	// PlaceOrder snapshots checkout lines into a new pending order and reserves stock.
	PlaceOrder(ctx context.Context, identity model.Identity, req *model.OrderRequest) (*model.Order, error)

	// ListForUser retrieves the caller's orders newest-first.
	ListForUser(ctx context.Context, identity model.Identity) ([]model.Order, error)

	// ListAll retrieves every order newest-first. Admin only.
	ListAll(ctx context.Context, identity model.Identity) ([]model.Order, error)

	// GetByID retrieves an order visible to the caller.
	GetByID(ctx context.Context, identity model.Identity, id uuid.UUID) (*model.Order, error)

	// UpdateAdmin applies a partial status update. Admin only.
	UpdateAdmin(ctx context.Context, identity model.Identity, update *model.OrderUpdate) (*model.Order, error)
}

// PaymentService reconciles gateway payments with orders.
type PaymentService interface {
	// CreateIntent registers a gateway order for one of the caller's pending orders.
	CreateIntent(ctx context.Context, identity model.Identity, req *model.CreatePaymentRequest) (*model.PaymentIntent, error)

	// Verify checks the gateway signature and marks the order paid.
	Verify(ctx context.Context, identity model.Identity, req *model.VerifyPaymentRequest) (*model.VerifyPaymentResponse, error)

	// UpdatePayment applies a client-driven payment status change.
	UpdatePayment(ctx context.Context, identity model.Identity, orderID uuid.UUID, req *model.PaymentUpdateRequest) (*model.Order, error)

	// ReconcilePending applies verified payments whose order update failed earlier.
	ReconcilePending(ctx context.Context) (int, error)
}

// TestimonialService manages product reviews.
type TestimonialService interface {
	// Submit records a pending review.
	Submit(ctx context.Context, identity model.Identity, req *model.TestimonialRequest) (*model.Testimonial, error)

	// Moderate approves or rejects a pending review. Admin only.
	Moderate(ctx context.Context, identity model.Identity, id uuid.UUID, status model.TestimonialStatus) (*model.Testimonial, error)

	// ListApproved retrieves the newest approved reviews.
	ListApproved(ctx context.Context, filter model.TestimonialFilter) ([]model.Testimonial, error)

	// ListForModeration retrieves reviews by status. Admin only.
	ListForModeration(ctx context.Context, identity model.Identity, status model.TestimonialStatus) ([]model.Testimonial, error)
}

// UserService manages accounts.
type UserService interface {
	// Register creates an unverified account and emails a verification link.
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)

	// VerifyEmail consumes a verification token.
	VerifyEmail(ctx context.Context, token string) error

	// Login checks credentials and issues a bearer token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)

	// EnsureAdmin creates or promotes a verified admin account.
	EnsureAdmin(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
}

// AdminService provides the dashboard rollup.
type AdminService interface {
	// Stats returns sales and inventory aggregates. Admin only.
	Stats(ctx context.Context, identity model.Identity) (*model.AdminStats, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenIssuer signs bearer tokens for an identity.
type TokenIssuer interface {
	Sign(identity model.Identity) (string, time.Time, error)
}

// LatencySource reports request latency percentiles.
type LatencySource interface {
	Snapshot() model.LatencySnapshot
}

// rollback is deferred after BeginTx. Once the transaction has committed it is a no-op.
func rollback(ctx context.Context, tx pgx.Tx, logger zerolog.Logger) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.Error().Err(err).Msg("failed to rollback transaction")
	}
}
