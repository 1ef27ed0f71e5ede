package repository

import (
	"context"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Reads return (nil, nil) when the record does not exist. Methods taking a
// pgx.Tx accept nil to run directly on the pool.

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List retrieves products newest-first with pagination and optional filters.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetBySlug retrieves a single product by its slug.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// GetByName retrieves the newest product with the given name.
	GetByName(ctx context.Context, name string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// Create inserts a product.
	Create(ctx context.Context, product *model.Product) error

	// Update overwrites the mutable fields of a product. Returns false if absent.
	Update(ctx context.Context, product *model.Product) (bool, error)

	// Delete removes a product. Returns false if absent.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// UpsertBySlug inserts a product or updates the one sharing its slug.
	UpsertBySlug(ctx context.Context, product *model.Product) error

	// DecrementStock removes quantity from stock only if enough remains.
	// Returns false when the product is missing or stock is short.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (bool, error)

	// IncrementStock returns quantity to stock.
	IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	// ListActive retrieves active categories with their product counts.
	ListActive(ctx context.Context) ([]model.Category, error)

	// GetByID retrieves a category with its product count.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)

	// GetByName retrieves a category by its unique name.
	GetByName(ctx context.Context, name string) (*model.Category, error)

	// Create inserts a category.
	Create(ctx context.Context, category *model.Category) error

	// Update overwrites the mutable fields of a category. Returns false if absent.
	Update(ctx context.Context, category *model.Category) (bool, error)

	// Delete removes a category. Returns false if absent.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// UpsertByName inserts a category or updates the one sharing its name and returns its ID.
	UpsertByName(ctx context.Context, category *model.Category) (uuid.UUID, error)
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// UpsertCart returns the ID of the user's cart, creating it if needed.
	UpsertCart(ctx context.Context, tx pgx.Tx, cart *model.Cart) (uuid.UUID, error)

	// UpsertItem adds quantity to the cart's line for the product, inserting it if
	// absent, and re-snapshots the price.
	UpsertItem(ctx context.Context, tx pgx.Tx, item *model.CartItem) (*model.CartItem, error)

	// RecalculateTotal stores and returns the sum of price times quantity over the cart.
	RecalculateTotal(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (decimal.Decimal, error)

	// GetByUserID retrieves the user's cart.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)

	// GetItems retrieves the cart's lines with product summaries.
	GetItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error)

	// GetItemForUser retrieves and locks a line belonging to the user's cart.
	GetItemForUser(ctx context.Context, tx pgx.Tx, itemID, userID uuid.UUID) (*model.CartItem, error)

	// UpdateItemQuantity sets a line's quantity.
	UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error

	// DeleteItem removes a line.
	DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error

	// DeleteByUserID removes the user's cart and its lines.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetForUpdate retrieves and row-locks an order with its items.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// GetByGatewayOrderID retrieves the order whose latest gateway intent is gatewayOrderID.
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error)

	// ListByUser retrieves a user's orders newest-first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// ListAll retrieves every order newest-first with the ordering user.
	ListAll(ctx context.Context) ([]model.Order, error)

	// Update writes status, payment and tracking fields.
	Update(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// SetGatewayOrderID records the gateway intent for an order.
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
}

// PaymentRepository stores verified gateway payment confirmations.
type PaymentRepository interface {
	// RecordIntent stores the order a gateway intent was created for.
	RecordIntent(ctx context.Context, intent *model.PaymentIntent) error

	// GetIntentOrderID returns the order behind a gateway intent, or nil if the intent is unknown.
	GetIntentOrderID(ctx context.Context, gatewayOrderID string) (*uuid.UUID, error)

	// Record inserts a confirmation, returning the existing one for a repeated payment.
	Record(ctx context.Context, confirmation *model.PaymentConfirmation) (*model.PaymentConfirmation, error)

	// Get retrieves the confirmation for a gateway order and payment.
	Get(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*model.PaymentConfirmation, error)

	// MarkApplied flags a confirmation as reflected on its order.
	MarkApplied(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// RecordFailure increments attempts and stores the last error.
	RecordFailure(ctx context.Context, id uuid.UUID, reason string) error

	// ListPending retrieves confirmations not yet applied, least-attempted first.
	ListPending(ctx context.Context, limit int) ([]model.PaymentConfirmation, error)
}

// TestimonialRepository defines the interface for testimonial data access operations.
type TestimonialRepository interface {
	// Create inserts a testimonial. A repeated (user, product) pair yields ErrDuplicate.
	Create(ctx context.Context, testimonial *model.Testimonial) error

	// Exists reports whether the user already reviewed the product.
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)

	// GetByID retrieves a testimonial with author and product names.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Testimonial, error)

	// UpdateStatusIfPending moderates a pending testimonial. Returns false otherwise.
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status model.TestimonialStatus) (bool, error)

	// List retrieves testimonials newest-first.
	List(ctx context.Context, filter model.TestimonialFilter) ([]model.Testimonial, error)
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Create inserts a user. Unique violations yield a DuplicateError.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// FindConflict returns the first of "email", "username" or "phoneNum" already taken.
	FindConflict(ctx context.Context, email, username, phone string) (string, error)

	// GetByVerificationToken retrieves the user holding a verification token.
	GetByVerificationToken(ctx context.Context, token string) (*model.User, error)

	// MarkVerified sets the user verified and clears the token.
	MarkVerified(ctx context.Context, id uuid.UUID) error

	// SetRole changes a user's role.
	SetRole(ctx context.Context, id uuid.UUID, role model.Role) error

	// Delete removes a user.
	Delete(ctx context.Context, id uuid.UUID) error
}

// StatsRepository provides the admin dashboard aggregates.
type StatsRepository interface {
	// TotalSales sums the totals of orders that were not cancelled.
	TotalSales(ctx context.Context) (decimal.Decimal, error)

	// CountProducts counts catalogue products.
	CountProducts(ctx context.Context) (int, error)

	// CountOrders counts placed orders.
	CountOrders(ctx context.Context) (int, error)

	// CountUsers counts registered users.
	CountUsers(ctx context.Context) (int, error)

	// CountLowStock counts products with stock at or below threshold.
	CountLowStock(ctx context.Context, threshold int) (int, error)

	// RecentOrders retrieves the newest orders with the ordering user.
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)
}
