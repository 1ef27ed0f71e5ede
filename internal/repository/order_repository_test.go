package repository

import (
	"context"
	"testing"
	"time"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, repo OrderRepository, user model.User, product model.Product, qty int, placed time.Time) *model.Order {
	t.Helper()
	ctx := context.Background()

	order := &model.Order{
		ID:              uuid.New(),
		UserID:          user.ID,
		CustomerName:    user.Username,
		CustomerEmail:   user.Email,
		CustomerPhone:   user.PhoneNum,
		ShippingAddress: "1 Loom St, Jaipur, RJ 302001, India",
		Total:           product.Price.Mul(decimal.NewFromInt(int64(qty))),
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   model.PaymentMethodOnline,
		OrderDate:       placed,
		UpdatedAt:       placed,
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderItems(ctx, tx, []model.OrderItem{{
		ID: uuid.New(), OrderID: order.ID, ProductID: product.ID, Quantity: qty, Price: product.Price,
	}}))
	require.NoError(t, tx.Commit(ctx))
	return order
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())
	user := seedUser(t, pool, "buyer")
	cat := seedCategory(t, pool, "Pottery")
	mug := seedProduct(t, pool, cat.ID, "Mug", "100", 10)

	created := seedOrder(t, repo, user, mug, 2, time.Now())

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.OrderStatusPending, got.Status)
	assert.Equal(t, model.PaymentStatusPending, got.PaymentStatus)
	assert.True(t, decimal.NewFromInt(200).Equal(got.Total))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "Mug", got.Items[0].Product.Name)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepository_ListingsNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())
	alice := seedUser(t, pool, "alice")
	bob := seedUser(t, pool, "bob")
	cat := seedCategory(t, pool, "Candles")
	candle := seedProduct(t, pool, cat.ID, "Candle", "5", 50)

	old := seedOrder(t, repo, alice, candle, 1, time.Now().Add(-time.Hour))
	recent := seedOrder(t, repo, alice, candle, 2, time.Now())
	seedOrder(t, repo, bob, candle, 3, time.Now().Add(-30*time.Minute))

	mine, err := repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, recent.ID, mine[0].ID)
	assert.Equal(t, old.ID, mine[1].ID)
	assert.Nil(t, mine[0].User)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, recent.ID, all[0].ID)
	require.NotNil(t, all[1].User)
	assert.Equal(t, "bob", all[1].User.Username)
	assert.Len(t, all[2].Items, 1)
}

func TestOrderRepository_UpdateAndGatewayLookup(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())
	user := seedUser(t, pool, "payer")
	cat := seedCategory(t, pool, "Textiles")
	rug := seedProduct(t, pool, cat.ID, "Rug", "250", 2)
	order := seedOrder(t, repo, user, rug, 1, time.Now())

	require.NoError(t, repo.SetGatewayOrderID(ctx, order.ID, "order_GW1"))

	byGateway, err := repo.GetByGatewayOrderID(ctx, "order_GW1")
	require.NoError(t, err)
	require.NotNil(t, byGateway)
	assert.Equal(t, order.ID, byGateway.ID)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	locked, err := repo.GetForUpdate(ctx, tx, order.ID)
	require.NoError(t, err)
	paymentID := "pay_1"
	locked.Status = model.OrderStatusProcessing
	locked.PaymentStatus = model.PaymentStatusPaid
	locked.PaymentID = &paymentID
	locked.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(ctx, tx, locked))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, got.Status)
	assert.Equal(t, model.PaymentStatusPaid, got.PaymentStatus)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "pay_1", *got.PaymentID)
	require.NotNil(t, got.GatewayOrderID)
	assert.Equal(t, "order_GW1", *got.GatewayOrderID)
}
