package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addToCart(t *testing.T, repo CartRepository, user model.User, product model.Product, qty int) decimal.Decimal {
	t.Helper()
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	cartID, err := repo.UpsertCart(ctx, tx, &model.Cart{ID: uuid.New(), UserID: user.ID, CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = repo.UpsertItem(ctx, tx, &model.CartItem{
		ID: uuid.New(), CartID: cartID, ProductID: product.ID, Quantity: qty, Price: product.Price,
	})
	require.NoError(t, err)

	total, err := repo.RecalculateTotal(ctx, tx, cartID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	return total
}

func TestCartRepository_UpsertMergesLines(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCartRepository(pool, zerolog.Nop())
	user := seedUser(t, pool, "alice")
	cat := seedCategory(t, pool, "Pottery")
	mug := seedProduct(t, pool, cat.ID, "Mug", "100", 10)

	total := addToCart(t, repo, user, mug, 2)
	assert.True(t, decimal.NewFromInt(200).Equal(total))

	total = addToCart(t, repo, user, mug, 1)
	assert.True(t, decimal.NewFromInt(300).Equal(total))

	cart, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, cart)

	items, err := repo.GetItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Mug", items[0].Product.Name)
}

func TestCartRepository_ConcurrentAddsShareOneCart(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCartRepository(pool, zerolog.Nop())
	user := seedUser(t, pool, "racer")
	cat := seedCategory(t, pool, "Textiles")
	scarf := seedProduct(t, pool, cat.ID, "Scarf", "25", 100)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addToCart(t, repo, user, scarf, 1)
		}()
	}
	wg.Wait()

	var carts int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM carts WHERE user_id = $1`, user.ID).Scan(&carts))
	assert.Equal(t, 1, carts)

	cart, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	items, err := repo.GetItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, workers, items[0].Quantity)
	assert.True(t, decimal.NewFromInt(25*workers).Equal(cart.Total))
}

func TestCartRepository_ItemOwnershipAndDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCartRepository(pool, zerolog.Nop())
	owner := seedUser(t, pool, "owner")
	other := seedUser(t, pool, "other")
	cat := seedCategory(t, pool, "Glass")
	vase := seedProduct(t, pool, cat.ID, "Vase", "40", 5)

	addToCart(t, repo, owner, vase, 1)
	cart, err := repo.GetByUserID(ctx, owner.ID)
	require.NoError(t, err)
	items, err := repo.GetItems(ctx, cart.ID)
	require.NoError(t, err)
	itemID := items[0].ID

	foreign, err := repo.GetItemForUser(ctx, nil, itemID, other.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	mine, err := repo.GetItemForUser(ctx, nil, itemID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, mine)

	require.NoError(t, repo.DeleteByUserID(ctx, owner.ID))
	require.NoError(t, repo.DeleteByUserID(ctx, owner.ID))

	cart, err = repo.GetByUserID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, cart)
}
