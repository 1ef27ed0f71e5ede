package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"handmade-kart/internal/database"
	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedUser inserts a verified user and returns it.
func seedUser(t *testing.T, pool *pgxpool.Pool, name string) model.User {
	t.Helper()
	u := model.User{
		ID:           uuid.New(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		PhoneNum:     fmt.Sprintf("%010d", time.Now().UnixNano()%10_000_000_000),
		Role:         model.RoleUser,
		IsVerified:   true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, NewUserRepository(pool, zerolog.Nop()).Create(context.Background(), &u))
	return u
}

// seedCategory inserts an active category and returns it.
func seedCategory(t *testing.T, pool *pgxpool.Pool, name string) model.Category {
	t.Helper()
	now := time.Now()
	c := model.Category{ID: uuid.New(), Name: name, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewCategoryRepository(pool, zerolog.Nop()).Create(context.Background(), &c))
	return c
}

// seedProduct inserts a product in category and returns it.
func seedProduct(t *testing.T, pool *pgxpool.Pool, categoryID uuid.UUID, name string, price string, stock int) model.Product {
	t.Helper()
	now := time.Now()
	p := model.Product{
		ID:         uuid.New(),
		Name:       name,
		Slug:       model.Slugify(name),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		Images:     []string{"https://img.example.com/" + model.Slugify(name) + ".jpg"},
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, NewProductRepository(pool, zerolog.Nop()).Create(context.Background(), &p))
	return p
}

func TestTranslateError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err := translateError(fmt.Errorf("insert: %w", dup))

	var dupErr *DuplicateError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "users_email_key", dupErr.Constraint)
	assert.True(t, errors.Is(err, ErrDuplicate))

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other))

	fk := &pgconn.PgError{Code: "23503"}
	assert.False(t, errors.Is(translateError(fk), ErrDuplicate))
}

func TestMigrate_Idempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	// setupTestDB already applied the schema once
	require.NoError(t, database.Migrate(context.Background(), pool, zerolog.Nop()))
}

func TestBeginTx_RollbackDiscardsWrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewCartRepository(pool, zerolog.Nop())
	user := seedUser(t, pool, "rollback")

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	_, err = repo.UpsertCart(ctx, tx, &model.Cart{ID: uuid.New(), UserID: user.ID, CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	cart, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, cart)
}
