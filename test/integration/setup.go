package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"handmade-kart/internal/auth"
	"handmade-kart/internal/cache"
	"handmade-kart/internal/database"
	"handmade-kart/internal/events"
	"handmade-kart/internal/handler"
	"handmade-kart/internal/metrics"
	"handmade-kart/internal/model"
	"handmade-kart/internal/notify"
	"handmade-kart/internal/repository"
	"handmade-kart/internal/router"
	"handmade-kart/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testKeySecret = "rzp_test_secret"
	testPublicURL = "http://shop.test"
)

// TestDB represents a migrated test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}
	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all rows from the application tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE testimonials, payment_confirmations, payment_intents, order_items, orders,
			cart_items, carts, products, categories, users CASCADE`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// inbox collects the emails the application sends.
type inbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (b *inbox) Send(ctx context.Context, msg notify.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, msg)
	return nil
}

// verificationToken returns the token from the last verification email sent to email.
func (b *inbox) verificationToken(t *testing.T, email string) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.sent) - 1; i >= 0; i-- {
		msg := b.sent[i]
		if msg.To != email || msg.Template != notify.TemplateVerification {
			continue
		}
		data, ok := msg.Data.(map[string]string)
		require.True(t, ok, "verification email data")
		link, err := url.Parse(data["Link"])
		require.NoError(t, err)
		return link.Query().Get("token")
	}
	t.Fatalf("no verification email sent to %s", email)
	return ""
}

// fakeGateway issues sequential gateway order IDs without network access.
type fakeGateway struct {
	calls atomic.Int32
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	n := g.calls.Add(1)
	return fmt.Sprintf("order_test_%d", n), nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

// recordingPublisher keeps published order events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var _ events.Publisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// TestApp is the fully wired HTTP API backed by the container database.
type TestApp struct {
	Handler   http.Handler
	Pool      *pgxpool.Pool
	Inbox     *inbox
	Gateway   *fakeGateway
	Publisher *recordingPublisher
	Users     service.UserService
}

// NewTestApp wires repositories, services and handlers the way cmd/api does.
func NewTestApp(t *testing.T, db *TestDB) *TestApp {
	t.Helper()

	logger := zerolog.Nop()
	pool := db.Pool

	productRepo := repository.NewProductRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	testimonialRepo := repository.NewTestimonialRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	statsRepo := repository.NewStatsRepository(pool, logger)

	mailbox := &inbox{}
	gateway := &fakeGateway{}
	publisher := &recordingPublisher{}

	latency := metrics.NewLatencyRecorder()
	tokens := auth.NewTokenProvider("integration-secret", "handmade-kart", time.Hour)

	productService := service.NewProductService(productRepo, categoryRepo, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, publisher, logger)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, gateway, cache.Noop{}, publisher, service.PaymentOptions{
		KeySecret:     testKeySecret,
		Currency:      "INR",
		UpdateRetries: 1,
	}, logger)
	testimonialService := service.NewTestimonialService(testimonialRepo, productRepo, logger)
	userService := service.NewUserService(userRepo, auth.NewPasswordHasher(4), tokens, mailbox, testPublicURL, logger)
	adminService := service.NewAdminService(statsRepo, cache.Noop{}, latency, logger)

	h := router.New(router.Handlers{
		Product:     handler.NewProductHandler(productService, categoryService, logger),
		Cart:        handler.NewCartHandler(cartService, logger),
		Order:       handler.NewOrderHandler(orderService, paymentService, logger),
		Payment:     handler.NewPaymentHandler(paymentService, logger),
		Testimonial: handler.NewTestimonialHandler(testimonialService, logger),
		User:        handler.NewUserHandler(userService, logger),
		Admin:       handler.NewAdminHandler(adminService, logger),
		Health:      handler.Health(pool, logger),
	}, tokens, latency, logger)

	return &TestApp{
		Handler:   h,
		Pool:      pool,
		Inbox:     mailbox,
		Gateway:   gateway,
		Publisher: publisher,
		Users:     userService,
	}
}

// Do sends a request through the router. body is JSON-encoded unless nil.
func (a *TestApp) Do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body into T.
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

var phoneSeq atomic.Int64

// SignUp registers, verifies and logs in a customer through the API and returns its token.
func (a *TestApp) SignUp(t *testing.T, username string) string {
	t.Helper()

	email := strings.ToLower(username) + "@example.com"
	w := a.Do(t, http.MethodPost, "/api/users", "", model.RegisterRequest{
		Username: username,
		Email:    email,
		Password: "handmade-pass",
		PhoneNum: fmt.Sprintf("98%08d", phoneSeq.Add(1)),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.Do(t, http.MethodGet, "/api/verify?token="+a.Inbox.verificationToken(t, email), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return a.login(t, email, "handmade-pass")
}

// AdminToken bootstraps an admin account and returns its token.
func (a *TestApp) AdminToken(t *testing.T) string {
	t.Helper()

	_, err := a.Users.EnsureAdmin(context.Background(), &model.RegisterRequest{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "admin-pass-123",
		PhoneNum: "9000000000",
	})
	require.NoError(t, err)
	return a.login(t, "admin@example.com", "admin-pass-123")
}

func (a *TestApp) login(t *testing.T, email, password string) string {
	t.Helper()
	w := a.Do(t, http.MethodPost, "/api/auth/login", "", model.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.LoginResponse](t, w).Token
}
