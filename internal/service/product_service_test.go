package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"handmade-kart/internal/model"
	"handmade-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	customer = model.Identity{UserID: uuid.New(), Role: model.RoleUser, Username: "asha", Email: "asha@example.com"}
	admin    = model.Identity{UserID: uuid.New(), Role: model.RoleAdmin, Username: "root", Email: "root@example.com"}
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByName(ctx context.Context, name string) (*model.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) (bool, error) {
	args := m.Called(ctx, product)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) UpsertBySlug(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (bool, error) {
	args := m.Called(ctx, tx, id, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	args := m.Called(ctx, tx, id, quantity)
	return args.Error(0)
}

// MockCategoryRepository is a mock implementation of CategoryRepository.
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ListActive(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByName(ctx context.Context, name string) (*model.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *model.Category) (bool, error) {
	args := m.Called(ctx, category)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) UpsertByName(ctx context.Context, category *model.Category) (uuid.UUID, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func TestProductService_List(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	testProducts := []model.Product{
		{ID: uuid.New(), Name: "Clay Mug", Price: decimal.NewFromInt(10), CreatedAt: time.Now()},
		{ID: uuid.New(), Name: "Woven Scarf", Price: decimal.NewFromInt(20), CreatedAt: time.Now()},
	}

	tests := []struct {
		name           string
		filter         model.ProductFilter
		expectedFilter model.ProductFilter
		mockReturn     []model.Product
		mockError      error
		expectError    bool
	}{
		{
			name:           "Success with valid pagination",
			filter:         model.ProductFilter{Limit: 10},
			expectedFilter: model.ProductFilter{Limit: 10},
			mockReturn:     testProducts,
		},
		{
			name:           "Zero limit defaults to 10",
			filter:         model.ProductFilter{},
			expectedFilter: model.ProductFilter{Limit: 10},
			mockReturn:     testProducts,
		},
		{
			name:           "Limit exceeding max caps at 100",
			filter:         model.ProductFilter{Limit: 200},
			expectedFilter: model.ProductFilter{Limit: 100},
			mockReturn:     testProducts,
		},
		{
			name:           "Negative offset defaults to 0",
			filter:         model.ProductFilter{Limit: 10, Offset: -10},
			expectedFilter: model.ProductFilter{Limit: 10},
			mockReturn:     testProducts,
		},
		{
			name:           "Repository error",
			filter:         model.ProductFilter{Limit: 10},
			expectedFilter: model.ProductFilter{Limit: 10},
			mockError:      errors.New("database error"),
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, new(MockCategoryRepository), logger)

			mockRepo.On("List", ctx, tt.expectedFilter).Return(tt.mockReturn, tt.mockError)

			products, err := service.List(ctx, tt.filter)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, products)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, products)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_GetByID(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	testProduct := &model.Product{ID: uuid.New(), Name: "Clay Mug", Price: decimal.NewFromInt(10)}

	tests := []struct {
		name        string
		productID   uuid.UUID
		mockReturn  *model.Product
		mockError   error
		expectedErr error
	}{
		{name: "Success", productID: testProduct.ID, mockReturn: testProduct},
		{name: "Product not found", productID: uuid.New(), expectedErr: model.ErrProductNotFound},
		{name: "Nil product ID", productID: uuid.Nil, expectedErr: model.ErrProductNotFound},
		{name: "Repository error", productID: testProduct.ID, mockError: errors.New("database error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(mockRepo, new(MockCategoryRepository), logger)

			if tt.productID != uuid.Nil {
				mockRepo.On("GetByID", ctx, tt.productID).Return(tt.mockReturn, tt.mockError)
			}

			product, err := service.GetByID(ctx, tt.productID)

			switch {
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, product)
			case tt.mockError != nil:
				require.Error(t, err)
				assert.Nil(t, product)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.mockReturn, product)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_GetBySlug(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := NewProductService(mockRepo, new(MockCategoryRepository), zerolog.Nop())

	mug := &model.Product{ID: uuid.New(), Name: "Clay Mug", Slug: "clay-mug"}
	mockRepo.On("GetBySlug", ctx, "clay-mug").Return(mug, nil)
	mockRepo.On("GetBySlug", ctx, "glass-vase").Return(nil, nil)

	product, err := service.GetBySlug(ctx, " Clay-Mug ")
	require.NoError(t, err)
	assert.Equal(t, mug, product)

	_, err = service.GetBySlug(ctx, "glass-vase")
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	_, err = service.GetBySlug(ctx, "  ")
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	mockRepo.AssertExpectations(t)
}

func TestProductService_Create(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	category := &model.Category{ID: uuid.New(), Name: "Pottery", IsActive: true}

	validRequest := func() *model.ProductRequest {
		return &model.ProductRequest{
			Name:       "  Hand Thrown Mug ",
			Price:      decimal.RequireFromString("450.00"),
			Stock:      12,
			CategoryID: category.ID,
		}
	}

	t.Run("Success slugifies and defaults collections", func(t *testing.T) {
		products := new(MockProductRepository)
		categories := new(MockCategoryRepository)
		service := NewProductService(products, categories, logger)

		categories.On("GetByID", ctx, category.ID).Return(category, nil)
		products.On("Create", ctx, mock.MatchedBy(func(p *model.Product) bool {
			return p.Name == "Hand Thrown Mug" && p.Slug == "hand-thrown-mug" &&
				p.Images != nil && p.Tags != nil && p.ID != uuid.Nil
		})).Return(nil)

		product, err := service.Create(ctx, admin, validRequest())
		require.NoError(t, err)
		assert.Equal(t, "hand-thrown-mug", product.Slug)

		products.AssertExpectations(t)
		categories.AssertExpectations(t)
	})

	t.Run("Requires admin", func(t *testing.T) {
		service := NewProductService(new(MockProductRepository), new(MockCategoryRepository), logger)

		_, err := service.Create(ctx, customer, validRequest())
		assert.ErrorIs(t, err, model.ErrForbidden)

		_, err = service.Create(ctx, model.Identity{}, validRequest())
		assert.ErrorIs(t, err, model.ErrUnauthorised)
	})

	t.Run("Invalid fields are reported together", func(t *testing.T) {
		service := NewProductService(new(MockProductRepository), new(MockCategoryRepository), logger)

		req := &model.ProductRequest{Name: "!!!", Price: decimal.NewFromInt(-1), Discount: 120, Stock: -1}
		_, err := service.Create(ctx, admin, req)

		var domainErr *model.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, model.ErrCodeValidation, domainErr.Code)
		assert.Equal(t, []string{"name", "price", "discount", "stock", "categoryId"}, domainErr.Fields)
	})

	t.Run("Unknown category", func(t *testing.T) {
		categories := new(MockCategoryRepository)
		service := NewProductService(new(MockProductRepository), categories, logger)
		categories.On("GetByID", ctx, category.ID).Return(nil, nil)

		_, err := service.Create(ctx, admin, validRequest())
		assert.ErrorIs(t, err, model.ErrCategoryNotFound)
	})

	t.Run("Duplicate slug is a conflict", func(t *testing.T) {
		products := new(MockProductRepository)
		categories := new(MockCategoryRepository)
		service := NewProductService(products, categories, logger)

		categories.On("GetByID", ctx, category.ID).Return(category, nil)
		products.On("Create", ctx, mock.Anything).Return(&repository.DuplicateError{Constraint: "products_slug_key"})

		_, err := service.Create(ctx, admin, validRequest())
		var domainErr *model.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, model.ErrCodeConflict, domainErr.Code)
	})
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	category := &model.Category{ID: uuid.New(), Name: "Textiles"}
	existing := &model.Product{ID: uuid.New(), Name: "Scarf", Slug: "scarf", CategoryID: category.ID, Stock: 3}

	products := new(MockProductRepository)
	categories := new(MockCategoryRepository)
	service := NewProductService(products, categories, logger)

	categories.On("GetByID", ctx, category.ID).Return(category, nil)
	products.On("GetByID", ctx, existing.ID).Return(existing, nil)
	products.On("Update", ctx, mock.AnythingOfType("*model.Product")).Return(true, nil)

	updated, err := service.Update(ctx, admin, existing.ID, &model.ProductRequest{
		Name: "Indigo Scarf", Price: decimal.NewFromInt(900), Stock: 7, CategoryID: category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "indigo-scarf", updated.Slug)
	assert.Equal(t, 7, updated.Stock)

	missing := uuid.New()
	products.On("Delete", ctx, existing.ID).Return(true, nil)
	products.On("Delete", ctx, missing).Return(false, nil)

	require.NoError(t, service.Delete(ctx, admin, existing.ID))
	assert.ErrorIs(t, service.Delete(ctx, admin, missing), model.ErrProductNotFound)
	assert.ErrorIs(t, service.Delete(ctx, customer, existing.ID), model.ErrForbidden)

	products.AssertExpectations(t)
}

func TestCategoryService(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("Create defaults to active", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, logger)
		repo.On("Create", ctx, mock.MatchedBy(func(c *model.Category) bool {
			return c.Name == "Pottery" && c.IsActive
		})).Return(nil)

		created, err := service.Create(ctx, admin, &model.CategoryRequest{Name: " Pottery "})
		require.NoError(t, err)
		assert.True(t, created.IsActive)
		repo.AssertExpectations(t)
	})

	t.Run("Create requires a name", func(t *testing.T) {
		service := NewCategoryService(new(MockCategoryRepository), logger)
		_, err := service.Create(ctx, admin, &model.CategoryRequest{})
		var domainErr *model.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, []string{"name"}, domainErr.Fields)
	})

	t.Run("Update keeps empty fields", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, logger)
		existing := &model.Category{ID: uuid.New(), Name: "Glass", Description: "blown", IsActive: true}
		inactive := false

		repo.On("GetByID", ctx, existing.ID).Return(existing, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*model.Category")).Return(true, nil)

		updated, err := service.Update(ctx, admin, &model.CategoryRequest{ID: existing.ID, IsActive: &inactive})
		require.NoError(t, err)
		assert.Equal(t, "Glass", updated.Name)
		assert.Equal(t, "blown", updated.Description)
		assert.False(t, updated.IsActive)
	})

	t.Run("Delete is blocked while products remain", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := NewCategoryService(repo, logger)
		busy := &model.Category{ID: uuid.New(), Name: "Woodwork", ProductCount: 3}
		empty := &model.Category{ID: uuid.New(), Name: "Candles"}

		repo.On("GetByID", ctx, busy.ID).Return(busy, nil)
		repo.On("GetByID", ctx, empty.ID).Return(empty, nil)
		repo.On("Delete", ctx, empty.ID).Return(true, nil)

		err := service.Delete(ctx, admin, busy.ID)
		var domainErr *model.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, model.ErrCodeValidation, domainErr.Code)
		assert.Contains(t, domainErr.Message, "3 products")

		require.NoError(t, service.Delete(ctx, admin, empty.ID))
		repo.AssertNotCalled(t, "Delete", ctx, busy.ID)
	})
}
