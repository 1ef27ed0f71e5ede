package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"handmade-kart/internal/model"
	"handmade-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type categoryService struct {
	categoryRepo repository.CategoryRepository
	logger       zerolog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(categoryRepo repository.CategoryRepository, logger zerolog.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		logger:       logger.With().Str("service", "category").Logger(),
	}
}

func (s *categoryService) ListActive(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) Create(ctx context.Context, identity model.Identity, req *model.CategoryRequest) (*model.Category, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, model.NewValidationError("Category name is required", "name")
	}

	now := time.Now()
	category := &model.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Image:       req.Image,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("Category already exists")
		}
		s.logger.Error().Err(err).Str("name", category.Name).Msg("failed to create category")
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info().Str("category_id", category.ID.String()).Str("name", category.Name).Msg("category created")
	return category, nil
}

// Update edits the category named by req.ID. Empty fields keep their value.
func (s *categoryService) Update(ctx context.Context, identity model.Identity, req *model.CategoryRequest) (*model.Category, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	if req == nil || req.ID == uuid.Nil {
		return nil, model.NewValidationError("Category id is required", "id")
	}

	category, err := s.categoryRepo.GetByID(ctx, req.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("category_id", req.ID.String()).Msg("failed to get category")
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, model.ErrCategoryNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		category.Name = name
	}
	if req.Description != "" {
		category.Description = req.Description
	}
	if req.Image != "" {
		category.Image = req.Image
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedAt = time.Now()

	found, err := s.categoryRepo.Update(ctx, category)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("Category already exists")
		}
		s.logger.Error().Err(err).Str("category_id", req.ID.String()).Msg("failed to update category")
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	if !found {
		return nil, model.ErrCategoryNotFound
	}
	return category, nil
}

// Delete refuses while products still reference the category.
func (s *categoryService) Delete(ctx context.Context, identity model.Identity, id uuid.UUID) error {
	if err := identity.RequireAdmin(); err != nil {
		return err
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("category_id", id.String()).Msg("failed to get category")
		return fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return model.ErrCategoryNotFound
	}
	if category.ProductCount > 0 {
		return model.NewValidationError(
			fmt.Sprintf("Cannot delete category with %d products", category.ProductCount), "productCount")
	}

	found, err := s.categoryRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("category_id", id.String()).Msg("failed to delete category")
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if !found {
		return model.ErrCategoryNotFound
	}

	s.logger.Info().Str("category_id", id.String()).Msg("category deleted")
	return nil
}
