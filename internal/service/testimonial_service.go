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

// ApprovedTestimonialLimit caps the public testimonial listing.
const ApprovedTestimonialLimit = 20

type testimonialService struct {
	testimonialRepo repository.TestimonialRepository
	productRepo     repository.ProductRepository
	logger          zerolog.Logger
}

// NewTestimonialService creates a new testimonial service.
func NewTestimonialService(
	testimonialRepo repository.TestimonialRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) TestimonialService {
	return &testimonialService{
		testimonialRepo: testimonialRepo,
		productRepo:     productRepo,
		logger:          logger.With().Str("service", "testimonial").Logger(),
	}
}

// Submit stores a pending review. A user may review each product once.
func (s *testimonialService) Submit(ctx context.Context, identity model.Identity, req *model.TestimonialRequest) (*model.Testimonial, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, model.NewValidationError("Testimonial payload is required")
	}

	var fields []string
	if req.ProductID == nil && strings.TrimSpace(req.ProductName) == "" {
		fields = append(fields, "productName")
	}
	if req.Rating < 1 || req.Rating > 5 {
		fields = append(fields, "rating")
	}
	if strings.TrimSpace(req.Comment) == "" {
		fields = append(fields, "comment")
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError("Invalid testimonial fields", fields...)
	}

	product, err := s.resolveProduct(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve reviewed product")
		return nil, fmt.Errorf("failed to submit testimonial: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	exists, err := s.testimonialRepo.Exists(ctx, identity.UserID, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to submit testimonial: %w", err)
	}
	if exists {
		return nil, model.NewConflictError("You have already reviewed this product")
	}

	testimonial := &model.Testimonial{
		ID:          uuid.New(),
		UserID:      identity.UserID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Username:    identity.Username,
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
		Status:      model.TestimonialPending,
		CreatedAt:   time.Now(),
	}

	if err = s.testimonialRepo.Create(ctx, testimonial); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewConflictError("You have already reviewed this product")
		}
		s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to create testimonial")
		return nil, fmt.Errorf("failed to submit testimonial: %w", err)
	}

	s.logger.Info().
		Str("testimonial_id", testimonial.ID.String()).
		Str("product_id", product.ID.String()).
		Int("rating", testimonial.Rating).
		Msg("testimonial submitted")
	return testimonial, nil
}

func (s *testimonialService) resolveProduct(ctx context.Context, req *model.TestimonialRequest) (*model.Product, error) {
	if req.ProductID != nil {
		return s.productRepo.GetByID(ctx, *req.ProductID)
	}
	return s.productRepo.GetByName(ctx, strings.TrimSpace(req.ProductName))
}

// Moderate decides a pending review. Already-moderated reviews yield a conflict.
func (s *testimonialService) Moderate(ctx context.Context, identity model.Identity, id uuid.UUID, status model.TestimonialStatus) (*model.Testimonial, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	if status != model.TestimonialApproved && status != model.TestimonialRejected {
		return nil, model.NewValidationError("Status must be approved or rejected", "status")
	}

	updated, err := s.testimonialRepo.UpdateStatusIfPending(ctx, id, status)
	if err != nil {
		s.logger.Error().Err(err).Str("testimonial_id", id.String()).Msg("failed to moderate testimonial")
		return nil, fmt.Errorf("failed to moderate testimonial: %w", err)
	}

	testimonial, err := s.testimonialRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get testimonial: %w", err)
	}
	if testimonial == nil {
		return nil, model.ErrTestimonialNotFound
	}
	if !updated {
		return nil, model.NewConflictError("Testimonial has already been moderated")
	}

	s.logger.Info().Str("testimonial_id", id.String()).Str("status", string(status)).Msg("testimonial moderated")
	return testimonial, nil
}

// ListApproved returns at most ApprovedTestimonialLimit approved reviews.
func (s *testimonialService) ListApproved(ctx context.Context, filter model.TestimonialFilter) ([]model.Testimonial, error) {
	filter.Status = model.TestimonialApproved
	if filter.Limit <= 0 || filter.Limit > ApprovedTestimonialLimit {
		filter.Limit = ApprovedTestimonialLimit
	}
	testimonials, err := s.testimonialRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list approved testimonials")
		return nil, fmt.Errorf("failed to get testimonials: %w", err)
	}
	return testimonials, nil
}

// ListForModeration defaults to the pending queue.
func (s *testimonialService) ListForModeration(ctx context.Context, identity model.Identity, status model.TestimonialStatus) ([]model.Testimonial, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}
	if status == "" {
		status = model.TestimonialPending
	}
	if !status.Valid() {
		return nil, model.NewValidationError("Invalid testimonial status", "status")
	}
	testimonials, err := s.testimonialRepo.List(ctx, model.TestimonialFilter{Status: status})
	if err != nil {
		s.logger.Error().Err(err).Str("status", string(status)).Msg("failed to list testimonials")
		return nil, fmt.Errorf("failed to get testimonials: %w", err)
	}
	return testimonials, nil
}
