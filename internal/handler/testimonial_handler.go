package handler

import (
	"net/http"
	"strings"

	"handmade-kart/internal/model"
	"handmade-kart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TestimonialHandler handles review submission, listing and moderation.
type TestimonialHandler struct {
	service service.TestimonialService
	logger  zerolog.Logger
}

// NewTestimonialHandler creates a new testimonial handler.
func NewTestimonialHandler(service service.TestimonialService, logger zerolog.Logger) *TestimonialHandler {
	return &TestimonialHandler{
		service: service,
		logger:  logger.With().Str("handler", "testimonial").Logger(),
	}
}

// Submit handles POST /api/testimonials requests.
func (h *TestimonialHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.TestimonialRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	testimonial, err := h.service.Submit(r.Context(), identityOf(r), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, testimonial)
}

// ListApproved handles GET /api/testimonials?productName=&productId= requests.
func (h *TestimonialHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := model.TestimonialFilter{ProductName: strings.TrimSpace(query.Get("productName"))}

	if productStr := query.Get("productId"); productStr != "" {
		productID, err := uuid.Parse(productStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "Invalid productId parameter", h.logger)
			return
		}
		filter.ProductID = &productID
	}

	testimonials, err := h.service.ListApproved(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, testimonials)
}

// ListForModeration handles GET /api/admin/testimonials?status= requests.
func (h *TestimonialHandler) ListForModeration(w http.ResponseWriter, r *http.Request) {
	status := model.TestimonialStatus(r.URL.Query().Get("status"))

	testimonials, err := h.service.ListForModeration(r.Context(), identityOf(r), status)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, testimonials)
}

// Moderate handles PATCH /api/admin/testimonials/{id} requests.
func (h *TestimonialHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	testimonialID, ok := pathID(w, r, "testimonial", h.logger)
	if !ok {
		return
	}

	var req model.ModerationRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	testimonial, err := h.service.Moderate(r.Context(), identityOf(r), testimonialID, req.Status)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, testimonial)
}
