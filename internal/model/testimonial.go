package model

import (
	"time"

	"github.com/google/uuid"
)

// TestimonialStatus is the moderation state of a review.
type TestimonialStatus string

const (
	TestimonialPending  TestimonialStatus = "pending"
	TestimonialApproved TestimonialStatus = "approved"
	TestimonialRejected TestimonialStatus = "rejected"
)

// Valid reports whether s is a known moderation state.
func (s TestimonialStatus) Valid() bool {
	switch s {
	case TestimonialPending, TestimonialApproved, TestimonialRejected:
		return true
	}
	return false
}

// Testimonial is a user's review of a product.
type Testimonial struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	UserID      uuid.UUID         `json:"userId" db:"user_id"`
	ProductID   uuid.UUID         `json:"productId" db:"product_id"`
	ProductName string            `json:"productName" db:"product_name"`
	Username    string            `json:"username" db:"username"`
	Rating      int               `json:"rating" db:"rating"`
	Comment     string            `json:"comment" db:"comment"`
	Status      TestimonialStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
}

// TestimonialRequest is the submission payload. ProductID wins over ProductName.
type TestimonialRequest struct {
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	ProductName string     `json:"productName"`
	Rating      int        `json:"rating"`
	Comment     string     `json:"comment"`
}

// ModerationRequest is the admin decision on a pending review.
type ModerationRequest struct {
	Status TestimonialStatus `json:"status"`
}

// TestimonialFilter narrows the approved listing.
type TestimonialFilter struct {
	ProductID   *uuid.UUID
	ProductName string
	Status      TestimonialStatus
	Limit       int
}
