package model

import "strings"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON               = "INVALID_JSON"
	ErrCodeValidation                = "VALIDATION_ERROR"
	ErrCodeUnauthorised              = "UNAUTHORIZED"
	ErrCodeForbidden                 = "FORBIDDEN"
	ErrCodeNotFound                  = "NOT_FOUND"
	ErrCodeConflict                  = "CONFLICT"
	ErrCodeInsufficientStock         = "INSUFFICIENT_STOCK"
	ErrCodePaymentVerificationFailed = "PAYMENT_VERIFICATION_FAILED"
	ErrCodeGateway                   = "GATEWAY_ERROR"
	ErrCodeInternalError             = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure that maps onto an API error code.
type DomainError struct {
	Code    string
	Message string
	Fields  []string
}

func (e *DomainError) Error() string {
	if len(e.Fields) > 0 {
		return e.Message + ": " + strings.Join(e.Fields, ", ")
	}
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error naming the offending fields.
func NewValidationError(message string, fields ...string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: message,
		Fields:  fields,
	}
}

// NewNotFoundError creates a not-found error for the given resource.
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(ErrCodeNotFound, resource+" not found")
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *DomainError {
	return NewDomainError(ErrCodeConflict, message)
}

// NewGatewayError wraps a message returned by the payment gateway.
func NewGatewayError(message string) *DomainError {
	return NewDomainError(ErrCodeGateway, message)
}

// Common domain errors
var (
	ErrUnauthorised              = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden                 = NewDomainError(ErrCodeForbidden, "Admin access required")
	ErrInsufficientStock         = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrPaymentVerificationFailed = NewDomainError(ErrCodePaymentVerificationFailed, "Payment verification failed")
	ErrInternal                  = NewDomainError(ErrCodeInternalError, "Internal server error")
	ErrProductNotFound           = NewNotFoundError("Product")
	ErrCategoryNotFound          = NewNotFoundError("Category")
	ErrCartItemNotFound          = NewNotFoundError("Cart item")
	ErrOrderNotFound             = NewNotFoundError("Order")
	ErrTestimonialNotFound       = NewNotFoundError("Testimonial")
	ErrUserNotFound              = NewNotFoundError("User")
	ErrInvalidQuantity           = NewValidationError("Quantity must be greater than zero", "quantity")
)
