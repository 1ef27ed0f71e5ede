package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a handmade item in the catalogue.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Slug        string          `json:"slug" db:"slug"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Discount    int             `json:"discount" db:"discount"`
	Stock       int             `json:"stock" db:"stock"`
	Images      []string        `json:"images" db:"images"`
	Tags        []string        `json:"tags" db:"tags"`
	Featured    bool            `json:"featured" db:"featured"`
	CategoryID  uuid.UUID       `json:"categoryId" db:"category_id"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductSummary is the product view embedded in cart and order lines.
type ProductSummary struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Images      []string        `json:"images"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Limit      int
	Offset     int
	CategoryID *uuid.UUID
	Featured   *bool
}

// ProductRequest is the admin payload for creating or updating a product.
type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images"`
	Tags        []string        `json:"tags"`
	Featured    bool            `json:"featured"`
	CategoryID  uuid.UUID       `json:"categoryId"`
}

var slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses every run of non-alphanumerics into a hyphen.
func Slugify(name string) string {
	s := slugSeparator.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
