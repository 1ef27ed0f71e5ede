// Package catalogimport loads categories and products from gzipped JSON-lines
// files, locally or from S3, and upserts them into the catalogue.
package catalogimport

import (
	"context"

	"github.com/shopspring/decimal"
)

// Record types.
const (
	TypeCategory = "category"
	TypeProduct  = "product"
)

// Record is one line of a catalog file.
type Record struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug,omitempty"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	IsActive    *bool           `json:"isActive,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount,omitempty"`
	Stock       int             `json:"stock,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Featured    bool            `json:"featured,omitempty"`
	Category    string          `json:"category,omitempty"`
}

// Batch is the decoded content of one catalog file.
type Batch struct {
	Categories []Record
	Products   []Record
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Categories) + len(b.Products)
}

// Loader defines the interface for loading catalog files.
type Loader interface {
	// Load reads a gzipped catalog file and returns its records.
	Load(ctx context.Context, path string) (*Batch, error)
}
