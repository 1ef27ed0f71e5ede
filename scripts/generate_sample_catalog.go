//go:build ignore

package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"handmade-kart/internal/catalogimport"

	"github.com/shopspring/decimal"
)

// Writes sample catalog files for cmd/seed.
// categories.gz holds the categories; products.gz references them by name, so
// both files must be imported together.
// Usage: go run scripts/generate_sample_catalog.go
func main() {
	dataDir := "data/catalog"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	category := func(name, description string) catalogimport.Record {
		return catalogimport.Record{Type: catalogimport.TypeCategory, Name: name, Description: description}
	}
	product := func(name, price string, stock, discount int, categoryName string, tags ...string) catalogimport.Record {
		return catalogimport.Record{
			Type:     catalogimport.TypeProduct,
			Name:     name,
			Price:    decimal.RequireFromString(price),
			Stock:    stock,
			Discount: discount,
			Category: categoryName,
			Tags:     tags,
		}
	}

	files := map[string][]catalogimport.Record{
		"categories.gz": {
			category("Pottery", "Wheel-thrown and hand-built stoneware"),
			category("Textiles", "Block prints, weaves and embroidery"),
			category("Photography", "Printed memories and albums"),
			category("Woodwork", "Carved and turned pieces"),
		},
		"products.gz": {
			product("Clay Mug", "450.00", 24, 0, "Pottery", "mug", "kitchen"),
			product("Speckled Serving Bowl", "1299.00", 6, 10, "Pottery", "bowl"),
			product("Indigo Block Print Throw", "2499.00", 4, 0, "Textiles", "throw", "indigo"),
			product("Embroidered Cushion Cover", "799.00", 15, 5, "Textiles", "cushion"),
			product("Custom Polaroid Set", "899.00", 30, 0, "Photography", "polaroid", "gift"),
			product("Handbound Photo Album", "1599.00", 3, 0, "Photography", "album"),
			product("Carved Jewellery Box", "1899.00", 2, 15, "Woodwork", "box"),
		},
	}

	for filename, records := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := writeCatalogFile(filePath, records); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d records\n", filePath, len(records))
	}

	fmt.Println("\nImport with:")
	fmt.Println("  go run ./cmd/seed -files data/catalog/categories.gz,data/catalog/products.gz")
}

func writeCatalogFile(filePath string, records []catalogimport.Record) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}
