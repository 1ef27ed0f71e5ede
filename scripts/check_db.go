//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"

	"handmade-kart/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

// Reports the connected database and row counts of the application tables.
// Usage: go run scripts/check_db.go
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	if err = conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n\n", dbName)

	for _, table := range []string{"users", "categories", "products", "carts", "orders", "payment_confirmations", "testimonials"} {
		var count int64
		err = conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&count)
		if err != nil {
			fmt.Printf("  %-22s missing (%v)\n", table, err)
			continue
		}
		fmt.Printf("  %-22s %d rows\n", table, count)
	}
}
