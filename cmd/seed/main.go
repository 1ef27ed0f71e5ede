package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"handmade-kart/internal/auth"
	"handmade-kart/internal/catalogimport"
	"handmade-kart/internal/config"
	"handmade-kart/internal/database"
	"handmade-kart/internal/model"
	"handmade-kart/internal/notify"
	"handmade-kart/internal/repository"
	"handmade-kart/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	files := flag.String("files", "data/catalog/categories.gz,data/catalog/products.gz", "comma-separated catalog files (gzipped JSON lines)")
	adminEmail := flag.String("admin-email", os.Getenv("ADMIN_EMAIL"), "email of the admin account to create or promote")
	adminUsername := flag.String("admin-username", envOr("ADMIN_USERNAME", "admin"), "admin username")
	adminPassword := flag.String("admin-password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	adminPhone := flag.String("admin-phone", envOr("ADMIN_PHONE", "0000000000"), "admin phone number")
	flag.Parse()

	if err := run(splitList(*files), &model.RegisterRequest{
		Username: *adminUsername,
		Email:    *adminEmail,
		Password: *adminPassword,
		PhoneNum: *adminPhone,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(files []string, admin *model.RegisterRequest) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	categoryRepo := repository.NewCategoryRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)

	if len(files) > 0 {
		importer := catalogimport.NewImporter(newLoader(ctx, cfg.S3, logger), categoryRepo, productRepo, logger)
		summary, err := importer.Import(ctx, files...)
		if err != nil {
			return fmt.Errorf("catalog import failed: %w", err)
		}
		fmt.Printf("Imported %d categories and %d products from %d files\n",
			summary.Categories, summary.Products, summary.Files)
	}

	if admin.Email == "" {
		logger.Info().Msg("no admin email given, skipping admin bootstrap")
		return nil
	}

	users := service.NewUserService(
		repository.NewUserRepository(pool, logger),
		auth.NewPasswordHasher(0),
		auth.NewTokenProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		notify.NewLogMailer(logger),
		cfg.App.PublicURL,
		logger,
	)
	user, err := users.EnsureAdmin(ctx, admin)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	fmt.Printf("Admin account ready: %s (%s)\n", user.Email, user.ID)

	return nil
}

func newLoader(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) catalogimport.Loader {
	fileLoader := catalogimport.NewFileLoader(logger)
	if !cfg.Enabled {
		logger.Info().Msg("using local file system for catalog files (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := catalogimport.NewS3Loader(ctx, cfg.Bucket, cfg.Region, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}
	return catalogimport.NewFallbackLoader(s3Loader, fileLoader, cfg.Prefix, true, logger)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
