package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"handmade-kart/internal/cache"
	"handmade-kart/internal/model"
	"handmade-kart/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	statsCacheKey     = "admin:stats"
	statsCacheTTL     = 30 * time.Second
	recentOrdersLimit = 5
)

type adminService struct {
	statsRepo repository.StatsRepository
	cache     cache.Cache
	latency   LatencySource
	logger    zerolog.Logger
}

// NewAdminService creates the dashboard service. latency may be nil.
func NewAdminService(statsRepo repository.StatsRepository, c cache.Cache, latency LatencySource, logger zerolog.Logger) AdminService {
	return &adminService{
		statsRepo: statsRepo,
		cache:     c,
		latency:   latency,
		logger:    logger.With().Str("service", "admin").Logger(),
	}
}

// Stats returns the cached rollup when fresh, otherwise runs the aggregates concurrently.
// Latency is always live.
func (s *adminService) Stats(ctx context.Context, identity model.Identity) (*model.AdminStats, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}

	stats, err := s.cached(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ignoring unreadable stats cache")
	}
	if stats == nil {
		if stats, err = s.aggregate(ctx); err != nil {
			s.logger.Error().Err(err).Msg("failed to aggregate admin stats")
			return nil, fmt.Errorf("failed to get stats: %w", err)
		}
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, string(raw), statsCacheTTL); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache admin stats")
			}
		}
	}

	if s.latency != nil {
		stats.Latency = s.latency.Snapshot()
	}
	return stats, nil
}

func (s *adminService) cached(ctx context.Context) (*model.AdminStats, error) {
	raw, ok, err := s.cache.Get(ctx, statsCacheKey)
	if err != nil || !ok {
		return nil, err
	}
	var stats model.AdminStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *adminService) aggregate(ctx context.Context) (*model.AdminStats, error) {
	var stats model.AdminStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalSales, err = s.statsRepo.TotalSales(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalProducts, err = s.statsRepo.CountProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = s.statsRepo.CountOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.statsRepo.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.LowStockItems, err = s.statsRepo.CountLowStock(gctx, model.LowStockThreshold)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentOrders, err = s.statsRepo.RecentOrders(gctx, recentOrdersLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
