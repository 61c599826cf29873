// internal/core/services/analytics.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bruizy/lego-flip-tracker/internal/core/analytics"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

const (
	// reportCachePrefix namespaces cached reports; writes invalidate the
	// whole namespace via reportCachePattern.
	reportCachePrefix  = "stats:report:"
	reportCachePattern = "stats:*"

	defaultReportTTL = 5 * time.Minute
)

// AnalyticsService computes dashboard reports over a full snapshot, caching
// results per scope. Any write to items, sales, or expenses invalidates the
// cache, so a cached report is never stale for longer than the TTL even if
// invalidation is missed.
type AnalyticsService struct {
	items     ports.InventoryRepository
	sales     ports.SaleRepository
	expenses  ports.ExpenseRepository
	cache     ports.CacheRepository
	logger    *slog.Logger
	reportTTL time.Duration
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new analytics service. cache may be nil, in
// which case every report is computed fresh.
func NewAnalyticsService(
	items ports.InventoryRepository,
	sales ports.SaleRepository,
	expenses ports.ExpenseRepository,
	cache ports.CacheRepository,
	reportTTL time.Duration,
	logger *slog.Logger,
) *AnalyticsService {
	if reportTTL <= 0 {
		reportTTL = defaultReportTTL
	}
	return &AnalyticsService{
		items:     items,
		sales:     sales,
		expenses:  expenses,
		cache:     cache,
		logger:    logger.With(slog.String("service", "analytics")),
		reportTTL: reportTTL,
	}
}

// Snapshot loads all records for report computation and exports.
func (s *AnalyticsService) Snapshot(ctx context.Context) (*analytics.Snapshot, error) {
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	sales, err := s.sales.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	expenses, err := s.expenses.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	return &analytics.Snapshot{Items: items, Sales: sales, Expenses: expenses}, nil
}

// Report returns the dashboard report for a scope, from cache when possible.
func (s *AnalyticsService) Report(ctx context.Context, scope analytics.StatsScope) (*analytics.Report, error) {
	compute := func() (*analytics.Report, error) {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		report := analytics.BuildReport(*snap, scope, s.logger)
		s.logger.DebugContext(ctx, "built report",
			slog.String("date_range", string(scope.DateRange)),
			slog.String("batch", scope.Batch),
			slog.Int("items", len(snap.Items)),
			slog.Duration("elapsed", time.Since(start)))
		return &report, nil
	}

	if s.cache == nil {
		return compute()
	}

	var report analytics.Report
	key := reportCacheKey(scope)
	err := s.cache.GetOrSet(ctx, key, &report, func() (interface{}, error) {
		fresh, err := compute()
		if err != nil {
			return nil, err
		}
		return fresh, nil
	}, s.reportTTL)
	if err != nil {
		// A broken cache must not take the dashboard down with it.
		s.logger.WarnContext(ctx, "report cache unavailable, computing directly",
			slog.Any("error", err))
		return compute()
	}

	return &report, nil
}

// InvalidateCache drops every cached report.
func (s *AnalyticsService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeletePattern(ctx, reportCachePattern); err != nil {
		return fmt.Errorf("failed to invalidate report cache: %w", err)
	}
	return nil
}

func reportCacheKey(scope analytics.StatsScope) string {
	batch := scope.Batch
	if batch == "" {
		batch = "all"
	}
	return fmt.Sprintf("%s%s:%s", reportCachePrefix, scope.DateRange, batch)
}
