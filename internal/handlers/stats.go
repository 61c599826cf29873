package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Bruizy/lego-flip-tracker/internal/core/analytics"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// StatsHandler serves the profit dashboard report.
type StatsHandler struct {
	analytics ports.AnalyticsService
	inventory ports.InventoryService
	logger    *slog.Logger
}

func NewStatsHandler(analyticsService ports.AnalyticsService, inventoryService ports.InventoryService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		analytics: analyticsService,
		inventory: inventoryService,
		logger:    logger.With(slog.String("handler", "stats")),
	}
}

// GetStats handles GET /api/v1/stats?range=30d&batch=Garage+Sale+Lot
//
// Unknown range values fall back to all-time. An empty or "all" batch
// means no batch filter.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	scope := analytics.StatsScope{
		DateRange: analytics.ParseDateRange(q.Get("range")),
		Batch:     q.Get("batch"),
	}

	report, err := h.analytics.Report(r.Context(), scope)
	if err != nil {
		h.logger.Error("failed to build report",
			slog.String("range", string(scope.DateRange)),
			slog.String("batch", scope.Batch),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetFilters handles GET /api/v1/stats/filters. It returns the values the
// dashboard offers in its filter dropdowns.
func (h *StatsHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	batches, err := h.inventory.Batches(r.Context())
	if err != nil {
		h.logger.Error("failed to load batches", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to load filter options")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ranges":  []analytics.DateRange{analytics.RangeAll, analytics.Range30Days, analytics.Range90Days, analytics.RangeYearToDate},
		"batches": batches,
	})
}
