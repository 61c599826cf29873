package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/exporter"
	redis_a "github.com/Bruizy/lego-flip-tracker/internal/adapters/redis_adapter"
	"github.com/Bruizy/lego-flip-tracker/internal/core/analytics"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
	"github.com/Bruizy/lego-flip-tracker/internal/workers"
)

// ExportHandler serves data exports. Workbooks stream inline; a queued
// variant exists for clients that prefer to poll.
type ExportHandler struct {
	analytics ports.AnalyticsService
	client    *asynq.Client
	cache     ports.CacheRepository
	logger    *slog.Logger
}

func NewExportHandler(analyticsService ports.AnalyticsService, client *asynq.Client, cache ports.CacheRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		analytics: analyticsService,
		client:    client,
		cache:     cache,
		logger:    logger.With(slog.String("handler", "export")),
	}
}

// ExportXLSX handles GET /api/v1/export/xlsx?range=30d&batch=...
// It streams the full profit-and-loss workbook.
func (h *ExportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := analytics.StatsScope{
		DateRange: analytics.ParseDateRange(q.Get("range")),
		Batch:     q.Get("batch"),
	}

	snap, err := h.analytics.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load snapshot", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to load data for export")
		return
	}
	report, err := h.analytics.Report(r.Context(), scope)
	if err != nil {
		h.logger.Error("failed to build report", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to build export report")
		return
	}

	filename := fmt.Sprintf("lego_flips_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := exporter.WriteWorkbook(w, snap, report); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("failed to stream workbook", slog.Any("error", err))
	}
}

// ExportJSON handles GET /api/v1/export/json. It dumps every record as a
// single JSON document, suitable for backups.
func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	snap, err := h.analytics.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load snapshot", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to load data for export")
		return
	}

	filename := fmt.Sprintf("lego_flips_%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	respondJSON(w, http.StatusOK, snap)
}

// QueueReport handles POST /api/v1/export/report?range=&batch=. The
// workbook is generated in the background; poll the job and download it
// when completed.
func (h *ExportHandler) QueueReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobID := uuid.New().String()

	task, err := workers.NewReportTask(workers.ReportPayload{
		JobID:     jobID,
		DateRange: q.Get("range"),
		Batch:     q.Get("batch"),
	})
	if err != nil {
		h.logger.Error("failed to build report task", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to queue report")
		return
	}

	if _, err := h.client.EnqueueContext(r.Context(), task); err != nil {
		h.logger.Error("failed to enqueue report", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to queue report")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": workers.StatusPending,
		"job_id": jobID,
	})
}

// DownloadReport handles GET /api/v1/export/report/{id}. While the job is
// still running it returns the status; once completed it serves the file.
func (h *ExportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if _, err := uuid.Parse(jobID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	var status workers.JobStatus
	if err := h.cache.Get(r.Context(), workers.JobStatusKey(jobID), &status); err != nil {
		if errors.Is(err, redis_a.ErrCacheMiss) {
			respondError(w, http.StatusNotFound, "Report job not found")
			return
		}
		h.logger.Error("failed to load job status",
			slog.String("job_id", jobID),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to load report status")
		return
	}

	if status.Status != workers.StatusCompleted || status.ResultPath == "" {
		respondJSON(w, http.StatusOK, status)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("report_%s.xlsx", jobID)))
	http.ServeFile(w, r, status.ResultPath)
}
