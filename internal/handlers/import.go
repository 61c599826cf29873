package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	redis_a "github.com/Bruizy/lego-flip-tracker/internal/adapters/redis_adapter"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
	"github.com/Bruizy/lego-flip-tracker/internal/pkg/config"
	"github.com/Bruizy/lego-flip-tracker/internal/workers"
)

// ImportHandler accepts CSV uploads of items, sales and expenses. Small
// files import inline; larger ones are queued and tracked by job ID.
type ImportHandler struct {
	importer *workers.Importer
	client   *asynq.Client
	cache    ports.CacheRepository
	config   config.FileProcessingConfig
	logger   *slog.Logger
}

func NewImportHandler(importer *workers.Importer, client *asynq.Client, cache ports.CacheRepository, cfg config.FileProcessingConfig, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importer: importer,
		client:   client,
		cache:    cache,
		config:   cfg,
		logger:   logger.With(slog.String("handler", "import")),
	}
}

// ImportCSV handles POST /api/v1/import/{kind} with a multipart "file"
// field. kind is one of items, sales, expenses.
func (h *ImportHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseImportKind(r.PathValue("kind"))
	if !ok {
		respondError(w, http.StatusBadRequest, "Import kind must be items, sales or expenses")
		return
	}

	maxBytes := int64(h.config.CSVMaxSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing or oversized file upload")
		return
	}
	defer file.Close()

	tempPath, err := h.spool(file)
	if err != nil {
		h.logger.Error("failed to spool upload", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	records, err := readRecordsFromFile(tempPath)
	if err != nil {
		_ = os.Remove(tempPath)
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid CSV: %v", err))
		return
	}
	if len(records) == 0 {
		_ = os.Remove(tempPath)
		respondError(w, http.StatusBadRequest, "CSV contains no data rows")
		return
	}

	if len(records) <= h.config.AsyncThresholdRows {
		defer os.Remove(tempPath)

		imported, skipped, err := h.importer.Import(r.Context(), kind, records)
		if err != nil {
			h.logger.Error("inline import failed",
				slog.String("kind", string(kind)),
				slog.Any("error", err))
			respondError(w, http.StatusInternalServerError, "Import failed")
			return
		}

		h.logger.Info("inline import completed",
			slog.String("kind", string(kind)),
			slog.Int("imported", imported),
			slog.Int("skipped", skipped))
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":   workers.StatusCompleted,
			"rows":     len(records),
			"imported": imported,
			"skipped":  skipped,
		})
		return
	}

	jobID := uuid.New().String()
	task, err := workers.NewCSVImportTask(workers.CSVImportPayload{
		JobID:    jobID,
		FilePath: tempPath,
		Kind:     kind,
		Filename: header.Filename,
	})
	if err != nil {
		_ = os.Remove(tempPath)
		h.logger.Error("failed to build import task", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to queue import")
		return
	}

	if _, err := h.client.EnqueueContext(r.Context(), task); err != nil {
		_ = os.Remove(tempPath)
		h.logger.Error("failed to enqueue import", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to queue import")
		return
	}

	h.logger.Info("import queued",
		slog.String("job_id", jobID),
		slog.String("kind", string(kind)),
		slog.Int("rows", len(records)))
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": workers.StatusPending,
		"job_id": jobID,
		"rows":   len(records),
	})
}

// GetJobStatus handles GET /api/v1/import/jobs/{id}
func (h *ImportHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if _, err := uuid.Parse(jobID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	var status workers.JobStatus
	err := h.cache.Get(r.Context(), workers.JobStatusKey(jobID), &status)
	if err != nil {
		if errors.Is(err, redis_a.ErrCacheMiss) {
			respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error("failed to load job status",
			slog.String("job_id", jobID),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to load job status")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// spool copies the upload into the processing temp dir so both the inline
// and the queued path read from the same place.
func (h *ImportHandler) spool(src io.Reader) (string, error) {
	if err := os.MkdirAll(h.config.TempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	temp, err := os.CreateTemp(h.config.TempDir, "import_*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer temp.Close()

	if _, err := io.Copy(temp, src); err != nil {
		_ = os.Remove(temp.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return temp.Name(), nil
}

func readRecordsFromFile(path string) ([]domain.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()
	return workers.ReadRecords(file)
}

func parseImportKind(s string) (workers.ImportKind, bool) {
	switch workers.ImportKind(filepath.Base(s)) {
	case workers.ImportItems:
		return workers.ImportItems, true
	case workers.ImportSales:
		return workers.ImportSales, true
	case workers.ImportExpenses:
		return workers.ImportExpenses, true
	default:
		return "", false
	}
}
