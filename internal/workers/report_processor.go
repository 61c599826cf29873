package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/exporter"
	"github.com/Bruizy/lego-flip-tracker/internal/core/analytics"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// ReportProcessor renders profit-and-loss workbooks in the background so
// large exports never block an HTTP request.
type ReportProcessor struct {
	analytics ports.AnalyticsService
	cache     ports.CacheRepository
	tempDir   string
	logger    *slog.Logger
}

func NewReportProcessor(analyticsService ports.AnalyticsService, cache ports.CacheRepository, tempDir string, logger *slog.Logger) *ReportProcessor {
	return &ReportProcessor{
		analytics: analyticsService,
		cache:     cache,
		tempDir:   tempDir,
		logger:    logger.With(slog.String("processor", "report")),
	}
}

// ProcessReport handles a TypeGenerateReport task. The finished workbook
// lands in the temp dir and its path is published via the job status.
func (p *ReportProcessor) ProcessReport(ctx context.Context, t *asynq.Task) error {
	var payload ReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal report payload: %w", err)
	}

	p.logger.InfoContext(ctx, "generating report workbook",
		slog.String("job_id", payload.JobID),
		slog.String("range", payload.DateRange),
		slog.String("batch", payload.Batch))

	status := JobStatus{JobID: payload.JobID, Status: StatusRunning, StartedAt: time.Now().UTC()}
	p.setStatus(ctx, &status)

	scope := analytics.StatsScope{
		DateRange: analytics.ParseDateRange(payload.DateRange),
		Batch:     payload.Batch,
	}

	snap, err := p.analytics.Snapshot(ctx)
	if err != nil {
		return p.fail(ctx, &status, fmt.Errorf("failed to load snapshot: %w", err))
	}
	report, err := p.analytics.Report(ctx, scope)
	if err != nil {
		return p.fail(ctx, &status, fmt.Errorf("failed to build report: %w", err))
	}

	path := filepath.Join(p.tempDir, fmt.Sprintf("report_%s.xlsx", payload.JobID))
	file, err := os.Create(path)
	if err != nil {
		return p.fail(ctx, &status, fmt.Errorf("failed to create workbook file: %w", err))
	}

	if err := exporter.WriteWorkbook(file, snap, report); err != nil {
		file.Close()
		_ = os.Remove(path)
		return p.fail(ctx, &status, err)
	}
	if err := file.Close(); err != nil {
		return p.fail(ctx, &status, fmt.Errorf("failed to close workbook file: %w", err))
	}

	status.Status = StatusCompleted
	status.ResultPath = path
	status.CompletedAt = time.Now().UTC()
	p.setStatus(ctx, &status)

	p.logger.InfoContext(ctx, "report workbook ready",
		slog.String("job_id", payload.JobID),
		slog.String("path", path))
	return nil
}

func (p *ReportProcessor) fail(ctx context.Context, status *JobStatus, err error) error {
	status.Status = StatusFailed
	status.Error = err.Error()
	status.CompletedAt = time.Now().UTC()
	p.setStatus(ctx, status)
	return err
}

func (p *ReportProcessor) setStatus(ctx context.Context, status *JobStatus) {
	if err := p.cache.SetWithTTL(ctx, JobStatusKey(status.JobID), status, jobStatusTTL); err != nil {
		p.logger.WarnContext(ctx, "failed to store job status",
			slog.String("job_id", status.JobID),
			slog.Any("error", err))
	}
}
