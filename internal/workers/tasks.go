// Package workers contains the asynq task handlers for background jobs:
// bulk CSV imports, report generation and temp-file cleanup.
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeCSVImport        = "csv:import"
	TypeGenerateReport   = "report:generate"
	TypeCleanupTempFiles = "cleanup:temp_files"
)

// Job statuses stored under the import: cache prefix.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ImportKind selects which record type a CSV file contains.
type ImportKind string

const (
	ImportItems    ImportKind = "items"
	ImportSales    ImportKind = "sales"
	ImportExpenses ImportKind = "expenses"
)

// CSVImportPayload is the payload for TypeCSVImport tasks. FilePath points
// at a temp file owned by the job; the handler removes it when done.
type CSVImportPayload struct {
	JobID    string     `json:"job_id"`
	FilePath string     `json:"file_path"`
	Kind     ImportKind `json:"kind"`
	Filename string     `json:"filename"`
}

// JobStatus is the cached progress record for an async job.
type JobStatus struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	Rows        int       `json:"rows,omitempty"`
	Imported    int       `json:"imported,omitempty"`
	Skipped     int       `json:"skipped,omitempty"`
	Error       string    `json:"error,omitempty"`
	ResultPath  string    `json:"result_path,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// ReportPayload is the payload for TypeGenerateReport tasks.
type ReportPayload struct {
	JobID     string `json:"job_id"`
	DateRange string `json:"date_range"`
	Batch     string `json:"batch"`
}

// NewCSVImportTask builds an asynq task for a queued CSV import.
func NewCSVImportTask(payload CSVImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	return asynq.NewTask(TypeCSVImport, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// NewReportTask builds an asynq task for background workbook generation.
func NewReportTask(payload ReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report payload: %w", err)
	}
	return asynq.NewTask(TypeGenerateReport, data, asynq.MaxRetry(2), asynq.Timeout(5*time.Minute)), nil
}

// NewCleanupTask builds the periodic temp-file cleanup task.
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupTempFiles, nil, asynq.Queue("low"))
}
