package workers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// jobStatusTTL bounds how long finished job records linger in the cache.
const jobStatusTTL = 24 * time.Hour

// ReadRecords parses CSV input into raw records keyed by the header row.
// Header names are canonicalized to lower_snake so "Purchase Date",
// "purchase-date" and "purchase_date" all land on the same key. Rows with
// a different column count than the header are skipped, not fatal.
func ReadRecords(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = canonicalKey(h)
	}

	var records []domain.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if len(row) != len(keys) {
			continue
		}

		record := make(domain.RawRecord, len(keys))
		for i, value := range row {
			if keys[i] == "" {
				continue
			}
			record[keys[i]] = value
		}
		records = append(records, record)
	}

	return records, nil
}

func canonicalKey(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

// Importer routes parsed records into the domain services. It is shared by
// the synchronous import endpoint and the async CSV processor.
type Importer struct {
	inventory ports.InventoryService
	expenses  ports.ExpenseService
	logger    *slog.Logger
}

func NewImporter(inventory ports.InventoryService, expenses ports.ExpenseService, logger *slog.Logger) *Importer {
	return &Importer{
		inventory: inventory,
		expenses:  expenses,
		logger:    logger.With(slog.String("component", "importer")),
	}
}

// Import saves the records as the given kind. It returns how many rows were
// imported and how many were skipped. A skipped row is logged, never fatal:
// bulk imports should salvage what they can.
func (im *Importer) Import(ctx context.Context, kind ImportKind, records []domain.RawRecord) (imported, skipped int, err error) {
	switch kind {
	case ImportItems:
		return im.importItems(ctx, records)
	case ImportSales:
		return im.importSales(ctx, records)
	case ImportExpenses:
		return im.importExpenses(ctx, records)
	default:
		return 0, 0, fmt.Errorf("unknown import kind %q", kind)
	}
}

func (im *Importer) importItems(ctx context.Context, records []domain.RawRecord) (int, int, error) {
	items := make([]domain.InventoryItem, 0, len(records))
	skipped := 0
	for _, record := range records {
		item := domain.ItemFromRecord(record)
		if item.Name == "" {
			skipped++
			continue
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		if err := im.inventory.SaveItems(ctx, items); err != nil {
			return 0, skipped, fmt.Errorf("failed to save items: %w", err)
		}
	}
	return len(items), skipped, nil
}

func (im *Importer) importSales(ctx context.Context, records []domain.RawRecord) (int, int, error) {
	imported, skipped := 0, 0
	for _, record := range records {
		itemID, err := uuid.Parse(strings.TrimSpace(record["item_id"]))
		if err != nil {
			im.logger.WarnContext(ctx, "skipping sale row without valid item_id",
				slog.String("item_id", record["item_id"]))
			skipped++
			continue
		}

		sale := domain.SaleFromRecord(record)
		if err := im.inventory.RecordSale(ctx, itemID, &sale); err != nil {
			im.logger.WarnContext(ctx, "skipping sale row",
				slog.String("item_id", itemID.String()),
				slog.Any("error", err))
			skipped++
			continue
		}
		imported++
	}
	return imported, skipped, nil
}

func (im *Importer) importExpenses(ctx context.Context, records []domain.RawRecord) (int, int, error) {
	expenses := make([]domain.ExpenseRecord, 0, len(records))
	skipped := 0
	for _, record := range records {
		expense := domain.ExpenseFromRecord(record)
		if expense.Amount.IsZero() || expense.Category == "" {
			skipped++
			continue
		}
		expenses = append(expenses, expense)
	}

	if len(expenses) > 0 {
		if err := im.expenses.SaveExpenses(ctx, expenses); err != nil {
			return 0, skipped, fmt.Errorf("failed to save expenses: %w", err)
		}
	}
	return len(expenses), skipped, nil
}

// CSVProcessor handles queued CSV import tasks.
type CSVProcessor struct {
	importer *Importer
	cache    ports.CacheRepository
	logger   *slog.Logger
}

func NewCSVProcessor(importer *Importer, cache ports.CacheRepository, logger *slog.Logger) *CSVProcessor {
	return &CSVProcessor{
		importer: importer,
		cache:    cache,
		logger:   logger.With(slog.String("processor", "csv")),
	}
}

// ProcessImport handles a TypeCSVImport task. The temp file named in the
// payload is removed once the import finishes, in either direction.
func (p *CSVProcessor) ProcessImport(ctx context.Context, t *asynq.Task) error {
	var payload CSVImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal import payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing CSV import",
		slog.String("job_id", payload.JobID),
		slog.String("kind", string(payload.Kind)),
		slog.String("file", payload.Filename))

	status := JobStatus{JobID: payload.JobID, Status: StatusRunning, StartedAt: time.Now().UTC()}
	p.setStatus(ctx, &status)

	defer func() {
		if payload.FilePath != "" {
			_ = os.Remove(payload.FilePath)
		}
	}()

	file, err := os.Open(payload.FilePath)
	if err != nil {
		return p.fail(ctx, &status, fmt.Errorf("failed to open import file: %w", err))
	}

	records, err := ReadRecords(file)
	file.Close()
	if err != nil {
		return p.fail(ctx, &status, err)
	}
	status.Rows = len(records)

	imported, skipped, err := p.importer.Import(ctx, payload.Kind, records)
	if err != nil {
		return p.fail(ctx, &status, err)
	}

	status.Status = StatusCompleted
	status.Imported = imported
	status.Skipped = skipped
	status.CompletedAt = time.Now().UTC()
	p.setStatus(ctx, &status)

	p.logger.InfoContext(ctx, "CSV import completed",
		slog.String("job_id", payload.JobID),
		slog.Int("imported", imported),
		slog.Int("skipped", skipped))
	return nil
}

func (p *CSVProcessor) fail(ctx context.Context, status *JobStatus, err error) error {
	status.Status = StatusFailed
	status.Error = err.Error()
	status.CompletedAt = time.Now().UTC()
	p.setStatus(ctx, status)
	return err
}

func (p *CSVProcessor) setStatus(ctx context.Context, status *JobStatus) {
	if err := p.cache.SetWithTTL(ctx, JobStatusKey(status.JobID), status, jobStatusTTL); err != nil {
		p.logger.WarnContext(ctx, "failed to store job status",
			slog.String("job_id", status.JobID),
			slog.Any("error", err))
	}
}

// JobStatusKey builds the cache key for an async job's status record.
func JobStatusKey(jobID string) string {
	return "import:" + jobID
}
