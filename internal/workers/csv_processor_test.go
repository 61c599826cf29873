package workers_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/Bruizy/lego-flip-tracker/internal/adapters/redis_adapter"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
	"github.com/Bruizy/lego-flip-tracker/internal/workers"
	"github.com/Bruizy/lego-flip-tracker/test/helpers"
	"github.com/Bruizy/lego-flip-tracker/test/mocks"
)

const itemsCSV = `Name,Set Number,Purchase Date,Purchase Cost,Condition,Batch
Medieval Blacksmith,21325,2025-03-01,$105.00,new_sealed,Estate Sale
Bag of bricks,,2025-03-01,12.50,used incomplete,Estate Sale
,missing-name,2025-03-01,5,used_complete,
`

func TestReadRecords(t *testing.T) {
	records, err := workers.ReadRecords(strings.NewReader(itemsCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Medieval Blacksmith", records[0]["name"])
	assert.Equal(t, "21325", records[0]["set_number"])
	assert.Equal(t, "$105.00", records[0]["purchase_cost"])
	assert.Equal(t, "Estate Sale", records[0]["batch"])
}

func TestReadRecords_SkipsRaggedRows(t *testing.T) {
	csv := "name,purchase_cost\nComplete Row,10\nshort\n"
	records, err := workers.ReadRecords(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Complete Row", records[0]["name"])
}

func TestReadRecords_EmptyInput(t *testing.T) {
	_, err := workers.ReadRecords(strings.NewReader(""))
	assert.Error(t, err)
}

func TestImporter_ImportItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryService(ctrl)
	expenses := mocks.NewMockExpenseService(ctrl)
	importer := workers.NewImporter(inventory, expenses, helpers.TestLogger())

	records, err := workers.ReadRecords(strings.NewReader(itemsCSV))
	require.NoError(t, err)

	inventory.EXPECT().
		SaveItems(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, items []domain.InventoryItem) error {
			require.Len(t, items, 2)
			assert.Equal(t, "Medieval Blacksmith", items[0].Name)
			assert.Equal(t, domain.ConditionNewSealed, items[0].Condition)
			assert.Equal(t, domain.ConditionUsedIncomplete, items[1].Condition)
			return nil
		})

	imported, skipped, err := importer.Import(context.Background(), workers.ImportItems, records)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 1, skipped) // nameless row

	ctrl.Finish()
}

func TestImporter_ImportSales_SkipsBadItemIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryService(ctrl)
	expenses := mocks.NewMockExpenseService(ctrl)
	importer := workers.NewImporter(inventory, expenses, helpers.TestLogger())

	itemID := uuid.New()
	records := []domain.RawRecord{
		{"item_id": itemID.String(), "sale_price": "80", "marketplace": "eBay"},
		{"item_id": "garbage", "sale_price": "50"},
	}

	inventory.EXPECT().RecordSale(gomock.Any(), itemID, gomock.Any()).Return(nil)

	imported, skipped, err := importer.Import(context.Background(), workers.ImportSales, records)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)

	ctrl.Finish()
}

func TestImporter_UnknownKind(t *testing.T) {
	importer := workers.NewImporter(nil, nil, helpers.TestLogger())
	_, _, err := importer.Import(context.Background(), workers.ImportKind("bogus"), nil)
	assert.Error(t, err)
}

func TestCSVProcessor_ProcessImport(t *testing.T) {
	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryService(ctrl)
	expenses := mocks.NewMockExpenseService(ctrl)
	importer := workers.NewImporter(inventory, expenses, helpers.TestLogger())
	cache := newTestCache(t)

	inventory.EXPECT().SaveItems(gomock.Any(), gomock.Any()).Return(nil)

	path := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(path, []byte(itemsCSV), 0o644))

	processor := workers.NewCSVProcessor(importer, cache, helpers.TestLogger())
	jobID := uuid.New().String()

	task, err := workers.NewCSVImportTask(workers.CSVImportPayload{
		JobID:    jobID,
		FilePath: path,
		Kind:     workers.ImportItems,
		Filename: "upload.csv",
	})
	require.NoError(t, err)

	require.NoError(t, processor.ProcessImport(context.Background(), task))

	var status workers.JobStatus
	require.NoError(t, cache.Get(context.Background(), workers.JobStatusKey(jobID), &status))
	assert.Equal(t, workers.StatusCompleted, status.Status)
	assert.Equal(t, 3, status.Rows)
	assert.Equal(t, 2, status.Imported)
	assert.Equal(t, 1, status.Skipped)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed")
}

func TestCSVProcessor_ProcessImport_MissingFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	importer := workers.NewImporter(mocks.NewMockInventoryService(ctrl), mocks.NewMockExpenseService(ctrl), helpers.TestLogger())
	cache := newTestCache(t)

	processor := workers.NewCSVProcessor(importer, cache, helpers.TestLogger())
	jobID := uuid.New().String()

	task, err := workers.NewCSVImportTask(workers.CSVImportPayload{
		JobID:    jobID,
		FilePath: "/nonexistent/upload.csv",
		Kind:     workers.ImportItems,
	})
	require.NoError(t, err)

	require.Error(t, processor.ProcessImport(context.Background(), task))

	var status workers.JobStatus
	require.NoError(t, cache.Get(context.Background(), workers.JobStatusKey(jobID), &status))
	assert.Equal(t, workers.StatusFailed, status.Status)
	assert.NotEmpty(t, status.Error)
}

func TestCleanupProcessor_RemovesOldFiles(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "stale.csv")
	require.NoError(t, os.WriteFile(oldFile, []byte("x"), 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, old, old))

	freshFile := filepath.Join(dir, "fresh.csv")
	require.NoError(t, os.WriteFile(freshFile, []byte("x"), 0o644))

	processor := workers.NewCleanupProcessor(dir, 24*time.Hour, helpers.TestLogger())
	require.NoError(t, processor.CleanupTempFiles(context.Background(), workers.NewCleanupTask()))

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshFile)
	assert.NoError(t, err)
}

func newTestCache(t *testing.T) ports.CacheRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewCache(client, time.Hour, helpers.TestLogger())
}
