// internal/core/ports/services.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Bruizy/lego-flip-tracker/internal/core/analytics"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// InventoryService is the application service port for items and their
// sales. Selling and un-selling move the item through its lifecycle, so
// both live behind one service.
type InventoryService interface {
	SaveItem(ctx context.Context, item *domain.InventoryItem) error
	SaveItems(ctx context.Context, items []domain.InventoryItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, item *domain.InventoryItem) error
	// DeleteItem removes the item and, when one exists, its sale record.
	DeleteItem(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Batches(ctx context.Context) ([]string, error)

	// RecordSale attaches a sale to an in-stock item and marks it sold.
	RecordSale(ctx context.Context, itemID uuid.UUID, sale *domain.SaleRecord) error
	UpdateSale(ctx context.Context, saleID uuid.UUID, sale *domain.SaleRecord) error
	// DeleteSale removes a sale and returns its item to stock.
	DeleteSale(ctx context.Context, saleID uuid.UUID) error
	GetSaleByItem(ctx context.Context, itemID uuid.UUID) (*domain.SaleRecord, error)
	// MarkTraded retires an item without revenue. Traded items never join
	// profit or sell-through figures.
	MarkTraded(ctx context.Context, itemID uuid.UUID) error
}

// ExpenseService is the application service port for overhead expenses.
type ExpenseService interface {
	SaveExpense(ctx context.Context, expense *domain.ExpenseRecord) error
	SaveExpenses(ctx context.Context, expenses []domain.ExpenseRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseRecord, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, expense *domain.ExpenseRecord) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.ExpenseRecord, error)
}

// AnalyticsService computes dashboard reports, caching per scope.
type AnalyticsService interface {
	Report(ctx context.Context, scope analytics.StatsScope) (*analytics.Report, error)
	// Snapshot loads all records for export and import-preview flows.
	Snapshot(ctx context.Context) (*analytics.Snapshot, error)
	// InvalidateCache drops every cached report; called after any write.
	InvalidateCache(ctx context.Context) error
}

// ListParams holds filter and pagination parameters for listing inventory.
// Filter fields mirror analytics.InventoryFilter; empty or "all" disables a
// predicate.
type ListParams struct {
	Status    string
	Condition string
	Batch     string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Filter converts the params to the in-memory filter predicate set.
func (p ListParams) Filter() analytics.InventoryFilter {
	return analytics.InventoryFilter{
		Status:    p.Status,
		Condition: p.Condition,
		Batch:     p.Batch,
		Search:    p.Search,
	}
}

// ListResult holds one page of inventory items.
type ListResult struct {
	Items      []*domain.InventoryItem `json:"items"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalCount int64                   `json:"total_count"`
	TotalPages int                     `json:"total_pages"`
}
