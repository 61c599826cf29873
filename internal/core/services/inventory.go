// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Bruizy/lego-flip-tracker/internal/core/analytics"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// ErrNotFound marks lookups for records that do not exist. Handlers map it
// to a 404.
var ErrNotFound = errors.New("not found")

// ErrConflict marks lifecycle violations, like selling an item twice.
// Handlers map it to a 409.
var ErrConflict = errors.New("conflict")

// InventoryService handles item and sale business logic. The collection is
// small enough that list filtering runs in memory over a full load, which
// keeps filter semantics identical between the list endpoint and the stats
// engine.
type InventoryService struct {
	items  ports.InventoryRepository
	sales  ports.SaleRepository
	cache  ports.CacheRepository
	logger *slog.Logger
}

var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. cache may be nil,
// in which case report invalidation is skipped.
func NewInventoryService(items ports.InventoryRepository, sales ports.SaleRepository, cache ports.CacheRepository, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		items:  items,
		sales:  sales,
		cache:  cache,
		logger: logger.With(slog.String("service", "inventory")),
	}
}

// SaveItem saves a single inventory item.
func (s *InventoryService) SaveItem(ctx context.Context, item *domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	item.PrepareForStorage()

	if err := s.items.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.InfoContext(ctx, "saved inventory item",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	return s.invalidateReports(ctx)
}

// SaveItems saves multiple inventory items, used by imports.
func (s *InventoryService) SaveItems(ctx context.Context, items []domain.InventoryItem) error {
	if len(items) == 0 {
		s.logger.InfoContext(ctx, "no items to save")
		return nil
	}

	for i := range items {
		if err := items[i].Validate(); err != nil {
			return fmt.Errorf("validation failed for item %q: %w", items[i].Name, err)
		}
		items[i].PrepareForStorage()
	}

	if err := s.items.SaveBatch(ctx, items); err != nil {
		return fmt.Errorf("failed to save items batch: %w", err)
	}

	s.logger.InfoContext(ctx, "saved inventory items", slog.Int("count", len(items)))

	return s.invalidateReports(ctx)
}

// GetByID retrieves an inventory item by ID.
func (s *InventoryService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("inventory item %s: %w", id, ErrNotFound)
	}
	return item, nil
}

// UpdateItem updates an existing inventory item.
func (s *InventoryService) UpdateItem(ctx context.Context, id uuid.UUID, item *domain.InventoryItem) error {
	existing, err := s.items.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load item: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("inventory item %s: %w", id, ErrNotFound)
	}

	item.ID = id
	item.CreatedAt = existing.CreatedAt
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.InfoContext(ctx, "updated inventory item", slog.String("item_id", id.String()))

	return s.invalidateReports(ctx)
}

// DeleteItem removes the item and its sale record, if any. Orphaned sales
// would be silently skipped by the stats engine, so they are never left
// behind.
func (s *InventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	exists, err := s.items.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check item existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("inventory item %s: %w", id, ErrNotFound)
	}

	if err := s.sales.DeleteByItemID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item's sale: %w", err)
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted inventory item", slog.String("item_id", id.String()))

	return s.invalidateReports(ctx)
}

// Batches returns distinct batch labels for filter dropdowns.
func (s *InventoryService) Batches(ctx context.Context) ([]string, error) {
	batches, err := s.items.Batches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// List retrieves inventory items with filtering, sorting, and pagination.
func (s *InventoryService) List(ctx context.Context, params ports.ListParams) (*ports.ListResult, error) {
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	sales, err := s.sales.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	snap := analytics.Snapshot{Items: items, Sales: sales}
	filtered := params.Filter().Apply(snap)
	sortItems(filtered, params.SortBy, params.SortOrder)

	totalCount := int64(len(filtered))
	page, pageSize := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	pageItems := make([]*domain.InventoryItem, 0, end-start)
	for i := start; i < end; i++ {
		item := filtered[i]
		pageItems = append(pageItems, &item)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return &ports.ListResult{
		Items:      pageItems,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// RecordSale attaches a sale to an in-stock item and marks it sold.
func (s *InventoryService) RecordSale(ctx context.Context, itemID uuid.UUID, sale *domain.SaleRecord) error {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("inventory item %s: %w", itemID, ErrNotFound)
	}
	if item.Status != domain.StatusInStock {
		return fmt.Errorf("item %s has status %q, only in-stock items can be sold: %w",
			itemID, item.Status, ErrConflict)
	}

	sale.ItemID = itemID
	if err := sale.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	sale.PrepareForStorage()

	if err := s.sales.Save(ctx, sale); err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}

	item.Status = domain.StatusSold
	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to mark item sold: %w", err)
	}

	s.logger.InfoContext(ctx, "recorded sale",
		slog.String("item_id", itemID.String()),
		slog.String("sale_id", sale.ID.String()),
		slog.String("price", sale.SalePrice.String()))

	return s.invalidateReports(ctx)
}

// UpdateSale updates an existing sale record. The item link never changes.
func (s *InventoryService) UpdateSale(ctx context.Context, saleID uuid.UUID, sale *domain.SaleRecord) error {
	existing, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("failed to load sale: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("sale %s: %w", saleID, ErrNotFound)
	}

	sale.ID = saleID
	sale.ItemID = existing.ItemID
	sale.CreatedAt = existing.CreatedAt
	if err := sale.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.sales.Update(ctx, sale); err != nil {
		return fmt.Errorf("failed to update sale: %w", err)
	}

	s.logger.InfoContext(ctx, "updated sale", slog.String("sale_id", saleID.String()))

	return s.invalidateReports(ctx)
}

// DeleteSale removes a sale and returns its item to stock.
func (s *InventoryService) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("failed to load sale: %w", err)
	}
	if sale == nil {
		return fmt.Errorf("sale %s: %w", saleID, ErrNotFound)
	}

	if err := s.sales.Delete(ctx, saleID); err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}

	item, err := s.items.FindByID(ctx, sale.ItemID)
	if err != nil {
		return fmt.Errorf("failed to load item: %w", err)
	}
	if item != nil {
		item.Status = domain.StatusInStock
		if err := s.items.Update(ctx, item); err != nil {
			return fmt.Errorf("failed to return item to stock: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "deleted sale",
		slog.String("sale_id", saleID.String()),
		slog.String("item_id", sale.ItemID.String()))

	return s.invalidateReports(ctx)
}

// GetSaleByItem retrieves the sale attached to an item.
func (s *InventoryService) GetSaleByItem(ctx context.Context, itemID uuid.UUID) (*domain.SaleRecord, error) {
	sale, err := s.sales.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}
	if sale == nil {
		return nil, fmt.Errorf("sale for item %s: %w", itemID, ErrNotFound)
	}
	return sale, nil
}

// MarkTraded retires an item without revenue. An item with a sale on file
// cannot be traded; delete the sale first.
func (s *InventoryService) MarkTraded(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("inventory item %s: %w", itemID, ErrNotFound)
	}

	sale, err := s.sales.FindByItemID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to check for sale: %w", err)
	}
	if sale != nil {
		return fmt.Errorf("item %s has a sale on file: %w", itemID, ErrConflict)
	}

	item.Status = domain.StatusTraded
	if err := s.items.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to mark item traded: %w", err)
	}

	s.logger.InfoContext(ctx, "marked item traded", slog.String("item_id", itemID.String()))

	return s.invalidateReports(ctx)
}

func (s *InventoryService) invalidateReports(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeletePattern(ctx, reportCachePattern); err != nil {
		// Stale reports expire on their own; a write must not fail over this.
		s.logger.WarnContext(ctx, "failed to invalidate report cache", slog.Any("error", err))
	}
	return nil
}

func sortItems(items []domain.InventoryItem, sortBy, sortOrder string) {
	desc := strings.EqualFold(sortOrder, "desc")
	var less func(a, b domain.InventoryItem) bool

	switch strings.ToLower(sortBy) {
	case "name":
		less = func(a, b domain.InventoryItem) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case "purchase_date":
		less = func(a, b domain.InventoryItem) bool { return a.PurchaseDate.Before(b.PurchaseDate) }
	case "purchase_cost":
		less = func(a, b domain.InventoryItem) bool {
			return a.AcquisitionCost().LessThan(b.AcquisitionCost())
		}
	case "status":
		less = func(a, b domain.InventoryItem) bool { return a.Status < b.Status }
	default:
		// newest first unless the caller asks otherwise
		less = func(a, b domain.InventoryItem) bool { return a.CreatedAt.Before(b.CreatedAt) }
		if sortOrder == "" {
			desc = true
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
