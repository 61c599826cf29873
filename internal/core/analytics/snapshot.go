// internal/core/analytics/snapshot.go

// Package analytics implements the profit and expense engine: joining
// inventory with sales, apportioning shared overhead, and reducing the result
// into dashboard metrics. Every function is a pure transform over an
// in-memory snapshot; the package holds no state and performs no I/O.
package analytics

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// Snapshot is a read-only view of all records at one point in time. The
// engine never mutates it; callers fetch a fresh snapshot per computation.
type Snapshot struct {
	Items    []domain.InventoryItem `json:"items"`
	Sales    []domain.SaleRecord    `json:"sales"`
	Expenses []domain.ExpenseRecord `json:"expenses"`
}

// ItemIndex returns a lookup from item ID to item.
func (s Snapshot) ItemIndex() map[uuid.UUID]domain.InventoryItem {
	idx := make(map[uuid.UUID]domain.InventoryItem, len(s.Items))
	for _, item := range s.Items {
		idx[item.ID] = item
	}
	return idx
}

// SaleByItem returns a lookup from item ID to its sale. The 1:1 invariant
// means later duplicates (which should not exist) are ignored.
func (s Snapshot) SaleByItem() map[uuid.UUID]domain.SaleRecord {
	idx := make(map[uuid.UUID]domain.SaleRecord, len(s.Sales))
	for _, sale := range s.Sales {
		if _, ok := idx[sale.ItemID]; !ok {
			idx[sale.ItemID] = sale
		}
	}
	return idx
}

// JoinedSale pairs a sale with the inventory item it sold.
type JoinedSale struct {
	Item domain.InventoryItem
	Sale domain.SaleRecord
}

// JoinSales resolves each sale's item reference, preserving input order.
// Sales pointing at a missing item are skipped, never an error; the count of
// skipped records is returned so callers can surface it for diagnosis.
func (s Snapshot) JoinSales(logger *slog.Logger) ([]JoinedSale, int) {
	idx := s.ItemIndex()
	joined := make([]JoinedSale, 0, len(s.Sales))
	skipped := 0

	for _, sale := range s.Sales {
		item, ok := idx[sale.ItemID]
		if !ok {
			skipped++
			if logger != nil {
				logger.Warn("sale references missing inventory item",
					slog.String("sale_id", sale.ID.String()),
					slog.String("item_id", sale.ItemID.String()))
			}
			continue
		}
		joined = append(joined, JoinedSale{Item: item, Sale: sale})
	}

	return joined, skipped
}
