// internal/core/ports/repositories.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// InventoryRepository defines the persistence port for inventory items.
// Implemented by the database adapter.
type InventoryRepository interface {
	Save(ctx context.Context, item *domain.InventoryItem) error
	SaveBatch(ctx context.Context, items []domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	FindAll(ctx context.Context) ([]domain.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Batches returns the distinct batch labels in use, for filter dropdowns.
	Batches(ctx context.Context) ([]string, error)
}

// SaleRepository defines the persistence port for sale records. Each item
// has at most one sale; the schema enforces the uniqueness.
type SaleRepository interface {
	Save(ctx context.Context, sale *domain.SaleRecord) error
	Update(ctx context.Context, sale *domain.SaleRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.SaleRecord, error)
	FindByItemID(ctx context.Context, itemID uuid.UUID) (*domain.SaleRecord, error)
	FindAll(ctx context.Context) ([]domain.SaleRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByItemID(ctx context.Context, itemID uuid.UUID) error
}

// ExpenseRepository defines the persistence port for overhead expenses.
type ExpenseRepository interface {
	Save(ctx context.Context, expense *domain.ExpenseRecord) error
	SaveBatch(ctx context.Context, expenses []domain.ExpenseRecord) error
	Update(ctx context.Context, expense *domain.ExpenseRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseRecord, error)
	FindAll(ctx context.Context) ([]domain.ExpenseRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
