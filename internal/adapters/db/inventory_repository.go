// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

var itemColumns = []string{
	"id", "name", "set_number", "image_url", "purchase_date",
	"purchase_cost", "material_cost", "condition", "batch", "bought_from",
	"payment_method", "has_box", "has_manual", "status", "notes",
	"created_at", "updated_at",
}

// inventoryRepository implements ports.InventoryRepository
type inventoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *Database, logger *slog.Logger) ports.InventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

const itemInsertQuery = `
	INSERT INTO inventory_items (
		id, name, set_number, image_url, purchase_date,
		purchase_cost, material_cost, condition, batch, bought_from,
		payment_method, has_box, has_manual, status, notes,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17
	)`

func itemArgs(item *domain.InventoryItem) []interface{} {
	return []interface{}{
		item.ID, item.Name, item.SetNumber, item.ImageURL, dateArg(item.PurchaseDate),
		item.PurchaseCost, item.MaterialCost, item.Condition, item.Batch, item.BoughtFrom,
		item.PaymentMethod, item.HasBox, item.HasManual, item.Status, item.Notes,
		item.CreatedAt, item.UpdatedAt,
	}
}

func scanItem(row pgx.Row) (*domain.InventoryItem, error) {
	item := &domain.InventoryItem{}
	var purchaseDate sql.NullTime
	var setNumber, imageURL, batch, boughtFrom, paymentMethod, notes sql.NullString

	err := row.Scan(
		&item.ID, &item.Name, &setNumber, &imageURL, &purchaseDate,
		&item.PurchaseCost, &item.MaterialCost, &item.Condition, &batch, &boughtFrom,
		&paymentMethod, &item.HasBox, &item.HasManual, &item.Status, &notes,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.PurchaseDate = dateFrom(purchaseDate)
	item.SetNumber = setNumber.String
	item.ImageURL = imageURL.String
	item.Batch = batch.String
	item.BoughtFrom = boughtFrom.String
	item.PaymentMethod = paymentMethod.String
	item.Notes = notes.String

	return item, nil
}

// Save creates a new inventory item
func (r *inventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	_, err := r.db.Exec(ctx, itemInsertQuery, itemArgs(item)...)
	if err != nil {
		return fmt.Errorf("failed to save inventory item: %w", err)
	}

	r.logger.DebugContext(ctx, "inventory item saved",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	return nil
}

// SaveBatch saves multiple inventory items in a transaction
func (r *inventoryRepository) SaveBatch(ctx context.Context, items []domain.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range items {
			batch.Queue(itemInsertQuery, itemArgs(&items[i])...)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for i := range items {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to save item %d: %w", i, err)
			}
		}

		return nil
	})
}

// Update updates an existing inventory item
func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			name = $2, set_number = $3, image_url = $4, purchase_date = $5,
			purchase_cost = $6, material_cost = $7, condition = $8, batch = $9,
			bought_from = $10, payment_method = $11, has_box = $12, has_manual = $13,
			status = $14, notes = $15, updated_at = $16
		WHERE id = $1`

	item.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.Name, item.SetNumber, item.ImageURL, dateArg(item.PurchaseDate),
		item.PurchaseCost, item.MaterialCost, item.Condition, item.Batch,
		item.BoughtFrom, item.PaymentMethod, item.HasBox, item.HasManual,
		item.Status, item.Notes, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item not found: %s", item.ID)
	}

	r.logger.DebugContext(ctx, "inventory item updated",
		slog.String("item_id", item.ID.String()))

	return nil
}

// FindByID retrieves an inventory item by ID
func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	qb := squirrel.Select(itemColumns...).
		From("inventory_items").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find inventory item: %w", err)
	}

	return item, nil
}

// FindAll retrieves every inventory item, newest first
func (r *inventoryRepository) FindAll(ctx context.Context) ([]domain.InventoryItem, error) {
	qb := squirrel.Select(itemColumns...).
		From("inventory_items").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// Delete performs a hard delete
func (r *inventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item not found: %s", id)
	}

	r.logger.InfoContext(ctx, "inventory item deleted",
		slog.String("item_id", id.String()))

	return nil
}

// Count returns the total number of inventory items
func (r *inventoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory items: %w", err)
	}
	return count, nil
}

// Exists checks if an inventory item exists
func (r *inventoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM inventory_items WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

// Batches returns the distinct non-empty batch labels in use
func (r *inventoryRepository) Batches(ctx context.Context) ([]string, error) {
	qb := squirrel.Select("DISTINCT batch").
		From("inventory_items").
		Where("batch IS NOT NULL AND batch <> ''").
		OrderBy("batch").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []string
	for rows.Next() {
		var batch string
		if err := rows.Scan(&batch); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return batches, nil
}
