// internal/adapters/db/sale_repository.go
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

var saleColumns = []string{
	"id", "item_id", "sale_date", "sale_price", "shipping_charged",
	"shipping_paid", "fees", "marketplace", "buyer", "notes",
	"created_at", "updated_at",
}

// saleRepository implements ports.SaleRepository
type saleRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *Database, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

func scanSale(row pgx.Row) (*domain.SaleRecord, error) {
	sale := &domain.SaleRecord{}
	var saleDate sql.NullTime
	var marketplace, buyer, notes sql.NullString

	err := row.Scan(
		&sale.ID, &sale.ItemID, &saleDate, &sale.SalePrice, &sale.ShippingCharged,
		&sale.ShippingPaid, &sale.Fees, &marketplace, &buyer, &notes,
		&sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sale.SaleDate = dateFrom(saleDate)
	sale.Marketplace = marketplace.String
	sale.Buyer = buyer.String
	sale.Notes = notes.String

	return sale, nil
}

// Save creates a new sale record. The unique index on item_id enforces the
// one-sale-per-item rule at the schema level.
func (r *saleRepository) Save(ctx context.Context, sale *domain.SaleRecord) error {
	query := `
		INSERT INTO sales (
			id, item_id, sale_date, sale_price, shipping_charged,
			shipping_paid, fees, marketplace, buyer, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		sale.ID, sale.ItemID, dateArg(sale.SaleDate), sale.SalePrice, sale.ShippingCharged,
		sale.ShippingPaid, sale.Fees, sale.Marketplace, sale.Buyer, sale.Notes,
		sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}

	r.logger.DebugContext(ctx, "sale saved",
		slog.String("sale_id", sale.ID.String()),
		slog.String("item_id", sale.ItemID.String()))

	return nil
}

// Update updates an existing sale record
func (r *saleRepository) Update(ctx context.Context, sale *domain.SaleRecord) error {
	query := `
		UPDATE sales SET
			sale_date = $2, sale_price = $3, shipping_charged = $4,
			shipping_paid = $5, fees = $6, marketplace = $7, buyer = $8,
			notes = $9, updated_at = $10
		WHERE id = $1`

	sale.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query,
		sale.ID, dateArg(sale.SaleDate), sale.SalePrice, sale.ShippingCharged,
		sale.ShippingPaid, sale.Fees, sale.Marketplace, sale.Buyer,
		sale.Notes, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale not found: %s", sale.ID)
	}

	return nil
}

// FindByID retrieves a sale by ID
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SaleRecord, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByItemID retrieves the sale attached to an item
func (r *saleRepository) FindByItemID(ctx context.Context, itemID uuid.UUID) (*domain.SaleRecord, error) {
	return r.findOne(ctx, squirrel.Eq{"item_id": itemID})
}

func (r *saleRepository) findOne(ctx context.Context, where squirrel.Eq) (*domain.SaleRecord, error) {
	qb := squirrel.Select(saleColumns...).
		From("sales").
		Where(where).
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	sale, err := scanSale(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}

	return sale, nil
}

// FindAll retrieves every sale record, newest first
func (r *saleRepository) FindAll(ctx context.Context) ([]domain.SaleRecord, error) {
	qb := squirrel.Select(saleColumns...).
		From("sales").
		OrderBy("sale_date DESC NULLS LAST, created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.SaleRecord
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sales, nil
}

// Delete removes a sale by ID
func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale not found: %s", id)
	}

	r.logger.InfoContext(ctx, "sale deleted", slog.String("sale_id", id.String()))

	return nil
}

// DeleteByItemID removes the sale attached to an item. Missing sale is not
// an error, so item deletion can call this unconditionally.
func (r *saleRepository) DeleteByItemID(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sales WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete sale for item: %w", err)
	}
	return nil
}
