// internal/adapters/db/expense_repository.go
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

var expenseColumns = []string{
	"id", "amount", "category", "expense_date", "note",
	"created_at", "updated_at",
}

// expenseRepository implements ports.ExpenseRepository
type expenseRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *Database, logger *slog.Logger) ports.ExpenseRepository {
	return &expenseRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "expenses")),
	}
}

const expenseInsertQuery = `
	INSERT INTO expenses (
		id, amount, category, expense_date, note, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

func expenseArgs(expense *domain.ExpenseRecord) []interface{} {
	return []interface{}{
		expense.ID, expense.Amount, expense.Category, dateArg(expense.Date),
		expense.Note, expense.CreatedAt, expense.UpdatedAt,
	}
}

func scanExpense(row pgx.Row) (*domain.ExpenseRecord, error) {
	expense := &domain.ExpenseRecord{}
	var date sql.NullTime
	var note sql.NullString

	err := row.Scan(
		&expense.ID, &expense.Amount, &expense.Category, &date, &note,
		&expense.CreatedAt, &expense.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	expense.Date = dateFrom(date)
	expense.Note = note.String

	return expense, nil
}

// Save creates a new expense record
func (r *expenseRepository) Save(ctx context.Context, expense *domain.ExpenseRecord) error {
	_, err := r.db.Exec(ctx, expenseInsertQuery, expenseArgs(expense)...)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	r.logger.DebugContext(ctx, "expense saved",
		slog.String("expense_id", expense.ID.String()),
		slog.String("category", expense.Category))

	return nil
}

// SaveBatch saves multiple expenses in a transaction
func (r *expenseRepository) SaveBatch(ctx context.Context, expenses []domain.ExpenseRecord) error {
	if len(expenses) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range expenses {
			batch.Queue(expenseInsertQuery, expenseArgs(&expenses[i])...)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for i := range expenses {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to save expense %d: %w", i, err)
			}
		}

		return nil
	})
}

// Update updates an existing expense record
func (r *expenseRepository) Update(ctx context.Context, expense *domain.ExpenseRecord) error {
	query := `
		UPDATE expenses SET
			amount = $2, category = $3, expense_date = $4, note = $5, updated_at = $6
		WHERE id = $1`

	expense.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, query,
		expense.ID, expense.Amount, expense.Category, dateArg(expense.Date),
		expense.Note, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense not found: %s", expense.ID)
	}

	return nil
}

// FindByID retrieves an expense by ID
func (r *expenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseRecord, error) {
	qb := squirrel.Select(expenseColumns...).
		From("expenses").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	expense, err := scanExpense(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}

	return expense, nil
}

// FindAll retrieves every expense, newest first
func (r *expenseRepository) FindAll(ctx context.Context) ([]domain.ExpenseRecord, error) {
	qb := squirrel.Select(expenseColumns...).
		From("expenses").
		OrderBy("expense_date DESC NULLS LAST, created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.ExpenseRecord
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return expenses, nil
}

// Delete removes an expense by ID
func (r *expenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense not found: %s", id)
	}

	r.logger.InfoContext(ctx, "expense deleted", slog.String("expense_id", id.String()))

	return nil
}
