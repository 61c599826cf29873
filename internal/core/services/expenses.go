// internal/core/services/expenses.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// ExpenseService handles overhead expense business logic.
type ExpenseService struct {
	expenses ports.ExpenseRepository
	cache    ports.CacheRepository
	logger   *slog.Logger
}

var _ ports.ExpenseService = (*ExpenseService)(nil)

// NewExpenseService creates a new expense service. cache may be nil.
func NewExpenseService(expenses ports.ExpenseRepository, cache ports.CacheRepository, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{
		expenses: expenses,
		cache:    cache,
		logger:   logger.With(slog.String("service", "expenses")),
	}
}

// SaveExpense saves a single expense.
func (s *ExpenseService) SaveExpense(ctx context.Context, expense *domain.ExpenseRecord) error {
	if err := expense.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	expense.PrepareForStorage()

	if err := s.expenses.Save(ctx, expense); err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "saved expense",
		slog.String("expense_id", expense.ID.String()),
		slog.String("category", expense.Category),
		slog.String("amount", expense.Amount.String()))

	return s.invalidateReports(ctx)
}

// SaveExpenses saves multiple expenses, used by imports.
func (s *ExpenseService) SaveExpenses(ctx context.Context, expenses []domain.ExpenseRecord) error {
	if len(expenses) == 0 {
		return nil
	}

	for i := range expenses {
		if err := expenses[i].Validate(); err != nil {
			return fmt.Errorf("validation failed for expense %q: %w", expenses[i].Category, err)
		}
		expenses[i].PrepareForStorage()
	}

	if err := s.expenses.SaveBatch(ctx, expenses); err != nil {
		return fmt.Errorf("failed to save expenses batch: %w", err)
	}

	s.logger.InfoContext(ctx, "saved expenses", slog.Int("count", len(expenses)))

	return s.invalidateReports(ctx)
}

// GetByID retrieves an expense by ID.
func (s *ExpenseService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseRecord, error) {
	expense, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if expense == nil {
		return nil, fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	return expense, nil
}

// UpdateExpense updates an existing expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id uuid.UUID, expense *domain.ExpenseRecord) error {
	existing, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load expense: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}

	expense.ID = id
	expense.CreatedAt = existing.CreatedAt
	if err := expense.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.expenses.Update(ctx, expense); err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	s.logger.InfoContext(ctx, "updated expense", slog.String("expense_id", id.String()))

	return s.invalidateReports(ctx)
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	expense, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load expense: %w", err)
	}
	if expense == nil {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}

	if err := s.expenses.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted expense", slog.String("expense_id", id.String()))

	return s.invalidateReports(ctx)
}

// List returns all expenses, newest first per the repository's ordering.
func (s *ExpenseService) List(ctx context.Context) ([]domain.ExpenseRecord, error) {
	expenses, err := s.expenses.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) invalidateReports(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeletePattern(ctx, reportCachePattern); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate report cache", slog.Any("error", err))
	}
	return nil
}
