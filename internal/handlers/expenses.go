package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// ExpensesHandler serves the business-expense endpoints.
type ExpensesHandler struct {
	service ports.ExpenseService
	logger  *slog.Logger
}

func NewExpensesHandler(service ports.ExpenseService, logger *slog.Logger) *ExpensesHandler {
	return &ExpensesHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "expenses")),
	}
}

// ListExpenses handles GET /api/v1/expenses
func (h *ExpensesHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list expenses", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to list expenses")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"expenses": expenses})
}

// GetExpense handles GET /api/v1/expenses/{id}
func (h *ExpensesHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid expense ID format")
		return
	}

	expense, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get expense",
			slog.String("expense_id", id.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to retrieve expense")
		return
	}

	respondJSON(w, http.StatusOK, expense)
}

// CreateExpense handles POST /api/v1/expenses
func (h *ExpensesHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := req.ToDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SaveExpense(r.Context(), expense); err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create expense", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to create expense")
		return
	}

	h.logger.Info("expense created",
		slog.String("expense_id", expense.ID.String()),
		slog.String("category", expense.Category),
		slog.String("amount", expense.Amount.String()))
	respondJSON(w, http.StatusCreated, expense)
}

// UpdateExpense handles PUT /api/v1/expenses/{id}
func (h *ExpensesHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid expense ID format")
		return
	}

	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := req.ToDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateExpense(r.Context(), id, expense); err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update expense",
			slog.String("expense_id", id.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to update expense")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Expense updated successfully"})
}

// DeleteExpense handles DELETE /api/v1/expenses/{id}
func (h *ExpensesHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid expense ID format")
		return
	}

	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		h.logger.Error("failed to delete expense",
			slog.String("expense_id", id.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to delete expense")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Expense deleted successfully",
		"id":      id,
	})
}

// ExpenseRequest is the payload for creating or updating an expense.
type ExpenseRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
	Note     string          `json:"note"`
}

func (r *ExpenseRequest) ToDomain() (*domain.ExpenseRecord, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	return &domain.ExpenseRecord{
		Amount:   r.Amount,
		Category: strings.TrimSpace(r.Category),
		Date:     date,
		Note:     strings.TrimSpace(r.Note),
	}, nil
}
