package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/handlers"
	"github.com/Bruizy/lego-flip-tracker/test/helpers"
	"github.com/Bruizy/lego-flip-tracker/test/mocks"
)

func newExpensesHandler(t *testing.T) (*handlers.ExpensesHandler, *mocks.MockExpenseService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockExpenseService(ctrl)
	return handlers.NewExpensesHandler(service, helpers.TestLogger()), service
}

func TestExpensesHandler_CreateExpense(t *testing.T) {
	handler, service := newExpensesHandler(t)

	service.EXPECT().
		SaveExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, expense *domain.ExpenseRecord) error {
			assert.True(t, decimal.NewFromFloat(34.99).Equal(expense.Amount))
			assert.Equal(t, "Bubble mailers", expense.Category)
			return nil
		})

	payload := []byte(`{"amount":"34.99","category":"Bubble mailers","date":"2025-05-10"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", bytes.NewReader(payload))
	rec := serveMux("POST /api/v1/expenses", handler.CreateExpense, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestExpensesHandler_CreateExpense_BadDate(t *testing.T) {
	handler, _ := newExpensesHandler(t)

	payload := []byte(`{"amount":"10","category":"Tape","date":"05/10/2025"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", bytes.NewReader(payload))
	rec := serveMux("POST /api/v1/expenses", handler.CreateExpense, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpensesHandler_ListExpenses(t *testing.T) {
	handler, service := newExpensesHandler(t)

	service.EXPECT().List(gomock.Any()).Return([]domain.ExpenseRecord{
		{Amount: decimal.NewFromInt(20), Category: "Shipping labels"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
	rec := serveMux("GET /api/v1/expenses", handler.ListExpenses, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Shipping labels")
}
