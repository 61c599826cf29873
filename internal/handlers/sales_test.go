package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/services"
	"github.com/Bruizy/lego-flip-tracker/internal/handlers"
	"github.com/Bruizy/lego-flip-tracker/test/helpers"
	"github.com/Bruizy/lego-flip-tracker/test/mocks"
)

func newSalesHandler(t *testing.T) (*handlers.SalesHandler, *mocks.MockInventoryService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockInventoryService(ctrl)
	return handlers.NewSalesHandler(service, helpers.TestLogger()), service
}

func TestSalesHandler_RecordSale(t *testing.T) {
	handler, service := newSalesHandler(t)

	itemID := uuid.New()
	service.EXPECT().
		RecordSale(gomock.Any(), itemID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, sale *domain.SaleRecord) error {
			assert.True(t, decimal.NewFromInt(180).Equal(sale.SalePrice))
			assert.Equal(t, "eBay", sale.Marketplace)
			sale.ID = uuid.New()
			return nil
		})

	body := map[string]interface{}{
		"sale_date":        "2025-07-01",
		"sale_price":       "180",
		"shipping_charged": "12.50",
		"shipping_paid":    "9.80",
		"fees":             "23.40",
		"marketplace":      "eBay",
	}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+itemID.String()+"/sale", bytes.NewReader(payload))
	rec := serveMux("POST /api/v1/items/{id}/sale", handler.RecordSale, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got domain.SaleRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.NotEqual(t, uuid.Nil, got.ID)
}

func TestSalesHandler_RecordSale_AlreadySold(t *testing.T) {
	handler, service := newSalesHandler(t)

	itemID := uuid.New()
	service.EXPECT().RecordSale(gomock.Any(), itemID, gomock.Any()).
		Return(fmt.Errorf("item %s has status %q, only in-stock items can be sold: %w",
			itemID, domain.StatusSold, services.ErrConflict))

	payload := []byte(`{"sale_price":"50"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+itemID.String()+"/sale", bytes.NewReader(payload))
	rec := serveMux("POST /api/v1/items/{id}/sale", handler.RecordSale, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSalesHandler_RecordSale_BadDate(t *testing.T) {
	handler, _ := newSalesHandler(t)

	payload := []byte(`{"sale_price":"50","sale_date":"July 1st"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+uuid.NewString()+"/sale", bytes.NewReader(payload))
	rec := serveMux("POST /api/v1/items/{id}/sale", handler.RecordSale, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sale_date")
}

func TestSalesHandler_GetSale(t *testing.T) {
	handler, service := newSalesHandler(t)

	itemID := uuid.New()
	sale := &domain.SaleRecord{
		ID:        uuid.New(),
		ItemID:    itemID,
		SalePrice: decimal.NewFromInt(75),
	}
	service.EXPECT().GetSaleByItem(gomock.Any(), itemID).Return(sale, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String()+"/sale", nil)
	rec := serveMux("GET /api/v1/items/{id}/sale", handler.GetSale, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sale.ID.String())
}

func TestSalesHandler_GetSale_NotFound(t *testing.T) {
	handler, service := newSalesHandler(t)

	itemID := uuid.New()
	service.EXPECT().GetSaleByItem(gomock.Any(), itemID).
		Return(nil, fmt.Errorf("no sale for item %s: %w", itemID, services.ErrNotFound))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String()+"/sale", nil)
	rec := serveMux("GET /api/v1/items/{id}/sale", handler.GetSale, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSalesHandler_DeleteSale(t *testing.T) {
	handler, service := newSalesHandler(t)

	saleID := uuid.New()
	service.EXPECT().DeleteSale(gomock.Any(), saleID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sales/"+saleID.String(), nil)
	rec := serveMux("DELETE /api/v1/sales/{id}", handler.DeleteSale, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSalesHandler_UpdateSale_NotFound(t *testing.T) {
	handler, service := newSalesHandler(t)

	saleID := uuid.New()
	service.EXPECT().UpdateSale(gomock.Any(), saleID, gomock.Any()).
		Return(fmt.Errorf("sale %s: %w", saleID, services.ErrNotFound))

	payload := []byte(`{"sale_price":"99"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/sales/"+saleID.String(), bytes.NewReader(payload))
	rec := serveMux("PUT /api/v1/sales/{id}", handler.UpdateSale, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
