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

// SalesHandler serves sale lifecycle endpoints. A sale always belongs to
// exactly one inventory item.
type SalesHandler struct {
	service ports.InventoryService
	logger  *slog.Logger
}

func NewSalesHandler(service ports.InventoryService, logger *slog.Logger) *SalesHandler {
	return &SalesHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "sales")),
	}
}

// RecordSale handles POST /api/v1/items/{id}/sale. Recording a sale moves
// the item from in_stock to sold; a second sale for the same item is a
// conflict.
func (h *SalesHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := req.ToDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.RecordSale(r.Context(), itemID, sale); err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to record sale",
			slog.String("item_id", itemID.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to record sale")
		return
	}

	h.logger.Info("sale recorded",
		slog.String("item_id", itemID.String()),
		slog.String("sale_id", sale.ID.String()),
		slog.String("sale_price", sale.SalePrice.String()))
	respondJSON(w, http.StatusCreated, sale)
}

// GetSale handles GET /api/v1/items/{id}/sale
func (h *SalesHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	sale, err := h.service.GetSaleByItem(r.Context(), itemID)
	if err != nil {
		h.logger.Error("failed to get sale",
			slog.String("item_id", itemID.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to retrieve sale")
		return
	}

	respondJSON(w, http.StatusOK, sale)
}

// UpdateSale handles PUT /api/v1/sales/{id}
func (h *SalesHandler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := req.ToDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateSale(r.Context(), saleID, sale); err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update sale",
			slog.String("sale_id", saleID.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to update sale")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Sale updated successfully"})
}

// DeleteSale handles DELETE /api/v1/sales/{id}. Deleting a sale returns
// the item to in_stock.
func (h *SalesHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	saleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	if err := h.service.DeleteSale(r.Context(), saleID); err != nil {
		h.logger.Error("failed to delete sale",
			slog.String("sale_id", saleID.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to delete sale")
		return
	}

	h.logger.Info("sale deleted", slog.String("sale_id", saleID.String()))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Sale deleted successfully",
		"id":      saleID,
	})
}

// SaleRequest is the payload for recording or updating a sale.
type SaleRequest struct {
	SaleDate        string          `json:"sale_date"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	ShippingCharged decimal.Decimal `json:"shipping_charged"`
	ShippingPaid    decimal.Decimal `json:"shipping_paid"`
	Fees            decimal.Decimal `json:"fees"`
	Marketplace     string          `json:"marketplace"`
	Buyer           string          `json:"buyer"`
	Notes           string          `json:"notes"`
}

func (r *SaleRequest) ToDomain() (*domain.SaleRecord, error) {
	saleDate, err := domain.ParseDate(r.SaleDate)
	if err != nil {
		return nil, fmt.Errorf("invalid sale_date: %w", err)
	}

	return &domain.SaleRecord{
		SaleDate:        saleDate,
		SalePrice:       r.SalePrice,
		ShippingCharged: r.ShippingCharged,
		ShippingPaid:    r.ShippingPaid,
		Fees:            r.Fees,
		Marketplace:     strings.TrimSpace(r.Marketplace),
		Buyer:           strings.TrimSpace(r.Buyer),
		Notes:           strings.TrimSpace(r.Notes),
	}, nil
}
