package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// InventoryHandler serves the inventory CRUD endpoints.
type InventoryHandler struct {
	service ports.InventoryService
	logger  *slog.Logger
}

func NewInventoryHandler(service ports.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "inventory")),
	}
}

// GetItem handles GET /api/v1/items/{id}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	item, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get item",
			slog.String("item_id", id.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to retrieve item")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// ListItems handles GET /api/v1/items
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		h.logger.Error("failed to list items", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to list items")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// CreateItem handles POST /api/v1/items
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := req.ToDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SaveItem(r.Context(), item); err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create item",
			slog.String("name", item.Name),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to create item")
		return
	}

	h.logger.Info("item created",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))
	respondJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PUT /api/v1/items/{id}
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := req.ToDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateItem(r.Context(), id, item); err != nil {
		if strings.Contains(err.Error(), "validation failed") {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update item",
			slog.String("item_id", id.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to update item")
		return
	}

	updated, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Item updated successfully"})
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteItem handles DELETE /api/v1/items/{id}. Deleting an item also
// removes its sale record, if any.
func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		h.logger.Error("failed to delete item",
			slog.String("item_id", id.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to delete item")
		return
	}

	h.logger.Info("item deleted", slog.String("item_id", id.String()))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Item deleted successfully",
		"id":      id,
	})
}

// MarkTraded handles POST /api/v1/items/{id}/trade
func (h *InventoryHandler) MarkTraded(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	if err := h.service.MarkTraded(r.Context(), id); err != nil {
		h.logger.Error("failed to mark item traded",
			slog.String("item_id", id.String()),
			slog.Any("error", err))
		respondServiceError(w, err, "Failed to mark item as traded")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Item marked as traded"})
}

// ListBatches handles GET /api/v1/batches. The frontend uses this to
// populate its batch filter dropdown.
func (h *InventoryHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.Batches(r.Context())
	if err != nil {
		h.logger.Error("failed to list batches", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to list batches")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"batches": batches})
}

// parseListParams extracts filter, sort and pagination parameters from the
// query string. Page size is capped at 100.
func parseListParams(r *http.Request) ports.ListParams {
	q := r.URL.Query()

	params := ports.ListParams{
		Status:    q.Get("status"),
		Condition: q.Get("condition"),
		Batch:     q.Get("batch"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Page:      1,
		PageSize:  50,
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		params.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil && size > 0 {
		if size > 100 {
			size = 100
		}
		params.PageSize = size
	}

	return params
}

// CreateItemRequest is the payload for creating an inventory item. Dates
// arrive as YYYY-MM-DD strings; money as decimal strings or numbers.
type CreateItemRequest struct {
	Name          string          `json:"name"`
	SetNumber     string          `json:"set_number"`
	ImageURL      string          `json:"image_url"`
	PurchaseDate  string          `json:"purchase_date"`
	PurchaseCost  decimal.Decimal `json:"purchase_cost"`
	MaterialCost  decimal.Decimal `json:"material_cost"`
	Condition     string          `json:"condition"`
	Batch         string          `json:"batch"`
	BoughtFrom    string          `json:"bought_from"`
	PaymentMethod string          `json:"payment_method"`
	HasBox        bool            `json:"has_box"`
	HasManual     bool            `json:"has_manual"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes"`
}

func (r *CreateItemRequest) ToDomain() (*domain.InventoryItem, error) {
	purchaseDate, err := domain.ParseDate(r.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase_date: %w", err)
	}

	return &domain.InventoryItem{
		Name:          strings.TrimSpace(r.Name),
		SetNumber:     strings.TrimSpace(r.SetNumber),
		ImageURL:      strings.TrimSpace(r.ImageURL),
		PurchaseDate:  purchaseDate,
		PurchaseCost:  r.PurchaseCost,
		MaterialCost:  r.MaterialCost,
		Condition:     domain.NormalizeCondition(r.Condition),
		Batch:         strings.TrimSpace(r.Batch),
		BoughtFrom:    strings.TrimSpace(r.BoughtFrom),
		PaymentMethod: strings.TrimSpace(r.PaymentMethod),
		HasBox:        r.HasBox,
		HasManual:     r.HasManual,
		Status:        domain.NormalizeStatus(r.Status),
		Notes:         strings.TrimSpace(r.Notes),
	}, nil
}

// UpdateItemRequest carries a full replacement of the item's editable
// fields. Identifiers and timestamps are managed server side.
type UpdateItemRequest struct {
	CreateItemRequest
}

func (r *UpdateItemRequest) ToDomain() (*domain.InventoryItem, error) {
	return r.CreateItemRequest.ToDomain()
}
