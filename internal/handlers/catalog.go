package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/catalog"
)

// CatalogHandler proxies set metadata lookups so the frontend never needs
// the catalog API key.
type CatalogHandler struct {
	client *catalog.Client
	logger *slog.Logger
}

func NewCatalogHandler(client *catalog.Client, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		client: client,
		logger: logger.With(slog.String("handler", "catalog")),
	}
}

// LookupSet handles GET /api/v1/catalog/sets/{setNumber}
func (h *CatalogHandler) LookupSet(w http.ResponseWriter, r *http.Request) {
	setNumber := r.PathValue("setNumber")

	info, err := h.client.LookupSet(r.Context(), setNumber)
	if err != nil {
		if errors.Is(err, catalog.ErrSetNotFound) {
			respondError(w, http.StatusNotFound, "Set not found")
			return
		}
		h.logger.Error("catalog lookup failed",
			slog.String("set_number", setNumber),
			slog.Any("error", err))
		respondError(w, http.StatusBadGateway, "Catalog lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, info)
}
