package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/storage"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
)

// maxPhotoBytes caps a single photo upload at 10 MB.
const maxPhotoBytes = 10 << 20

// presignedURLTTL is how long listed photo links stay valid.
const presignedURLTTL = 15 * time.Minute

// PhotosHandler manages item photos stored in S3.
type PhotosHandler struct {
	store     storage.PhotoStore
	inventory ports.InventoryService
	logger    *slog.Logger
}

func NewPhotosHandler(store storage.PhotoStore, inventory ports.InventoryService, logger *slog.Logger) *PhotosHandler {
	return &PhotosHandler{
		store:     store,
		inventory: inventory,
		logger:    logger.With(slog.String("handler", "photos")),
	}
}

// UploadPhoto handles POST /api/v1/items/{id}/photos with a multipart
// "photo" field. The first photo an item receives becomes its image URL.
func (h *PhotosHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	item, err := h.inventory.GetByID(r.Context(), itemID)
	if err != nil {
		respondServiceError(w, err, "Failed to load item")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing or oversized photo upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read photo upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.store.Upload(r.Context(), itemID, header.Filename, bytes.NewReader(data), contentType)
	if err != nil {
		h.logger.Error("failed to upload photo",
			slog.String("item_id", itemID.String()),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to upload photo")
		return
	}

	if item.ImageURL == "" {
		item.ImageURL = url
		if err := h.inventory.UpdateItem(r.Context(), itemID, item); err != nil {
			h.logger.Warn("failed to set item image URL",
				slog.String("item_id", itemID.String()),
				slog.Any("error", err))
		}
	}

	h.logger.Info("photo uploaded",
		slog.String("item_id", itemID.String()),
		slog.String("filename", header.Filename))
	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// ListPhotos handles GET /api/v1/items/{id}/photos. Each photo is returned
// with a short-lived presigned URL.
func (h *PhotosHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	keys, err := h.store.ListForItem(r.Context(), itemID)
	if err != nil {
		h.logger.Error("failed to list photos",
			slog.String("item_id", itemID.String()),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to list photos")
		return
	}

	photos := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		url, err := h.store.GetPresignedURL(r.Context(), key, presignedURLTTL)
		if err != nil {
			h.logger.Warn("failed to presign photo",
				slog.String("key", key),
				slog.Any("error", err))
			continue
		}
		photos = append(photos, map[string]string{"key": key, "url": url})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"photos": photos})
}

// DeletePhotos handles DELETE /api/v1/items/{id}/photos. It removes every
// photo the item has.
func (h *PhotosHandler) DeletePhotos(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	if err := h.store.DeleteForItem(r.Context(), itemID); err != nil {
		h.logger.Error("failed to delete photos",
			slog.String("item_id", itemID.String()),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to delete photos")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Photos deleted successfully"})
}
