package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/lumina-cms/lumina/internal/repository"
	"github.com/lumina-cms/lumina/internal/service"
)

// GalleryHandler exposes the media gallery API.
type GalleryHandler struct {
	gallery  *service.GalleryService
	maxBytes int64
}

func NewGalleryHandler(gallery *service.GalleryService, maxBytes int64) *GalleryHandler {
	return &GalleryHandler{gallery: gallery, maxBytes: maxBytes}
}

// Upload handles POST /api/gallery: a multipart form with a "file" part
// and optional metadata fields.
func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(r, "file", h.maxBytes)
	if err != nil {
		if err == http.ErrMissingFile {
			writeError(w, r, fmt.Errorf("%w: no file was uploaded", service.ErrValidation))
			return
		}
		writeError(w, r, err)
		return
	}

	meta := service.ImageMeta{
		Title:       r.FormValue("title"),
		Alt:         r.FormValue("alt"),
		Description: r.FormValue("description"),
		Tags:        splitTags(r.FormValue("tags")),
	}

	image, created, err := h.gallery.Upload(r.Context(), *upload, meta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A dedup hit returns the existing asset, not a fresh one.
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, image)
}

// List handles GET /api/gallery with pagination, search and filters.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := repository.ImageQuery{
		Page:   intQuery(r, "page", 1),
		Limit:  intQuery(r, "limit", 20),
		Search: r.URL.Query().Get("search"),
		Tags:   splitTags(r.URL.Query().Get("tags")),
		Format: r.URL.Query().Get("format"),
		Size:   r.URL.Query().Get("size"),
	}

	images, err := h.gallery.Images(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Get handles GET /api/gallery/{id}.
func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	image, err := h.gallery.Image(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

// Update handles PATCH /api/gallery/{id}: metadata only.
func (h *GalleryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update service.ImageUpdate
	err := decodeJSON(r, &update)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body: %v", service.ErrValidation, err))
		return
	}

	image, err := h.gallery.Update(r.Context(), r.PathValue("id"), update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

// Delete handles DELETE /api/gallery/{id}.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.gallery.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Regenerate handles POST /api/gallery/{id}/regenerate: rebuild derived
// variants from the stored original.
func (h *GalleryHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	image, err := h.gallery.Regenerate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

// Tags handles GET /api/gallery/tags.
func (h *GalleryHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.gallery.Tags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
