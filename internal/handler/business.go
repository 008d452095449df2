package handler

import (
	"fmt"
	"net/http"

	"github.com/lumina-cms/lumina/internal/model"
	"github.com/lumina-cms/lumina/internal/service"
)

// BusinessHandler exposes the page-builder API.
type BusinessHandler struct {
	businesses *service.BusinessService
}

func NewBusinessHandler(businesses *service.BusinessService) *BusinessHandler {
	return &BusinessHandler{businesses: businesses}
}

// Create handles POST /api/businesses. Section payloads are decoded
// through the section registry; an unknown type is a 400.
func (h *BusinessHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.BusinessInput
	err := decodeJSON(r, &input)
	if err != nil {
		writeError(w, r, wrapDecodeErr(err))
		return
	}

	business, err := h.businesses.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, business)
}

// List handles GET /api/businesses.
func (h *BusinessHandler) List(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.businesses.Businesses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, businesses)
}

// Get handles GET /api/businesses/{id}.
func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	business, err := h.businesses.Business(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

// Update handles PUT /api/businesses/{id}: full replacement of the
// editable fields including the section document.
func (h *BusinessHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input service.BusinessInput
	err := decodeJSON(r, &input)
	if err != nil {
		writeError(w, r, wrapDecodeErr(err))
		return
	}

	business, err := h.businesses.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, business)
}

// Delete handles DELETE /api/businesses/{id}.
func (h *BusinessHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.businesses.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SectionTypes handles GET /api/businesses/section-types.
func (h *BusinessHandler) SectionTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"types": model.SectionTypes()})
}

// wrapDecodeErr flags body decode failures, unknown section types
// included, as validation failures.
func wrapDecodeErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: invalid request body: %v", service.ErrValidation, err)
}
