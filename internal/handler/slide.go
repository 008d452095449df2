package handler

import (
	"net/http"

	"github.com/lumina-cms/lumina/internal/service"
)

// SlideHandler exposes the hero-carousel API.
type SlideHandler struct {
	slides *service.SlideService
}

func NewSlideHandler(slides *service.SlideService) *SlideHandler {
	return &SlideHandler{slides: slides}
}

// Create handles POST /api/slides.
func (h *SlideHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.SlideInput
	err := decodeJSON(r, &input)
	if err != nil {
		writeError(w, r, wrapDecodeErr(err))
		return
	}

	slide, err := h.slides.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slide)
}

// List handles GET /api/slides, in carousel order.
func (h *SlideHandler) List(w http.ResponseWriter, r *http.Request) {
	slides, err := h.slides.Slides(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slides)
}

// Get handles GET /api/slides/{id}.
func (h *SlideHandler) Get(w http.ResponseWriter, r *http.Request) {
	slide, err := h.slides.Slide(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

// Update handles PUT /api/slides/{id}: partial update, commonly just the
// order when the carousel is rearranged.
func (h *SlideHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update service.SlideUpdate
	err := decodeJSON(r, &update)
	if err != nil {
		writeError(w, r, wrapDecodeErr(err))
		return
	}

	slide, err := h.slides.Update(r.Context(), r.PathValue("id"), update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

// Delete handles DELETE /api/slides/{id}.
func (h *SlideHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.slides.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
