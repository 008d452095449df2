package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/lumina-cms/lumina/internal/service"
)

// ProductHandler exposes the product catalog API.
type ProductHandler struct {
	products *service.ProductService
	maxBytes int64
}

func NewProductHandler(products *service.ProductService, maxBytes int64) *ProductHandler {
	return &ProductHandler{products: products, maxBytes: maxBytes}
}

// Create handles POST /api/products: a multipart form with product
// fields and an optional "image" file part.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(r, "image", h.maxBytes)
	if err != nil && err != http.ErrMissingFile {
		writeError(w, r, err)
		return
	}

	input, err := productForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	product, err := h.products.Create(r.Context(), input, upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Products(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Update handles PUT /api/products/{id}: product fields as JSON, image
// untouched.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input service.ProductInput
	err := decodeJSON(r, &input)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body: %v", service.ErrValidation, err))
		return
	}

	product, err := h.products.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// UploadImage handles POST /api/products/{id}/image: replaces the
// product's image renditions.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(r, "image", h.maxBytes)
	if err != nil {
		if err == http.ErrMissingFile {
			writeError(w, r, fmt.Errorf("%w: no file was uploaded", service.ErrValidation))
			return
		}
		writeError(w, r, err)
		return
	}

	product, err := h.products.UploadImage(r.Context(), r.PathValue("id"), *upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.products.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productForm(r *http.Request) (service.ProductInput, error) {
	input := service.ProductInput{
		Name:        r.FormValue("name"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
	}

	rawPrice := r.FormValue("price")
	if rawPrice != "" {
		price, err := strconv.ParseFloat(rawPrice, 64)
		if err != nil {
			return input, fmt.Errorf("%w: invalid price %q", service.ErrValidation, rawPrice)
		}
		input.Price = price
	}

	return input, nil
}
