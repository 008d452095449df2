package routes

import (
	"net/http"

	"github.com/lumina-cms/lumina/internal/app"
	"github.com/lumina-cms/lumina/internal/handler"
	"github.com/lumina-cms/lumina/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	gallery := handler.NewGalleryHandler(app.GalleryService, app.Cfg.UploadMaxBytes)
	products := handler.NewProductHandler(app.ProductService, app.Cfg.UploadMaxBytes)
	businesses := handler.NewBusinessHandler(app.BusinessService)
	slides := handler.NewSlideHandler(app.SlideService)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health", health.Health)

	// Upload endpoints are rate limited; transforms are CPU heavy.
	rateLimiter := middleware.RateLimitUploads()

	// Gallery
	mux.HandleFunc("POST /api/gallery", rateLimiter(gallery.Upload))
	mux.HandleFunc("GET /api/gallery", gallery.List)
	mux.HandleFunc("GET /api/gallery/tags", gallery.Tags)
	mux.HandleFunc("GET /api/gallery/{id}", gallery.Get)
	mux.HandleFunc("PATCH /api/gallery/{id}", gallery.Update)
	mux.HandleFunc("DELETE /api/gallery/{id}", gallery.Delete)
	mux.HandleFunc("POST /api/gallery/{id}/regenerate", rateLimiter(gallery.Regenerate))

	// Products
	mux.HandleFunc("POST /api/products", rateLimiter(products.Create))
	mux.HandleFunc("GET /api/products", products.List)
	mux.HandleFunc("GET /api/products/{id}", products.Get)
	mux.HandleFunc("PUT /api/products/{id}", products.Update)
	mux.HandleFunc("POST /api/products/{id}/image", rateLimiter(products.UploadImage))
	mux.HandleFunc("DELETE /api/products/{id}", products.Delete)

	// Businesses
	mux.HandleFunc("POST /api/businesses", businesses.Create)
	mux.HandleFunc("GET /api/businesses", businesses.List)
	mux.HandleFunc("GET /api/businesses/section-types", businesses.SectionTypes)
	mux.HandleFunc("GET /api/businesses/{id}", businesses.Get)
	mux.HandleFunc("PUT /api/businesses/{id}", businesses.Update)
	mux.HandleFunc("DELETE /api/businesses/{id}", businesses.Delete)

	// Slides
	mux.HandleFunc("POST /api/slides", slides.Create)
	mux.HandleFunc("GET /api/slides", slides.List)
	mux.HandleFunc("GET /api/slides/{id}", slides.Get)
	mux.HandleFunc("PUT /api/slides/{id}", slides.Update)
	mux.HandleFunc("DELETE /api/slides/{id}", slides.Delete)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
	)
}
