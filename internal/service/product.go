package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumina-cms/lumina/internal/imaging"
	"github.com/lumina-cms/lumina/internal/model"
	"github.com/lumina-cms/lumina/internal/repository"
	"github.com/lumina-cms/lumina/internal/storage"
	"github.com/lumina-cms/lumina/internal/validation"
)

// ProductInput carries the user-editable product fields.
type ProductInput struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
}

// ProductImageResponse is the API shape of one product image rendition.
type ProductImageResponse struct {
	ID       string          `json:"id"`
	Format   model.Format    `json:"format"`
	Size     model.SizeClass `json:"size"`
	URL      string          `json:"url"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	FileSize int64           `json:"fileSize"`
	Quality  int             `json:"quality"`
}

// ProductResponse is the full API representation of a product.
type ProductResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Price       float64                `json:"price"`
	Category    string                 `json:"category"`
	Description string                 `json:"description,omitempty"`
	Image       string                 `json:"image,omitempty"`
	Images      []ProductImageResponse `json:"images"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// ProductService manages the product catalog. Product photos run through
// the same transform pipeline as the gallery, but in a single format
// (AVIF) with the product size table, and the medium rendition becomes
// the product's display image.
type ProductService struct {
	products    repository.ProductRepository
	images      repository.ProductImageRepository
	store       storage.BlobStore
	transformer imaging.Transformer
	opts        PipelineOptions
}

func NewProductService(
	products repository.ProductRepository,
	images repository.ProductImageRepository,
	store storage.BlobStore,
	transformer imaging.Transformer,
	policy validation.ImagePolicy,
) *ProductService {
	return &ProductService{
		products:    products,
		images:      images,
		store:       store,
		transformer: transformer,
		opts: PipelineOptions{
			Formats:         []model.Format{model.FormatAVIF},
			Sizes:           model.ProductSizes,
			PreferredFormat: model.FormatAVIF,
			Policy:          policy,
		},
	}
}

// Create persists a new product and runs the image pipeline before the
// product is returned. The image is mandatory; a product whose image
// cannot be processed at all is rolled back.
func (s *ProductService) Create(ctx context.Context, input ProductInput, upload *Upload) (*ProductResponse, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if upload == nil {
		return nil, fmt.Errorf("%w: product image is required", ErrValidation)
	}

	now := time.Now()
	product := &model.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Price:       input.Price,
		Category:    input.Category,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.products.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	_, err = s.attachImage(ctx, product, *upload)
	if err != nil {
		derr := s.products.Delete(ctx, product.ID)
		if derr != nil {
			slog.Error("failed to roll back product after image failure",
				"product_id", product.ID, "error", derr)
		}
		return nil, err
	}

	slog.Info("product created", "product_id", product.ID, "name", product.Name)
	return s.Product(ctx, product.ID)
}

// UploadImage replaces a product's image: old renditions (blobs and rows)
// go away, the new upload runs through the pipeline.
func (s *ProductService) UploadImage(ctx context.Context, productID string, upload Upload) (*ProductResponse, error) {
	product, err := s.products.ByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	old, err := s.images.ByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, img := range old {
		err = s.store.Remove(ctx, img.StorageKey)
		if err != nil {
			slog.Warn("failed to delete old product image blob", "key", img.StorageKey, "error", err)
		}
	}
	err = s.images.DeleteByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear old product images: %w", err)
	}

	_, err = s.attachImage(ctx, product, upload)
	if err != nil {
		return nil, err
	}

	return s.Product(ctx, productID)
}

// attachImage runs the pipeline for one product upload and points
// product.Image at the medium rendition.
func (s *ProductService) attachImage(ctx context.Context, product *model.Product, upload Upload) ([]*model.ProductImage, error) {
	err := validation.CheckImage(upload.Data, upload.MimeType, s.opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	probed, err := s.transformer.Probe(upload.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt or unreadable image data", ErrValidation)
	}
	err = validation.CheckDimensions(probed.Width, probed.Height, s.opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	planned := imaging.Plan(s.opts.Formats, s.opts.Sizes)
	produced := make([]*model.ProductImage, 0, len(planned))

	for _, p := range planned {
		result, err := s.transformer.Transform(upload.Data, p)
		if err != nil {
			slog.Warn("product variant transform failed, skipping",
				"product_id", product.ID, "format", p.Format, "size", p.Size, "error", err)
			continue
		}

		key := fmt.Sprintf("products/%s/%s/%d.%s", product.ID, p.Size, time.Now().UnixMilli(), p.Format)
		err = s.store.Put(ctx, key, result.Data, result.ContentType, blobCacheControl)
		if err != nil {
			slog.Warn("product variant upload failed, skipping",
				"product_id", product.ID, "format", p.Format, "size", p.Size, "error", err)
			continue
		}

		produced = append(produced, &model.ProductImage{
			ID:         uuid.New().String(),
			ProductID:  product.ID,
			Format:     p.Format,
			Size:       p.Size,
			URL:        s.store.URL(key),
			StorageKey: key,
			Width:      result.Width,
			Height:     result.Height,
			FileSize:   int64(len(result.Data)),
			Quality:    p.Config.Quality,
			CreatedAt:  time.Now(),
		})
	}

	if len(produced) == 0 {
		return nil, fmt.Errorf("%w: no product image rendition could be produced", ErrProcessingFailed)
	}

	err = s.images.CreateBatch(ctx, produced)
	if err != nil {
		for _, img := range produced {
			rerr := s.store.Remove(ctx, img.StorageKey)
			if rerr != nil {
				slog.Warn("failed to remove blob during cleanup", "key", img.StorageKey, "error", rerr)
			}
		}
		return nil, fmt.Errorf("failed to persist product images: %w", err)
	}

	product.Image = s.displayImage(produced)
	product.UpdatedAt = time.Now()
	err = s.products.Update(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to set product image: %w", err)
	}

	return produced, nil
}

// displayImage picks the medium rendition, else the first produced.
func (s *ProductService) displayImage(images []*model.ProductImage) string {
	for _, img := range images {
		if img.Size == model.SizeMedium {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}

// Product returns one product with its image renditions.
func (s *ProductService) Product(ctx context.Context, id string) (*ProductResponse, error) {
	product, err := s.products.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.images.ByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapProductResponse(product, images)
	return &resp, nil
}

// Products lists all products, newest first.
func (s *ProductService) Products(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		images, err := s.images.ByProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, mapProductResponse(product, images))
	}
	return out, nil
}

// Update changes product fields; the image pipeline is untouched.
func (s *ProductService) Update(ctx context.Context, id string, input ProductInput) (*ProductResponse, error) {
	product, err := s.products.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	product.Name = input.Name
	product.Price = input.Price
	product.Category = input.Category
	product.Description = input.Description
	product.UpdatedAt = time.Now()

	err = s.products.Update(ctx, product)
	if err != nil {
		return nil, err
	}
	return s.Product(ctx, id)
}

// Remove deletes a product, its image rows, and (best effort) its blobs.
func (s *ProductService) Remove(ctx context.Context, id string) error {
	_, err := s.products.ByID(ctx, id)
	if err != nil {
		return err
	}
	images, err := s.images.ByProduct(ctx, id)
	if err != nil {
		return err
	}

	for _, img := range images {
		err = s.store.Remove(ctx, img.StorageKey)
		if err != nil {
			slog.Warn("failed to delete product image blob", "key", img.StorageKey, "error", err)
		}
	}

	err = s.images.DeleteByProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product images: %w", err)
	}
	err = s.products.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	slog.Info("product removed", "product_id", id)
	return nil
}

func mapProductResponse(product *model.Product, images []*model.ProductImage) ProductResponse {
	imgs := make([]ProductImageResponse, 0, len(images))
	for _, img := range images {
		imgs = append(imgs, ProductImageResponse{
			ID:       img.ID,
			Format:   img.Format,
			Size:     img.Size,
			URL:      img.URL,
			Width:    img.Width,
			Height:   img.Height,
			FileSize: img.FileSize,
			Quality:  img.Quality,
		})
	}

	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Category:    product.Category,
		Description: product.Description,
		Image:       product.Image,
		Images:      imgs,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
