package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lumina-cms/lumina/internal/imaging"
	"github.com/lumina-cms/lumina/internal/model"
	"github.com/lumina-cms/lumina/internal/repository"
	"github.com/lumina-cms/lumina/internal/storage"
	"github.com/lumina-cms/lumina/internal/validation"
)

var (
	// ErrValidation covers every upload rejection that happens before any
	// side effect: missing buffer, oversize, bad mime, out-of-range
	// dimensions, corrupt bytes.
	ErrValidation = errors.New("validation failed")

	// ErrProcessingFailed is the fatal pipeline outcome: the upload was
	// valid but not a single variant could be produced.
	ErrProcessingFailed = errors.New("image processing failed")
)

// blobCacheControl is set on every uploaded variant; variants are
// immutable (regeneration writes new keys), so far-future caching is safe.
const blobCacheControl = "public, max-age=31536000"

// PipelineOptions is the static upload configuration, built once at
// startup and passed down.
type PipelineOptions struct {
	Formats         []model.Format
	Sizes           map[model.SizeClass]model.SizeConfig
	PreferredFormat model.Format
	Policy          validation.ImagePolicy
}

// GalleryService orchestrates the image-variant pipeline for the media
// gallery: validate, hash, dedup, transform, upload, persist, select the
// primary display variant.
type GalleryService struct {
	images      repository.ImageRepository
	variants    repository.VariantRepository
	store       storage.BlobStore
	transformer imaging.Transformer
	opts        PipelineOptions
}

func NewGalleryService(
	images repository.ImageRepository,
	variants repository.VariantRepository,
	store storage.BlobStore,
	transformer imaging.Transformer,
	opts PipelineOptions,
) *GalleryService {
	return &GalleryService{
		images:      images,
		variants:    variants,
		store:       store,
		transformer: transformer,
		opts:        opts,
	}
}

// Upload runs the full pipeline for a new image. Uploading bytes already
// known to the catalog is idempotent: the existing image is returned with
// created=false and nothing is written, so callers can tell a dedup hit
// apart from a fresh create.
func (s *GalleryService) Upload(ctx context.Context, upload Upload, meta ImageMeta) (*ImageResponse, bool, error) {
	if meta.Title == "" {
		return nil, false, fmt.Errorf("%w: title is required", ErrValidation)
	}
	err := validation.CheckImage(upload.Data, upload.MimeType, s.opts.Policy)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	probed, err := s.transformer.Probe(upload.Data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: corrupt or unreadable image data", ErrValidation)
	}
	err = validation.CheckDimensions(probed.Width, probed.Height, s.opts.Policy)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Dedup: identical bytes short-circuit to the existing image.
	hash := imaging.Hash(upload.Data)
	existing, err := s.images.ByHash(ctx, hash)
	if err == nil {
		existingVariants, verr := s.variants.ByImage(ctx, existing.ID)
		if verr != nil {
			return nil, false, verr
		}
		slog.Info("duplicate upload, returning existing image", "image_id", existing.ID, "hash", hash)
		resp := mapImageResponse(existing, existingVariants)
		return &resp, false, nil
	}
	if !errors.Is(err, repository.ErrImageNotFound) {
		return nil, false, err
	}

	// Asset shell: persisted before any variant upload so variants always
	// reference an existing parent.
	now := time.Now()
	image := &model.Image{
		ID:           uuid.New().String(),
		OriginalName: upload.Filename,
		Title:        meta.Title,
		Alt:          meta.Alt,
		Description:  meta.Description,
		MimeType:     upload.MimeType,
		Size:         upload.Size,
		Width:        probed.Width,
		Height:       probed.Height,
		Hash:         hash,
		Tags:         model.JoinTags(meta.Tags),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.images.Create(ctx, image)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create image record: %w", err)
	}

	planned := imaging.Plan(s.opts.Formats, s.opts.Sizes)
	produced := s.produceVariants(ctx, upload.Data, image.ID, planned)

	if len(produced) == 0 {
		// Fatal: compensate by removing the shell so no orphan image row
		// with zero variants survives the request.
		s.cleanupShell(ctx, image.ID, produced)
		return nil, false, fmt.Errorf("%w: no variant could be produced", ErrProcessingFailed)
	}

	err = s.variants.CreateBatch(ctx, produced)
	if err != nil {
		s.cleanupShell(ctx, image.ID, produced)
		return nil, false, fmt.Errorf("failed to persist variants: %w", err)
	}

	image.PrimaryURL = s.selectPrimary(produced)
	image.UpdatedAt = time.Now()
	err = s.images.Update(ctx, image)
	if err != nil {
		return nil, false, fmt.Errorf("failed to set primary url: %w", err)
	}

	slog.Info("image uploaded",
		"image_id", image.ID,
		"hash", hash,
		"variants", len(produced),
		"planned", len(planned),
	)
	resp := mapImageResponse(image, produced)
	return &resp, true, nil
}

// produceVariants runs transform and upload for every planned pair in
// plan order. A pair failing either step is logged and skipped; siblings
// continue. A variant record is only built after its blob upload
// succeeded, so no catalog row can point at a missing blob.
func (s *GalleryService) produceVariants(ctx context.Context, data []byte, imageID string, planned []imaging.PlannedVariant) []*model.ImageVariant {
	produced := make([]*model.ImageVariant, 0, len(planned))

	for _, p := range planned {
		result, err := s.transformer.Transform(data, p)
		if err != nil {
			slog.Warn("variant transform failed, skipping",
				"image_id", imageID, "format", p.Format, "size", p.Size, "error", err)
			continue
		}

		key := variantKey(imageID, p.Size, p.Format)
		err = s.store.Put(ctx, key, result.Data, result.ContentType, blobCacheControl)
		if err != nil {
			slog.Warn("variant upload failed, skipping",
				"image_id", imageID, "format", p.Format, "size", p.Size, "error", err)
			continue
		}

		produced = append(produced, &model.ImageVariant{
			ID:         uuid.New().String(),
			ImageID:    imageID,
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

	return produced
}

// cleanupShell removes the image row created by this request plus any
// blobs that made it to the store before the fatal error.
func (s *GalleryService) cleanupShell(ctx context.Context, imageID string, uploaded []*model.ImageVariant) {
	for _, v := range uploaded {
		err := s.store.Remove(ctx, v.StorageKey)
		if err != nil {
			slog.Warn("failed to remove blob during cleanup", "key", v.StorageKey, "error", err)
		}
	}
	err := s.images.Delete(ctx, imageID)
	if err != nil {
		slog.Error("failed to remove image shell during cleanup", "image_id", imageID, "error", err)
	}
}

// selectPrimary picks the representative display variant: the preferred
// format at medium size, else the first medium, else the first produced.
// Input is in plan order, so ties resolve deterministically.
func (s *GalleryService) selectPrimary(variants []*model.ImageVariant) string {
	for _, v := range variants {
		if v.Size == model.SizeMedium && v.Format == s.opts.PreferredFormat {
			return v.URL
		}
	}
	for _, v := range variants {
		if v.Size == model.SizeMedium {
			return v.URL
		}
	}
	if len(variants) > 0 {
		return variants[0].URL
	}
	return ""
}

// Regenerate rebuilds all non-original variants of an existing image from
// the stored original rendition. The original variant itself passes
// through untouched.
func (s *GalleryService) Regenerate(ctx context.Context, id string) (*ImageResponse, error) {
	image, err := s.images.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.variants.ByImage(ctx, id)
	if err != nil {
		return nil, err
	}

	original := s.findOriginal(existing)
	if original == nil {
		return nil, fmt.Errorf("%w: original variant not found", ErrValidation)
	}

	data, err := s.store.Get(ctx, original.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch original rendition: %w", err)
	}

	// Drop the old derived variants (rows and blobs) before producing the
	// new set; originals stay.
	for _, v := range existing {
		if v.Size == model.SizeOriginal {
			continue
		}
		err = s.store.Remove(ctx, v.StorageKey)
		if err != nil {
			slog.Warn("failed to remove stale variant blob", "key", v.StorageKey, "error", err)
		}
		err = s.variants.Delete(ctx, v.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to remove stale variant: %w", err)
		}
	}

	derived := make(map[model.SizeClass]model.SizeConfig, len(s.opts.Sizes))
	for size, config := range s.opts.Sizes {
		if size != model.SizeOriginal {
			derived[size] = config
		}
	}

	planned := imaging.Plan(s.opts.Formats, derived)
	produced := s.produceVariants(ctx, data, id, planned)
	if len(produced) == 0 {
		// The old derived set is already gone, so the previous primary may
		// point at a removed blob. Fall back to a surviving variant.
		s.repointPrimary(ctx, image)
		return nil, fmt.Errorf("%w: no variant could be produced", ErrProcessingFailed)
	}

	err = s.variants.CreateBatch(ctx, produced)
	if err != nil {
		for _, v := range produced {
			rerr := s.store.Remove(ctx, v.StorageKey)
			if rerr != nil {
				slog.Warn("failed to remove orphaned variant blob", "key", v.StorageKey, "error", rerr)
			}
		}
		s.repointPrimary(ctx, image)
		return nil, fmt.Errorf("failed to persist variants: %w", err)
	}

	image.PrimaryURL = s.selectPrimary(produced)
	image.UpdatedAt = time.Now()
	err = s.images.Update(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to set primary url: %w", err)
	}

	all, err := s.variants.ByImage(ctx, id)
	if err != nil {
		return nil, err
	}

	slog.Info("image variants regenerated", "image_id", id, "variants", len(produced))
	resp := mapImageResponse(image, all)
	return &resp, nil
}

// repointPrimary moves the image's primary URL onto whatever variants
// survive in the catalog. Best effort: a failed regeneration must not be
// masked by a failure here, so problems are only logged.
func (s *GalleryService) repointPrimary(ctx context.Context, image *model.Image) {
	surviving, err := s.variants.ByImage(ctx, image.ID)
	if err != nil {
		slog.Error("failed to load surviving variants", "image_id", image.ID, "error", err)
		return
	}
	image.PrimaryURL = s.selectPrimary(surviving)
	image.UpdatedAt = time.Now()
	err = s.images.Update(ctx, image)
	if err != nil {
		slog.Error("failed to repoint primary url", "image_id", image.ID, "error", err)
	}
}

// findOriginal returns the original-size variant, preferring the
// configured format when several formats carry an original rendition.
func (s *GalleryService) findOriginal(variants []*model.ImageVariant) *model.ImageVariant {
	var first *model.ImageVariant
	for _, v := range variants {
		if v.Size != model.SizeOriginal {
			continue
		}
		if v.Format == s.opts.PreferredFormat {
			return v
		}
		if first == nil {
			first = v
		}
	}
	return first
}

// Image returns the full representation of one image.
func (s *GalleryService) Image(ctx context.Context, id string) (*ImageResponse, error) {
	image, err := s.images.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, err := s.variants.ByImage(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapImageResponse(image, variants)
	return &resp, nil
}

// Images lists images with pagination, search and filters.
func (s *GalleryService) Images(ctx context.Context, q repository.ImageQuery) (*ImageListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}

	images, total, err := s.images.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]ImageResponse, 0, len(images))
	for _, image := range images {
		variants, err := s.variants.ByImage(ctx, image.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, mapImageResponse(image, variants))
	}

	totalPages := (total + q.Limit - 1) / q.Limit
	return &ImageListResponse{
		Images:     out,
		Total:      total,
		Page:       q.Page,
		TotalPages: totalPages,
	}, nil
}

// ImagesByTags returns all images carrying any of the given tags.
func (s *GalleryService) ImagesByTags(ctx context.Context, tags []string) ([]ImageResponse, error) {
	list, err := s.Images(ctx, repository.ImageQuery{Tags: tags, Limit: 1000})
	if err != nil {
		return nil, err
	}
	return list.Images, nil
}

// Tags returns every distinct tag in the gallery, sorted.
func (s *GalleryService) Tags(ctx context.Context) ([]string, error) {
	images, _, err := s.images.Search(ctx, repository.ImageQuery{Limit: 10000})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	tags := []string{}
	for _, image := range images {
		for _, tag := range image.TagList() {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// ImageUpdate carries a metadata-only update; nil fields stay unchanged.
type ImageUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Alt         *string   `json:"alt,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Update changes user-supplied metadata without touching image bytes or
// variants.
func (s *GalleryService) Update(ctx context.Context, id string, update ImageUpdate) (*ImageResponse, error) {
	image, err := s.images.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if *update.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		image.Title = *update.Title
	}
	if update.Alt != nil {
		image.Alt = *update.Alt
	}
	if update.Description != nil {
		image.Description = *update.Description
	}
	if update.Tags != nil {
		image.Tags = model.JoinTags(*update.Tags)
	}
	image.UpdatedAt = time.Now()

	err = s.images.Update(ctx, image)
	if err != nil {
		return nil, err
	}

	variants, err := s.variants.ByImage(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapImageResponse(image, variants)
	return &resp, nil
}

// Remove deletes an image: every variant blob (best effort), then the
// catalog rows. Blob failures never block catalog deletion.
func (s *GalleryService) Remove(ctx context.Context, id string) error {
	_, err := s.images.ByID(ctx, id)
	if err != nil {
		return err
	}
	variants, err := s.variants.ByImage(ctx, id)
	if err != nil {
		return err
	}

	for _, v := range variants {
		err = s.store.Remove(ctx, v.StorageKey)
		if err != nil {
			slog.Warn("failed to delete variant blob", "key", v.StorageKey, "error", err)
		}
	}

	err = s.variants.DeleteByImage(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}
	err = s.images.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	slog.Info("image removed", "image_id", id, "variants", len(variants))
	return nil
}

// variantKey builds the unique blob key for one produced variant. The
// timestamp keeps regenerated variants from colliding with stale blobs.
func variantKey(imageID string, size model.SizeClass, format model.Format) string {
	return fmt.Sprintf("gallery/%s/%s/%d.%s", imageID, size, time.Now().UnixMilli(), format)
}
