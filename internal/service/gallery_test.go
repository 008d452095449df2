package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lumina-cms/lumina/internal/model"
	"github.com/lumina-cms/lumina/internal/repository"
	"github.com/lumina-cms/lumina/internal/validation"
)

type galleryFixture struct {
	svc         *GalleryService
	images      *fakeImageRepo
	variants    *fakeVariantRepo
	store       *fakeStore
	transformer *fakeTransformer
}

func newGalleryFixture() *galleryFixture {
	images := newFakeImageRepo()
	variants := newFakeVariantRepo()
	store := newFakeStore()
	transformer := newFakeTransformer(1600, 1200)

	svc := NewGalleryService(images, variants, store, transformer, PipelineOptions{
		Formats:         []model.Format{model.FormatJPEG, model.FormatWebP, model.FormatAVIF},
		Sizes:           model.GallerySizes,
		PreferredFormat: model.FormatJPEG,
		Policy: validation.ImagePolicy{
			AllowedMimeTypes: validation.AllowedImageMimeTypes,
			MaxBytes:         50 << 20,
			MinDimension:     50,
			MaxDimension:     10000,
		},
	})

	return &galleryFixture{svc: svc, images: images, variants: variants, store: store, transformer: transformer}
}

// jpegUpload builds an upload whose bytes sniff as JPEG.
func jpegUpload(payload string) Upload {
	data := append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte(payload)...)
	return Upload{
		Data:     data,
		Filename: "photo.jpg",
		MimeType: "image/jpeg",
		Size:     int64(len(data)),
	}
}

func TestUploadProducesCartesianVariants(t *testing.T) {
	f := newGalleryFixture()

	image, created, err := f.svc.Upload(context.Background(), jpegUpload("a"), ImageMeta{Title: "Sunset"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !created {
		t.Error("a never-seen upload must report created")
	}

	// 3 formats x 5 size classes
	if len(image.Variants) != 15 {
		t.Fatalf("expected 15 variants, got %d", len(image.Variants))
	}
	if len(f.store.blobs) != 15 {
		t.Errorf("expected 15 blobs in store, got %d", len(f.store.blobs))
	}

	// Primary is the preferred-format medium variant
	if !strings.Contains(image.PrimaryURL, "/medium/") || !strings.HasSuffix(image.PrimaryURL, ".jpeg") {
		t.Errorf("primary should be the jpeg medium variant, got %s", image.PrimaryURL)
	}

	// Persisted image carries the primary URL too
	stored, err := f.images.ByID(context.Background(), image.ID)
	if err != nil {
		t.Fatalf("image not persisted: %v", err)
	}
	if stored.PrimaryURL != image.PrimaryURL {
		t.Errorf("persisted primary %s differs from response %s", stored.PrimaryURL, image.PrimaryURL)
	}
}

func TestUploadDuplicateReturnsExistingImage(t *testing.T) {
	f := newGalleryFixture()
	ctx := context.Background()

	first, created, err := f.svc.Upload(ctx, jpegUpload("same-bytes"), ImageMeta{Title: "One"})
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	if !created {
		t.Error("first upload must report created")
	}
	blobsAfterFirst := len(f.store.blobs)

	// Same bytes, different metadata: silently returns the existing image
	second, created, err := f.svc.Upload(ctx, jpegUpload("same-bytes"), ImageMeta{Title: "Two"})
	if err != nil {
		t.Fatalf("duplicate upload failed: %v", err)
	}
	if created {
		t.Error("a dedup hit must not report created")
	}

	if second.ID != first.ID {
		t.Errorf("expected existing image %s, got %s", first.ID, second.ID)
	}
	if second.Title != "One" {
		t.Errorf("duplicate must not change metadata, got title %q", second.Title)
	}
	if f.images.createCalls != 1 {
		t.Errorf("expected 1 create call, got %d", f.images.createCalls)
	}
	if len(f.store.blobs) != blobsAfterFirst {
		t.Errorf("duplicate upload must not write blobs: %d -> %d", blobsAfterFirst, len(f.store.blobs))
	}
}

func TestUploadValidatesBeforeAnySideEffect(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Upload, *ImageMeta, *galleryFixture)
	}{
		{"missing title", func(u *Upload, m *ImageMeta, f *galleryFixture) { m.Title = "" }},
		{"empty buffer", func(u *Upload, m *ImageMeta, f *galleryFixture) { u.Data = nil }},
		{"bad mime", func(u *Upload, m *ImageMeta, f *galleryFixture) { u.MimeType = "application/pdf" }},
		{"too small", func(u *Upload, m *ImageMeta, f *galleryFixture) { f.transformer.width = 30; f.transformer.height = 30 }},
		{"too large", func(u *Upload, m *ImageMeta, f *galleryFixture) { f.transformer.width = 20000 }},
		{"corrupt", func(u *Upload, m *ImageMeta, f *galleryFixture) { f.transformer.probeErr = errors.New("bad data") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGalleryFixture()
			upload := jpegUpload(tc.name)
			meta := ImageMeta{Title: "Valid"}
			tc.mutate(&upload, &meta, f)

			_, _, err := f.svc.Upload(ctx, upload, meta)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if f.images.createCalls != 0 {
				t.Errorf("rejected upload must not create image rows")
			}
			if len(f.store.blobs) != 0 {
				t.Errorf("rejected upload must not write blobs")
			}
		})
	}
}

func TestUploadSkipsFailedVariants(t *testing.T) {
	f := newGalleryFixture()
	f.transformer.fail[pairKey(model.FormatWebP, model.SizeLarge)] = true
	f.transformer.fail[pairKey(model.FormatAVIF, model.SizeThumbnail)] = true

	image, _, err := f.svc.Upload(context.Background(), jpegUpload("b"), ImageMeta{Title: "Partial"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if len(image.Variants) != 13 {
		t.Errorf("expected 13 variants after 2 skips, got %d", len(image.Variants))
	}
	for _, v := range image.Variants {
		if v.Format == model.FormatWebP && v.Size == model.SizeLarge {
			t.Error("failed variant must not appear in the catalog")
		}
	}
}

func TestUploadPrimaryFallsBackWhenPreferredMediumFails(t *testing.T) {
	f := newGalleryFixture()
	f.transformer.fail[pairKey(model.FormatJPEG, model.SizeMedium)] = true

	image, _, err := f.svc.Upload(context.Background(), jpegUpload("c"), ImageMeta{Title: "Fallback"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	// Next medium in plan order is webp
	if !strings.Contains(image.PrimaryURL, "/medium/") || !strings.HasSuffix(image.PrimaryURL, ".webp") {
		t.Errorf("expected webp medium primary, got %s", image.PrimaryURL)
	}
}

func TestUploadTotalFailureRemovesShell(t *testing.T) {
	f := newGalleryFixture()
	f.transformer.failAll = true

	_, _, err := f.svc.Upload(context.Background(), jpegUpload("d"), ImageMeta{Title: "Doomed"})
	if !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("expected ErrProcessingFailed, got %v", err)
	}

	if len(f.images.images) != 0 {
		t.Error("image shell must be removed when no variant is produced")
	}
	if len(f.store.blobs) != 0 {
		t.Error("no blobs should survive a total failure")
	}
}

func TestUploadStoreFailureRemovesShell(t *testing.T) {
	f := newGalleryFixture()
	f.store.putErr = errors.New("bucket on fire")

	_, _, err := f.svc.Upload(context.Background(), jpegUpload("e"), ImageMeta{Title: "Doomed"})
	if !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("expected ErrProcessingFailed, got %v", err)
	}
	if len(f.images.images) != 0 {
		t.Error("image shell must be removed when every upload fails")
	}
}

func TestRegenerateRebuildsDerivedVariants(t *testing.T) {
	f := newGalleryFixture()
	ctx := context.Background()

	image, _, err := f.svc.Upload(ctx, jpegUpload("f"), ImageMeta{Title: "Regen"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	before, _ := f.variants.ByImage(ctx, image.ID)
	var originalIDs []string
	for _, v := range before {
		if v.Size == model.SizeOriginal {
			originalIDs = append(originalIDs, v.ID)
		}
	}

	regenerated, err := f.svc.Regenerate(ctx, image.ID)
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}

	// Full set again: originals survive, derived are rebuilt
	if len(regenerated.Variants) != 15 {
		t.Fatalf("expected 15 variants after regenerate, got %d", len(regenerated.Variants))
	}

	after, _ := f.variants.ByImage(ctx, image.ID)
	surviving := map[string]bool{}
	for _, v := range after {
		surviving[v.ID] = true
	}
	for _, id := range originalIDs {
		if !surviving[id] {
			t.Errorf("original variant %s must survive regeneration", id)
		}
	}
	for _, v := range before {
		if v.Size != model.SizeOriginal && surviving[v.ID] {
			t.Errorf("derived variant %s/%s should have been replaced", v.Format, v.Size)
		}
	}
}

func TestRegenerateTotalFailureRepointsPrimary(t *testing.T) {
	f := newGalleryFixture()
	ctx := context.Background()

	image, _, err := f.svc.Upload(ctx, jpegUpload("l"), ImageMeta{Title: "Unlucky"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	f.transformer.failAll = true
	_, err = f.svc.Regenerate(ctx, image.ID)
	if !errors.Is(err, ErrProcessingFailed) {
		t.Fatalf("expected ErrProcessingFailed, got %v", err)
	}

	// The old derived blobs are gone, so the primary must move onto a
	// surviving variant instead of dangling.
	stored, err := f.images.ByID(ctx, image.ID)
	if err != nil {
		t.Fatalf("image lookup failed: %v", err)
	}
	if stored.PrimaryURL == image.PrimaryURL {
		t.Errorf("primary still points at the removed medium blob: %s", stored.PrimaryURL)
	}
	key := strings.TrimPrefix(stored.PrimaryURL, "https://cdn.test/")
	if _, ok := f.store.blobs[key]; !ok {
		t.Errorf("primary %s does not resolve to a stored blob", stored.PrimaryURL)
	}
}

func TestRegeneratePersistFailureRepointsPrimary(t *testing.T) {
	f := newGalleryFixture()
	ctx := context.Background()

	image, _, err := f.svc.Upload(ctx, jpegUpload("m"), ImageMeta{Title: "Unlucky"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	f.variants.createErr = errors.New("database gone")
	_, err = f.svc.Regenerate(ctx, image.ID)
	if err == nil {
		t.Fatal("expected regenerate to fail")
	}

	// Freshly uploaded blobs without catalog rows are removed again;
	// only the surviving originals remain.
	if len(f.store.blobs) != 3 {
		t.Errorf("expected only the 3 original blobs, got %d", len(f.store.blobs))
	}

	stored, err := f.images.ByID(ctx, image.ID)
	if err != nil {
		t.Fatalf("image lookup failed: %v", err)
	}
	key := strings.TrimPrefix(stored.PrimaryURL, "https://cdn.test/")
	if _, ok := f.store.blobs[key]; !ok {
		t.Errorf("primary %s does not resolve to a stored blob", stored.PrimaryURL)
	}
}

func TestRegenerateUnknownImage(t *testing.T) {
	f := newGalleryFixture()

	_, err := f.svc.Regenerate(context.Background(), "nope")
	if !errors.Is(err, repository.ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound, got %v", err)
	}
}

func TestUpdateChangesMetadataOnly(t *testing.T) {
	f := newGalleryFixture()
	ctx := context.Background()

	image, _, err := f.svc.Upload(ctx, jpegUpload("g"), ImageMeta{Title: "Before", Tags: []string{"old"}})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	blobs := len(f.store.blobs)

	title := "After"
	tags := []string{"new", "shiny"}
	updated, err := f.svc.Update(ctx, image.ID, ImageUpdate{Title: &title, Tags: &tags})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Title != "After" {
		t.Errorf("expected title After, got %s", updated.Title)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "new" {
		t.Errorf("tags not replaced: %v", updated.Tags)
	}
	if updated.Alt != image.Alt {
		t.Errorf("nil fields must stay unchanged")
	}
	if len(f.store.blobs) != blobs {
		t.Errorf("metadata update must not touch blobs")
	}
}

func TestRemoveDeletesCatalogAndBlobs(t *testing.T) {
	f := newGalleryFixture()
	ctx := context.Background()

	image, _, err := f.svc.Upload(ctx, jpegUpload("h"), ImageMeta{Title: "Gone"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	err = f.svc.Remove(ctx, image.ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	if len(f.store.blobs) != 0 {
		t.Errorf("expected no blobs left, got %d", len(f.store.blobs))
	}
	if _, err := f.images.ByID(ctx, image.ID); !errors.Is(err, repository.ErrImageNotFound) {
		t.Error("image row must be gone")
	}
	variants, _ := f.variants.ByImage(ctx, image.ID)
	if len(variants) != 0 {
		t.Errorf("expected no variant rows, got %d", len(variants))
	}
}

func TestRemoveSucceedsWhenBlobDeleteFails(t *testing.T) {
	f := newGalleryFixture()
	ctx := context.Background()

	image, _, err := f.svc.Upload(ctx, jpegUpload("i"), ImageMeta{Title: "Sticky"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	f.store.removeErr = errors.New("storage acting up")
	err = f.svc.Remove(ctx, image.ID)
	if err != nil {
		t.Fatalf("remove must tolerate blob failures, got: %v", err)
	}

	// Catalog rows are gone even though blobs lingered
	if _, err := f.images.ByID(ctx, image.ID); !errors.Is(err, repository.ErrImageNotFound) {
		t.Error("image row must be gone despite blob failures")
	}
	if len(f.store.removed) == 0 {
		t.Error("blob deletion should have been attempted")
	}
}

func TestImagesByTags(t *testing.T) {
	f := newGalleryFixture()
	ctx := context.Background()

	_, _, err := f.svc.Upload(ctx, jpegUpload("j"), ImageMeta{Title: "Tagged", Tags: []string{"hero", "banner"}})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	_, _, err = f.svc.Upload(ctx, jpegUpload("k"), ImageMeta{Title: "Other", Tags: []string{"misc"}})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	images, err := f.svc.ImagesByTags(ctx, []string{"hero"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(images) != 1 || images[0].Title != "Tagged" {
		t.Errorf("expected only the tagged image, got %d results", len(images))
	}
}
