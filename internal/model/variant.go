package model

import (
	"fmt"
	"time"
)

// Format identifies a variant's output codec.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
)

// ParseFormat validates a format string against the closed enum.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJPEG, FormatPNG, FormatWebP, FormatAVIF:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported image format: %q", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

// SizeClass names a target dimension/quality preset.
type SizeClass string

const (
	SizeThumbnail SizeClass = "thumbnail"
	SizeSmall     SizeClass = "small"
	SizeMedium    SizeClass = "medium"
	SizeLarge     SizeClass = "large"
	SizeOriginal  SizeClass = "original"
)

// SizeClassOrder is the fixed iteration order for variant planning.
// Planning determinism (and therefore primary-variant tie-breaking)
// depends on this order staying stable.
var SizeClassOrder = []SizeClass{
	SizeThumbnail,
	SizeSmall,
	SizeMedium,
	SizeLarge,
	SizeOriginal,
}

// FitMode controls aspect-ratio handling during resize.
type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
	FitInside  FitMode = "inside"
	FitOutside FitMode = "outside"
	FitFill    FitMode = "fill"
)

// SizeConfig is one entry of the static size-class table.
// Width/Height of zero means the transform keeps source dimensions and
// only re-encodes into the target format.
type SizeConfig struct {
	Width   int
	Height  int
	Quality int
	Fit     FitMode
}

// Resizes reports whether the config asks for an actual resize.
func (c SizeConfig) Resizes() bool {
	return c.Width > 0 && c.Height > 0
}

// GallerySizes is the size-class table for gallery uploads.
var GallerySizes = map[SizeClass]SizeConfig{
	SizeThumbnail: {Width: 150, Height: 150, Quality: 75, Fit: FitCover},
	SizeSmall:     {Width: 400, Height: 400, Quality: 80, Fit: FitInside},
	SizeMedium:    {Width: 800, Height: 800, Quality: 85, Fit: FitInside},
	SizeLarge:     {Width: 1200, Height: 1200, Quality: 90, Fit: FitInside},
	SizeOriginal:  {Quality: 95, Fit: FitInside},
}

// ProductSizes is the size-class table for product images.
var ProductSizes = map[SizeClass]SizeConfig{
	SizeThumbnail: {Width: 150, Height: 150, Quality: 75, Fit: FitCover},
	SizeSmall:     {Width: 400, Height: 400, Quality: 85, Fit: FitInside},
	SizeMedium:    {Width: 800, Height: 800, Quality: 90, Fit: FitInside},
	SizeLarge:     {Width: 1200, Height: 1200, Quality: 90, Fit: FitInside},
	SizeOriginal:  {Quality: 95, Fit: FitInside},
}

// ImageVariant is one rendered (format, size) output of a gallery image.
// Width/Height/FileSize are measured from the produced bytes, not the
// requested target.
type ImageVariant struct {
	ID         string    `db:"id"`
	ImageID    string    `db:"image_id"`
	Format     Format    `db:"format"`
	Size       SizeClass `db:"size"`
	URL        string    `db:"url"`
	StorageKey string    `db:"storage_key"`
	Width      int       `db:"width"`
	Height     int       `db:"height"`
	FileSize   int64     `db:"file_size"`
	Quality    int       `db:"quality"`
	CreatedAt  time.Time `db:"created_at"`
}
