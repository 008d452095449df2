package imaging

import (
	"errors"
	"fmt"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/lumina-cms/lumina/internal/model"
)

// ErrCorruptSource marks input that cannot be decoded as an image.
var ErrCorruptSource = errors.New("corrupt or unsupported image data")

// TransformError identifies the (format, size) combination that failed so
// the orchestrator can skip it and continue with siblings.
type TransformError struct {
	Format model.Format
	Size   model.SizeClass
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s/%s: %v", e.Format, e.Size, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Metadata describes a probed source image.
type Metadata struct {
	Width  int
	Height int
	Format model.Format
}

// Result is one produced variant: encoded bytes plus measured output
// dimensions (post-resize, never the requested target).
type Result struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

// Transformer renders a source buffer into target (format, size) outputs.
// Implementations must be safe to call concurrently; every call works on
// its own decoded copy of the source.
type Transformer interface {
	Probe(buf []byte) (Metadata, error)
	Transform(buf []byte, planned PlannedVariant) (Result, error)
}

// VipsTransformer implements Transformer on libvips. The library is
// initialised once per process; Close releases it at shutdown.
type VipsTransformer struct{}

// NewVipsTransformer starts libvips with a concurrency level matching the
// host CPU count.
func NewVipsTransformer() *VipsTransformer {
	govips.Startup(&govips.Config{
		ConcurrencyLevel: runtime.NumCPU(),
	})
	return &VipsTransformer{}
}

// Close releases all libvips resources. Call once at process exit.
func (t *VipsTransformer) Close() {
	govips.Shutdown()
}

// Probe decodes enough of buf to report dimensions and source format.
func (t *VipsTransformer) Probe(buf []byte) (Metadata, error) {
	ref, err := govips.NewImageFromBuffer(buf)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrCorruptSource, err)
	}
	defer ref.Close()

	return Metadata{
		Width:  ref.Width(),
		Height: ref.Height(),
		Format: vipsFormatToModel(ref.Format()),
	}, nil
}

// Transform decodes buf, resizes per the planned config (honouring the
// fit mode and never enlarging beyond the source), and re-encodes into
// the planned format at the configured quality.
func (t *VipsTransformer) Transform(buf []byte, planned PlannedVariant) (Result, error) {
	ref, err := govips.NewImageFromBuffer(buf)
	if err != nil {
		return Result{}, &TransformError{
			Format: planned.Format,
			Size:   planned.Size,
			Err:    fmt.Errorf("%w: %v", ErrCorruptSource, err),
		}
	}
	defer ref.Close()

	if planned.Config.Resizes() {
		err = resize(ref, planned.Config)
		if err != nil {
			return Result{}, &TransformError{Format: planned.Format, Size: planned.Size, Err: err}
		}
	}

	data, err := encode(ref, planned.Format, planned.Config.Quality)
	if err != nil {
		return Result{}, &TransformError{Format: planned.Format, Size: planned.Size, Err: err}
	}

	return Result{
		Data:        data,
		Width:       ref.Width(),
		Height:      ref.Height(),
		ContentType: planned.Format.ContentType(),
	}, nil
}

// resize applies the fit mode with a never-enlarge constraint: an image
// smaller than the target keeps its source dimensions.
func resize(ref *govips.ImageRef, c model.SizeConfig) error {
	srcW, srcH := ref.Width(), ref.Height()

	switch c.Fit {
	case model.FitCover:
		// Fill the box and crop overflow around the centre; SizeDown
		// keeps sources smaller than the box untouched.
		return ref.ThumbnailWithSize(c.Width, c.Height, govips.InterestingCentre, govips.SizeDown)

	case model.FitFill:
		// Exact box, aspect ratio ignored; clamp the target to the
		// source so the no-upscale rule still holds.
		w := min(c.Width, srcW)
		h := min(c.Height, srcH)
		return ref.ThumbnailWithSize(w, h, govips.InterestingNone, govips.SizeForce)

	case model.FitOutside:
		// Scale so the image covers the box without cropping.
		scale := maxf(float64(c.Width)/float64(srcW), float64(c.Height)/float64(srcH))
		if scale >= 1 {
			return nil
		}
		return ref.Resize(scale, govips.KernelLanczos3)

	case model.FitContain, model.FitInside:
		fallthrough
	default:
		// Aspect-fit within the box. Contain renders without padding.
		return ref.ThumbnailWithSize(c.Width, c.Height, govips.InterestingNone, govips.SizeDown)
	}
}

func encode(ref *govips.ImageRef, format model.Format, quality int) ([]byte, error) {
	switch format {
	case model.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = quality
		ep.Interlace = true
		ep.StripMetadata = true
		data, _, err := ref.ExportJpeg(ep)
		return data, err

	case model.FormatPNG:
		ep := govips.NewPngExportParams()
		ep.Quality = quality
		ep.StripMetadata = true
		data, _, err := ref.ExportPng(ep)
		return data, err

	case model.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		ep.StripMetadata = true
		data, _, err := ref.ExportWebp(ep)
		return data, err

	case model.FormatAVIF:
		ep := govips.NewAvifExportParams()
		ep.Quality = quality
		ep.StripMetadata = true
		data, _, err := ref.ExportAvif(ep)
		return data, err

	default:
		return nil, fmt.Errorf("unsupported target format: %s", format)
	}
}

func vipsFormatToModel(f govips.ImageType) model.Format {
	switch f {
	case govips.ImageTypeJPEG:
		return model.FormatJPEG
	case govips.ImageTypePNG:
		return model.FormatPNG
	case govips.ImageTypeWEBP:
		return model.FormatWebP
	case govips.ImageTypeAVIF:
		return model.FormatAVIF
	default:
		return model.Format(govips.ImageTypes[f])
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// compile-time interface check
var _ Transformer = (*VipsTransformer)(nil)
