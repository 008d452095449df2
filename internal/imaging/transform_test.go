package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/lumina-cms/lumina/internal/model"
)

var transformer *VipsTransformer

func TestMain(m *testing.M) {
	transformer = NewVipsTransformer()
	code := m.Run()
	transformer.Close()
	os.Exit(code)
}

// makeJPEG renders a width x height gradient and encodes it as JPEG.
func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestProbeReportsDimensions(t *testing.T) {
	src := makeJPEG(t, 640, 480)

	meta, err := transformer.Probe(src)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if meta.Width != 640 || meta.Height != 480 {
		t.Errorf("expected 640x480, got %dx%d", meta.Width, meta.Height)
	}
	if meta.Format != model.FormatJPEG {
		t.Errorf("expected jpeg, got %s", meta.Format)
	}
}

func TestProbeRejectsCorruptData(t *testing.T) {
	_, err := transformer.Probe([]byte("definitely not an image"))
	if !errors.Is(err, ErrCorruptSource) {
		t.Errorf("expected ErrCorruptSource, got %v", err)
	}
}

func TestTransformCoverFillsBox(t *testing.T) {
	src := makeJPEG(t, 600, 400)
	planned := PlannedVariant{
		Format: model.FormatJPEG,
		Size:   model.SizeThumbnail,
		Config: model.SizeConfig{Width: 150, Height: 150, Quality: 75, Fit: model.FitCover},
	}

	result, err := transformer.Transform(src, planned)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if result.Width != 150 || result.Height != 150 {
		t.Errorf("cover should fill the box exactly, got %dx%d", result.Width, result.Height)
	}
	if result.ContentType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.ContentType)
	}
}

func TestTransformInsideKeepsAspectRatio(t *testing.T) {
	src := makeJPEG(t, 600, 400)
	planned := PlannedVariant{
		Format: model.FormatJPEG,
		Size:   model.SizeSmall,
		Config: model.SizeConfig{Width: 400, Height: 400, Quality: 80, Fit: model.FitInside},
	}

	result, err := transformer.Transform(src, planned)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if result.Width != 400 {
		t.Errorf("expected width 400, got %d", result.Width)
	}
	// 400/600 * 400 = 266.67; either rounding is fine
	if result.Height < 266 || result.Height > 267 {
		t.Errorf("expected height ~267, got %d", result.Height)
	}
}

func TestTransformNeverUpscales(t *testing.T) {
	src := makeJPEG(t, 120, 90)
	planned := PlannedVariant{
		Format: model.FormatJPEG,
		Size:   model.SizeMedium,
		Config: model.SizeConfig{Width: 800, Height: 800, Quality: 85, Fit: model.FitInside},
	}

	result, err := transformer.Transform(src, planned)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if result.Width != 120 || result.Height != 90 {
		t.Errorf("small source must keep its dimensions, got %dx%d", result.Width, result.Height)
	}
}

func TestTransformOriginalReencodesOnly(t *testing.T) {
	src := makePNG(t, 300, 200)
	planned := PlannedVariant{
		Format: model.FormatWebP,
		Size:   model.SizeOriginal,
		Config: model.SizeConfig{Quality: 95, Fit: model.FitInside},
	}

	result, err := transformer.Transform(src, planned)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if result.Width != 300 || result.Height != 200 {
		t.Errorf("original must keep source dimensions, got %dx%d", result.Width, result.Height)
	}
	if result.ContentType != "image/webp" {
		t.Errorf("expected image/webp, got %s", result.ContentType)
	}
	if len(result.Data) == 0 {
		t.Error("expected encoded output bytes")
	}
}

func TestTransformConvertsAcrossFormats(t *testing.T) {
	src := makeJPEG(t, 300, 300)

	for _, format := range []model.Format{model.FormatPNG, model.FormatWebP} {
		planned := PlannedVariant{
			Format: format,
			Size:   model.SizeThumbnail,
			Config: model.SizeConfig{Width: 150, Height: 150, Quality: 80, Fit: model.FitCover},
		}
		result, err := transformer.Transform(src, planned)
		if err != nil {
			t.Errorf("%s: transform failed: %v", format, err)
			continue
		}
		if result.ContentType != format.ContentType() {
			t.Errorf("%s: expected %s, got %s", format, format.ContentType(), result.ContentType)
		}
	}
}

func TestTransformErrorIdentifiesPair(t *testing.T) {
	planned := PlannedVariant{
		Format: model.FormatWebP,
		Size:   model.SizeLarge,
		Config: model.SizeConfig{Width: 1200, Height: 1200, Quality: 90, Fit: model.FitInside},
	}

	_, err := transformer.Transform([]byte("garbage"), planned)
	if err == nil {
		t.Fatal("expected an error for corrupt input")
	}

	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransformError, got %T", err)
	}
	if terr.Format != model.FormatWebP || terr.Size != model.SizeLarge {
		t.Errorf("error should carry the failed pair, got %s/%s", terr.Format, terr.Size)
	}
	if !errors.Is(err, ErrCorruptSource) {
		t.Errorf("expected ErrCorruptSource in chain, got %v", err)
	}
}
