package validation

import (
	"fmt"
	"net/http"
)

// ImagePolicy defines validation rules for image uploads.
type ImagePolicy struct {
	AllowedMimeTypes map[string]bool
	MaxBytes         int64
	MinDimension     int
	MaxDimension     int
}

// AllowedImageMimeTypes is the upload allowlist.
var AllowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/avif": true,
	"image/gif":  true,
}

// CheckImage validates the raw buffer and declared mime type against the
// policy. Dimension checks happen separately after the image is probed.
func CheckImage(data []byte, declaredMime string, p ImagePolicy) error {
	if len(data) == 0 {
		return fmt.Errorf("no file was uploaded")
	}

	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		maxMB := p.MaxBytes / (1 << 20)
		return fmt.Errorf("file too large: maximum size is %d MB", maxMB)
	}

	if !p.AllowedMimeTypes[declaredMime] {
		return fmt.Errorf("unsupported file type: %s", declaredMime)
	}

	// Sniff magic numbers so a renamed file cannot bypass the allowlist.
	// AVIF is not known to DetectContentType and sniffs as octet-stream;
	// the decoder probe catches corrupt data for those.
	sniffLen := len(data)
	if sniffLen > 512 {
		sniffLen = 512
	}
	detected := http.DetectContentType(data[:sniffLen])
	if detected != "application/octet-stream" && !p.AllowedMimeTypes[detected] {
		return fmt.Errorf("invalid file content (detected: %s)", detected)
	}

	return nil
}

// CheckDimensions validates probed pixel dimensions against the policy.
func CheckDimensions(width, height int, p ImagePolicy) error {
	if p.MinDimension > 0 && (width < p.MinDimension || height < p.MinDimension) {
		return fmt.Errorf("image too small: minimum is %dx%d pixels", p.MinDimension, p.MinDimension)
	}
	if p.MaxDimension > 0 && (width > p.MaxDimension || height > p.MaxDimension) {
		return fmt.Errorf("image too large: maximum is %dx%d pixels", p.MaxDimension, p.MaxDimension)
	}
	return nil
}
