package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lumina-cms/lumina/internal/service"
)

// multipartSlack covers form-field overhead on top of the file cap.
const multipartSlack = 1 << 20

// readUpload extracts one uploaded file from a multipart request. The
// request body is capped at maxBytes plus slack so an oversize upload
// fails fast instead of buffering fully.
func readUpload(r *http.Request, field string, maxBytes int64) (*service.Upload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes+multipartSlack)

	err := r.ParseMultipartForm(maxBytes + multipartSlack)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: file too large", service.ErrValidation)
		}
		return nil, fmt.Errorf("%w: invalid multipart request: %v", service.ErrValidation, err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, http.ErrMissingFile
		}
		return nil, fmt.Errorf("%w: missing file field %q", service.ErrValidation, field)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return &service.Upload{
		Data:     data,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     int64(len(data)),
	}, nil
}

// splitTags parses a comma-separated tag list, trimming blanks.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
