package service

import (
	"time"

	"github.com/lumina-cms/lumina/internal/model"
)

// Upload is a raw image buffer plus the metadata the HTTP layer decoded
// from the multipart request. The services never touch multipart.
type Upload struct {
	Data     []byte
	Filename string
	MimeType string
	Size     int64
}

// ImageMeta is the user-supplied metadata of a gallery image, mutable
// independently of the image bytes.
type ImageMeta struct {
	Title       string   `json:"title"`
	Alt         string   `json:"alt,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// VariantResponse is the API shape of one rendered variant.
type VariantResponse struct {
	ID       string          `json:"id"`
	Format   model.Format    `json:"format"`
	Size     model.SizeClass `json:"size"`
	URL      string          `json:"url"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	FileSize int64           `json:"fileSize"`
	Quality  int             `json:"quality"`
}

// ImageResponse is the full API representation of a gallery image.
type ImageResponse struct {
	ID           string            `json:"id"`
	OriginalName string            `json:"originalName"`
	Title        string            `json:"title"`
	Alt          string            `json:"alt,omitempty"`
	Description  string            `json:"description,omitempty"`
	PrimaryURL   string            `json:"primaryUrl"`
	MimeType     string            `json:"mimeType"`
	Size         int64             `json:"size"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Hash         string            `json:"hash"`
	Tags         []string          `json:"tags"`
	Variants     []VariantResponse `json:"variants"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ImageListResponse is a paginated image listing.
type ImageListResponse struct {
	Images     []ImageResponse `json:"images"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

func mapImageResponse(image *model.Image, variants []*model.ImageVariant) ImageResponse {
	vs := make([]VariantResponse, 0, len(variants))
	for _, v := range variants {
		vs = append(vs, VariantResponse{
			ID:       v.ID,
			Format:   v.Format,
			Size:     v.Size,
			URL:      v.URL,
			Width:    v.Width,
			Height:   v.Height,
			FileSize: v.FileSize,
			Quality:  v.Quality,
		})
	}

	return ImageResponse{
		ID:           image.ID,
		OriginalName: image.OriginalName,
		Title:        image.Title,
		Alt:          image.Alt,
		Description:  image.Description,
		PrimaryURL:   image.PrimaryURL,
		MimeType:     image.MimeType,
		Size:         image.Size,
		Width:        image.Width,
		Height:       image.Height,
		Hash:         image.Hash,
		Tags:         image.TagList(),
		Variants:     vs,
		CreatedAt:    image.CreatedAt,
		UpdatedAt:    image.UpdatedAt,
	}
}
