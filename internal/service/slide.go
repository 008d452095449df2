package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumina-cms/lumina/internal/model"
	"github.com/lumina-cms/lumina/internal/repository"
)

// SlideInput carries the editable fields of a hero slide. Order is
// 1-based and drives the carousel sequence.
type SlideInput struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle,omitempty"`
	Image      string `json:"image"`
	ButtonText string `json:"buttonText,omitempty"`
	ButtonLink string `json:"buttonLink,omitempty"`
	Order      int    `json:"order"`
}

// SlideUpdate carries a partial update; nil fields stay unchanged. The
// common reorder case sends only the order.
type SlideUpdate struct {
	Title      *string `json:"title,omitempty"`
	Subtitle   *string `json:"subtitle,omitempty"`
	Image      *string `json:"image,omitempty"`
	ButtonText *string `json:"buttonText,omitempty"`
	ButtonLink *string `json:"buttonLink,omitempty"`
	Order      *int    `json:"order,omitempty"`
}

// SlideResponse is the API representation of a slide.
type SlideResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitempty"`
	Image      string    `json:"image"`
	ButtonText string    `json:"buttonText,omitempty"`
	ButtonLink string    `json:"buttonLink,omitempty"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SlideService manages the landing-page hero carousel.
type SlideService struct {
	slides repository.SlideRepository
}

func NewSlideService(slides repository.SlideRepository) *SlideService {
	return &SlideService{slides: slides}
}

// Create persists a new slide.
func (s *SlideService) Create(ctx context.Context, input SlideInput) (*SlideResponse, error) {
	err := validateSlideInput(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	slide := &model.Slide{
		ID:         uuid.New().String(),
		Title:      input.Title,
		Subtitle:   input.Subtitle,
		Image:      input.Image,
		ButtonText: input.ButtonText,
		ButtonLink: input.ButtonLink,
		Position:   input.Order,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.slides.Create(ctx, slide)
	if err != nil {
		return nil, fmt.Errorf("failed to create slide: %w", err)
	}

	slog.Info("slide created", "slide_id", slide.ID, "position", slide.Position)
	resp := mapSlideResponse(slide)
	return &resp, nil
}

// Slide returns one slide.
func (s *SlideService) Slide(ctx context.Context, id string) (*SlideResponse, error) {
	slide, err := s.slides.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapSlideResponse(slide)
	return &resp, nil
}

// Slides lists all slides in carousel order.
func (s *SlideService) Slides(ctx context.Context) ([]SlideResponse, error) {
	slides, err := s.slides.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SlideResponse, 0, len(slides))
	for _, slide := range slides {
		out = append(out, mapSlideResponse(slide))
	}
	return out, nil
}

// Update changes the given fields of a slide.
func (s *SlideService) Update(ctx context.Context, id string, update SlideUpdate) (*SlideResponse, error) {
	slide, err := s.slides.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if *update.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		slide.Title = *update.Title
	}
	if update.Subtitle != nil {
		slide.Subtitle = *update.Subtitle
	}
	if update.Image != nil {
		if *update.Image == "" {
			return nil, fmt.Errorf("%w: image cannot be empty", ErrValidation)
		}
		slide.Image = *update.Image
	}
	if update.ButtonText != nil {
		slide.ButtonText = *update.ButtonText
	}
	if update.ButtonLink != nil {
		slide.ButtonLink = *update.ButtonLink
	}
	if update.Order != nil {
		if *update.Order < 1 {
			return nil, fmt.Errorf("%w: order must be at least 1", ErrValidation)
		}
		slide.Position = *update.Order
	}
	slide.UpdatedAt = time.Now()

	err = s.slides.Update(ctx, slide)
	if err != nil {
		return nil, err
	}

	resp := mapSlideResponse(slide)
	return &resp, nil
}

// Remove deletes a slide.
func (s *SlideService) Remove(ctx context.Context, id string) error {
	err := s.slides.Delete(ctx, id)
	if err != nil {
		return err
	}
	slog.Info("slide removed", "slide_id", id)
	return nil
}

func validateSlideInput(input SlideInput) error {
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.Image == "" {
		return fmt.Errorf("%w: image is required", ErrValidation)
	}
	if input.Order < 1 {
		return fmt.Errorf("%w: order must be at least 1", ErrValidation)
	}
	return nil
}

func mapSlideResponse(slide *model.Slide) SlideResponse {
	return SlideResponse{
		ID:         slide.ID,
		Title:      slide.Title,
		Subtitle:   slide.Subtitle,
		Image:      slide.Image,
		ButtonText: slide.ButtonText,
		ButtonLink: slide.ButtonLink,
		Order:      slide.Position,
		CreatedAt:  slide.CreatedAt,
		UpdatedAt:  slide.UpdatedAt,
	}
}
