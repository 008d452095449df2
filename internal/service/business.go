package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lumina-cms/lumina/internal/model"
	"github.com/lumina-cms/lumina/internal/repository"
)

// BusinessInput carries the user-editable business fields. Sections
// arrive pre-typed: the JSON decoder already dispatched each payload
// through the section registry.
type BusinessInput struct {
	Name         string              `json:"name"`
	LogoURL      string              `json:"logoUrl,omitempty"`
	FaviconURL   string              `json:"faviconUrl,omitempty"`
	ColorPalette *model.ColorPalette `json:"colorPalette,omitempty"`
	GlobalConfig *model.GlobalConfig `json:"globalConfig,omitempty"`
	Sections     model.SectionList   `json:"sections,omitempty"`
}

// BusinessResponse is the full API representation of a business page.
type BusinessResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	LogoURL      string              `json:"logoUrl,omitempty"`
	FaviconURL   string              `json:"faviconUrl,omitempty"`
	ColorPalette *model.ColorPalette `json:"colorPalette,omitempty"`
	GlobalConfig *model.GlobalConfig `json:"globalConfig,omitempty"`
	Sections     model.SectionList   `json:"sections"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// BusinessService manages page-builder sites and their section documents.
type BusinessService struct {
	businesses repository.BusinessRepository
}

func NewBusinessService(businesses repository.BusinessRepository) *BusinessService {
	return &BusinessService{businesses: businesses}
}

// Create persists a new business page. Sections get IDs when missing and
// are stored in position order.
func (s *BusinessService) Create(ctx context.Context, input BusinessInput) (*BusinessResponse, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	sections, err := normalizeSections(input.Sections)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now()
	business := &model.Business{
		ID:           uuid.New().String(),
		Name:         input.Name,
		LogoURL:      input.LogoURL,
		FaviconURL:   input.FaviconURL,
		ColorPalette: input.ColorPalette,
		GlobalConfig: input.GlobalConfig,
		Sections:     sections,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.businesses.Create(ctx, business)
	if err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	slog.Info("business created", "business_id", business.ID, "name", business.Name, "sections", len(sections))
	resp := mapBusinessResponse(business)
	return &resp, nil
}

// Business returns one business page.
func (s *BusinessService) Business(ctx context.Context, id string) (*BusinessResponse, error) {
	business, err := s.businesses.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := mapBusinessResponse(business)
	return &resp, nil
}

// Businesses lists all business pages, newest first.
func (s *BusinessService) Businesses(ctx context.Context) ([]BusinessResponse, error) {
	businesses, err := s.businesses.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BusinessResponse, 0, len(businesses))
	for _, b := range businesses {
		out = append(out, mapBusinessResponse(b))
	}
	return out, nil
}

// Update replaces the editable fields of a business page. The full
// section document is replaced, matching the page-builder save model.
func (s *BusinessService) Update(ctx context.Context, id string, input BusinessInput) (*BusinessResponse, error) {
	business, err := s.businesses.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	sections, err := normalizeSections(input.Sections)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	business.Name = input.Name
	business.LogoURL = input.LogoURL
	business.FaviconURL = input.FaviconURL
	business.ColorPalette = input.ColorPalette
	business.GlobalConfig = input.GlobalConfig
	business.Sections = sections
	business.UpdatedAt = time.Now()

	err = s.businesses.Update(ctx, business)
	if err != nil {
		return nil, err
	}

	resp := mapBusinessResponse(business)
	return &resp, nil
}

// Remove deletes a business page.
func (s *BusinessService) Remove(ctx context.Context, id string) error {
	err := s.businesses.Delete(ctx, id)
	if err != nil {
		return err
	}
	slog.Info("business removed", "business_id", id)
	return nil
}

// normalizeSections assigns IDs to new sections, validates payload
// presence and re-sorts by position so the stored document order matches
// the rendered order.
func normalizeSections(sections model.SectionList) (model.SectionList, error) {
	out := make(model.SectionList, len(sections))
	copy(out, sections)

	for i := range out {
		if out[i].Content == nil {
			return nil, errors.New("section content is required")
		}
		if out[i].Type != out[i].Content.SectionType() {
			return nil, fmt.Errorf("section type %q does not match content payload %q",
				out[i].Type, out[i].Content.SectionType())
		}
		if out[i].ID == "" {
			out[i].ID = uuid.New().String()
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func mapBusinessResponse(b *model.Business) BusinessResponse {
	sections := b.Sections
	if sections == nil {
		sections = model.SectionList{}
	}
	return BusinessResponse{
		ID:           b.ID,
		Name:         b.Name,
		LogoURL:      b.LogoURL,
		FaviconURL:   b.FaviconURL,
		ColorPalette: b.ColorPalette,
		GlobalConfig: b.GlobalConfig,
		Sections:     sections,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}
