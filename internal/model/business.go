package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Business is a page-builder site composed of typed sections. Sections,
// palette and global config are stored as JSON document columns.
type Business struct {
	ID           string        `db:"id"`
	Name         string        `db:"name"`
	LogoURL      string        `db:"logo_url"`
	FaviconURL   string        `db:"favicon_url"`
	ColorPalette *ColorPalette `db:"color_palette"`
	GlobalConfig *GlobalConfig `db:"global_config"`
	Sections     SectionList   `db:"sections"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

type ColorPalette struct {
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
}

type GlobalConfig struct {
	LayoutMode string `json:"layoutMode,omitempty"` // "boxed" or "full"
	FontFamily string `json:"fontFamily,omitempty"`
	DarkMode   bool   `json:"darkMode,omitempty"`
}

func (p *ColorPalette) Scan(src any) error { return scanJSON(src, p) }
func (p ColorPalette) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (g *GlobalConfig) Scan(src any) error { return scanJSON(src, g) }
func (g GlobalConfig) Value() (driver.Value, error) {
	return json.Marshal(g)
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("cannot scan %T into JSON column", src)
}

// PageSection is one typed section of a business page. Type is the
// discriminator; Content holds the type-specific payload decoded through
// the section registry.
type PageSection struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Active   bool           `json:"isActive"`
	Position int            `json:"position"`
	Preset   string         `json:"preset,omitempty"`
	Slug     string         `json:"slug,omitempty"`
	Content  SectionContent `json:"content"`
}

// SectionContent is the payload side of the tagged union.
type SectionContent interface {
	SectionType() string
}

// sectionRegistry maps a discriminator to its payload constructor.
var sectionRegistry = map[string]func() SectionContent{}

// RegisterSection adds a section type to the registry. Registrations
// happen in init; the map is read-only afterwards.
func RegisterSection(typ string, fn func() SectionContent) {
	sectionRegistry[typ] = fn
}

// SectionTypes lists the registered discriminators.
func SectionTypes() []string {
	out := make([]string, 0, len(sectionRegistry))
	for t := range sectionRegistry {
		out = append(out, t)
	}
	return out
}

// ErrUnknownSectionType is wrapped into decode errors for unregistered
// discriminators.
var ErrUnknownSectionType = fmt.Errorf("unknown section type")

func (s *PageSection) UnmarshalJSON(data []byte) error {
	type envelope struct {
		ID       string          `json:"id"`
		Type     string          `json:"type"`
		Title    string          `json:"title"`
		Active   bool            `json:"isActive"`
		Position int             `json:"position"`
		Preset   string          `json:"preset"`
		Slug     string          `json:"slug"`
		Content  json.RawMessage `json:"content"`
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	build, ok := sectionRegistry[env.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSectionType, env.Type)
	}
	content := build()
	if len(env.Content) > 0 {
		if err := json.Unmarshal(env.Content, content); err != nil {
			return fmt.Errorf("decode %s section content: %w", env.Type, err)
		}
	}

	s.ID = env.ID
	s.Type = env.Type
	s.Title = env.Title
	s.Active = env.Active
	s.Position = env.Position
	s.Preset = env.Preset
	s.Slug = env.Slug
	s.Content = content
	return nil
}

// SectionList stores all sections of a business as one JSON document.
type SectionList []PageSection

func (l *SectionList) Scan(src any) error { return scanJSON(src, l) }
func (l SectionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Section payloads. Field shapes follow the public page-builder API.

type HeroSliderContent struct {
	Title           string  `json:"title"`
	Subtitle        string  `json:"subtitle,omitempty"`
	BackgroundImage string  `json:"backgroundImage,omitempty"`
	CTAText         string  `json:"ctaText,omitempty"`
	CTALink         string  `json:"ctaLink,omitempty"`
	OverlayOpacity  float64 `json:"overlayOpacity,omitempty"`
	TextAlignment   string  `json:"textAlignment"` // left, center, right
}

func (HeroSliderContent) SectionType() string { return "hero" }

type ContactFormField struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // text, email, tel, textarea
	Label       string `json:"label"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder,omitempty"`
}

type ContactContent struct {
	Title      string             `json:"title"`
	Subtitle   string             `json:"subtitle,omitempty"`
	ShowForm   bool               `json:"showForm"`
	ShowInfo   bool               `json:"showInfo"`
	FormFields []ContactFormField `json:"formFields"`
}

func (ContactContent) SectionType() string { return "contact" }

type AboutUsContent struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

func (AboutUsContent) SectionType() string { return "about" }

type OurProductsContent struct {
	Headline       string `json:"headline"`
	ShowCategories bool   `json:"showCategories"`
	ShowFilters    bool   `json:"showFilters"`
}

func (OurProductsContent) SectionType() string { return "products" }

type MapContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
	Address   string  `json:"address"`
}

func (MapContent) SectionType() string { return "map" }

type HotDealsContent struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle,omitempty"`
	ProductIDs []string `json:"productIds"`
}

func (HotDealsContent) SectionType() string { return "hotdeals" }

func init() {
	RegisterSection("hero", func() SectionContent { return &HeroSliderContent{} })
	RegisterSection("contact", func() SectionContent { return &ContactContent{} })
	RegisterSection("about", func() SectionContent { return &AboutUsContent{} })
	RegisterSection("products", func() SectionContent { return &OurProductsContent{} })
	RegisterSection("map", func() SectionContent { return &MapContent{} })
	RegisterSection("hotdeals", func() SectionContent { return &HotDealsContent{} })
}
