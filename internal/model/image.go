package model

import (
	"strings"
	"time"
)

// Image is the parent record for an uploaded original. Variants hang off
// it by image_id; the hash column is unique so at most one image exists
// per distinct content.
type Image struct {
	ID           string    `db:"id"`
	OriginalName string    `db:"original_name"`
	Title        string    `db:"title"`
	Alt          string    `db:"alt"`
	Description  string    `db:"description"`
	PrimaryURL   string    `db:"primary_url"` // representative display variant, set after variants persist
	MimeType     string    `db:"mime_type"`
	Size         int64     `db:"size"`
	Width        int       `db:"width"`
	Height       int       `db:"height"`
	Hash         string    `db:"hash"`
	Tags         string    `db:"tags"` // comma-separated
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// TagList splits the stored tag string.
func (i *Image) TagList() []string {
	if i.Tags == "" {
		return []string{}
	}
	parts := strings.Split(i.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinTags builds the stored representation of a tag list.
func JoinTags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, ",")
}
