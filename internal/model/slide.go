package model

import "time"

// Slide is one entry of the landing-page hero carousel. Position drives
// the rendered order, starting at 1.
type Slide struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Subtitle   string    `db:"subtitle"`
	Image      string    `db:"image"`
	ButtonText string    `db:"button_text"`
	ButtonLink string    `db:"button_link"`
	Position   int       `db:"position"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
