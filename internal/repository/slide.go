package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lumina-cms/lumina/internal/model"
)

var (
	ErrSlideNotFound = errors.New("slide not found")
)

type SlideRepository interface {
	Create(ctx context.Context, slide *model.Slide) error
	ByID(ctx context.Context, id string) (*model.Slide, error)
	All(ctx context.Context) ([]*model.Slide, error)
	Update(ctx context.Context, slide *model.Slide) error
	Delete(ctx context.Context, id string) error
}

type slideRepository struct {
	db *sqlx.DB
}

func NewSlideRepository(db *sqlx.DB) *slideRepository {
	return &slideRepository{db: db}
}

func (r *slideRepository) Create(ctx context.Context, slide *model.Slide) error {
	query := `INSERT INTO slides (id, title, subtitle, image, button_text, button_link, position, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		slide.ID,
		slide.Title,
		slide.Subtitle,
		slide.Image,
		slide.ButtonText,
		slide.ButtonLink,
		slide.Position,
		slide.CreatedAt,
		slide.UpdatedAt,
	)

	return err
}

func (r *slideRepository) ByID(ctx context.Context, id string) (*model.Slide, error) {
	slide := &model.Slide{}
	query := `SELECT * FROM slides WHERE id = $1`

	err := r.db.GetContext(ctx, slide, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSlideNotFound
	}

	return slide, err
}

func (r *slideRepository) All(ctx context.Context) ([]*model.Slide, error) {
	slides := []*model.Slide{}
	query := `SELECT * FROM slides ORDER BY position ASC`

	err := r.db.SelectContext(ctx, &slides, query)
	if err != nil {
		return nil, err
	}

	return slides, nil
}

func (r *slideRepository) Update(ctx context.Context, slide *model.Slide) error {
	query := `UPDATE slides SET title = $1, subtitle = $2, image = $3, button_text = $4, button_link = $5, position = $6, updated_at = $7 WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		slide.Title,
		slide.Subtitle,
		slide.Image,
		slide.ButtonText,
		slide.ButtonLink,
		slide.Position,
		slide.UpdatedAt,
		slide.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrSlideNotFound
	}
	return err
}

func (r *slideRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM slides WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrSlideNotFound
	}
	return err
}
