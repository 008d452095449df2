package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lumina-cms/lumina/internal/model"
)

var (
	ErrImageNotFound = errors.New("image not found")
)

// ImageQuery filters and paginates image listings.
type ImageQuery struct {
	Page   int
	Limit  int
	Search string
	Tags   []string
	Format string // filter: images having a variant in this format
	Size   string // filter: images having a variant in this size class
}

type ImageRepository interface {
	Create(ctx context.Context, image *model.Image) error
	ByID(ctx context.Context, id string) (*model.Image, error)
	ByHash(ctx context.Context, hash string) (*model.Image, error)
	Search(ctx context.Context, q ImageQuery) ([]*model.Image, int, error)
	Update(ctx context.Context, image *model.Image) error
	Delete(ctx context.Context, id string) error
}

type imageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) *imageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *model.Image) error {
	query := `INSERT INTO images (id, original_name, title, alt, description, primary_url, mime_type, size, width, height, hash, tags, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		image.ID,
		image.OriginalName,
		image.Title,
		image.Alt,
		image.Description,
		image.PrimaryURL,
		image.MimeType,
		image.Size,
		image.Width,
		image.Height,
		image.Hash,
		image.Tags,
		image.CreatedAt,
		image.UpdatedAt,
	)

	return err
}

func (r *imageRepository) ByID(ctx context.Context, id string) (*model.Image, error) {
	image := &model.Image{}
	query := `SELECT * FROM images WHERE id = $1`

	err := r.db.GetContext(ctx, image, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrImageNotFound
	}

	return image, err
}

func (r *imageRepository) ByHash(ctx context.Context, hash string) (*model.Image, error) {
	image := &model.Image{}
	query := `SELECT * FROM images WHERE hash = $1`

	err := r.db.GetContext(ctx, image, query, hash)
	if err == sql.ErrNoRows {
		return nil, ErrImageNotFound
	}

	return image, err
}

func (r *imageRepository) Search(ctx context.Context, q ImageQuery) ([]*model.Image, int, error) {
	where := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		where = append(where, fmt.Sprintf("(title LIKE %s OR description LIKE %s OR original_name LIKE %s)", p, p, p))
	}
	for _, tag := range q.Tags {
		// tags column is a comma-separated list; pad both sides so a tag
		// matches whole entries only
		where = append(where, fmt.Sprintf("(',' || tags || ',') LIKE %s", arg("%,"+tag+",%")))
	}
	if q.Format != "" {
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM image_variants v WHERE v.image_id = images.id AND v.format = %s)", arg(q.Format)))
	}
	if q.Size != "" {
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM image_variants v WHERE v.image_id = images.id AND v.size = %s)", arg(q.Size)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM images"+clause, args...)
	if err != nil {
		return nil, 0, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT * FROM images%s ORDER BY created_at DESC LIMIT %s OFFSET %s",
		clause, arg(limit), arg((page-1)*limit))

	images := []*model.Image{}
	err = r.db.SelectContext(ctx, &images, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return images, total, nil
}

func (r *imageRepository) Update(ctx context.Context, image *model.Image) error {
	query := `UPDATE images SET title = $1, alt = $2, description = $3, tags = $4, primary_url = $5, updated_at = $6 WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query,
		image.Title,
		image.Alt,
		image.Description,
		image.Tags,
		image.PrimaryURL,
		image.UpdatedAt,
		image.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrImageNotFound
	}
	return err
}

func (r *imageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM images WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
