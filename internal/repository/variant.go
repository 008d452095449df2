package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lumina-cms/lumina/internal/model"
)

var (
	ErrVariantNotFound = errors.New("variant not found")
)

type VariantRepository interface {
	CreateBatch(ctx context.Context, variants []*model.ImageVariant) error
	ByImage(ctx context.Context, imageID string) ([]*model.ImageVariant, error)
	Delete(ctx context.Context, id string) error
	DeleteByImage(ctx context.Context, imageID string) error
}

type variantRepository struct {
	db *sqlx.DB
}

func NewVariantRepository(db *sqlx.DB) *variantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) CreateBatch(ctx context.Context, variants []*model.ImageVariant) error {
	if len(variants) == 0 {
		return nil
	}

	query := `INSERT INTO image_variants (id, image_id, format, size, url, storage_key, width, height, file_size, quality, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, v := range variants {
		_, err = tx.ExecContext(ctx, query,
			v.ID,
			v.ImageID,
			v.Format,
			v.Size,
			v.URL,
			v.StorageKey,
			v.Width,
			v.Height,
			v.FileSize,
			v.Quality,
			v.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *variantRepository) ByImage(ctx context.Context, imageID string) ([]*model.ImageVariant, error) {
	variants := []*model.ImageVariant{}
	query := `SELECT * FROM image_variants WHERE image_id = $1 ORDER BY format, size`

	err := r.db.SelectContext(ctx, &variants, query, imageID)
	if err != nil {
		return nil, err
	}

	return variants, nil
}

func (r *variantRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM image_variants WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVariantNotFound
	}

	return nil
}

func (r *variantRepository) DeleteByImage(ctx context.Context, imageID string) error {
	query := `DELETE FROM image_variants WHERE image_id = $1`
	_, err := r.db.ExecContext(ctx, query, imageID)
	return err
}
