package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lumina-cms/lumina/internal/model"
)

var (
	ErrBusinessNotFound = errors.New("business not found")
)

type BusinessRepository interface {
	Create(ctx context.Context, business *model.Business) error
	ByID(ctx context.Context, id string) (*model.Business, error)
	All(ctx context.Context) ([]*model.Business, error)
	Update(ctx context.Context, business *model.Business) error
	Delete(ctx context.Context, id string) error
}

type businessRepository struct {
	db *sqlx.DB
}

func NewBusinessRepository(db *sqlx.DB) *businessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(ctx context.Context, business *model.Business) error {
	query := `INSERT INTO businesses (id, name, logo_url, favicon_url, color_palette, global_config, sections, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		business.ID,
		business.Name,
		business.LogoURL,
		business.FaviconURL,
		business.ColorPalette,
		business.GlobalConfig,
		business.Sections,
		business.CreatedAt,
		business.UpdatedAt,
	)

	return err
}

func (r *businessRepository) ByID(ctx context.Context, id string) (*model.Business, error) {
	business := &model.Business{}
	query := `SELECT * FROM businesses WHERE id = $1`

	err := r.db.GetContext(ctx, business, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrBusinessNotFound
	}

	return business, err
}

func (r *businessRepository) All(ctx context.Context) ([]*model.Business, error) {
	businesses := []*model.Business{}
	query := `SELECT * FROM businesses ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &businesses, query)
	if err != nil {
		return nil, err
	}

	return businesses, nil
}

func (r *businessRepository) Update(ctx context.Context, business *model.Business) error {
	query := `UPDATE businesses SET name = $1, logo_url = $2, favicon_url = $3, color_palette = $4, global_config = $5, sections = $6, updated_at = $7 WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		business.Name,
		business.LogoURL,
		business.FaviconURL,
		business.ColorPalette,
		business.GlobalConfig,
		business.Sections,
		business.UpdatedAt,
		business.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrBusinessNotFound
	}
	return err
}

func (r *businessRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM businesses WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrBusinessNotFound
	}
	return err
}
