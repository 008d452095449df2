package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lumina-cms/lumina/internal/model"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	ByID(ctx context.Context, id string) (*model.Product, error)
	All(ctx context.Context) ([]*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error
}

type ProductImageRepository interface {
	CreateBatch(ctx context.Context, images []*model.ProductImage) error
	ByProduct(ctx context.Context, productID string) ([]*model.ProductImage, error)
	DeleteByProduct(ctx context.Context, productID string) error
}

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	query := `INSERT INTO products (id, name, price, category, description, image, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Price,
		product.Category,
		product.Description,
		product.Image,
		product.CreatedAt,
		product.UpdatedAt,
	)

	return err
}

func (r *productRepository) ByID(ctx context.Context, id string) (*model.Product, error) {
	product := &model.Product{}
	query := `SELECT * FROM products WHERE id = $1`

	err := r.db.GetContext(ctx, product, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}

	return product, err
}

func (r *productRepository) All(ctx context.Context) ([]*model.Product, error) {
	products := []*model.Product{}
	query := `SELECT * FROM products ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &products, query)
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name = $1, price = $2, category = $3, description = $4, image = $5, updated_at = $6 WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Price,
		product.Category,
		product.Description,
		product.Image,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrProductNotFound
	}
	return err
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrProductNotFound
	}
	return err
}

type productImageRepository struct {
	db *sqlx.DB
}

func NewProductImageRepository(db *sqlx.DB) *productImageRepository {
	return &productImageRepository{db: db}
}

func (r *productImageRepository) CreateBatch(ctx context.Context, images []*model.ProductImage) error {
	if len(images) == 0 {
		return nil
	}

	query := `INSERT INTO product_images (id, product_id, format, size, url, storage_key, width, height, file_size, quality, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, img := range images {
		_, err = tx.ExecContext(ctx, query,
			img.ID,
			img.ProductID,
			img.Format,
			img.Size,
			img.URL,
			img.StorageKey,
			img.Width,
			img.Height,
			img.FileSize,
			img.Quality,
			img.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *productImageRepository) ByProduct(ctx context.Context, productID string) ([]*model.ProductImage, error) {
	images := []*model.ProductImage{}
	query := `SELECT * FROM product_images WHERE product_id = $1 ORDER BY format, size`

	err := r.db.SelectContext(ctx, &images, query, productID)
	if err != nil {
		return nil, err
	}

	return images, nil
}

func (r *productImageRepository) DeleteByProduct(ctx context.Context, productID string) error {
	query := `DELETE FROM product_images WHERE product_id = $1`
	_, err := r.db.ExecContext(ctx, query, productID)
	return err
}
