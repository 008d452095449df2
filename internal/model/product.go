package model

import "time"

// Product is a catalog entry. Image holds the URL of the medium display
// variant and is set once the product's image variants are persisted.
type Product struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Price       float64   `db:"price"`
	Category    string    `db:"category"`
	Description string    `db:"description"`
	Image       string    `db:"image"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ProductImage is one rendered (format, size) output of a product's image.
type ProductImage struct {
	ID         string    `db:"id"`
	ProductID  string    `db:"product_id"`
	Format     Format    `db:"format"`
	Size       SizeClass `db:"size"`
	URL        string    `db:"url"`
	StorageKey string    `db:"storage_key"`
	Width      int       `db:"width"`
	Height     int       `db:"height"`
	FileSize   int64     `db:"file_size"`
	Quality    int       `db:"quality"`
	CreatedAt  time.Time `db:"created_at"`
}
