package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lumina-cms/lumina/internal/config"
	"github.com/lumina-cms/lumina/internal/db"
	"github.com/lumina-cms/lumina/internal/imaging"
	"github.com/lumina-cms/lumina/internal/model"
	"github.com/lumina-cms/lumina/internal/repository"
	"github.com/lumina-cms/lumina/internal/service"
	"github.com/lumina-cms/lumina/internal/storage"
	"github.com/lumina-cms/lumina/internal/validation"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Transformer     *imaging.VipsTransformer
	GalleryService  *service.GalleryService
	ProductService  *service.ProductService
	BusinessService *service.BusinessService
	SlideService    *service.SlideService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection, db.Pool{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	imageRepository := repository.NewImageRepository(database)
	variantRepository := repository.NewVariantRepository(database)
	productRepository := repository.NewProductRepository(database)
	productImageRepository := repository.NewProductImageRepository(database)
	businessRepository := repository.NewBusinessRepository(database)
	slideRepository := repository.NewSlideRepository(database)

	// Storage
	blobStore, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Image pipeline
	transformer := imaging.NewVipsTransformer()

	formats, err := parseFormats(cfg.UploadFormats)
	if err != nil {
		return nil, err
	}
	preferred, err := model.ParseFormat(cfg.PreferredFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid preferred format: %v", err)
	}

	policy := validation.ImagePolicy{
		AllowedMimeTypes: validation.AllowedImageMimeTypes,
		MaxBytes:         cfg.UploadMaxBytes,
		MinDimension:     cfg.UploadMinDimension,
		MaxDimension:     cfg.UploadMaxDimension,
	}

	// Services
	galleryService := service.NewGalleryService(
		imageRepository,
		variantRepository,
		blobStore,
		transformer,
		service.PipelineOptions{
			Formats:         formats,
			Sizes:           model.GallerySizes,
			PreferredFormat: preferred,
			Policy:          policy,
		},
	)
	productService := service.NewProductService(
		productRepository,
		productImageRepository,
		blobStore,
		transformer,
		policy,
	)
	businessService := service.NewBusinessService(businessRepository)
	slideService := service.NewSlideService(slideRepository)

	return &App{
		Cfg:             cfg,
		DB:              database,
		Transformer:     transformer,
		GalleryService:  galleryService,
		ProductService:  productService,
		BusinessService: businessService,
		SlideService:    slideService,
	}, nil
}

func (a *App) Close() error {
	if a.Transformer != nil {
		a.Transformer.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func parseFormats(raw []string) ([]model.Format, error) {
	formats := make([]model.Format, 0, len(raw))
	for _, r := range raw {
		f, err := model.ParseFormat(r)
		if err != nil {
			return nil, fmt.Errorf("invalid upload format: %v", err)
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no upload formats configured")
	}
	return formats, nil
}
