package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lumina-cms/lumina/internal/imaging"
	"github.com/lumina-cms/lumina/internal/model"
	"github.com/lumina-cms/lumina/internal/repository"
)

// In-memory fakes for the pipeline's ports. Write paths mirror the SQL
// repositories closely enough for orchestration tests.

type fakeImageRepo struct {
	images      map[string]*model.Image
	createCalls int
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{images: map[string]*model.Image{}}
}

func (r *fakeImageRepo) Create(_ context.Context, image *model.Image) error {
	r.createCalls++
	cp := *image
	r.images[image.ID] = &cp
	return nil
}

func (r *fakeImageRepo) ByID(_ context.Context, id string) (*model.Image, error) {
	image, ok := r.images[id]
	if !ok {
		return nil, repository.ErrImageNotFound
	}
	cp := *image
	return &cp, nil
}

func (r *fakeImageRepo) ByHash(_ context.Context, hash string) (*model.Image, error) {
	for _, image := range r.images {
		if image.Hash == hash {
			cp := *image
			return &cp, nil
		}
	}
	return nil, repository.ErrImageNotFound
}

func (r *fakeImageRepo) Search(_ context.Context, q repository.ImageQuery) ([]*model.Image, int, error) {
	out := []*model.Image{}
	for _, image := range r.images {
		if len(q.Tags) > 0 && !hasAllTags(image, q.Tags) {
			continue
		}
		cp := *image
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func hasAllTags(image *model.Image, tags []string) bool {
	padded := "," + image.Tags + ","
	for _, tag := range tags {
		if !strings.Contains(padded, ","+tag+",") {
			return false
		}
	}
	return true
}

func (r *fakeImageRepo) Update(_ context.Context, image *model.Image) error {
	if _, ok := r.images[image.ID]; !ok {
		return repository.ErrImageNotFound
	}
	cp := *image
	r.images[image.ID] = &cp
	return nil
}

func (r *fakeImageRepo) Delete(_ context.Context, id string) error {
	delete(r.images, id)
	return nil
}

type fakeVariantRepo struct {
	variants  map[string][]*model.ImageVariant // keyed by image id, insert order
	createErr error
}

func newFakeVariantRepo() *fakeVariantRepo {
	return &fakeVariantRepo{variants: map[string][]*model.ImageVariant{}}
}

func (r *fakeVariantRepo) CreateBatch(_ context.Context, variants []*model.ImageVariant) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, v := range variants {
		cp := *v
		r.variants[v.ImageID] = append(r.variants[v.ImageID], &cp)
	}
	return nil
}

func (r *fakeVariantRepo) ByImage(_ context.Context, imageID string) ([]*model.ImageVariant, error) {
	out := []*model.ImageVariant{}
	for _, v := range r.variants[imageID] {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeVariantRepo) Delete(_ context.Context, id string) error {
	for imageID, vs := range r.variants {
		kept := vs[:0]
		for _, v := range vs {
			if v.ID != id {
				kept = append(kept, v)
			}
		}
		if len(kept) != len(vs) {
			r.variants[imageID] = kept
			return nil
		}
	}
	return repository.ErrVariantNotFound
}

func (r *fakeVariantRepo) DeleteByImage(_ context.Context, imageID string) error {
	delete(r.variants, imageID)
	return nil
}

type fakeProductRepo struct {
	products map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*model.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) ByID(_ context.Context, id string) (*model.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (r *fakeProductRepo) All(_ context.Context) ([]*model.Product, error) {
	out := []*model.Product{}
	for _, product := range r.products {
		cp := *product
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

type fakeProductImageRepo struct {
	images map[string][]*model.ProductImage
}

func newFakeProductImageRepo() *fakeProductImageRepo {
	return &fakeProductImageRepo{images: map[string][]*model.ProductImage{}}
}

func (r *fakeProductImageRepo) CreateBatch(_ context.Context, images []*model.ProductImage) error {
	for _, img := range images {
		cp := *img
		r.images[img.ProductID] = append(r.images[img.ProductID], &cp)
	}
	return nil
}

func (r *fakeProductImageRepo) ByProduct(_ context.Context, productID string) ([]*model.ProductImage, error) {
	out := []*model.ProductImage{}
	for _, img := range r.images[productID] {
		cp := *img
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeProductImageRepo) DeleteByProduct(_ context.Context, productID string) error {
	delete(r.images, productID)
	return nil
}

type fakeBusinessRepo struct {
	businesses map[string]*model.Business
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{businesses: map[string]*model.Business{}}
}

func (r *fakeBusinessRepo) Create(_ context.Context, business *model.Business) error {
	cp := *business
	r.businesses[business.ID] = &cp
	return nil
}

func (r *fakeBusinessRepo) ByID(_ context.Context, id string) (*model.Business, error) {
	business, ok := r.businesses[id]
	if !ok {
		return nil, repository.ErrBusinessNotFound
	}
	cp := *business
	return &cp, nil
}

func (r *fakeBusinessRepo) All(_ context.Context) ([]*model.Business, error) {
	out := []*model.Business{}
	for _, business := range r.businesses {
		cp := *business
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBusinessRepo) Update(_ context.Context, business *model.Business) error {
	if _, ok := r.businesses[business.ID]; !ok {
		return repository.ErrBusinessNotFound
	}
	cp := *business
	r.businesses[business.ID] = &cp
	return nil
}

func (r *fakeBusinessRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.businesses[id]; !ok {
		return repository.ErrBusinessNotFound
	}
	delete(r.businesses, id)
	return nil
}

type fakeSlideRepo struct {
	slides map[string]*model.Slide
}

func newFakeSlideRepo() *fakeSlideRepo {
	return &fakeSlideRepo{slides: map[string]*model.Slide{}}
}

func (r *fakeSlideRepo) Create(_ context.Context, slide *model.Slide) error {
	cp := *slide
	r.slides[slide.ID] = &cp
	return nil
}

func (r *fakeSlideRepo) ByID(_ context.Context, id string) (*model.Slide, error) {
	slide, ok := r.slides[id]
	if !ok {
		return nil, repository.ErrSlideNotFound
	}
	cp := *slide
	return &cp, nil
}

func (r *fakeSlideRepo) All(_ context.Context) ([]*model.Slide, error) {
	out := []*model.Slide{}
	for _, slide := range r.slides {
		cp := *slide
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeSlideRepo) Update(_ context.Context, slide *model.Slide) error {
	if _, ok := r.slides[slide.ID]; !ok {
		return repository.ErrSlideNotFound
	}
	cp := *slide
	r.slides[slide.ID] = &cp
	return nil
}

func (r *fakeSlideRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.slides[id]; !ok {
		return repository.ErrSlideNotFound
	}
	delete(r.slides, id)
	return nil
}

type fakeStore struct {
	blobs     map[string][]byte
	putErr    error
	removeErr error
	removed   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: map[string][]byte{}}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, _, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.blobs[key] = data
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("blob not found: " + key)
	}
	return data, nil
}

func (s *fakeStore) Remove(_ context.Context, key string) error {
	s.removed = append(s.removed, key)
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.blobs, key)
	return nil
}

func (s *fakeStore) URL(key string) string {
	return "https://cdn.test/" + key
}

// fakeTransformer reports configurable source dimensions and fails the
// pairs listed in fail (or everything with failAll).
type fakeTransformer struct {
	width    int
	height   int
	probeErr error
	failAll  bool
	fail     map[string]bool // "format/size"
}

func newFakeTransformer(width, height int) *fakeTransformer {
	return &fakeTransformer{width: width, height: height, fail: map[string]bool{}}
}

func pairKey(format model.Format, size model.SizeClass) string {
	return string(format) + "/" + string(size)
}

func (t *fakeTransformer) Probe(_ []byte) (imaging.Metadata, error) {
	if t.probeErr != nil {
		return imaging.Metadata{}, t.probeErr
	}
	return imaging.Metadata{Width: t.width, Height: t.height, Format: model.FormatJPEG}, nil
}

func (t *fakeTransformer) Transform(_ []byte, planned imaging.PlannedVariant) (imaging.Result, error) {
	if t.failAll || t.fail[pairKey(planned.Format, planned.Size)] {
		return imaging.Result{}, &imaging.TransformError{
			Format: planned.Format,
			Size:   planned.Size,
			Err:    errors.New("encoder blew up"),
		}
	}

	w, h := t.width, t.height
	if planned.Config.Resizes() && planned.Config.Width < w {
		w, h = planned.Config.Width, planned.Config.Height
	}
	return imaging.Result{
		Data:        []byte(fmt.Sprintf("%s-bytes", pairKey(planned.Format, planned.Size))),
		Width:       w,
		Height:      h,
		ContentType: planned.Format.ContentType(),
	}, nil
}
