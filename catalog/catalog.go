// Package catalog serves the read side of the storefront: products, categories,
// brands, banners and testimonials.
package catalog

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/store"
)

type Service struct {
	store store.Store
	cache *Cache
	log   *zap.Logger
}

// NewService reads products through cache when it has a snapshot. cache may be nil.
func NewService(s store.Store, cache *Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, cache: cache, log: logger.Named("catalog")}
}

// Products returns the whole product catalog.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		if products, ok := s.cache.Snapshot(); ok {
			return products, nil
		}
	}
	products, err := store.QueryAs[models.Product](ctx, s.store, store.CollectionProducts, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProductsUnavailable, "Unable to load products", err)
	}
	return products, nil
}

// ListProducts filters by category and type. The category matches when the product's
// category (or its type, when it has no category) contains it, ignoring case, so a
// slug like "organic-fertilizers" finds "Organic Fertilizers". The type must match
// exactly. Empty filters match everything.
func (s *Service) ListProducts(ctx context.Context, category, productType string) ([]models.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	category = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(category, "-", " ")))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if productType != "" && p.Type != productType {
			continue
		}
		if category != "" {
			pc := p.Category
			if pc == "" {
				pc = p.Type
			}
			if !strings.Contains(strings.ToLower(pc), category) {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// GetProduct looks a product up by id, accepting numeric spellings of numeric ids.
func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := store.GetAs[models.Product](ctx, s.store, store.CollectionProducts, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Persistence("failed to fetch product", err)
	}
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	if found, ok := FindProduct(products, id); ok {
		return &found, nil
	}
	return nil, apperror.New(apperror.KindProductNotFound, "Product not found")
}

// Search matches term case-insensitively against name, category, type and description.
func (s *Service) Search(ctx context.Context, term string) ([]models.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products, nil
	}
	out := make([]models.Product, 0)
	for _, p := range products {
		for _, field := range []string{p.Name, p.Category, p.Type, p.Description} {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return list[models.Category](ctx, s.store, store.CollectionCategories, nil)
}

func (s *Service) Brands(ctx context.Context) ([]models.Brand, error) {
	return list[models.Brand](ctx, s.store, store.CollectionBrands, nil)
}

// Banners returns the active banners only.
func (s *Service) Banners(ctx context.Context) ([]models.Banner, error) {
	return list[models.Banner](ctx, s.store, store.CollectionBanners, store.Filter{"active": true})
}

func (s *Service) Testimonials(ctx context.Context) ([]models.Testimonial, error) {
	return list[models.Testimonial](ctx, s.store, store.CollectionTestimonials, nil)
}

func list[T any](ctx context.Context, s store.Store, collection string, filter store.Filter) ([]T, error) {
	items, err := store.QueryAs[T](ctx, s, collection, filter)
	if err != nil {
		return nil, apperror.Persistence("failed to fetch "+collection, err)
	}
	return items, nil
}

// Streamable reports whether collection can be watched through Watch.
func Streamable(collection string) bool {
	switch collection {
	case store.CollectionProducts, store.CollectionCategories, store.CollectionBrands,
		store.CollectionBanners, store.CollectionTestimonials:
		return true
	}
	return false
}

// Watch calls fn with the decoded contents of collection now and after every change.
func (s *Service) Watch(ctx context.Context, collection string, fn func(items any)) (func(), error) {
	if !Streamable(collection) {
		return nil, apperror.Validation("Unknown catalog collection " + collection)
	}
	var filter store.Filter
	if collection == store.CollectionBanners {
		filter = store.Filter{"active": true}
	}
	return s.store.Subscribe(ctx, collection, filter, func(docs []bson.Raw) {
		items, err := decode(collection, docs)
		if err != nil {
			s.log.Warn("dropping undecodable snapshot", zap.String("collection", collection), zap.Error(err))
			return
		}
		fn(items)
	})
}

func decode(collection string, docs []bson.Raw) (any, error) {
	switch collection {
	case store.CollectionProducts:
		return store.DecodeAll[models.Product](docs)
	case store.CollectionCategories:
		return store.DecodeAll[models.Category](docs)
	case store.CollectionBrands:
		return store.DecodeAll[models.Brand](docs)
	case store.CollectionBanners:
		return store.DecodeAll[models.Banner](docs)
	default:
		return store.DecodeAll[models.Testimonial](docs)
	}
}

// FindProduct looks a product up by exact id, then by canonical id so "7" matches 7.0.
func FindProduct(products []models.Product, id string) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	want := models.ProductID(id).Canonical()
	for _, p := range products {
		if models.ProductID(p.ID).Canonical() == want {
			return p, true
		}
	}
	return models.Product{}, false
}
