// Package store is the persistent document store used for every server-owned entity.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	CollectionUsers        = "users"
	CollectionProducts     = "products"
	CollectionCategories   = "categories"
	CollectionBrands       = "brands"
	CollectionBanners      = "banners"
	CollectionOrders       = "orders"
	CollectionPurchases    = "purchases"
	CollectionTestimonials = "testimonials"
	CollectionRevenue      = "revenue"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Filter is an equality match on top-level document fields.
type Filter map[string]any

// SnapshotFunc receives the full result set of a subscription every time it changes.
// Consumers replace their state with it; the same snapshot may arrive more than once.
type SnapshotFunc func(docs []bson.Raw)

type Store interface {
	Create(ctx context.Context, collection string, doc any) (string, error)
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Get(ctx context.Context, collection, id string) (bson.Raw, error)
	Query(ctx context.Context, collection string, filter Filter) ([]bson.Raw, error)
	Subscribe(ctx context.Context, collection string, filter Filter, onSnapshot SnapshotFunc) (unsubscribe func(), err error)

	// DecrementStock lowers a product's stock by qty only if stock >= qty, and returns
	// the remaining stock. It fails with ErrInsufficientStock when the guard does not hold.
	DecrementStock(ctx context.Context, productID string, qty int) (int, error)

	// RunTransaction runs fn so that its writes are applied together or not at all.
	// Store calls made inside fn must use the context it receives.
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// GetAs fetches one document and decodes it into T.
func GetAs[T any](ctx context.Context, s Store, collection, id string) (*T, error) {
	raw, err := s.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := bson.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &v, nil
}

// QueryAs runs a query and decodes every document into T.
func QueryAs[T any](ctx context.Context, s Store, collection string, filter Filter) ([]T, error) {
	docs, err := s.Query(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](docs)
}

func DecodeAll[T any](docs []bson.Raw) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, raw := range docs {
		var v T
		if err := bson.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// withID marshals doc and makes sure it carries a string _id, generating one when absent.
func withID(doc any, newID func() string) (bson.D, string, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, "", err
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, "", err
	}
	for _, e := range d {
		if e.Key != "_id" {
			continue
		}
		id, ok := e.Value.(string)
		if !ok {
			return nil, "", fmt.Errorf("_id must be a string, got %T", e.Value)
		}
		if id != "" {
			return d, id, nil
		}
	}
	id := newID()
	out := bson.D{{Key: "_id", Value: id}}
	for _, e := range d {
		if e.Key != "_id" {
			out = append(out, e)
		}
	}
	return out, id, nil
}
