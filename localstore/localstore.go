// Package localstore holds a shopper's in-progress session state (cart, addresses,
// wishlist, coupons, saved cards) as string values under well-known keys. Every write
// is followed by a broadcast so sibling views can refresh.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	KeyCart      = "krushee_cart"
	KeyAddresses = "krushee_addresses"
	KeyWishlist  = "krushee_wishlist"
	KeyCoupons   = "krushee_coupons"
	KeyCards     = "krushee_cards"
)

// SessionKeys lists every key a shopper session writes.
var SessionKeys = []string{KeyCart, KeyAddresses, KeyWishlist, KeyCoupons, KeyCards}

// Store is one shopper's key-value space.
type Store interface {
	ReadKey(ctx context.Context, name string) (string, bool, error)
	WriteKey(ctx context.Context, name, value string) error
	RemoveKey(ctx context.Context, name string) error

	// Broadcast tells every watcher of this store that name changed.
	Broadcast(ctx context.Context, name string) error
	// Watch calls onChange for every broadcast until stop is called or ctx ends.
	Watch(ctx context.Context, onChange func(name string)) (stop func(), err error)
}

// Opener hands out the store of a given shopper session.
type Opener interface {
	For(sessionID string) Store
}

// Load decodes the JSON value stored under name. A missing key yields the zero value.
func Load[T any](ctx context.Context, s Store, name string) (T, error) {
	var v T
	raw, ok, err := s.ReadKey(ctx, name)
	if err != nil {
		return v, err
	}
	if !ok || raw == "" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

// Save encodes v as JSON under name and broadcasts the change.
func Save(ctx context.Context, s Store, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.WriteKey(ctx, name, string(raw)); err != nil {
		return err
	}
	return s.Broadcast(ctx, name)
}

// Remove deletes name and broadcasts the change.
func Remove(ctx context.Context, s Store, name string) error {
	if err := s.RemoveKey(ctx, name); err != nil {
		return err
	}
	return s.Broadcast(ctx, name)
}

// Clear removes every session key and then broadcasts each one, as on logout.
func Clear(ctx context.Context, s Store) error {
	for _, name := range SessionKeys {
		if err := s.RemoveKey(ctx, name); err != nil {
			return err
		}
	}
	for _, name := range SessionKeys {
		if err := s.Broadcast(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
