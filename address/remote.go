package address

import (
	"context"
	"time"

	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/store"
)

// ProfileRemote keeps addresses in the "addresses" array of the user document.
type ProfileRemote struct {
	store store.Store
}

func NewProfileRemote(s store.Store) *ProfileRemote {
	return &ProfileRemote{store: s}
}

func (r *ProfileRemote) SaveAddress(ctx context.Context, userID string, a models.Address) error {
	user, err := store.GetAs[models.User](ctx, r.store, store.CollectionUsers, userID)
	if err != nil {
		return err
	}
	addresses := make([]models.Address, 0, len(user.Addresses)+1)
	replaced := false
	for _, existing := range user.Addresses {
		if existing.ID == a.ID {
			existing = a
			replaced = true
		}
		addresses = append(addresses, existing)
	}
	if !replaced {
		addresses = append(addresses, a)
	}
	return r.store.Update(ctx, store.CollectionUsers, userID, map[string]any{
		"addresses": addresses,
		"updatedAt": time.Now().UTC(),
	})
}

func (r *ProfileRemote) DeleteAddress(ctx context.Context, userID, addressID string) error {
	user, err := store.GetAs[models.User](ctx, r.store, store.CollectionUsers, userID)
	if err != nil {
		return err
	}
	addresses := make([]models.Address, 0, len(user.Addresses))
	for _, existing := range user.Addresses {
		if existing.ID != addressID {
			addresses = append(addresses, existing)
		}
	}
	return r.store.Update(ctx, store.CollectionUsers, userID, map[string]any{
		"addresses": addresses,
		"updatedAt": time.Now().UTC(),
	})
}
