// Package session holds the state of one shopper visit: who is signed in, the catalog
// snapshot they are browsing and their purchase history. Components receive it
// explicitly instead of reading ambient globals.
package session

import (
	"sync"

	"github.com/krushee/krushee-backend-go/models"
)

type Session struct {
	// ID keys the shopper's local store.
	ID   string
	User *models.User

	mu        sync.RWMutex
	products  []models.Product
	purchases []models.Purchase
}

func New(id string, user *models.User, products []models.Product) *Session {
	s := &Session{ID: id, User: user}
	s.SetProducts(products)
	return s
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s.User != nil && s.User.ID != ""
}

// UserID returns the signed-in user's id, or "" for a guest.
func (s *Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Products returns a copy of the catalog snapshot.
func (s *Session) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Session) SetProducts(products []models.Product) {
	cp := make([]models.Product, len(products))
	copy(cp, products)
	s.mu.Lock()
	s.products = cp
	s.mu.Unlock()
}

// SetStock updates one product's stock in the snapshot. Unknown ids are ignored.
func (s *Session) SetStock(productID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == productID {
			s.products[i].Stock = stock
		}
	}
}

func (s *Session) Purchases() []models.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Purchase, len(s.purchases))
	copy(out, s.purchases)
	return out
}

func (s *Session) SetPurchases(purchases []models.Purchase) {
	cp := make([]models.Purchase, len(purchases))
	copy(cp, purchases)
	s.mu.Lock()
	s.purchases = cp
	s.mu.Unlock()
}
