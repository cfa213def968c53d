package catalog

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/store"
)

// Cache holds the latest product snapshot delivered by a store subscription. Each
// snapshot replaces the previous one whole, so repeated or reordered deliveries of
// the same data leave it unchanged.
type Cache struct {
	mu       sync.RWMutex
	products []models.Product
	ready    bool

	unsubscribe func()
	log         *zap.Logger
}

func NewCache(logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{log: logger.Named("catalog.cache")}
}

// Start subscribes the cache to the products collection.
func (c *Cache) Start(ctx context.Context, s store.Store) error {
	unsubscribe, err := s.Subscribe(ctx, store.CollectionProducts, nil, c.Apply)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return nil
}

// Apply replaces the cached products with docs. Undecodable snapshots are dropped.
func (c *Cache) Apply(docs []bson.Raw) {
	products, err := store.DecodeAll[models.Product](docs)
	if err != nil {
		c.log.Warn("dropping undecodable product snapshot", zap.Error(err))
		return
	}
	c.mu.Lock()
	c.products = products
	c.ready = true
	c.mu.Unlock()
	c.log.Debug("product snapshot applied", zap.Int("count", len(products)))
}

// Snapshot returns a copy of the cached products and whether any snapshot has arrived.
func (c *Cache) Snapshot() ([]models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out, c.ready
}

func (c *Cache) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}
