package store

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

type memCollection struct {
	order []string
	docs  map[string]bson.Raw
}

type memListener struct {
	id         int
	collection string
	filter     Filter
	fn         SnapshotFunc
}

// Memory is an in-process Store. Documents round-trip through BSON exactly like
// they would through MongoDB. Transactions are serialised and roll back by restoring
// a copy of every collection, so writes made outside a transaction while one is
// running can be lost on rollback.
type Memory struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	collections map[string]*memCollection
	listeners   []*memListener
	nextListen  int
	failures    map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]*memCollection),
		failures:    make(map[string]error),
	}
}

// FailWrites makes every subsequent write to collection return err. A nil err clears it.
func (m *Memory) FailWrites(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, collection)
		return
	}
	m.failures[collection] = err
}

// Count returns the number of documents in a collection.
func (m *Memory) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.collections[collection]; ok {
		return len(c.order)
	}
	return 0
}

func (m *Memory) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]bson.Raw)}
		m.collections[name] = c
	}
	return c
}

func (m *Memory) Create(ctx context.Context, collection string, doc any) (string, error) {
	d, id, err := withID(doc, func() string { return uuid.NewString() })
	if err != nil {
		return "", err
	}
	raw, err := bson.Marshal(d)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	if err := m.failures[collection]; err != nil {
		m.mu.Unlock()
		return "", err
	}
	c := m.collection(collection)
	if _, exists := c.docs[id]; exists {
		m.mu.Unlock()
		return "", fmt.Errorf("duplicate _id %q in %s", id, collection)
	}
	c.order = append(c.order, id)
	c.docs[id] = raw
	m.mu.Unlock()

	m.notify(collection)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	patchRaw, err := bson.Marshal(bson.M(patch))
	if err != nil {
		return err
	}
	var patchDoc bson.D
	if err := bson.Unmarshal(patchRaw, &patchDoc); err != nil {
		return err
	}

	m.mu.Lock()
	if err := m.failures[collection]; err != nil {
		m.mu.Unlock()
		return err
	}
	c := m.collection(collection)
	raw, ok := c.docs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		m.mu.Unlock()
		return err
	}
	for _, p := range patchDoc {
		d = setField(d, p.Key, p.Value)
	}
	updated, err := bson.Marshal(d)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	c.docs[id] = updated
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (bson.Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	raw, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRaw(raw), nil
}

func (m *Memory) Query(ctx context.Context, collection string, filter Filter) ([]bson.Raw, error) {
	want, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryLocked(collection, want)
}

func (m *Memory) queryLocked(collection string, want bson.M) ([]bson.Raw, error) {
	c, ok := m.collections[collection]
	if !ok {
		return []bson.Raw{}, nil
	}
	out := make([]bson.Raw, 0, len(c.order))
	for _, id := range c.order {
		raw := c.docs[id]
		match, err := matches(raw, want)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, cloneRaw(raw))
		}
	}
	return out, nil
}

func (m *Memory) Subscribe(ctx context.Context, collection string, filter Filter, onSnapshot SnapshotFunc) (func(), error) {
	if _, err := normalizeFilter(filter); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.nextListen++
	l := &memListener{id: m.nextListen, collection: collection, filter: filter, fn: onSnapshot}
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()

	m.deliver(l)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, other := range m.listeners {
				if other.id == l.id {
					m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
					break
				}
			}
		})
	}, nil
}

func (m *Memory) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	m.mu.Lock()
	if err := m.failures[CollectionProducts]; err != nil {
		m.mu.Unlock()
		return 0, err
	}
	c := m.collection(CollectionProducts)
	raw, ok := c.docs[productID]
	if !ok {
		m.mu.Unlock()
		return 0, ErrNotFound
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		m.mu.Unlock()
		return 0, err
	}
	stock := 0
	for _, e := range d {
		if e.Key == "stock" {
			if n, ok := toFloat(e.Value); ok {
				stock = int(n)
			}
		}
	}
	if stock < qty {
		m.mu.Unlock()
		return stock, ErrInsufficientStock
	}
	remaining := stock - qty
	d = setField(d, "stock", remaining)
	updated, err := bson.Marshal(d)
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}
	c.docs[productID] = updated
	m.mu.Unlock()

	m.notify(CollectionProducts)
	return remaining, nil
}

func (m *Memory) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	saved := m.snapshot()
	if err := fn(ctx); err != nil {
		m.mu.Lock()
		touched := changedCollections(saved, m.collections)
		m.collections = saved
		m.mu.Unlock()

		// Subscribers saw the writes made inside fn.
		for _, name := range touched {
			m.notify(name)
		}
		return err
	}
	return nil
}

// changedCollections names the collections whose contents differ between a and b.
func changedCollections(a, b map[string]*memCollection) []string {
	var out []string
	seen := make(map[string]bool, len(a)+len(b))
	for _, m := range []map[string]*memCollection{a, b} {
		for name := range m {
			if seen[name] {
				continue
			}
			seen[name] = true
			if !sameCollection(a[name], b[name]) {
				out = append(out, name)
			}
		}
	}
	return out
}

func sameCollection(a, b *memCollection) bool {
	if a == nil || b == nil {
		return a == b || (a == nil && len(b.order) == 0) || (b == nil && len(a.order) == 0)
	}
	if len(a.order) != len(b.order) {
		return false
	}
	for i, id := range a.order {
		if b.order[i] != id || !bytes.Equal(a.docs[id], b.docs[id]) {
			return false
		}
	}
	return true
}

func (m *Memory) snapshot() map[string]*memCollection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*memCollection, len(m.collections))
	for name, c := range m.collections {
		cp := &memCollection{
			order: append([]string(nil), c.order...),
			docs:  make(map[string]bson.Raw, len(c.docs)),
		}
		for id, raw := range c.docs {
			cp.docs[id] = raw
		}
		out[name] = cp
	}
	return out
}

func (m *Memory) notify(collection string) {
	m.mu.Lock()
	var targets []*memListener
	for _, l := range m.listeners {
		if l.collection == collection {
			targets = append(targets, l)
		}
	}
	m.mu.Unlock()

	for _, l := range targets {
		m.deliver(l)
	}
}

func (m *Memory) deliver(l *memListener) {
	docs, err := m.Query(context.Background(), l.collection, l.filter)
	if err != nil {
		return
	}
	l.fn(docs)
}

func setField(d bson.D, key string, value any) bson.D {
	for i := range d {
		if d[i].Key == key {
			d[i].Value = value
			return d
		}
	}
	return append(d, bson.E{Key: key, Value: value})
}

func normalizeFilter(filter Filter) (bson.M, error) {
	if len(filter) == 0 {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(bson.M(filter))
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matches(raw bson.Raw, want bson.M) (bool, error) {
	if len(want) == 0 {
		return true, nil
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return false, err
	}
	for k, v := range want {
		got, ok := doc[k]
		if !ok || !equalValues(got, v) {
			return false, nil
		}
	}
	return true, nil
}

func equalValues(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cloneRaw(raw bson.Raw) bson.Raw {
	return append(bson.Raw(nil), raw...)
}
