package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type testProduct struct {
	ID    string  `bson:"_id,omitempty"`
	Name  string  `bson:"name"`
	Price float64 `bson:"price"`
	Stock int     `bson:"stock"`
}

func seed(t *testing.T, m *Memory, p testProduct) string {
	t.Helper()
	id, err := m.Create(context.Background(), CollectionProducts, p)
	require.NoError(t, err)
	return id
}

func TestMemoryCreateGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id := seed(t, m, testProduct{Name: "Neem Oil", Price: 250, Stock: 4})
	assert.NotEmpty(t, id)

	got, err := GetAs[testProduct](ctx, m, CollectionProducts, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Neem Oil", got.Name)
	assert.Equal(t, 4, got.Stock)

	_, err = m.Get(ctx, CollectionProducts, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCreateKeepsGivenID(t *testing.T) {
	m := NewMemory()

	id := seed(t, m, testProduct{ID: "p1", Name: "Urea"})
	assert.Equal(t, "p1", id)

	_, err := m.Create(context.Background(), CollectionProducts, testProduct{ID: "p1"})
	assert.Error(t, err)
}

func TestMemoryUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := seed(t, m, testProduct{Name: "Urea", Stock: 10})

	require.NoError(t, m.Update(ctx, CollectionProducts, id, map[string]any{"stock": 7, "name": "Urea 45kg"}))

	got, err := GetAs[testProduct](ctx, m, CollectionProducts, id)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
	assert.Equal(t, "Urea 45kg", got.Name)

	assert.ErrorIs(t, m.Update(ctx, CollectionProducts, "nope", map[string]any{"stock": 1}), ErrNotFound)
}

func TestMemoryQueryFilter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seed(t, m, testProduct{ID: "a", Name: "Seeds", Stock: 1})
	seed(t, m, testProduct{ID: "b", Name: "Sprayer", Stock: 2})
	seed(t, m, testProduct{ID: "c", Name: "Seeds", Stock: 3})

	all, err := QueryAs[testProduct](ctx, m, CollectionProducts, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)

	seeds, err := QueryAs[testProduct](ctx, m, CollectionProducts, Filter{"name": "Seeds"})
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, "c", seeds[1].ID)

	byStock, err := QueryAs[testProduct](ctx, m, CollectionProducts, Filter{"stock": 2})
	require.NoError(t, err)
	require.Len(t, byStock, 1)
	assert.Equal(t, "b", byStock[0].ID)

	empty, err := QueryAs[testProduct](ctx, m, CollectionOrders, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryDecrementStock(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := seed(t, m, testProduct{Name: "Urea", Stock: 5})

	remaining, err := m.DecrementStock(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	_, err = m.DecrementStock(ctx, id, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := GetAs[testProduct](ctx, m, CollectionProducts, id)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	_, err = m.DecrementStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTransactionRollback(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := seed(t, m, testProduct{Name: "Urea", Stock: 5})
	boom := errors.New("boom")

	err := m.RunTransaction(ctx, func(ctx context.Context) error {
		if _, err := m.Create(ctx, CollectionOrders, map[string]any{"productId": id}); err != nil {
			return err
		}
		if _, err := m.DecrementStock(ctx, id, 2); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Count(CollectionOrders))

	got, err := GetAs[testProduct](ctx, m, CollectionProducts, id)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestMemoryRollbackRefreshesSubscribers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := seed(t, m, testProduct{Name: "Neem Oil", Stock: 4})

	var stocks []int
	unsubscribe, err := m.Subscribe(ctx, CollectionProducts, nil, func(docs []bson.Raw) {
		items, err := DecodeAll[testProduct](docs)
		require.NoError(t, err)
		require.Len(t, items, 1)
		stocks = append(stocks, items[0].Stock)
	})
	require.NoError(t, err)
	defer unsubscribe()

	err = m.RunTransaction(ctx, func(ctx context.Context) error {
		if _, err := m.DecrementStock(ctx, id, 3); err != nil {
			return err
		}
		return errors.New("revenue write failed")
	})
	require.Error(t, err)

	assert.Equal(t, []int{4, 1, 4}, stocks)
}

func TestMemoryFailWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("unavailable")

	m.FailWrites(CollectionRevenue, boom)
	_, err := m.Create(ctx, CollectionRevenue, map[string]any{"amount": 1})
	assert.ErrorIs(t, err, boom)

	m.FailWrites(CollectionRevenue, nil)
	_, err = m.Create(ctx, CollectionRevenue, map[string]any{"amount": 1})
	assert.NoError(t, err)
}

func TestMemorySubscribe(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seed(t, m, testProduct{ID: "a", Name: "Seeds"})

	var snapshots [][]testProduct
	unsubscribe, err := m.Subscribe(ctx, CollectionProducts, nil, func(docs []bson.Raw) {
		items, err := DecodeAll[testProduct](docs)
		require.NoError(t, err)
		snapshots = append(snapshots, items)
	})
	require.NoError(t, err)

	seed(t, m, testProduct{ID: "b", Name: "Sprayer"})
	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[0], 1)
	assert.Len(t, snapshots[1], 2)

	unsubscribe()
	seed(t, m, testProduct{ID: "c", Name: "Urea"})
	assert.Len(t, snapshots, 2)
}
