package purchase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/metrics"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/session"
	"github.com/krushee/krushee-backend-go/store"
)

var farmer = models.User{
	ID:      "u1",
	Name:    "Ravi Patil",
	Email:   "ravi@example.com",
	Phone:   "9876543210",
	Address: "12 Market Road, Nashik - 422001",
}

type fixture struct {
	store *store.Memory
	flow  *Flow
	sess  *session.Session
}

func newFixture(t *testing.T, products ...models.Product) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	_, err := mem.Create(ctx, store.CollectionUsers, farmer)
	require.NoError(t, err)
	for _, p := range products {
		_, err := mem.Create(ctx, store.CollectionProducts, p)
		require.NoError(t, err)
	}
	user := farmer
	return &fixture{
		store: mem,
		flow:  NewFlow(mem, nil, nil),
		sess:  session.New("sess-1", &user, products),
	}
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := store.GetAs[models.Product](context.Background(), f.store, store.CollectionProducts, id)
	require.NoError(t, err)
	return p.Stock
}

func TestPurchaseSuccess(t *testing.T) {
	f := newFixture(t, models.Product{ID: "p1", Name: "Drip Kit", Category: "Irrigation", Price: 100, Stock: 5})

	receipt, err := f.flow.Purchase(context.Background(), f.sess, "p1", 2, PaymentMetadata{})
	require.NoError(t, err)

	assert.Equal(t, 3, receipt.RemainingStock)
	assert.Equal(t, 3, f.stock(t, "p1"))
	assert.Equal(t, 1, f.store.Count(store.CollectionOrders))
	assert.Equal(t, 1, f.store.Count(store.CollectionPurchases))
	assert.Equal(t, 1, f.store.Count(store.CollectionRevenue))

	order := receipt.Order
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, 200.0, order.TotalPrice)
	assert.Equal(t, 100.0, order.UnitPrice)
	assert.Equal(t, "Irrigation", order.ProductType)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "Cash on Delivery", order.PaymentMethod)
	assert.Equal(t, "Completed", order.PaymentStatus)
	assert.Nil(t, order.TrackingNumber)
	assert.Equal(t, 72*time.Hour, order.ExpectedDeliveryDate.Sub(order.OrderDate))
	assert.Equal(t, farmer.Name, order.CustomerName)
	assert.Equal(t, farmer.Address, order.CustomerAddress)

	assert.Equal(t, order.ID, receipt.Purchase.OrderID)
	assert.Equal(t, 200.0, receipt.Revenue.Amount)

	revenue, err := store.QueryAs[models.Revenue](context.Background(), f.store, store.CollectionRevenue, nil)
	require.NoError(t, err)
	require.Len(t, revenue, 1)
	assert.Equal(t, 200.0, revenue[0].Amount)
	assert.Equal(t, 2, revenue[0].Quantity)

	assert.Equal(t, 3, f.sess.Products()[0].Stock)
	require.Len(t, f.sess.Purchases(), 1)
	assert.Equal(t, order.ID, f.sess.Purchases()[0].OrderID)
}

func TestPurchaseMetadataOverridesProfile(t *testing.T) {
	f := newFixture(t, models.Product{ID: "p1", Name: "Seeds", Type: "seed", Price: 40, Stock: 10})

	receipt, err := f.flow.Purchase(context.Background(), f.sess, "p1", 1, PaymentMetadata{
		PaymentMethod:   "UPI",
		PaymentStatus:   "Completed",
		ProductType:     "bulk-seed",
		CustomerAddress: "Farm 4, Sinnar - 422103",
	})
	require.NoError(t, err)

	assert.Equal(t, "UPI", receipt.Order.PaymentMethod)
	assert.Equal(t, "bulk-seed", receipt.Order.ProductType)
	assert.Equal(t, "Farm 4, Sinnar - 422103", receipt.Order.CustomerAddress)
	assert.Equal(t, farmer.Phone, receipt.Order.CustomerPhone)
}

func TestPurchasePreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("guest", func(t *testing.T) {
		f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: 1})
		_, err := f.flow.Purchase(ctx, session.New("guest", nil, f.sess.Products()), "p1", 1, PaymentMetadata{})
		assert.ErrorIs(t, err, apperror.ErrAuthRequired)
		assert.Equal(t, 0, f.store.Count(store.CollectionOrders))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: 1})
		_, err := f.flow.Purchase(ctx, f.sess, "p1", 0, PaymentMetadata{})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("no products anywhere", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.flow.Purchase(ctx, f.sess, "p1", 1, PaymentMetadata{})
		assert.ErrorIs(t, err, apperror.ErrProductsUnavailable)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: 1})
		_, err := f.flow.Purchase(ctx, f.sess, "p2", 1, PaymentMetadata{})
		assert.ErrorIs(t, err, apperror.ErrProductNotFound)
		assert.Equal(t, "Product not found", apperror.MessageOf(err))
	})

	t.Run("insufficient stock", func(t *testing.T) {
		f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: 3})
		_, err := f.flow.Purchase(ctx, f.sess, "p1", 5, PaymentMetadata{})
		assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
		assert.Equal(t, 3, f.stock(t, "p1"))
		assert.Equal(t, 0, f.store.Count(store.CollectionOrders))
		assert.Equal(t, 0, f.store.Count(store.CollectionPurchases))
		assert.Equal(t, 0, f.store.Count(store.CollectionRevenue))
	})
}

func TestPurchaseRefetchesEmptyCatalog(t *testing.T) {
	f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: 4})
	f.sess.SetProducts(nil)

	_, err := f.flow.Purchase(context.Background(), f.sess, "p1", 1, PaymentMetadata{})
	require.NoError(t, err)
	require.Len(t, f.sess.Products(), 1)
	assert.Equal(t, 3, f.sess.Products()[0].Stock)
}

func TestPurchaseCanonicalIDMatch(t *testing.T) {
	f := newFixture(t, models.Product{ID: "7", Name: "Sickle", Price: 150, Stock: 2})

	receipt, err := f.flow.Purchase(context.Background(), f.sess, "7.0", 1, PaymentMetadata{})
	require.NoError(t, err)
	assert.Equal(t, "7", receipt.Order.ProductID)
	assert.Equal(t, 1, f.stock(t, "7"))
}

func TestPurchaseStaleSnapshotIsGuardedByStore(t *testing.T) {
	f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: 1})
	f.sess.SetStock("p1", 5)

	_, err := f.flow.Purchase(context.Background(), f.sess, "p1", 3, PaymentMetadata{})
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Equal(t, 1, f.stock(t, "p1"))
	assert.Equal(t, 0, f.store.Count(store.CollectionOrders))
	assert.Equal(t, 0, f.store.Count(store.CollectionPurchases))
}

func TestPurchaseRollsBackOnWriteFailure(t *testing.T) {
	f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: 5})
	f.store.FailWrites(store.CollectionRevenue, errors.New("disk full"))

	_, err := f.flow.Purchase(context.Background(), f.sess, "p1", 2, PaymentMetadata{})
	assert.ErrorIs(t, err, apperror.ErrPersistence)
	assert.Equal(t, 5, f.stock(t, "p1"))
	assert.Equal(t, 0, f.store.Count(store.CollectionOrders))
	assert.Equal(t, 0, f.store.Count(store.CollectionPurchases))
	assert.Equal(t, 5, f.sess.Products()[0].Stock)
}

func TestPurchaseMetrics(t *testing.T) {
	m := metrics.New()
	f := newFixture(t, models.Product{ID: "p1", Price: 100, Stock: 1})
	f.flow = NewFlow(f.store, m, nil)

	_, err := f.flow.Purchase(context.Background(), f.sess, "p1", 1, PaymentMetadata{})
	require.NoError(t, err)
	_, err = f.flow.Purchase(context.Background(), f.sess, "p1", 1, PaymentMetadata{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `krushee_purchases_total{result="success"} 1`)
	assert.Contains(t, body, `krushee_purchases_total{result="INSUFFICIENT_STOCK"} 1`)
	assert.Contains(t, body, `krushee_revenue_amount_total 100`)
}

func TestOrdersByUserNewestFirst(t *testing.T) {
	f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: 10})
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	f.flow.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Hour)
	}

	for i := 0; i < 3; i++ {
		_, err := f.flow.Purchase(context.Background(), f.sess, "p1", 1, PaymentMetadata{})
		require.NoError(t, err)
	}

	orders, err := f.flow.OrdersByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.True(t, orders[0].OrderDate.After(orders[1].OrderDate))
	assert.True(t, orders[1].OrderDate.After(orders[2].OrderDate))

	others, err := f.flow.OrdersByUser(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestPurchaseStockProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("purchase succeeds iff qty <= stock and never drives stock negative", prop.ForAll(
		func(stock, qty int) bool {
			f := newFixture(t, models.Product{ID: "p1", Price: 10, Stock: stock})
			_, err := f.flow.Purchase(context.Background(), f.sess, "p1", qty, PaymentMetadata{})
			after := f.stock(t, "p1")
			if qty <= stock {
				return err == nil && after == stock-qty && f.store.Count(store.CollectionOrders) == 1
			}
			return errors.Is(err, apperror.ErrInsufficientStock) && after == stock && f.store.Count(store.CollectionOrders) == 0
		},
		gen.IntRange(0, 20),
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}
