// Package purchase turns one cart line into an order. A purchase writes four records
// (order, purchase, stock decrement, revenue) in a single store transaction, so a
// failure part way leaves no trace.
package purchase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/catalog"
	"github.com/krushee/krushee-backend-go/metrics"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/session"
	"github.com/krushee/krushee-backend-go/store"
)

const (
	deliveryLeadTime = 3 * 24 * time.Hour

	defaultPaymentMethod = "Cash on Delivery"
	defaultPaymentStatus = "Completed"
	defaultProductType   = "product"
)

// PaymentMetadata overrides the values a purchase would otherwise derive. Empty fields
// fall back to the user's profile or the defaults.
type PaymentMetadata struct {
	PaymentMethod   string
	PaymentStatus   string
	ProductType     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	Notes           string
}

// Receipt is what one successful purchase wrote.
type Receipt struct {
	Order          models.Order    `json:"order"`
	Purchase       models.Purchase `json:"purchase"`
	Revenue        models.Revenue  `json:"revenue"`
	RemainingStock int             `json:"remainingStock"`
}

type Flow struct {
	store   store.Store
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewFlow(s store.Store, m *metrics.Metrics, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		store:   s,
		metrics: m,
		log:     logger.Named("purchase"),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Purchase buys qty units of productID for the session user. Preconditions are
// checked in order: signed in, catalog available, product known, stock sufficient.
// On success the session's purchases are refreshed and the product's stock in the
// session snapshot is lowered.
func (f *Flow) Purchase(ctx context.Context, sess *session.Session, productID string, qty int, meta PaymentMetadata) (*Receipt, error) {
	receipt, err := f.purchase(ctx, sess, productID, qty, meta)
	if err != nil {
		f.metrics.Purchase(string(apperror.KindOf(err)), 0)
		f.log.Warn("purchase failed",
			zap.String("user_id", sess.UserID()),
			zap.String("product_id", productID),
			zap.Int("qty", qty),
			zap.Error(err),
		)
		return nil, err
	}
	f.metrics.Purchase(metrics.ResultSuccess, receipt.Revenue.Amount)
	f.log.Info("purchase recorded",
		zap.String("user_id", sess.UserID()),
		zap.String("order_id", receipt.Order.ID),
		zap.String("product_id", receipt.Order.ProductID),
		zap.Int("qty", qty),
		zap.Int("remaining_stock", receipt.RemainingStock),
	)
	return receipt, nil
}

func (f *Flow) purchase(ctx context.Context, sess *session.Session, productID string, qty int, meta PaymentMetadata) (*Receipt, error) {
	if !sess.Authenticated() {
		return nil, apperror.New(apperror.KindAuthRequired, "Please login to purchase")
	}
	if qty <= 0 {
		return nil, apperror.Validation("Quantity must be at least 1")
	}

	products, err := f.products(ctx, sess)
	if err != nil {
		return nil, err
	}
	product, ok := catalog.FindProduct(products, productID)
	if !ok {
		return nil, apperror.New(apperror.KindProductNotFound, "Product not found")
	}
	if product.Stock < qty {
		return nil, apperror.New(apperror.KindInsufficientStock, "Insufficient stock")
	}

	receipt, err := f.record(ctx, sess, product, qty, meta)
	if err != nil {
		return nil, err
	}

	sess.SetStock(product.ID, receipt.RemainingStock)
	if purchases, err := f.PurchasesByUser(ctx, sess.UserID()); err != nil {
		f.log.Warn("failed to refresh purchases", zap.String("user_id", sess.UserID()), zap.Error(err))
	} else {
		sess.SetPurchases(purchases)
	}
	return receipt, nil
}

// products returns the session's catalog, fetching it once when the snapshot is empty.
func (f *Flow) products(ctx context.Context, sess *session.Session) ([]models.Product, error) {
	products := sess.Products()
	if len(products) > 0 {
		return products, nil
	}
	f.log.Debug("catalog snapshot empty, refetching", zap.String("session_id", sess.ID))
	products, err := store.QueryAs[models.Product](ctx, f.store, store.CollectionProducts, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProductsUnavailable, "Unable to load products. Please try again.", err)
	}
	if len(products) == 0 {
		return nil, apperror.New(apperror.KindProductsUnavailable, "Products not available. Please try again later.")
	}
	sess.SetProducts(products)
	return products, nil
}

// record writes the order, the purchase, the stock decrement and the revenue entry as
// one transaction.
func (f *Flow) record(ctx context.Context, sess *session.Session, product models.Product, qty int, meta PaymentMetadata) (*Receipt, error) {
	now := f.now()
	total, _ := decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(qty))).Float64()
	customer := f.customer(ctx, sess)

	order := models.Order{
		UserID:               sess.UserID(),
		ProductID:            product.ID,
		ProductName:          orDefault(product.Name, "Unknown Product"),
		ProductType:          firstNonEmpty(meta.ProductType, product.Type, product.Category, defaultProductType),
		Quantity:             qty,
		UnitPrice:            product.Price,
		TotalPrice:           total,
		CustomerName:         firstNonEmpty(meta.CustomerName, customer.Name),
		CustomerEmail:        firstNonEmpty(meta.CustomerEmail, customer.Email),
		CustomerPhone:        firstNonEmpty(meta.CustomerPhone, customer.Phone),
		CustomerAddress:      firstNonEmpty(meta.CustomerAddress, customer.Address),
		PaymentMethod:        orDefault(meta.PaymentMethod, defaultPaymentMethod),
		PaymentStatus:        orDefault(meta.PaymentStatus, defaultPaymentStatus),
		Status:               models.OrderStatusPending,
		OrderDate:            now,
		ExpectedDeliveryDate: now.Add(deliveryLeadTime),
		Notes:                meta.Notes,
	}
	purchase := models.Purchase{
		UserID:       order.UserID,
		ProductID:    product.ID,
		Quantity:     qty,
		TotalPrice:   total,
		ProductName:  order.ProductName,
		PurchaseDate: now,
	}
	revenue := models.Revenue{
		Amount:    total,
		ProductID: product.ID,
		Quantity:  qty,
		UserID:    order.UserID,
		Date:      now,
	}

	var remaining int
	err := f.store.RunTransaction(ctx, func(ctx context.Context) error {
		id, err := f.store.Create(ctx, store.CollectionOrders, order)
		if err != nil {
			return apperror.Persistence("failed to create order", err)
		}
		order.ID = id
		purchase.OrderID = id

		if purchase.ID, err = f.store.Create(ctx, store.CollectionPurchases, purchase); err != nil {
			return apperror.Persistence("failed to create purchase", err)
		}

		remaining, err = f.store.DecrementStock(ctx, product.ID, qty)
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			return apperror.Wrap(apperror.KindInsufficientStock, "Insufficient stock", err)
		case errors.Is(err, store.ErrNotFound):
			return apperror.Wrap(apperror.KindProductNotFound, "Product not found", err)
		case err != nil:
			return apperror.Persistence("failed to update stock", err)
		}

		if revenue.ID, err = f.store.Create(ctx, store.CollectionRevenue, revenue); err != nil {
			return apperror.Persistence("failed to record revenue", err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			err = apperror.Persistence("purchase transaction failed", err)
		}
		return nil, err
	}

	return &Receipt{Order: order, Purchase: purchase, Revenue: revenue, RemainingStock: remaining}, nil
}

// customer returns the freshest profile for the order snapshot: the stored user
// document, or the session user when it cannot be read.
func (f *Flow) customer(ctx context.Context, sess *session.Session) models.User {
	u, err := store.GetAs[models.User](ctx, f.store, store.CollectionUsers, sess.UserID())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			f.log.Warn("failed to load user profile", zap.String("user_id", sess.UserID()), zap.Error(err))
		}
		return *sess.User
	}
	return *u
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
