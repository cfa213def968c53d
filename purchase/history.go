package purchase

import (
	"context"
	"slices"

	"github.com/krushee/krushee-backend-go/apperror"
	"github.com/krushee/krushee-backend-go/models"
	"github.com/krushee/krushee-backend-go/store"
)

// OrdersByUser returns the user's orders, newest first.
func (f *Flow) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := store.QueryAs[models.Order](ctx, f.store, store.CollectionOrders, store.Filter{"userId": userID})
	if err != nil {
		return nil, apperror.Persistence("failed to fetch orders", err)
	}
	slices.SortStableFunc(orders, func(a, b models.Order) int {
		return b.OrderDate.Compare(a.OrderDate)
	})
	return orders, nil
}

func (f *Flow) PurchasesByUser(ctx context.Context, userID string) ([]models.Purchase, error) {
	purchases, err := store.QueryAs[models.Purchase](ctx, f.store, store.CollectionPurchases, store.Filter{"userId": userID})
	if err != nil {
		return nil, apperror.Persistence("failed to fetch purchases", err)
	}
	return purchases, nil
}
