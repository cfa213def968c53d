package cart

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/krushee/krushee-backend-go/localstore"
	"github.com/krushee/krushee-backend-go/models"
)

// applyOps decodes each code into one cart operation over a small product space.
func applyOps(codes []int) []models.CartLine {
	var lines []models.CartLine
	for _, code := range codes {
		id := fmt.Sprintf("p%d", (code/3)%4)
		amount := (code/12)%7 - 3
		switch code % 3 {
		case 0:
			lines = AddOrIncrement(lines, models.Product{ID: id, Price: 10}, amount)
		case 1:
			lines = ChangeQuantity(lines, id, amount)
		case 2:
			lines = RemoveItem(lines, id)
		}
	}
	return lines
}

func TestCartNeverHoldsNonPositiveQuantity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every line has qty > 0", prop.ForAll(
		func(codes []int) bool {
			for _, l := range applyOps(codes) {
				if l.Qty <= 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.Property("ids stay unique", prop.ForAll(
		func(codes []int) bool {
			seen := map[string]bool{}
			for _, l := range applyOps(codes) {
				if seen[l.ID] {
					return false
				}
				seen[l.ID] = true
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.Property("extreme amounts keep qty in (0, MaxLineQty]", prop.ForAll(
		func(start, amount int, add bool) bool {
			lines := AddOrIncrement(nil, models.Product{ID: "p1", Price: 1}, start)
			if add {
				lines = AddOrIncrement(lines, models.Product{ID: "p1", Price: 1}, amount)
			} else {
				lines = ChangeQuantity(lines, "p1", amount)
			}
			for _, l := range lines {
				if l.Qty <= 0 || l.Qty > MaxLineQty {
					return false
				}
			}
			return true
		},
		gen.Int(),
		gen.Int(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestAddZeroIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("AddOrIncrement(p, 0) leaves the cart unchanged", prop.ForAll(
		func(codes []int, n int) bool {
			lines := applyOps(codes)
			p := models.Product{ID: fmt.Sprintf("p%d", n), Price: 10}
			return reflect.DeepEqual(clone(lines), AddOrIncrement(lines, p, 0))
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

func TestTotalAmountFormula(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("totalAmount = max(0, subtotal - coupon)", prop.ForAll(
		func(priceCents, qty, couponCents int) bool {
			lines := []models.CartLine{{ID: "p1", Price: float64(priceCents) / 100, Qty: qty}}
			coupon := &models.Coupon{Value: float64(couponCents) / 100}
			got := ComputeTotals(lines, coupon)

			want := decimal.Max(decimal.Zero, got.Subtotal.Sub(got.CouponValue))
			return got.TotalAmount.Equal(want) && !got.TotalAmount.IsNegative()
		},
		gen.IntRange(0, 1000000),
		gen.IntRange(1, 50),
		gen.IntRange(0, 5000000),
	))

	properties.TestingRun(t)
}

func TestCartStoreRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("written cart reads back deep-equal", prop.ForAll(
		func(codes []int) bool {
			ctx := context.Background()
			s := localstore.NewMemory().For("round-trip")
			lines := applyOps(codes)
			if lines == nil {
				lines = []models.CartLine{}
			}
			if err := localstore.Save(ctx, s, localstore.KeyCart, lines); err != nil {
				return false
			}
			got, err := localstore.Load[[]models.CartLine](ctx, s, localstore.KeyCart)
			return err == nil && reflect.DeepEqual(lines, got)
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.TestingRun(t)
}
