package cart

import (
	"github.com/shopspring/decimal"

	"github.com/krushee/krushee-backend-go/models"
)

// Totals is what the cart page shows below the line items.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	MRPTotal        decimal.Decimal `json:"mrpTotal"`
	DiscountFromMRP decimal.Decimal `json:"discountFromMrp"`
	CouponValue     decimal.Decimal `json:"couponValue"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	YouSave         decimal.Decimal `json:"youSave"`
	ItemCount       int             `json:"itemCount"`
	AppliedCoupon   *models.Coupon  `json:"appliedCoupon,omitempty"`
}

// ComputeTotals prices the cart. The coupon is a flat amount taken off the subtotal;
// the total never drops below zero. The MRP discount and the coupon stack, so YouSave
// is mrpTotal - totalAmount.
func ComputeTotals(lines []models.CartLine, applied *models.Coupon) Totals {
	subtotal := decimal.Zero
	mrpTotal := decimal.Zero
	count := 0
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Qty))
		price := decimal.NewFromFloat(l.Price)
		mrp := price
		if l.MRP != nil {
			mrp = decimal.NewFromFloat(*l.MRP)
		}
		subtotal = subtotal.Add(price.Mul(qty))
		mrpTotal = mrpTotal.Add(mrp.Mul(qty))
		count += l.Qty
	}

	couponValue := decimal.Zero
	if applied != nil {
		couponValue = decimal.NewFromFloat(applied.Value)
	}
	total := decimal.Max(decimal.Zero, subtotal.Sub(couponValue))

	return Totals{
		Subtotal:        subtotal,
		MRPTotal:        mrpTotal,
		DiscountFromMRP: mrpTotal.Sub(subtotal),
		CouponValue:     couponValue,
		TotalAmount:     total,
		YouSave:         mrpTotal.Sub(total),
		ItemCount:       count,
		AppliedCoupon:   applied,
	}
}
