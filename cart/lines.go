// Package cart maintains the shopper's pre-checkout cart and derives its totals.
//
// The functions in this file are pure: they never modify the slice they are given
// and always return a fresh one, so callers can persist the result as a whole.
package cart

import (
	"github.com/krushee/krushee-backend-go/models"
)

// MaxLineQty is the most units one cart line can hold. Larger requests saturate.
const MaxLineQty = 999

// AddOrIncrement adds qty units of p. An existing line for the same product is
// incremented; otherwise a new line is appended priced at the product's discount
// price when it has one, with the product price as MRP. A non-positive qty leaves
// the cart unchanged and the line quantity never exceeds MaxLineQty.
func AddOrIncrement(lines []models.CartLine, p models.Product, qty int) []models.CartLine {
	next := clone(lines)
	if qty <= 0 {
		return next
	}
	for i := range next {
		if next[i].ID == p.ID {
			next[i].Qty = addQty(next[i].Qty, qty)
			return next
		}
	}

	price := p.Price
	if p.DiscountPrice != nil {
		price = *p.DiscountPrice
	}
	mrp := p.Price
	line := models.CartLine{
		ID:    p.ID,
		Name:  p.Name,
		Price: price,
		MRP:   &mrp,
		Qty:   min(qty, MaxLineQty),
	}
	if p.Image != "" {
		image := p.Image
		line.Image = &image
	}
	return append(next, line)
}

// ChangeQuantity adds delta to the matching line, clamping to [0, MaxLineQty], and
// drops every line whose quantity is no longer positive.
func ChangeQuantity(lines []models.CartLine, id string, delta int) []models.CartLine {
	next := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ID == id {
			l.Qty = addQty(l.Qty, delta)
		}
		if l.Qty > 0 {
			next = append(next, l)
		}
	}
	return next
}

// RemoveItem drops the line for id.
func RemoveItem(lines []models.CartLine, id string) []models.CartLine {
	next := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ID != id {
			next = append(next, l)
		}
	}
	return next
}

// Find returns the line for id.
func Find(lines []models.CartLine, id string) (models.CartLine, bool) {
	for _, l := range lines {
		if l.ID == id {
			return l, true
		}
	}
	return models.CartLine{}, false
}

// addQty returns qty+delta clamped to [0, MaxLineQty] without overflowing.
func addQty(qty, delta int) int {
	qty = min(max(qty, 0), MaxLineQty)
	if delta >= MaxLineQty-qty {
		return MaxLineQty
	}
	return max(0, qty+delta)
}

func clone(lines []models.CartLine) []models.CartLine {
	next := make([]models.CartLine, len(lines))
	copy(next, lines)
	return next
}
