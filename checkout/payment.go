// Package checkout pays for the cart (or a single buy-now product) by running the
// purchase flow once per line.
package checkout

import (
	"strings"
)

type Method string

const (
	MethodCard Method = "card"
	MethodUPI  Method = "upi"
	MethodCOD  Method = "cod"
)

// Label is the payment method as it is recorded on orders.
func (m Method) Label() string {
	switch m {
	case MethodCard:
		return "Credit/Debit Card"
	case MethodUPI:
		return "UPI"
	default:
		return "Cash on Delivery"
	}
}

// PaymentStatus is "Pending" for cash on delivery, "Completed" otherwise.
func (m Method) PaymentStatus() string {
	if m == MethodCOD {
		return "Pending"
	}
	return "Completed"
}

type CardDetails struct {
	Number string `json:"number" validate:"required,numeric,min=12,max=19"`
	Holder string `json:"holder" validate:"required,max=60"`
}

// BuyNowItem purchases one product directly, bypassing the cart.
type BuyNowItem struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty" validate:"gte=0"`
}

type Request struct {
	Method    Method       `json:"method" validate:"required,oneof=card upi cod"`
	Card      *CardDetails `json:"card,omitempty" validate:"required_if=Method card"`
	UPI       string       `json:"upi,omitempty" validate:"required_if=Method upi,upi_id"`
	BuyNow    *BuyNowItem  `json:"buyNow,omitempty"`
	AddressID string       `json:"addressId,omitempty"`
	SaveCard  bool         `json:"saveCard,omitempty"`
	Notes     string       `json:"notes,omitempty" validate:"max=500"`
}

// normalize strips the separators people type into card numbers.
func (r *Request) normalize() {
	r.Method = Method(strings.ToLower(strings.TrimSpace(string(r.Method))))
	r.UPI = strings.TrimSpace(r.UPI)
	if r.Card != nil {
		r.Card.Number = strings.NewReplacer(" ", "", "-", "").Replace(r.Card.Number)
		r.Card.Holder = strings.TrimSpace(r.Card.Holder)
	}
}

// cardBrand guesses the network from the leading digits.
func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "Amex"
	case strings.HasPrefix(number, "5"), strings.HasPrefix(number, "2"):
		return "Mastercard"
	case strings.HasPrefix(number, "60"), strings.HasPrefix(number, "65"), strings.HasPrefix(number, "81"), strings.HasPrefix(number, "82"):
		return "RuPay"
	default:
		return "Card"
	}
}
