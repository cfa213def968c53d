package models

// Records kept in the shopper's local store. They never reach the persistent store
// until checkout.

// CartLine is one product entry in the pre-checkout cart.
type CartLine struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Image *string  `json:"image"`
	Price float64  `json:"price"` // unit sale price
	MRP   *float64 `json:"mrp"`   // unit list price
	Qty   int      `json:"qty"`
}

type Coupon struct {
	Code  string  `json:"code"`
	Desc  string  `json:"desc"`
	Value float64 `json:"value"` // flat discount
	Used  bool    `json:"used"`
}

type Address struct {
	ID        string `bson:"_id" json:"id"`
	Label     string `bson:"label" json:"label" validate:"omitempty,max=40"`
	Name      string `bson:"name" json:"name" validate:"required"`
	Phone     string `bson:"phone" json:"phone" validate:"required"`
	House     string `bson:"house" json:"house" validate:"required"`
	Street    string `bson:"street" json:"street"`
	City      string `bson:"city" json:"city" validate:"required"`
	State     string `bson:"state" json:"state"`
	Pincode   string `bson:"pincode" json:"pincode" validate:"required"`
	Landmark  string `bson:"landmark" json:"landmark"`
	Type      string `bson:"type" json:"type"`
	Line      string `bson:"line" json:"line"`
	CreatedAt string `bson:"createdAt" json:"createdAt"`
}

type WishlistItem struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Image *string  `json:"image"`
	Price float64  `json:"price"`
	MRP   *float64 `json:"mrp"`
}

// SavedCard never holds the full card number.
type SavedCard struct {
	ID     string `json:"id"`
	Holder string `json:"holder" validate:"omitempty,max=60"`
	Last4  string `json:"last4" validate:"required,len=4,numeric"`
	Brand  string `json:"brand" validate:"omitempty,max=20"`
}
