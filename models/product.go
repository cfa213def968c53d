package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProductID identifies a product. Clients send it either as a JSON string or a
// JSON number, so both decode into the same textual form.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// Canonical returns the comparison form used when an exact match fails:
// surrounding space is dropped and numeric ids are normalised ("7.0" == "7").
func (id ProductID) Canonical() string {
	s := strings.TrimSpace(string(id))
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}

type Product struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Category      string    `bson:"category" json:"category"`
	Type          string    `bson:"type,omitempty" json:"type,omitempty"`
	Brand         string    `bson:"brand,omitempty" json:"brand,omitempty"`
	Price         float64   `bson:"price" json:"price"` // sale price
	MRP           float64   `bson:"mrp" json:"mrp"`
	Discount      float64   `bson:"discount" json:"discount"`
	DiscountPrice *float64  `bson:"discountPrice,omitempty" json:"discountPrice,omitempty"`
	Stock         int       `bson:"stock" json:"stock"`
	Image         string    `bson:"image" json:"image"`
	Benefits      []string  `bson:"benefits" json:"benefits"`
	Description   string    `bson:"description" json:"description"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

type Category struct {
	ID          string `bson:"_id,omitempty" json:"id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Image       string `bson:"image,omitempty" json:"image,omitempty"`
}

type Brand struct {
	ID   string `bson:"_id,omitempty" json:"id"`
	Name string `bson:"name" json:"name"`
	Logo string `bson:"logo,omitempty" json:"logo,omitempty"`
}

type Banner struct {
	ID       string `bson:"_id,omitempty" json:"id"`
	Title    string `bson:"title" json:"title"`
	Subtitle string `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	Image    string `bson:"image" json:"image"`
	Link     string `bson:"link,omitempty" json:"link,omitempty"`
	Active   bool   `bson:"active" json:"active"`
}

type Testimonial struct {
	ID      string `bson:"_id,omitempty" json:"id"`
	Name    string `bson:"name" json:"name"`
	Message string `bson:"message" json:"message"`
	Rating  int    `bson:"rating" json:"rating"`
}
