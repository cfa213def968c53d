package models

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is the authoritative record of one purchased cart line. Customer fields are a
// snapshot taken at purchase time.
type Order struct {
	ID                   string      `bson:"_id,omitempty" json:"id"`
	UserID               string      `bson:"userId" json:"userId"`
	ProductID            string      `bson:"productId" json:"productId"`
	ProductName          string      `bson:"productName" json:"productName"`
	ProductType          string      `bson:"productType" json:"productType"`
	Quantity             int         `bson:"quantity" json:"quantity"`
	UnitPrice            float64     `bson:"unitPrice" json:"unitPrice"`
	TotalPrice           float64     `bson:"totalPrice" json:"totalPrice"`
	CustomerName         string      `bson:"customerName" json:"customerName"`
	CustomerEmail        string      `bson:"customerEmail" json:"customerEmail"`
	CustomerPhone        string      `bson:"customerPhone" json:"customerPhone"`
	CustomerAddress      string      `bson:"customerAddress" json:"customerAddress"`
	PaymentMethod        string      `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus        string      `bson:"paymentStatus" json:"paymentStatus"`
	Status               OrderStatus `bson:"status" json:"status"`
	OrderDate            time.Time   `bson:"orderDate" json:"orderDate"`
	ExpectedDeliveryDate time.Time   `bson:"expectedDeliveryDate" json:"expectedDeliveryDate"`
	TrackingNumber       *string     `bson:"trackingNumber" json:"trackingNumber"`
	Notes                string      `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Purchase duplicates an Order for the older reporting views.
type Purchase struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	UserID       string    `bson:"userId" json:"userId"`
	ProductID    string    `bson:"productId" json:"productId"`
	Quantity     int       `bson:"quantity" json:"quantity"`
	TotalPrice   float64   `bson:"totalPrice" json:"totalPrice"`
	ProductName  string    `bson:"productName" json:"productName"`
	OrderID      string    `bson:"orderId" json:"orderId"`
	PurchaseDate time.Time `bson:"purchaseDate" json:"purchaseDate"`
}

type Revenue struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Amount    float64   `bson:"amount" json:"amount"`
	ProductID string    `bson:"productId" json:"productId"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	UserID    string    `bson:"userId" json:"userId"`
	Date      time.Time `bson:"date" json:"date"`
}
