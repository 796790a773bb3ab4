package model

import "time"

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliverySkipped   DeliveryStatus = "skipped"
)

// DeliveryItem is one line of a day's delivery. Items are a value-copy
// snapshot of the customer's subscriptions taken at generation or sync
// time, not a live reference.
type DeliveryItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// DeliveryDay is one calendar date's fulfillment record for one customer.
// Date is an ISO calendar date (YYYY-MM-DD); Month is its YYYY-MM prefix,
// stored so a whole month can be fetched in one query.
type DeliveryDay struct {
	UserID    string         `json:"user_id"`
	Date      string         `json:"date"`
	Month     string         `json:"month"`
	Status    DeliveryStatus `json:"status"`
	Items     []DeliveryItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
