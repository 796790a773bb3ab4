package model

import "time"

// Subscription is a standing daily order of one product for one customer.
// A quantity of zero is never stored; the row is removed instead.
type Subscription struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
