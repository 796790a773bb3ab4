package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BillPending = "pending"
	BillPaid    = "paid"
)

type Bill struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Month     string          `json:"month"` // YYYY-MM
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	DueDate   string          `json:"due_date"` // YYYY-MM-DD
	CreatedAt time.Time       `json:"created_at"`
}
