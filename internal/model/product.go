package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Product categories offered by the dairy.
const (
	CategoryMilk   = "Milk"
	CategoryCurd   = "Curd"
	CategoryGhee   = "Ghee"
	CategoryPaneer = "Paneer"
	CategoryOther  = "Other"
)
