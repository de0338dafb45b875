package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Date layouts used for persisted calendar dates and timestamps.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// DefaultReorderLevel applies when a drug is added without a reorder level.
const DefaultReorderLevel int64 = 10

// Drug is one stock-keeping unit: a product batch with its price and stock level.
type Drug struct {
	ID              int64           `json:"id"`
	GenericName     string          `json:"generic_name"`
	BrandName       string          `json:"brand_name"`
	Dosage          string          `json:"dosage"`
	Form            string          `json:"form"`
	BatchNumber     string          `json:"batch_number"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	QuantityInStock int64           `json:"quantity_in_stock"`
	ReorderLevel    int64           `json:"reorder_level"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DisplayName renders "Generic (Brand)" as shown on carts and receipts.
func (d Drug) DisplayName() string {
	return displayName(d.GenericName, d.BrandName)
}

// DrugInput carries the mutable fields of a drug for add and update.
type DrugInput struct {
	GenericName     string          `json:"generic_name" validate:"required"`
	BrandName       string          `json:"brand_name" validate:"required"`
	Dosage          string          `json:"dosage" validate:"required"`
	Form            string          `json:"form" validate:"required"`
	BatchNumber     string          `json:"batch_number" validate:"required"`
	ExpiryDate      string          `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	QuantityInStock int64           `json:"quantity_in_stock" validate:"gte=0"`
	ReorderLevel    *int64          `json:"reorder_level,omitempty" validate:"omitempty,gte=0"`
}

// Reorder returns the reorder level, defaulting when unset.
func (in DrugInput) Reorder() int64 {
	if in.ReorderLevel == nil {
		return DefaultReorderLevel
	}
	return *in.ReorderLevel
}

func displayName(generic, brand string) string {
	if brand == "" || brand == generic {
		return generic
	}
	return generic + " (" + brand + ")"
}
