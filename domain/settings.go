package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the singleton configuration row read by checkout and receipts.
// TaxRate is a percentage that is stored but not applied to sale totals.
type Settings struct {
	ID              int64           `json:"id"`
	PharmacyName    string          `json:"pharmacy_name"`
	PharmacyAddress string          `json:"pharmacy_address"`
	PharmacyPhone   string          `json:"pharmacy_phone"`
	PharmacyEmail   string          `json:"pharmacy_email"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Currency        string          `json:"currency"`
	ReceiptFooter   string          `json:"receipt_footer"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SettingsInput carries the editable settings fields.
type SettingsInput struct {
	PharmacyName    string          `json:"pharmacy_name" validate:"required"`
	PharmacyAddress string          `json:"pharmacy_address"`
	PharmacyPhone   string          `json:"pharmacy_phone"`
	PharmacyEmail   string          `json:"pharmacy_email" validate:"omitempty,email"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Currency        string          `json:"currency" validate:"required,len=3"`
	ReceiptFooter   string          `json:"receipt_footer"`
}
