package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods offered at the till. Other free text is accepted as well.
const (
	PaymentCash        = "Cash"
	PaymentMobileMoney = "Mobile Money"
	PaymentCard        = "Card"
)

// Sale is an immutable transaction header.
type Sale struct {
	ID            int64           `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	CashierName   string          `json:"cashier_name"`
	SaleDate      time.Time       `json:"sale_date"`
}

// SaleItem is one persisted cart line. UnitPrice is the price at the time of sale.
type SaleItem struct {
	ID         int64           `json:"id"`
	SaleID     int64           `json:"sale_id"`
	DrugID     int64           `json:"drug_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SaleItemDetail adds display fields joined from the drug at read time.
type SaleItemDetail struct {
	SaleItem
	GenericName string `json:"generic_name"`
	BrandName   string `json:"brand_name"`
	Dosage      string `json:"dosage"`
	Form        string `json:"form"`
}

// DisplayName renders "Generic (Brand)".
func (d SaleItemDetail) DisplayName() string {
	return displayName(d.GenericName, d.BrandName)
}

// SaleWithItems is a sale header with its lines.
type SaleWithItems struct {
	Sale
	Items []SaleItemDetail `json:"items"`
}

// SaleHeader is the input for creating a sale row.
type SaleHeader struct {
	ReceiptNumber string          `json:"receipt_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CashierName   string          `json:"cashier_name" validate:"required"`
}

// SaleItemInput is the input for attaching a line to a sale.
type SaleItemInput struct {
	DrugID     int64           `json:"drug_id" validate:"required,gt=0"`
	Quantity   int64           `json:"quantity" validate:"gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// DailySummary aggregates one calendar day of sales.
type DailySummary struct {
	Date        string          `json:"date"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// DrugSales aggregates sale lines per drug over a period.
type DrugSales struct {
	DrugID      int64           `json:"drug_id"`
	GenericName string          `json:"generic_name"`
	BrandName   string          `json:"brand_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}
