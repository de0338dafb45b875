package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a transient cart line. It is never persisted directly.
type CartItem struct {
	DrugID      int64           `json:"drug_id"`
	GenericName string          `json:"generic_name"`
	BrandName   string          `json:"brand_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// DisplayName renders "Generic (Brand)".
func (c CartItem) DisplayName() string {
	return displayName(c.GenericName, c.BrandName)
}

// Receipt describes a completed checkout for display and printing.
type Receipt struct {
	SaleID        int64           `json:"sale_id"`
	Number        string          `json:"receipt_number"`
	Items         []CartItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CashierName   string          `json:"cashier_name"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ReceiptFromSale rebuilds a receipt from a stored sale, used for reprints.
func ReceiptFromSale(sale SaleWithItems) Receipt {
	items := make([]CartItem, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, CartItem{
			DrugID:      it.DrugID,
			GenericName: it.GenericName,
			BrandName:   it.BrandName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return Receipt{
		SaleID:        sale.ID,
		Number:        sale.ReceiptNumber,
		Items:         items,
		Total:         sale.TotalAmount,
		PaymentMethod: sale.PaymentMethod,
		CustomerName:  sale.CustomerName,
		CashierName:   sale.CashierName,
		Timestamp:     sale.SaleDate,
	}
}
