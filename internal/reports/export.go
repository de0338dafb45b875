package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"pharmapos/m/domain"
)

// Stock status labels used in inventory exports.
const (
	StatusInStock    = "In Stock"
	StatusLowStock   = "Low Stock"
	StatusOutOfStock = "Out of Stock"
)

// StockStatus classifies a drug's stock level against its reorder level.
func StockStatus(d domain.Drug) string {
	switch {
	case d.QuantityInStock <= 0:
		return StatusOutOfStock
	case d.QuantityInStock <= d.ReorderLevel:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// WriteSalesCSV writes the sales in [start, end] as CSV, newest first.
func (s *Service) WriteSalesCSV(ctx context.Context, w io.Writer, start, end time.Time) error {
	sales, err := s.src.ListSalesByDateRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("reports: export sales: %w", err)
	}
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"receipt_number", "sale_date", "customer_name", "customer_phone", "payment_method", "cashier_name", "total_amount"})
	for _, sale := range sales {
		_ = cw.Write([]string{
			sale.ReceiptNumber,
			sale.SaleDate.Format(domain.TimestampLayout),
			sale.CustomerName,
			sale.CustomerPhone,
			sale.PaymentMethod,
			sale.CashierName,
			sale.TotalAmount.StringFixed(2),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("reports: export sales: %w", err)
	}
	s.logger.Info("exported sales", "rows", len(sales))
	return nil
}

// WriteInventoryCSV writes every drug with its stock status as CSV.
func (s *Service) WriteInventoryCSV(ctx context.Context, w io.Writer) error {
	drugs, err := s.src.ListDrugs(ctx)
	if err != nil {
		return fmt.Errorf("reports: export inventory: %w", err)
	}
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "generic_name", "brand_name", "dosage", "form", "batch_number",
		"expiry_date", "unit_price", "quantity_in_stock", "reorder_level", "status"})
	for _, d := range drugs {
		_ = cw.Write([]string{
			strconv.FormatInt(d.ID, 10),
			d.GenericName,
			d.BrandName,
			d.Dosage,
			d.Form,
			d.BatchNumber,
			d.ExpiryDate.Format(domain.DateLayout),
			d.UnitPrice.StringFixed(2),
			strconv.FormatInt(d.QuantityInStock, 10),
			strconv.FormatInt(d.ReorderLevel, 10),
			StockStatus(d),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("reports: export inventory: %w", err)
	}
	s.logger.Info("exported inventory", "rows", len(drugs))
	return nil
}
