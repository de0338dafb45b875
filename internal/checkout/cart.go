// Package checkout holds the transient cart of one till session and turns it
// into a durable sale.
package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
	"pharmapos/m/internal/validation"
)

// Inventory is the part of the persistent store the cart depends on.
type Inventory interface {
	GetDrug(ctx context.Context, id int64) (domain.Drug, error)
	RecordSale(ctx context.Context, h domain.SaleHeader, items []domain.SaleItemInput) (domain.Sale, error)
}

// CheckoutRequest carries the sale details captured at the till.
type CheckoutRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	PaymentMethod string `json:"payment_method"`
	CashierName   string `json:"cashier_name" validate:"required"`
}

// Cart is an in-memory list of lines. It is not safe for concurrent use;
// Registry serializes access per session.
type Cart struct {
	inv    Inventory
	logger *slog.Logger
	items  []domain.CartItem
}

// NewCart returns an empty cart backed by inv.
func NewCart(inv Inventory, logger *slog.Logger) *Cart {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cart{inv: inv, logger: logger}
}

// AddItem adds quantity units of drug, checked against the stock snapshot
// carried by drug. An existing line for the same drug is merged, and the
// combined quantity is checked; a rejected merge leaves the line unchanged.
func (c *Cart) AddItem(drug domain.Drug, quantity int64) error {
	if quantity <= 0 {
		return invalidQuantity(quantity)
	}
	if drug.ID <= 0 {
		return validation.Errorf("drug id is required")
	}

	for i := range c.items {
		line := &c.items[i]
		if line.DrugID != drug.ID {
			continue
		}
		combined := line.Quantity + quantity
		if combined > drug.QuantityInStock {
			return insufficient(drug.DisplayName(), drug.QuantityInStock, combined)
		}
		line.Quantity = combined
		line.TotalPrice = domain.LineTotal(combined, line.UnitPrice)
		return nil
	}

	if quantity > drug.QuantityInStock {
		return insufficient(drug.DisplayName(), drug.QuantityInStock, quantity)
	}
	c.items = append(c.items, domain.CartItem{
		DrugID:      drug.ID,
		GenericName: drug.GenericName,
		BrandName:   drug.BrandName,
		Quantity:    quantity,
		UnitPrice:   drug.UnitPrice,
		TotalPrice:  domain.LineTotal(quantity, drug.UnitPrice),
	})
	return nil
}

// RemoveItem drops the line at index.
func (c *Cart) RemoveItem(index int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// SetItemQuantity replaces the quantity of the line at index after
// re-reading the drug's live stock from the store.
func (c *Cart) SetItemQuantity(ctx context.Context, index int, quantity int64) error {
	if quantity <= 0 {
		return invalidQuantity(quantity)
	}
	if err := c.checkIndex(index); err != nil {
		return err
	}
	line := &c.items[index]
	drug, err := c.inv.GetDrug(ctx, line.DrugID)
	if err != nil {
		return fmt.Errorf("checkout: refresh stock: %w", err)
	}
	if quantity > drug.QuantityInStock {
		return insufficient(drug.DisplayName(), drug.QuantityInStock, quantity)
	}
	line.Quantity = quantity
	line.TotalPrice = domain.LineTotal(quantity, line.UnitPrice)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// Total sums quantity * unit price over every line.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.items {
		total = total.Add(domain.LineTotal(line.Quantity, line.UnitPrice))
	}
	return total
}

// Checkout persists the cart as one sale. The store records the header, the
// lines and the stock decrements atomically; on any failure nothing is
// recorded and the cart is kept so the cashier can retry. On success the cart
// is cleared.
func (c *Cart) Checkout(ctx context.Context, req CheckoutRequest) (domain.Receipt, error) {
	if len(c.items) == 0 {
		return domain.Receipt{}, fmt.Errorf("checkout: %w", domain.ErrEmptyCart)
	}
	if err := validation.Struct(req); err != nil {
		return domain.Receipt{}, err
	}

	items := make([]domain.SaleItemInput, 0, len(c.items))
	for _, line := range c.items {
		items = append(items, domain.SaleItemInput{
			DrugID:     line.DrugID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: domain.LineTotal(line.Quantity, line.UnitPrice),
		})
	}
	total := c.Total()
	method := req.PaymentMethod
	if method == "" {
		method = domain.PaymentCash
	}

	sale, err := c.inv.RecordSale(ctx, domain.SaleHeader{
		TotalAmount:   total,
		PaymentMethod: method,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CashierName:   req.CashierName,
	}, items)
	if err != nil {
		c.logger.Warn("checkout failed", slog.Int("lines", len(items)), slog.String("total", total.StringFixed(2)), slog.Any("error", err))
		return domain.Receipt{}, fmt.Errorf("checkout: %w", err)
	}

	receipt := domain.Receipt{
		SaleID:        sale.ID,
		Number:        sale.ReceiptNumber,
		Items:         c.Items(),
		Total:         total,
		PaymentMethod: method,
		CustomerName:  req.CustomerName,
		CashierName:   req.CashierName,
		Timestamp:     sale.SaleDate,
	}
	c.Clear()
	c.logger.Info("sale completed", slog.String("receipt", receipt.Number), slog.String("total", total.StringFixed(2)), slog.String("cashier", req.CashierName))
	return receipt, nil
}

func (c *Cart) checkIndex(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("checkout: cart line %d: %w", index, domain.ErrNotFound)
	}
	return nil
}

func invalidQuantity(q int64) error {
	return fmt.Errorf("checkout: quantity %d: %w: %w", q, domain.ErrInvalidQuantity, domain.ErrValidation)
}

func insufficient(name string, available, requested int64) error {
	return fmt.Errorf("checkout: only %d of %s in stock, %d requested: %w", available, name, requested, domain.ErrInsufficientStock)
}
