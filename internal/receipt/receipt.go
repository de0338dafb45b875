// Package receipt renders printable till receipts.
package receipt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"pharmapos/m/domain"
)

// Width is the receipt width in columns.
const Width = 40

const (
	nameWidth     = 20
	defaultFooter = "Thank you for your purchase!"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney formats amount for the given ISO currency code, e.g. "GHS 12.50"
// or "$12.50". Unknown codes fall back to the bare amount.
func FormatMoney(code string, amount decimal.Decimal) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return amount.StringFixed(2)
	}
	scale, _ := currency.Standard.Rounding(unit)
	value := amount.StringFixed(int32(scale))
	if sym, ok := symbols[unit.String()]; ok {
		return sym + value
	}
	return unit.String() + " " + value
}

// Render lays out r as fixed-width text lines using the pharmacy identity
// from s.
func Render(s domain.Settings, r domain.Receipt) []string {
	heavy := strings.Repeat("=", Width)
	light := strings.Repeat("-", Width)

	lines := []string{heavy, s.PharmacyName}
	if s.PharmacyAddress != "" {
		lines = append(lines, s.PharmacyAddress)
	}
	if s.PharmacyPhone != "" {
		lines = append(lines, "Phone: "+s.PharmacyPhone)
	}
	lines = append(lines,
		heavy,
		"Date: "+r.Timestamp.Format(domain.TimestampLayout),
		"Receipt: "+r.Number,
	)
	if r.CustomerName != "" {
		lines = append(lines, "Customer: "+r.CustomerName)
	}
	lines = append(lines,
		"Cashier: "+r.CashierName,
		"Payment: "+r.PaymentMethod,
		light,
		fmt.Sprintf("%-*s %3s %7s %7s", nameWidth, "ITEM", "QTY", "PRICE", "TOTAL"),
		light,
	)
	for _, it := range r.Items {
		lines = append(lines, fmt.Sprintf("%-*s %3d %7s %7s",
			nameWidth, truncate(it.DisplayName(), nameWidth), it.Quantity,
			it.UnitPrice.StringFixed(2), it.TotalPrice.StringFixed(2)))
	}
	total := FormatMoney(s.Currency, r.Total)
	footer := s.ReceiptFooter
	if footer == "" {
		footer = defaultFooter
	}
	lines = append(lines,
		light,
		fmt.Sprintf("%-6s%*s", "TOTAL:", Width-6, total),
		heavy,
		footer,
		heavy,
	)
	return lines
}

// Text joins the rendered lines with newlines.
func Text(s domain.Settings, r domain.Receipt) string {
	return strings.Join(Render(s, r), "\n") + "\n"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
