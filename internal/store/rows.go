package store

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

const drugColumns = `id, generic_name, brand_name, dosage, form, batch_number, expiry_date,
        unit_price_cents, quantity_in_stock, reorder_level, created_at, updated_at`

type drugRow struct {
	ID              int64  `db:"id"`
	GenericName     string `db:"generic_name"`
	BrandName       string `db:"brand_name"`
	Dosage          string `db:"dosage"`
	Form            string `db:"form"`
	BatchNumber     string `db:"batch_number"`
	ExpiryDate      string `db:"expiry_date"`
	UnitPriceCents  int64  `db:"unit_price_cents"`
	QuantityInStock int64  `db:"quantity_in_stock"`
	ReorderLevel    int64  `db:"reorder_level"`
	CreatedAt       string `db:"created_at"`
	UpdatedAt       string `db:"updated_at"`
}

func (r drugRow) toDomain(loc *time.Location) domain.Drug {
	return domain.Drug{
		ID:              r.ID,
		GenericName:     r.GenericName,
		BrandName:       r.BrandName,
		Dosage:          r.Dosage,
		Form:            r.Form,
		BatchNumber:     r.BatchNumber,
		ExpiryDate:      parseDate(r.ExpiryDate, loc),
		UnitPrice:       domain.FromCents(r.UnitPriceCents),
		QuantityInStock: r.QuantityInStock,
		ReorderLevel:    r.ReorderLevel,
		CreatedAt:       parseTimestamp(r.CreatedAt, loc),
		UpdatedAt:       parseTimestamp(r.UpdatedAt, loc),
	}
}

func drugsFromRows(rows []drugRow, loc *time.Location) []domain.Drug {
	drugs := make([]domain.Drug, 0, len(rows))
	for _, r := range rows {
		drugs = append(drugs, r.toDomain(loc))
	}
	return drugs
}

const saleColumns = `id, receipt_number, total_cents, payment_method, customer_name, customer_phone, cashier_name, sale_date`

type saleRow struct {
	ID            int64  `db:"id"`
	ReceiptNumber string `db:"receipt_number"`
	TotalCents    int64  `db:"total_cents"`
	PaymentMethod string `db:"payment_method"`
	CustomerName  string `db:"customer_name"`
	CustomerPhone string `db:"customer_phone"`
	CashierName   string `db:"cashier_name"`
	SaleDate      string `db:"sale_date"`
}

func (r saleRow) toDomain(loc *time.Location) domain.Sale {
	return domain.Sale{
		ID:            r.ID,
		ReceiptNumber: r.ReceiptNumber,
		TotalAmount:   domain.FromCents(r.TotalCents),
		PaymentMethod: r.PaymentMethod,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		CashierName:   r.CashierName,
		SaleDate:      parseTimestamp(r.SaleDate, loc),
	}
}

type saleItemRow struct {
	ID             int64  `db:"id"`
	SaleID         int64  `db:"sale_id"`
	DrugID         int64  `db:"drug_id"`
	Quantity       int64  `db:"quantity"`
	UnitPriceCents int64  `db:"unit_price_cents"`
	TotalCents     int64  `db:"total_cents"`
	GenericName    string `db:"generic_name"`
	BrandName      string `db:"brand_name"`
	Dosage         string `db:"dosage"`
	Form           string `db:"form"`
}

func (r saleItemRow) toDomain() domain.SaleItemDetail {
	return domain.SaleItemDetail{
		SaleItem: domain.SaleItem{
			ID:         r.ID,
			SaleID:     r.SaleID,
			DrugID:     r.DrugID,
			Quantity:   r.Quantity,
			UnitPrice:  domain.FromCents(r.UnitPriceCents),
			TotalPrice: domain.FromCents(r.TotalCents),
		},
		GenericName: r.GenericName,
		BrandName:   r.BrandName,
		Dosage:      r.Dosage,
		Form:        r.Form,
	}
}

const settingsColumns = `id, pharmacy_name, pharmacy_address, pharmacy_phone, pharmacy_email, tax_rate,
        currency, receipt_footer, created_at, updated_at`

type settingsRow struct {
	ID              int64  `db:"id"`
	PharmacyName    string `db:"pharmacy_name"`
	PharmacyAddress string `db:"pharmacy_address"`
	PharmacyPhone   string `db:"pharmacy_phone"`
	PharmacyEmail   string `db:"pharmacy_email"`
	TaxRate         string `db:"tax_rate"`
	Currency        string `db:"currency"`
	ReceiptFooter   string `db:"receipt_footer"`
	CreatedAt       string `db:"created_at"`
	UpdatedAt       string `db:"updated_at"`
}

func (r settingsRow) toDomain(loc *time.Location) domain.Settings {
	rate, err := decimal.NewFromString(r.TaxRate)
	if err != nil {
		rate = decimal.Zero
	}
	return domain.Settings{
		ID:              r.ID,
		PharmacyName:    r.PharmacyName,
		PharmacyAddress: r.PharmacyAddress,
		PharmacyPhone:   r.PharmacyPhone,
		PharmacyEmail:   r.PharmacyEmail,
		TaxRate:         rate,
		Currency:        r.Currency,
		ReceiptFooter:   r.ReceiptFooter,
		CreatedAt:       parseTimestamp(r.CreatedAt, loc),
		UpdatedAt:       parseTimestamp(r.UpdatedAt, loc),
	}
}

type userRow struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	Password  string `db:"password"`
	Role      string `db:"role"`
	FullName  string `db:"full_name"`
	CreatedAt string `db:"created_at"`
}

func (r userRow) toDomain(loc *time.Location) domain.User {
	return domain.User{
		ID:        r.ID,
		Username:  r.Username,
		Password:  r.Password,
		Role:      r.Role,
		FullName:  r.FullName,
		CreatedAt: parseTimestamp(r.CreatedAt, loc),
	}
}
