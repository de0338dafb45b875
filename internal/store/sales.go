package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
	"pharmapos/m/internal/validation"
)

var receiptPattern = regexp.MustCompile(`^[0-9]{12}$`)

// receiptAttempts bounds receipt allocation: one retry after a collision.
const receiptAttempts = 2

func validateHeader(h domain.SaleHeader) error {
	if err := validation.Struct(h); err != nil {
		return err
	}
	if h.TotalAmount.IsNegative() || !domain.HasCentPrecision(h.TotalAmount) {
		return validation.Errorf("total_amount must be a non-negative amount with at most two decimal places")
	}
	if !domain.InAmountRange(h.TotalAmount) {
		return validation.Errorf("total_amount must not exceed %s", domain.MaxAmount)
	}
	return nil
}

func validateItem(item domain.SaleItemInput) error {
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidQuantity)
	}
	if err := validation.Struct(item); err != nil {
		return err
	}
	if item.UnitPrice.IsNegative() || !domain.HasCentPrecision(item.UnitPrice) {
		return validation.Errorf("unit_price must be a non-negative amount with at most two decimal places")
	}
	if !domain.InAmountRange(item.UnitPrice) || !domain.InAmountRange(domain.LineTotal(item.Quantity, item.UnitPrice)) {
		return validation.Errorf("line amounts must not exceed %s", domain.MaxAmount)
	}
	if !item.TotalPrice.Equal(domain.LineTotal(item.Quantity, item.UnitPrice)) {
		return validation.Errorf("total_price %s does not equal %d x %s", item.TotalPrice, item.Quantity, item.UnitPrice)
	}
	return nil
}

// validateReceiptNumber checks the YYYYMMDDNNNN shape: a real calendar date
// followed by a sequence of 0001 or above.
func validateReceiptNumber(number string) error {
	if number == "" {
		return validation.Errorf("receipt_number is required")
	}
	if !receiptPattern.MatchString(number) {
		return validation.Errorf("receipt_number %q must be YYYYMMDDNNNN", number)
	}
	if _, err := time.Parse("20060102", number[:8]); err != nil {
		return validation.Errorf("receipt_number %q has an invalid date", number)
	}
	if number[8:] == "0000" {
		return validation.Errorf("receipt_number %q sequence starts at 0001", number)
	}
	return nil
}

func paymentMethod(method string) string {
	if method == "" {
		return domain.PaymentCash
	}
	return method
}

// NextReceiptNumber formats today's date as YYYYMMDD followed by the 4-digit
// count of today's sales plus one. It is a preview only; RecordSale allocates
// the number that is actually stored inside its own transaction.
func (s *Store) NextReceiptNumber(ctx context.Context) (string, error) {
	return nextReceiptNumber(ctx, s.db, s.now())
}

func nextReceiptNumber(ctx context.Context, q sqlx.QueryerContext, day time.Time) (string, error) {
	prefix := day.Format("20060102")
	var count int64
	if err := sqlx.GetContext(ctx, q, &count, `SELECT COUNT(*) FROM sales WHERE receipt_number LIKE ?`, prefix+"%"); err != nil {
		return "", storageErr("count receipts", err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// CreateSale inserts a sale header carrying a caller-supplied receipt number.
// A duplicate receipt number yields domain.ErrConflict.
func (s *Store) CreateSale(ctx context.Context, h domain.SaleHeader) (int64, error) {
	if err := validateHeader(h); err != nil {
		return 0, err
	}
	if err := validateReceiptNumber(h.ReceiptNumber); err != nil {
		return 0, err
	}
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		id, err = insertSale(ctx, tx, h, s.timestamp())
		return err
	})
	return id, err
}

// AddSaleItem attaches a line to an existing sale and decrements the drug's
// stock by the same quantity in one transaction. The decrement is refused
// when it would drive stock below zero.
func (s *Store) AddSaleItem(ctx context.Context, saleID int64, item domain.SaleItemInput) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM sales WHERE id = ?)`, saleID); err != nil {
			return storageErr("check sale", err)
		}
		if !exists {
			return notFound("sale", saleID)
		}
		return insertItem(ctx, tx, saleID, item, s.timestamp())
	})
}

// RecordSale allocates a receipt number, inserts the header and every line,
// and decrements stock for each line, all in one transaction. Any failure
// rolls back every effect. The header's ReceiptNumber is ignored.
func (s *Store) RecordSale(ctx context.Context, h domain.SaleHeader, items []domain.SaleItemInput) (domain.Sale, error) {
	if err := validateHeader(h); err != nil {
		return domain.Sale{}, err
	}
	if len(items) == 0 {
		return domain.Sale{}, validation.Errorf("a sale needs at least one item")
	}
	sum := decimal.Zero
	for i, item := range items {
		if err := validateItem(item); err != nil {
			return domain.Sale{}, fmt.Errorf("item %d: %w", i+1, err)
		}
		sum = sum.Add(item.TotalPrice)
	}
	if !sum.Equal(h.TotalAmount) {
		return domain.Sale{}, validation.Errorf("total_amount %s does not equal line total %s", h.TotalAmount, sum)
	}

	var lastErr error
	for attempt := 0; attempt < receiptAttempts; attempt++ {
		sale, err := s.recordSale(ctx, h, items)
		if err == nil {
			return sale, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Sale{}, err
		}
		lastErr = err
	}
	return domain.Sale{}, lastErr
}

func (s *Store) recordSale(ctx context.Context, h domain.SaleHeader, items []domain.SaleItemInput) (domain.Sale, error) {
	now := s.now()
	ts := now.Format(domain.TimestampLayout)
	var sale domain.Sale
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		number, err := nextReceiptNumber(ctx, tx, now)
		if err != nil {
			return err
		}
		h.ReceiptNumber = number
		saleID, err := insertSale(ctx, tx, h, ts)
		if err != nil {
			return err
		}
		for i, item := range items {
			if err := insertItem(ctx, tx, saleID, item, ts); err != nil {
				return fmt.Errorf("item %d: %w", i+1, err)
			}
		}
		sale = domain.Sale{
			ID:            saleID,
			ReceiptNumber: number,
			TotalAmount:   h.TotalAmount,
			PaymentMethod: paymentMethod(h.PaymentMethod),
			CustomerName:  h.CustomerName,
			CustomerPhone: h.CustomerPhone,
			CashierName:   h.CashierName,
			SaleDate:      parseTimestamp(ts, now.Location()),
		}
		return nil
	})
	return sale, err
}

func insertSale(ctx context.Context, tx *sqlx.Tx, h domain.SaleHeader, ts string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO sales (receipt_number, total_cents, payment_method, customer_name,
            customer_phone, cashier_name, sale_date)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ReceiptNumber, domain.Cents(h.TotalAmount), paymentMethod(h.PaymentMethod), h.CustomerName,
		h.CustomerPhone, h.CashierName, ts)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("store: receipt %s: %w", h.ReceiptNumber, domain.ErrConflict)
	}
	if err != nil {
		return 0, storageErr("insert sale", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert sale id", err)
	}
	return id, nil
}

func insertItem(ctx context.Context, tx *sqlx.Tx, saleID int64, item domain.SaleItemInput, ts string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO sale_items (sale_id, drug_id, quantity, unit_price_cents, total_cents)
        VALUES (?, ?, ?, ?, ?)`,
		saleID, item.DrugID, item.Quantity, domain.Cents(item.UnitPrice), domain.Cents(item.TotalPrice))
	if err != nil {
		return storageErr("insert sale item", err)
	}
	return decrementStock(ctx, tx, item.DrugID, item.Quantity, ts)
}

// decrementStock removes qty units only when at least qty are in stock.
func decrementStock(ctx context.Context, tx *sqlx.Tx, drugID, qty int64, ts string) error {
	res, err := tx.ExecContext(ctx, `UPDATE drugs SET quantity_in_stock = quantity_in_stock - ?, updated_at = ?
        WHERE id = ? AND quantity_in_stock >= ?`, qty, ts, drugID, qty)
	if err != nil {
		return storageErr("decrement stock", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("rows affected", err)
	}
	if n == 1 {
		return nil
	}
	var stock int64
	err = tx.GetContext(ctx, &stock, `SELECT quantity_in_stock FROM drugs WHERE id = ?`, drugID)
	if isNoRows(err) {
		return notFound("drug", drugID)
	}
	if err != nil {
		return storageErr("read stock", err)
	}
	return fmt.Errorf("store: drug %d has %d in stock, %d requested: %w", drugID, stock, qty, domain.ErrInsufficientStock)
}

// GetSale loads a sale with its lines joined to drug display fields.
func (s *Store) GetSale(ctx context.Context, id int64) (domain.SaleWithItems, error) {
	var row saleRow
	err := s.db.GetContext(ctx, &row, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	if isNoRows(err) {
		return domain.SaleWithItems{}, notFound("sale", id)
	}
	if err != nil {
		return domain.SaleWithItems{}, storageErr("get sale", err)
	}

	var itemRows []saleItemRow
	err = s.db.SelectContext(ctx, &itemRows, `SELECT si.id, si.sale_id, si.drug_id, si.quantity, si.unit_price_cents,
            si.total_cents, d.generic_name, d.brand_name, d.dosage, d.form
        FROM sale_items si
        JOIN drugs d ON d.id = si.drug_id
        WHERE si.sale_id = ?
        ORDER BY si.id`, id)
	if err != nil {
		return domain.SaleWithItems{}, storageErr("get sale items", err)
	}

	sale := domain.SaleWithItems{Sale: row.toDomain(s.location()), Items: make([]domain.SaleItemDetail, 0, len(itemRows))}
	for _, r := range itemRows {
		sale.Items = append(sale.Items, r.toDomain())
	}
	return sale, nil
}

// ListSalesByDateRange returns sales whose calendar date lies in [start, end],
// newest first.
func (s *Store) ListSalesByDateRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	from, to := start.Format(domain.DateLayout), end.Format(domain.DateLayout)
	if to < from {
		return nil, validation.Errorf("end date %s is before start date %s", to, from)
	}
	var rows []saleRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+saleColumns+` FROM sales
        WHERE date(sale_date) BETWEEN ? AND ?
        ORDER BY sale_date DESC, id DESC`, from, to)
	if err != nil {
		return nil, storageErr("list sales", err)
	}
	sales := make([]domain.Sale, 0, len(rows))
	for _, r := range rows {
		sales = append(sales, r.toDomain(s.location()))
	}
	return sales, nil
}

// DailySalesSummary counts and totals the sales of one calendar day.
func (s *Store) DailySalesSummary(ctx context.Context, day time.Time) (domain.DailySummary, error) {
	date := day.Format(domain.DateLayout)
	var row struct {
		Count int64 `db:"count"`
		Total int64 `db:"total"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT COUNT(*) AS count, COALESCE(SUM(total_cents), 0) AS total
        FROM sales WHERE date(sale_date) = ?`, date)
	if err != nil {
		return domain.DailySummary{}, storageErr("daily summary", err)
	}
	return domain.DailySummary{Date: date, Count: row.Count, TotalAmount: domain.FromCents(row.Total)}, nil
}

// TopSellingDrugs aggregates sale lines per drug in [start, end] by quantity sold.
func (s *Store) TopSellingDrugs(ctx context.Context, start, end time.Time, limit int) ([]domain.DrugSales, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []struct {
		DrugID      int64  `db:"drug_id"`
		GenericName string `db:"generic_name"`
		BrandName   string `db:"brand_name"`
		Quantity    int64  `db:"quantity"`
		Revenue     int64  `db:"revenue"`
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT si.drug_id, d.generic_name, d.brand_name,
            SUM(si.quantity) AS quantity, SUM(si.total_cents) AS revenue
        FROM sale_items si
        JOIN sales s ON s.id = si.sale_id
        JOIN drugs d ON d.id = si.drug_id
        WHERE date(s.sale_date) BETWEEN ? AND ?
        GROUP BY si.drug_id, d.generic_name, d.brand_name
        ORDER BY quantity DESC, revenue DESC, d.generic_name
        LIMIT ?`, start.Format(domain.DateLayout), end.Format(domain.DateLayout), limit)
	if err != nil {
		return nil, storageErr("top selling drugs", err)
	}
	out := make([]domain.DrugSales, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.DrugSales{
			DrugID:      r.DrugID,
			GenericName: r.GenericName,
			BrandName:   r.BrandName,
			Quantity:    r.Quantity,
			Revenue:     domain.FromCents(r.Revenue),
		})
	}
	return out, nil
}
