package store

import (
	"context"
	"strings"

	"pharmapos/m/domain"
	"pharmapos/m/internal/validation"
)

func validateDrug(in domain.DrugInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.UnitPrice.IsNegative() {
		return validation.Errorf("unit_price must not be negative")
	}
	if !domain.InAmountRange(in.UnitPrice) {
		return validation.Errorf("unit_price must not exceed %s", domain.MaxAmount)
	}
	if !domain.HasCentPrecision(in.UnitPrice) {
		return validation.Errorf("unit_price must have at most two decimal places")
	}
	return nil
}

// AddDrug inserts a new drug and returns its id.
func (s *Store) AddDrug(ctx context.Context, in domain.DrugInput) (int64, error) {
	if err := validateDrug(in); err != nil {
		return 0, err
	}
	ts := s.timestamp()
	res, err := s.db.ExecContext(ctx, `INSERT INTO drugs (generic_name, brand_name, dosage, form, batch_number,
            expiry_date, unit_price_cents, quantity_in_stock, reorder_level, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.GenericName), strings.TrimSpace(in.BrandName), in.Dosage, in.Form, in.BatchNumber,
		in.ExpiryDate, domain.Cents(in.UnitPrice), in.QuantityInStock, in.Reorder(), ts, ts)
	if err != nil {
		return 0, storageErr("insert drug", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert drug id", err)
	}
	return id, nil
}

// UpdateDrug replaces the mutable fields of a drug.
func (s *Store) UpdateDrug(ctx context.Context, id int64, in domain.DrugInput) error {
	if err := validateDrug(in); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE drugs SET generic_name = ?, brand_name = ?, dosage = ?, form = ?,
            batch_number = ?, expiry_date = ?, unit_price_cents = ?, quantity_in_stock = ?, reorder_level = ?,
            updated_at = ?
        WHERE id = ?`,
		strings.TrimSpace(in.GenericName), strings.TrimSpace(in.BrandName), in.Dosage, in.Form, in.BatchNumber,
		in.ExpiryDate, domain.Cents(in.UnitPrice), in.QuantityInStock, in.Reorder(), s.timestamp(), id)
	if err != nil {
		return storageErr("update drug", err)
	}
	return expectRow(res, "drug", id)
}

// GetDrug loads one drug. A missing id yields domain.ErrNotFound.
func (s *Store) GetDrug(ctx context.Context, id int64) (domain.Drug, error) {
	var row drugRow
	err := s.db.GetContext(ctx, &row, `SELECT `+drugColumns+` FROM drugs WHERE id = ?`, id)
	if isNoRows(err) {
		return domain.Drug{}, notFound("drug", id)
	}
	if err != nil {
		return domain.Drug{}, storageErr("get drug", err)
	}
	return row.toDomain(s.location()), nil
}

// SearchDrugs matches term as a substring of generic or brand name. SQLite
// LIKE folds ASCII letters only, so other letters match in the stored case.
func (s *Store) SearchDrugs(ctx context.Context, term string) ([]domain.Drug, error) {
	like := "%" + escapeLike(term) + "%"
	return s.selectDrugs(ctx, "search drugs", `SELECT `+drugColumns+` FROM drugs
        WHERE generic_name LIKE ? ESCAPE '\' OR brand_name LIKE ? ESCAPE '\'
        ORDER BY generic_name, id`, like, like)
}

// ListDrugs returns every drug ordered by generic name.
func (s *Store) ListDrugs(ctx context.Context) ([]domain.Drug, error) {
	return s.selectDrugs(ctx, "list drugs", `SELECT `+drugColumns+` FROM drugs ORDER BY generic_name, id`)
}

// AdjustStock applies quantity_in_stock += delta with no floor check. Callers
// must verify sufficiency first; sales go through the conditional decrement
// in RecordSale and AddSaleItem instead.
func (s *Store) AdjustStock(ctx context.Context, id, delta int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE drugs SET quantity_in_stock = quantity_in_stock + ?, updated_at = ? WHERE id = ?`,
		delta, s.timestamp(), id)
	if err != nil {
		return storageErr("adjust stock", err)
	}
	return expectRow(res, "drug", id)
}

// ListLowStock returns drugs at or below their reorder level, lowest stock first.
func (s *Store) ListLowStock(ctx context.Context) ([]domain.Drug, error) {
	return s.selectDrugs(ctx, "list low stock", `SELECT `+drugColumns+` FROM drugs
        WHERE quantity_in_stock <= reorder_level
        ORDER BY quantity_in_stock, generic_name`)
}

// ListExpiringWithin returns drugs whose expiry date is on or before today+days.
func (s *Store) ListExpiringWithin(ctx context.Context, days int) ([]domain.Drug, error) {
	if days < 0 {
		return nil, validation.Errorf("days must not be negative")
	}
	cutoff := s.today().AddDate(0, 0, days).Format(domain.DateLayout)
	return s.selectDrugs(ctx, "list expiring", `SELECT `+drugColumns+` FROM drugs
        WHERE expiry_date <= ?
        ORDER BY expiry_date, generic_name`, cutoff)
}

// ListOutOfStock returns drugs with no sellable stock.
func (s *Store) ListOutOfStock(ctx context.Context) ([]domain.Drug, error) {
	return s.selectDrugs(ctx, "list out of stock", `SELECT `+drugColumns+` FROM drugs
        WHERE quantity_in_stock <= 0
        ORDER BY generic_name`)
}

func (s *Store) selectDrugs(ctx context.Context, op, query string, args ...any) ([]domain.Drug, error) {
	var rows []drugRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageErr(op, err)
	}
	return drugsFromRows(rows, s.location()), nil
}

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

