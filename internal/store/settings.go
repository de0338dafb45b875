package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/currency"

	"pharmapos/m/domain"
	"pharmapos/m/internal/validation"
)

var maxTaxRate = domain.FromCents(10000)

// GetSettings returns the most recently created settings row.
func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	var row settingsRow
	err := s.db.GetContext(ctx, &row, `SELECT `+settingsColumns+` FROM settings ORDER BY id DESC LIMIT 1`)
	if isNoRows(err) {
		return domain.Settings{}, fmt.Errorf("store: settings row missing: %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Settings{}, storageErr("get settings", err)
	}
	return row.toDomain(s.location()), nil
}

// UpdateSettings overwrites the editable fields of the latest settings row.
func (s *Store) UpdateSettings(ctx context.Context, in domain.SettingsInput) error {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if err := validation.Struct(in); err != nil {
		return err
	}
	if _, err := currency.ParseISO(in.Currency); err != nil {
		return validation.Errorf("currency %q is not an ISO 4217 code", in.Currency)
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(maxTaxRate) {
		return validation.Errorf("tax_rate must be between 0 and 100")
	}

	res, err := s.db.ExecContext(ctx, `UPDATE settings SET pharmacy_name = ?, pharmacy_address = ?, pharmacy_phone = ?,
            pharmacy_email = ?, tax_rate = ?, currency = ?, receipt_footer = ?, updated_at = ?
        WHERE id = (SELECT id FROM settings ORDER BY id DESC LIMIT 1)`,
		in.PharmacyName, in.PharmacyAddress, in.PharmacyPhone, in.PharmacyEmail, in.TaxRate.String(),
		in.Currency, in.ReceiptFooter, s.timestamp())
	if err != nil {
		return storageErr("update settings", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("store: settings row missing: %w", domain.ErrNotFound)
	}
	return nil
}
