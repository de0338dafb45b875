// Package seed loads the initial drug catalogue on first start.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// LoadDrugs ingests the CSV at path into the drugs table when the table is
// empty. Columns: generic, brand, dosage, form, batch, expiry, price, stock and
// an optional reorder level; a header row is expected. Malformed rows are
// skipped. A missing file is not an error. It returns the number of rows
// inserted.
func LoadDrugs(ctx context.Context, db *sqlx.DB, path string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var existing int
	if err := db.GetContext(ctx, &existing, `SELECT COUNT(*) FROM drugs`); err != nil {
		return 0, fmt.Errorf("seed: count drugs: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("drug catalogue not found, skipping seed", slog.String("path", path))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("seed: read header: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO drugs (generic_name, brand_name, dosage, form, batch_number,
            expiry_date, unit_price_cents, quantity_in_stock, reorder_level, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("seed: prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := time.Now().Format(domain.TimestampLayout)
	rows := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("unable to read drug row", slog.Int("line", line), slog.Any("error", err))
			continue
		}
		d, err := parseRecord(record)
		if err != nil {
			logger.Warn("skipping drug row", slog.Int("line", line), slog.Any("error", err))
			continue
		}
		if _, err := stmt.ExecContext(ctx, d.GenericName, d.BrandName, d.Dosage, d.Form, d.BatchNumber,
			d.ExpiryDate, domain.Cents(d.UnitPrice), d.QuantityInStock, d.Reorder(), ts, ts); err != nil {
			return 0, fmt.Errorf("seed: insert %s: %w", d.GenericName, err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed: commit: %w", err)
	}
	logger.Info("seeded drug catalogue", slog.Int("rows", rows))
	return rows, nil
}

func parseRecord(record []string) (domain.DrugInput, error) {
	if len(record) < 8 {
		return domain.DrugInput{}, fmt.Errorf("want at least 8 columns, got %d", len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	if record[0] == "" {
		return domain.DrugInput{}, errors.New("generic name is empty")
	}
	if _, err := time.Parse(domain.DateLayout, record[5]); err != nil {
		return domain.DrugInput{}, fmt.Errorf("expiry date %q: %w", record[5], err)
	}
	price, err := decimal.NewFromString(record[6])
	if err != nil || price.IsNegative() {
		return domain.DrugInput{}, fmt.Errorf("unit price %q is invalid", record[6])
	}
	stock, err := strconv.ParseInt(record[7], 10, 64)
	if err != nil || stock < 0 {
		return domain.DrugInput{}, fmt.Errorf("stock %q is invalid", record[7])
	}
	in := domain.DrugInput{
		GenericName:     record[0],
		BrandName:       record[1],
		Dosage:          record[2],
		Form:            record[3],
		BatchNumber:     record[4],
		ExpiryDate:      record[5],
		UnitPrice:       price,
		QuantityInStock: stock,
	}
	if len(record) > 8 && record[8] != "" {
		reorder, err := strconv.ParseInt(record[8], 10, 64)
		if err != nil || reorder < 0 {
			return domain.DrugInput{}, fmt.Errorf("reorder level %q is invalid", record[8])
		}
		in.ReorderLevel = &reorder
	}
	return in, nil
}
