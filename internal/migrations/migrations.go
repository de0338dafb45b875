package migrations

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Money columns hold integer minor units (cents).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS drugs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            generic_name TEXT NOT NULL,
            brand_name TEXT NOT NULL,
            dosage TEXT NOT NULL,
            form TEXT NOT NULL,
            batch_number TEXT NOT NULL,
            expiry_date TEXT NOT NULL,
            unit_price_cents INTEGER NOT NULL CHECK (unit_price_cents >= 0),
            quantity_in_stock INTEGER NOT NULL,
            reorder_level INTEGER NOT NULL DEFAULT 10,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_drugs_generic_name ON drugs (generic_name);`,
	`CREATE TABLE IF NOT EXISTS sales (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            receipt_number TEXT NOT NULL UNIQUE,
            total_cents INTEGER NOT NULL,
            payment_method TEXT NOT NULL DEFAULT 'Cash',
            customer_name TEXT NOT NULL DEFAULT '',
            customer_phone TEXT NOT NULL DEFAULT '',
            cashier_name TEXT NOT NULL,
            sale_date TEXT NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales (sale_date);`,
	`CREATE TABLE IF NOT EXISTS sale_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            sale_id INTEGER NOT NULL,
            drug_id INTEGER NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            unit_price_cents INTEGER NOT NULL,
            total_cents INTEGER NOT NULL,
            FOREIGN KEY(sale_id) REFERENCES sales(id),
            FOREIGN KEY(drug_id) REFERENCES drugs(id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale_id ON sale_items (sale_id);`,
	`CREATE TABLE IF NOT EXISTS settings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            pharmacy_name TEXT NOT NULL DEFAULT 'Ghana Pharmacy',
            pharmacy_address TEXT NOT NULL DEFAULT '',
            pharmacy_phone TEXT NOT NULL DEFAULT '',
            pharmacy_email TEXT NOT NULL DEFAULT '',
            tax_rate TEXT NOT NULL DEFAULT '0',
            currency TEXT NOT NULL DEFAULT 'GHS',
            receipt_footer TEXT NOT NULL DEFAULT 'Thank you for your purchase!',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL,
            full_name TEXT NOT NULL,
            created_at TEXT NOT NULL
        );`,
}

// Run creates the schema and the default settings row.
func Run(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	_, err := db.ExecContext(ctx, `INSERT INTO settings (pharmacy_name, pharmacy_address, pharmacy_phone, created_at, updated_at)
        SELECT 'Ghana Pharmacy', 'Accra, Ghana', '+233 XX XXX XXXX', datetime('now', 'localtime'), datetime('now', 'localtime')
        WHERE NOT EXISTS (SELECT 1 FROM settings)`)
	if err != nil {
		return fmt.Errorf("migrations: default settings: %w", err)
	}
	return nil
}
