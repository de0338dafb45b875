package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pharmapos/m/domain"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/migrations"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db))

	clock := &testClock{now: time.Date(2026, time.October, 19, 10, 30, 0, 0, time.Local)}
	return New(db, WithClock(clock.Now)), clock
}

func paracetamol() domain.DrugInput {
	return domain.DrugInput{
		GenericName:     "Paracetamol",
		BrandName:       "Panadol",
		Dosage:          "500mg",
		Form:            "Tablet",
		BatchNumber:     "BATCH001",
		ExpiryDate:      "2027-12-31",
		UnitPrice:       decimal.RequireFromString("2.50"),
		QuantityInStock: 100,
	}
}

func amoxicillin() domain.DrugInput {
	return domain.DrugInput{
		GenericName:     "Amoxicillin",
		BrandName:       "Amoxil",
		Dosage:          "250mg",
		Form:            "Capsule",
		BatchNumber:     "BATCH002",
		ExpiryDate:      "2026-11-05",
		UnitPrice:       decimal.RequireFromString("15.00"),
		QuantityInStock: 50,
	}
}

func line(drugID, qty int64, price string) domain.SaleItemInput {
	unit := decimal.RequireFromString(price)
	return domain.SaleItemInput{DrugID: drugID, Quantity: qty, UnitPrice: unit, TotalPrice: domain.LineTotal(qty, unit)}
}

func mustAddDrug(t *testing.T, s *Store, in domain.DrugInput) int64 {
	t.Helper()
	id, err := s.AddDrug(context.Background(), in)
	require.NoError(t, err)
	return id
}

func stockOf(t *testing.T, s *Store, id int64) int64 {
	t.Helper()
	drug, err := s.GetDrug(context.Background(), id)
	require.NoError(t, err)
	return drug.QuantityInStock
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}
