package checkout

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/m/domain"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db))
	now := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.Local)
	return store.New(db, store.WithClock(func() time.Time { return now }))
}

func addDrug(t *testing.T, s *store.Store, name string, stock int64, price string) domain.Drug {
	t.Helper()
	ctx := context.Background()
	id, err := s.AddDrug(ctx, domain.DrugInput{
		GenericName:     name,
		BrandName:       name + " Brand",
		Dosage:          "500mg",
		Form:            "Tablet",
		BatchNumber:     "B-" + name,
		ExpiryDate:      "2028-01-31",
		UnitPrice:       decimal.RequireFromString(price),
		QuantityInStock: stock,
	})
	require.NoError(t, err)
	d, err := s.GetDrug(ctx, id)
	require.NoError(t, err)
	return d
}

func TestCheckoutRecordsSaleAndDecrementsStock(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := addDrug(t, s, "Paracetamol", 100, "2.50")

	cart := NewCart(s, nil)
	require.NoError(t, cart.AddItem(p, 3))

	receipt, err := cart.Checkout(ctx, CheckoutRequest{CashierName: "Ama"})
	require.NoError(t, err)
	assert.Equal(t, "202610190001", receipt.Number)
	assert.Equal(t, "7.50", receipt.Total.StringFixed(2))
	assert.Zero(t, cart.Len())

	after, err := s.GetDrug(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(97), after.QuantityInStock)

	sale, err := s.GetSale(ctx, receipt.SaleID)
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, int64(3), sale.Items[0].Quantity)
	assert.Equal(t, "2.50", sale.Items[0].UnitPrice.StringFixed(2))
}

func TestCheckoutWithStaleSnapshotRecordsNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := addDrug(t, s, "Paracetamol", 5, "2.50")

	first := NewCart(s, nil)
	require.NoError(t, first.AddItem(p, 5))

	second := NewCart(s, nil)
	require.NoError(t, second.AddItem(p, 3))
	_, err := second.Checkout(ctx, CheckoutRequest{CashierName: "Kwame"})
	require.NoError(t, err)

	_, err = first.Checkout(ctx, CheckoutRequest{CashierName: "Ama"})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, first.Len())

	after, err := s.GetDrug(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.QuantityInStock)

	day := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.Local)
	sales, err := s.ListSalesByDateRange(ctx, day, day)
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	require.NoError(t, first.SetItemQuantity(ctx, 0, 2))
	_, err = first.Checkout(ctx, CheckoutRequest{CashierName: "Ama"})
	require.NoError(t, err)
	after, err = s.GetDrug(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, after.QuantityInStock)
}

func TestRandomCartOperationsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	drugs := []domain.Drug{
		addDrug(t, s, "Paracetamol", 40, "2.50"),
		addDrug(t, s, "Amoxicillin", 25, "15.00"),
		addDrug(t, s, "Ibuprofen", 10, "3.75"),
	}
	rng := rand.New(rand.NewPCG(19, 10))
	carts := []*Cart{NewCart(s, nil), NewCart(s, nil)}

	for step := range 300 {
		cart := carts[rng.IntN(len(carts))]
		switch rng.IntN(5) {
		case 0, 1:
			d, err := s.GetDrug(ctx, drugs[rng.IntN(len(drugs))].ID)
			require.NoError(t, err)
			_ = cart.AddItem(d, int64(rng.IntN(6))-1)
		case 2:
			if cart.Len() > 0 {
				_ = cart.SetItemQuantity(ctx, rng.IntN(cart.Len()), int64(rng.IntN(8)))
			}
		case 3:
			if cart.Len() > 0 && rng.IntN(3) == 0 {
				require.NoError(t, cart.RemoveItem(rng.IntN(cart.Len())))
			}
		case 4:
			before := cart.Len()
			_, err := cart.Checkout(ctx, CheckoutRequest{CashierName: "Ama"})
			if err != nil {
				assert.Equal(t, before, cart.Len(), "step %d", step)
			} else {
				assert.Zero(t, cart.Len(), "step %d", step)
			}
		}

		for _, c := range carts {
			sum := decimal.Zero
			for _, it := range c.Items() {
				assert.Positive(t, it.Quantity)
				sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
			}
			assert.True(t, sum.Equal(c.Total()), "step %d", step)
		}
		for _, d := range drugs {
			live, err := s.GetDrug(ctx, d.ID)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, live.QuantityInStock, int64(0))
		}
	}
}

func TestPOSScenarios(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.Local)

	t.Run("sale of five units", func(t *testing.T) {
		s := newStore(t)
		p := addDrug(t, s, "Paracetamol", 100, "2.50")
		cart := NewCart(s, nil)
		require.NoError(t, cart.AddItem(p, 5))
		assert.Equal(t, "12.50", cart.Total().StringFixed(2))

		receipt, err := cart.Checkout(ctx, CheckoutRequest{CashierName: "Ama"})
		require.NoError(t, err)
		assert.Equal(t, "202610190001", receipt.Number)

		live, err := s.GetDrug(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(95), live.QuantityInStock)

		sale, err := s.GetSale(ctx, receipt.SaleID)
		require.NoError(t, err)
		require.Len(t, sale.Items, 1)
		assert.Equal(t, int64(5), sale.Items[0].Quantity)
		assert.Equal(t, "12.50", sale.TotalAmount.StringFixed(2))
	})

	t.Run("over stock rejected", func(t *testing.T) {
		s := newStore(t)
		p := addDrug(t, s, "Paracetamol", 100, "2.50")
		cart := NewCart(s, nil)
		require.ErrorIs(t, cart.AddItem(p, 150), domain.ErrInsufficientStock)
		assert.Zero(t, cart.Len())

		live, err := s.GetDrug(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), live.QuantityInStock)
	})

	t.Run("merged quantity rejected", func(t *testing.T) {
		s := newStore(t)
		p := addDrug(t, s, "Paracetamol", 100, "2.50")
		cart := NewCart(s, nil)
		require.NoError(t, cart.AddItem(p, 60))
		require.ErrorIs(t, cart.AddItem(p, 60), domain.ErrInsufficientStock)
		require.Len(t, cart.Items(), 1)
		assert.Equal(t, int64(60), cart.Items()[0].Quantity)
	})

	t.Run("empty cart", func(t *testing.T) {
		s := newStore(t)
		cart := NewCart(s, nil)
		_, err := cart.Checkout(ctx, CheckoutRequest{CashierName: "Ama"})
		require.ErrorIs(t, err, domain.ErrEmptyCart)

		sales, err := s.ListSalesByDateRange(ctx, day, day)
		require.NoError(t, err)
		assert.Empty(t, sales)
	})
}
