package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/m/domain"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/reports"
	"pharmapos/m/internal/store"
)

const testSecret = "test-secret"

type testAPI struct {
	t      *testing.T
	db     *sqlx.DB
	store  *store.Store
	router http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db))

	now := time.Date(2026, time.October, 19, 10, 30, 0, 0, time.Local)
	s := store.New(db, store.WithClock(func() time.Time { return now }))
	_, err = s.EnsureUser(ctx, "admin", "admin123", RoleAdmin, "System Administrator")
	require.NoError(t, err)
	_, err = s.EnsureUser(ctx, "ama", "till-pass", RoleCashier, "Ama Mensah")
	require.NoError(t, err)

	h := New(s, checkout.NewRegistry(s, nil), reports.NewService(s, nil), Options{Secret: testSecret, ExpiryWindowDays: 30})
	return &testAPI{t: t, db: db, store: s, router: h.Router()}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(username, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp authResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

func (a *testAPI) addDrug(token string, stock int64) domain.Drug {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/drugs", token, map[string]any{
		"generic_name":      "Paracetamol",
		"brand_name":        "Panadol",
		"dosage":            "500mg",
		"form":              "Tablet",
		"batch_number":      "BATCH001",
		"expiry_date":       "2027-12-31",
		"unit_price":        "2.50",
		"quantity_in_stock": stock,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var d domain.Drug
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "ADMIN", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[authResponse](t, rec)
	assert.Equal(t, RoleAdmin, resp.User.Role)
	assert.NotContains(t, rec.Body.String(), "admin123")

	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/drugs", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/drugs", "not-a-jwt", nil).Code)
}

func TestDrugWritesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)
	cashier := api.login("ama", "till-pass")
	admin := api.login("admin", "admin123")

	rec := api.do(http.MethodPost, "/drugs", cashier, map[string]any{"generic_name": "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	d := api.addDrug(admin, 100)
	assert.Equal(t, "2.50", d.UnitPrice.StringFixed(2))

	rec = api.do(http.MethodGet, fmt.Sprintf("/drugs/%d", d.ID), cashier, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/drugs/search?q=pana", cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Drug](t, rec), 1)

	rec = api.do(http.MethodPost, fmt.Sprintf("/drugs/%d/stock", d.ID), admin, map[string]int64{"delta": -5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(95), decode[domain.Drug](t, rec).QuantityInStock)

	rec = api.do(http.MethodGet, "/drugs/999", cashier, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/drugs", admin, map[string]any{"generic_name": "Only"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin123")
	cashier := api.login("ama", "till-pass")
	d := api.addDrug(admin, 5)

	rec := api.do(http.MethodPost, "/carts", cashier, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cartID := decode[cartResponse](t, rec).ID
	base := "/carts/" + cartID

	rec = api.do(http.MethodPost, base+"/items", cashier, map[string]int64{"drug_id": d.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "7.50", decode[cartResponse](t, rec).Total.StringFixed(2))

	rec = api.do(http.MethodPost, base+"/items", cashier, map[string]int64{"drug_id": d.ID, "quantity": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPut, base+"/items/0", cashier, map[string]int64{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, base+"/items/3", cashier, map[string]int64{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, base, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, base+"/checkout", cashier, map[string]string{"customer_name": "Kofi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[checkoutResponse](t, rec)
	assert.Equal(t, "202610190001", out.Receipt.Number)
	assert.Equal(t, "Ama Mensah", out.Receipt.CashierName)
	assert.True(t, out.Receipt.Total.Equal(decimal.RequireFromString("7.50")))
	assert.Contains(t, strings.Join(out.Lines, "\n"), "GHS 7.50")

	rec = api.do(http.MethodGet, base, cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResponse](t, rec).Items)

	rec = api.do(http.MethodPost, base+"/checkout", cashier, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/drugs/%d", d.ID), cashier, nil)
	assert.Equal(t, int64(2), decode[domain.Drug](t, rec).QuantityInStock)

	rec = api.do(http.MethodGet, "/sales?start=2026-10-19&end=2026-10-19", cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sales := decode[[]domain.Sale](t, rec)
	require.Len(t, sales, 1)

	rec = api.do(http.MethodGet, fmt.Sprintf("/sales/%d/receipt", sales[0].ID), cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "Receipt: 202610190001")

	rec = api.do(http.MethodGet, "/sales/next-receipt", cashier, nil)
	assert.JSONEq(t, `{"receipt_number":"202610190002"}`, rec.Body.String())

	rec = api.do(http.MethodDelete, base, cashier, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, base, cashier, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutWithoutSettingsLeavesCartAndStock(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin123")
	d := api.addDrug(admin, 5)

	rec := api.do(http.MethodPost, "/carts", admin, nil)
	base := "/carts/" + decode[cartResponse](t, rec).ID
	rec = api.do(http.MethodPost, base+"/items", admin, map[string]int64{"drug_id": d.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := api.db.Exec(`DELETE FROM settings`)
	require.NoError(t, err)

	rec = api.do(http.MethodPost, base+"/checkout", admin, map[string]string{"customer_name": "Kofi"})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, base, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[cartResponse](t, rec).Items, 1)

	rec = api.do(http.MethodGet, "/sales?start=2026-10-19&end=2026-10-19", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]domain.Sale](t, rec))

	rec = api.do(http.MethodGet, fmt.Sprintf("/drugs/%d", d.ID), admin, nil)
	assert.Equal(t, int64(5), decode[domain.Drug](t, rec).QuantityInStock)
}

func TestCSVExportReportsStorageFailure(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin123")
	require.NoError(t, api.db.Close())

	for _, path := range []string{"/reports/inventory.csv", "/reports/sales.csv?start=2026-10-19"} {
		rec := api.do(http.MethodGet, path, admin, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"), path)
		assert.Empty(t, rec.Header().Get("Content-Disposition"), path)
	}
}

func TestReports(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin123")
	d := api.addDrug(admin, 12)

	rec := api.do(http.MethodPost, "/carts", admin, nil)
	cartID := decode[cartResponse](t, rec).ID
	api.do(http.MethodPost, "/carts/"+cartID+"/items", admin, map[string]int64{"drug_id": d.ID, "quantity": 4})
	rec = api.do(http.MethodPost, "/carts/"+cartID+"/checkout", admin, map[string]string{"payment_method": domain.PaymentMobileMoney})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/reports/daily?date=2026-10-19", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	daily := decode[domain.DailySummary](t, rec)
	assert.Equal(t, int64(1), daily.Count)
	assert.Equal(t, "10.00", daily.TotalAmount.StringFixed(2))

	rec = api.do(http.MethodGet, "/reports/summary?period=week", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[reports.Summary](t, rec).Transactions)

	rec = api.do(http.MethodGet, "/reports/alerts", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[reports.Alerts](t, rec).LowStock, 1)

	rec = api.do(http.MethodGet, "/reports/top-drugs?start=2026-10-19&end=2026-10-19", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]reports.TopDrug](t, rec), 1)

	rec = api.do(http.MethodGet, "/reports/sales.csv?start=2026-10-19", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Body.String(), "Mobile Money")

	rec = api.do(http.MethodGet, "/reports/inventory.csv", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), reports.StatusLowStock)

	rec = api.do(http.MethodGet, "/reports/summary?start=2026-13-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(http.MethodGet, "/reports/summary?start=2026-10-20&end=2026-10-19", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin123")
	cashier := api.login("ama", "till-pass")

	rec := api.do(http.MethodGet, "/settings", cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ghana Pharmacy", decode[domain.Settings](t, rec).PharmacyName)

	update := map[string]string{"pharmacy_name": "Korle Bu Pharmacy", "currency": "usd", "tax_rate": "0"}
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, "/settings", cashier, update).Code)

	rec = api.do(http.MethodPut, "/settings", admin, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "USD", decode[domain.Settings](t, rec).Currency)

	update["currency"] = "ZZZ"
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, "/settings", admin, update).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrInvalidQuantity, http.StatusBadRequest},
		{domain.ErrEmptyCart, http.StatusBadRequest},
		{store.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrInsufficientStock, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
