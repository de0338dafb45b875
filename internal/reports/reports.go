// Package reports aggregates sales and inventory data for the back office.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pharmapos/m/domain"
	"pharmapos/m/internal/validation"
)

// Source is the read side of the store used by reports.
type Source interface {
	Now() time.Time
	ListDrugs(ctx context.Context) ([]domain.Drug, error)
	ListLowStock(ctx context.Context) ([]domain.Drug, error)
	ListExpiringWithin(ctx context.Context, days int) ([]domain.Drug, error)
	ListOutOfStock(ctx context.Context) ([]domain.Drug, error)
	ListSalesByDateRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error)
	DailySalesSummary(ctx context.Context, day time.Time) (domain.DailySummary, error)
	TopSellingDrugs(ctx context.Context, start, end time.Time, limit int) ([]domain.DrugSales, error)
}

// Service builds report views over a Source.
type Service struct {
	src    Source
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(src Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, logger: logger}
}

// DayRow is one calendar day of a summary.
type DayRow struct {
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Transactions int64           `json:"transactions"`
	Average      decimal.Decimal `json:"average"`
}

// Summary describes sales over a date range.
type Summary struct {
	Start        string          `json:"start"`
	End          string          `json:"end"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Transactions int64           `json:"transactions"`
	AverageSale  decimal.Decimal `json:"average_sale"`
	BestDay      *DayRow         `json:"best_day,omitempty"`
	Days         []DayRow        `json:"days"`
}

// ExpiringDrug is a drug with the number of days until its expiry date.
// DaysLeft is negative for drugs already expired.
type ExpiringDrug struct {
	domain.Drug
	DaysLeft int `json:"days_left"`
}

// Alerts lists inventory needing attention.
type Alerts struct {
	LowStock   []domain.Drug  `json:"low_stock"`
	Expiring   []ExpiringDrug `json:"expiring"`
	OutOfStock []domain.Drug  `json:"out_of_stock"`
}

// TopDrug is a best seller with its share of period revenue in percent.
type TopDrug struct {
	domain.DrugSales
	Share decimal.Decimal `json:"share"`
}

// Period resolves a named range relative to now: "today", "week" (Monday to
// Sunday) or "month".
func Period(name string, now time.Time) (time.Time, time.Time, error) {
	today := dateOf(now)
	switch strings.ToLower(name) {
	case "", "today":
		return today, today, nil
	case "week":
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6), nil
	case "month":
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(0, 1, -1), nil
	default:
		return time.Time{}, time.Time{}, validation.Errorf("unknown period %q", name)
	}
}

// Daily returns the count and total of one day's sales.
func (s *Service) Daily(ctx context.Context, day time.Time) (domain.DailySummary, error) {
	summary, err := s.src.DailySalesSummary(ctx, day)
	if err != nil {
		return domain.DailySummary{}, fmt.Errorf("reports: daily: %w", err)
	}
	return summary, nil
}

// Summary totals the sales in [start, end] and breaks them down per day in
// ascending date order. The best day is the one with the highest amount,
// the earliest on ties.
func (s *Service) Summary(ctx context.Context, start, end time.Time) (Summary, error) {
	sales, err := s.src.ListSalesByDateRange(ctx, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("reports: summary: %w", err)
	}

	out := Summary{
		Start:       start.Format(domain.DateLayout),
		End:         end.Format(domain.DateLayout),
		TotalAmount: decimal.Zero,
		AverageSale: decimal.Zero,
		Days:        []DayRow{},
	}
	byDay := map[string]*DayRow{}
	for _, sale := range sales {
		key := sale.SaleDate.Format(domain.DateLayout)
		row, ok := byDay[key]
		if !ok {
			row = &DayRow{Date: key, Amount: decimal.Zero}
			byDay[key] = row
		}
		row.Amount = row.Amount.Add(sale.TotalAmount)
		row.Transactions++
		out.TotalAmount = out.TotalAmount.Add(sale.TotalAmount)
		out.Transactions++
	}
	for _, row := range byDay {
		row.Average = average(row.Amount, row.Transactions)
		out.Days = append(out.Days, *row)
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date < out.Days[j].Date })

	for i := range out.Days {
		if out.BestDay == nil || out.Days[i].Amount.GreaterThan(out.BestDay.Amount) {
			best := out.Days[i]
			out.BestDay = &best
		}
	}
	out.AverageSale = average(out.TotalAmount, out.Transactions)
	return out, nil
}

// Alerts collects low stock, drugs expiring within days and out of stock drugs.
func (s *Service) Alerts(ctx context.Context, days int) (Alerts, error) {
	var low, expiring, out []domain.Drug
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if low, err = s.src.ListLowStock(gctx); err != nil {
			return fmt.Errorf("reports: low stock: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if expiring, err = s.src.ListExpiringWithin(gctx, days); err != nil {
			return fmt.Errorf("reports: expiring: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if out, err = s.src.ListOutOfStock(gctx); err != nil {
			return fmt.Errorf("reports: out of stock: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Alerts{}, err
	}

	today := dateOf(s.src.Now())
	alerts := Alerts{LowStock: low, OutOfStock: out, Expiring: make([]ExpiringDrug, 0, len(expiring))}
	for _, d := range expiring {
		alerts.Expiring = append(alerts.Expiring, ExpiringDrug{Drug: d, DaysLeft: DaysBetween(today, d.ExpiryDate)})
	}
	return alerts, nil
}

// TopDrugs returns the best sellers in [start, end] with their revenue share.
func (s *Service) TopDrugs(ctx context.Context, start, end time.Time, limit int) ([]TopDrug, error) {
	top, err := s.src.TopSellingDrugs(ctx, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: top drugs: %w", err)
	}
	sales, err := s.src.ListSalesByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("reports: top drugs: %w", err)
	}
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.TotalAmount)
	}

	out := make([]TopDrug, 0, len(top))
	for _, d := range top {
		share := decimal.Zero
		if total.IsPositive() {
			share = d.Revenue.Mul(decimal.NewFromInt(100)).Div(total).Round(1)
		}
		out = append(out, TopDrug{DrugSales: d, Share: share})
	}
	return out, nil
}

// DaysBetween counts calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func average(amount decimal.Decimal, n int64) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(n)).Round(2)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
