package api

import (
	"bytes"
	"fmt"
	"net/http"

	"pharmapos/m/domain"
	"pharmapos/m/internal/validation"
)

func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	day, err := queryDate(r, "date", h.store.Now())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	summary, err := h.reports.Daily(r.Context(), day)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) summaryReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dateRange(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	summary, err := h.reports.Summary(r.Context(), start, end)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) alertsReport(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", h.expiry)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	alerts, err := h.reports.Alerts(r.Context(), days)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

func (h *Handler) topDrugsReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dateRange(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	top, err := h.reports.TopDrugs(r.Context(), start, end, limit)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, top)
}

// writeCSV sends an already rendered export as an attachment.
func writeCSV(w http.ResponseWriter, name string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

func (h *Handler) exportSales(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dateRange(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if end.Before(start) {
		h.respondErr(w, r, validation.Errorf("end date is before start date"))
		return
	}
	var buf bytes.Buffer
	if err := h.reports.WriteSalesCSV(r.Context(), &buf, start, end); err != nil {
		h.respondErr(w, r, err)
		return
	}
	writeCSV(w, fmt.Sprintf("sales_%s_%s.csv", start.Format(domain.DateLayout), end.Format(domain.DateLayout)), &buf)
}

func (h *Handler) exportInventory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.reports.WriteInventoryCSV(r.Context(), &buf); err != nil {
		h.respondErr(w, r, err)
		return
	}
	writeCSV(w, fmt.Sprintf("inventory_%s.csv", h.store.Now().Format(domain.DateLayout)), &buf)
}
