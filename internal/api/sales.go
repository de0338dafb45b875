package api

import (
	"net/http"

	"pharmapos/m/domain"
	"pharmapos/m/internal/receipt"
)

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.dateRange(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	sales, err := h.store.ListSalesByDateRange(r.Context(), start, end)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) nextReceipt(w http.ResponseWriter, r *http.Request) {
	number, err := h.store.NextReceiptNumber(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"receipt_number": number})
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	sale, err := h.store.GetSale(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) saleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	sale, err := h.store.GetSale(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(receipt.Text(settings, domain.ReceiptFromSale(sale))))
}
