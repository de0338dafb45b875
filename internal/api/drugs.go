package api

import (
	"log/slog"
	"net/http"
	"strings"

	"pharmapos/m/domain"
	"pharmapos/m/internal/validation"
)

func (h *Handler) listDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.store.ListDrugs(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, drugs)
}

func (h *Handler) searchDrugs(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.respondErr(w, r, validation.Errorf("q is required"))
		return
	}
	drugs, err := h.store.SearchDrugs(r.Context(), q)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, drugs)
}

func (h *Handler) getDrug(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	drug, err := h.store.GetDrug(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, drug)
}

func (h *Handler) addDrug(w http.ResponseWriter, r *http.Request) {
	var in domain.DrugInput
	if err := decodeJSON(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	id, err := h.store.AddDrug(r.Context(), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	drug, err := h.store.GetDrug(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.logger.Info("drug added", slog.Int64("id", id), slog.String("name", drug.DisplayName()))
	respondJSON(w, http.StatusCreated, drug)
}

func (h *Handler) updateDrug(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var in domain.DrugInput
	if err := decodeJSON(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := h.store.UpdateDrug(r.Context(), id, in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	drug, err := h.store.GetDrug(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, drug)
}

type stockRequest struct {
	Delta int64 `json:"delta" validate:"ne=0"`
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := h.store.AdjustStock(r.Context(), id, req.Delta); err != nil {
		h.respondErr(w, r, err)
		return
	}
	drug, err := h.store.GetDrug(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.logger.Info("stock adjusted", slog.Int64("id", id), slog.Int64("delta", req.Delta), slog.Int64("stock", drug.QuantityInStock))
	respondJSON(w, http.StatusOK, drug)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.store.ListLowStock(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, drugs)
}

func (h *Handler) expiring(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", h.expiry)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	drugs, err := h.store.ListExpiringWithin(r.Context(), days)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, drugs)
}
