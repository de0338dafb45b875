package api

import (
	"net/http"

	"pharmapos/m/domain"
)

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var in domain.SettingsInput
	if err := decodeJSON(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := h.store.UpdateSettings(r.Context(), in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}
