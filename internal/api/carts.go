package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/receipt"
	"pharmapos/m/internal/validation"
)

type cartResponse struct {
	ID    string            `json:"id"`
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

func cartView(id string, c *checkout.Cart) cartResponse {
	return cartResponse{ID: id, Items: c.Items(), Total: c.Total()}
}

type addItemRequest struct {
	DrugID   int64 `json:"drug_id" validate:"required,gt=0"`
	Quantity int64 `json:"quantity"`
}

type setItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type checkoutResponse struct {
	Receipt domain.Receipt `json:"receipt"`
	Lines   []string       `json:"lines"`
}

// withCart runs fn on the caller's cart and responds with the resulting cart.
func (h *Handler) withCart(w http.ResponseWriter, r *http.Request, fn func(*checkout.Cart) error) {
	id := chi.URLParam(r, "id")
	var view cartResponse
	err := h.carts.With(id, userID(r), func(c *checkout.Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		view = cartView(id, c)
		return nil
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) {
	id := h.carts.Open(userID(r))
	respondJSON(w, http.StatusCreated, cartResponse{ID: id, Items: []domain.CartItem{}, Total: decimal.Zero})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(*checkout.Cart) error { return nil })
}

func (h *Handler) closeCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Close(chi.URLParam(r, "id"), userID(r)); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.withCart(w, r, func(c *checkout.Cart) error {
		drug, err := h.store.GetDrug(r.Context(), req.DrugID)
		if err != nil {
			return err
		}
		return c.AddItem(drug, req.Quantity)
	})
}

func (h *Handler) setCartItem(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var req setItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.withCart(w, r, func(c *checkout.Cart) error {
		return c.SetItemQuantity(r.Context(), idx, req.Quantity)
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.withCart(w, r, func(c *checkout.Cart) error { return c.RemoveItem(idx) })
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(c *checkout.Cart) error {
		c.Clear()
		return nil
	})
}

func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	var req checkout.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if req.CashierName == "" {
		req.CashierName = fullName(r)
	}

	// Settings are read first: once the sale commits the response must succeed.
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	var rec domain.Receipt
	err = h.carts.With(chi.URLParam(r, "id"), userID(r), func(c *checkout.Cart) error {
		var err error
		rec, err = c.Checkout(r.Context(), req)
		return err
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, checkoutResponse{Receipt: rec, Lines: receipt.Render(settings, rec)})
}
