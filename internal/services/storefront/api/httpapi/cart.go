package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/cart"
)

const cartCookieTTL = 30 * 24 * time.Hour

// cartID returns the cart cookie value, or empty when absent.
func cartID(r *http.Request) string {
	cookie, err := r.Cookie(cart.CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

// ensureCartID returns the caller's cart ID, issuing a new cookie on the
// first mutation.
func (h handlers) ensureCartID(w http.ResponseWriter, r *http.Request) (string, error) {
	if existing := cartID(r); existing != "" {
		return existing, nil
	}
	created, err := h.carts.NewCartID()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cart.CookieName,
		Value:    created,
		Path:     "/",
		MaxAge:   int(cartCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return created, nil
}

func (h handlers) handleGetCart(w http.ResponseWriter, r *http.Request) {
	current, err := h.carts.Get(r.Context(), cartID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(current))
}

func (h handlers) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := h.ensureCartID(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.carts.Add(r.Context(), id, req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(updated))
}

func (h handlers) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := cartID(r)
	if id == "" {
		h.writeJSON(w, http.StatusOK, newCartView(cart.Cart{}))
		return
	}
	updated, err := h.carts.UpdateQuantity(r.Context(), id, r.PathValue("productID"), req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(updated))
}

func (h handlers) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id := cartID(r)
	if id == "" {
		h.writeJSON(w, http.StatusOK, newCartView(cart.Cart{}))
		return
	}
	updated, err := h.carts.Remove(r.Context(), id, r.PathValue("productID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCartView(updated))
}

func (h handlers) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if id := cartID(r); id != "" {
		if err := h.carts.Clear(r.Context(), id); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
