package httpapi

import (
	"io"
	"net/http"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/checkout"
	"go.uber.org/zap"
)

// SignatureHeader carries the payment provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// maxWebhookBytes bounds a webhook payload.
const maxWebhookBytes = 64 << 10

type checkoutRequest struct {
	Items []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// handleCheckout creates a hosted session. An empty body or item list falls
// back to the caller's cart.
func (h handlers) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	items := make([]checkout.Item, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, checkout.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	userID := requestctx.UserIDFromContext(r.Context())
	email := ""
	if userID != "" {
		user, err := h.accounts.Get(r.Context(), userID)
		if err != nil {
			h.logger.Warn("load checkout customer", zap.String("user_id", userID), zap.Error(err))
		} else {
			email = user.Email
		}
	}

	result, err := h.checkout.Start(r.Context(), checkout.Request{
		Items:         items,
		CartID:        cartID(r),
		UserID:        userID,
		CustomerEmail: email,
		Origin:        httpx.Origin(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url,omitempty"`
		OrderID   string `json:"orderId"`
	}{SessionID: result.Session.ID, URL: result.Session.URL, OrderID: result.Order.ID})
}

func (h handlers) handleCheckoutWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.writeError(w, r, apperrors.Wrap(apperrors.CodeCheckoutWebhookInvalid, "read webhook body", err))
		return
	}
	if err := h.checkout.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h handlers) handleCheckoutSession(w http.ResponseWriter, r *http.Request) {
	record, err := h.checkout.SessionOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newOrderView(record))
}
