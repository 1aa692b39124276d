package httpapi

import (
	"net/http"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/contact"
)

func (h handlers) handleContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	message, err := h.contact.Submit(r.Context(), h.proxies.ClientIP(r), contact.Submission{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
	}{ID: message.ID, Success: true})
}

func (h handlers) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.contact.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]messageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, newMessageView(message))
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h handlers) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	if err := h.contact.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.contact.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
