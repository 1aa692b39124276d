package httpapi

import (
	"net/http"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/account"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (h handlers) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.accounts.Signup(r.Context(), account.SignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.startSession(w, r, http.StatusCreated, user)
}

func (h handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.startSession(w, r, http.StatusOK, user)
}

func (h handlers) startSession(w http.ResponseWriter, r *http.Request, status int, user storage.User) {
	if err := h.sessions.SetCookie(w, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, status, newUserView(user))
}

func (h handlers) handleLogout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Get(r.Context(), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newUserView(user))
}

func (h handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, newUserView(user))
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h handlers) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.accounts.SetRole(r.Context(), r.PathValue("id"), req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newUserView(user))
}
