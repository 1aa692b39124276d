package auth

import (
	"context"
	"net/http"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"go.uber.org/zap"
)

// RoleChecker reports whether a user holds the admin role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Middleware resolves the session cookie into the request context. Requests
// with a missing or invalid cookie continue anonymously.
func (s *Sessions) Middleware(logger *zap.Logger) httpx.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := s.Verify(cookie.Value)
			if err != nil {
				logger.Debug("ignore session cookie", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithUserID(r.Context(), userID)))
		})
	}
}

// RequireUser rejects requests without a session with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestctx.UserIDFromContext(r.Context()) == "" {
			httpx.WriteError(w, r, ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin looks up the caller's role on every request. No session is
// 401 and a non-admin session is 403.
func RequireAdmin(roles RoleChecker) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := requestctx.UserIDFromContext(r.Context())
			if userID == "" {
				httpx.WriteError(w, r, ErrUnauthenticated)
				return
			}
			admin, err := roles.IsAdmin(r.Context(), userID)
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				// The account behind a still-valid token is gone.
				err = ErrUnauthenticated
			}
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			if !admin {
				httpx.WriteError(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithRole(r.Context(), "admin")))
		})
	}
}
