package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
)

var testSecret = []byte(strings.Repeat("k", MinSecretLength))

func newTestSessions(t *testing.T, now time.Time) *Sessions {
	t.Helper()
	sessions, err := NewSessions(Config{Secret: testSecret, Issuer: "shop", TTL: time.Hour})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	sessions.now = func() time.Time { return now }
	return sessions
}

func TestNewSessionsRejectsShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewSessions(Config{Secret: []byte("short")}); err == nil {
		t.Fatal("expected short secret error")
	}
}

func TestNewSessionsDefaults(t *testing.T) {
	t.Parallel()

	sessions, err := NewSessions(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	if sessions.issuer != DefaultIssuer || sessions.ttl != DefaultTTL {
		t.Fatalf("defaults = %q %v", sessions.issuer, sessions.ttl)
	}
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sessions := newTestSessions(t, now)
	token, expires, err := sessions.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires = %v", expires)
	}
	userID, err := sessions.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("user id = %q", userID)
	}
}

func TestVerifyRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sessions := newTestSessions(t, now)
	token, _, err := sessions.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other, err := NewSessions(Config{Secret: []byte(strings.Repeat("x", MinSecretLength)), Issuer: "shop"})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	other.now = sessions.now
	otherIssuer, err := NewSessions(Config{Secret: testSecret, Issuer: "elsewhere"})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	otherIssuer.now = sessions.now
	expired := newTestSessions(t, now.Add(2*time.Hour))

	tests := []struct {
		name     string
		sessions *Sessions
		token    string
	}{
		{name: "empty", sessions: sessions, token: " "},
		{name: "garbage", sessions: sessions, token: "not-a-jwt"},
		{name: "wrong secret", sessions: other, token: token},
		{name: "wrong issuer", sessions: otherIssuer, token: token},
		{name: "expired", sessions: expired, token: token},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.sessions.Verify(tc.token)
			if apperrors.CodeOf(err) != apperrors.CodeUnauthenticated {
				t.Fatalf("verify err = %v, want unauthenticated", err)
			}
		})
	}
}

func TestSetAndClearCookie(t *testing.T) {
	t.Parallel()

	sessions := newTestSessions(t, time.Now())
	rec := httptest.NewRecorder()
	if err := sessions.SetCookie(rec, "user-1"); err != nil {
		t.Fatalf("set cookie: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly || cookies[0].Value == "" {
		t.Fatalf("cookies = %+v", cookies)
	}

	rec = httptest.NewRecorder()
	sessions.ClearCookie(rec)
	cookies = rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("cleared cookies = %+v", cookies)
	}
}

type fakeRoles map[string]bool

func (f fakeRoles) IsAdmin(_ context.Context, userID string) (bool, error) {
	admin, ok := f[userID]
	if !ok {
		return false, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return admin, nil
}

type failingRoles struct{}

func (failingRoles) IsAdmin(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}

func TestMiddlewareAndGates(t *testing.T) {
	t.Parallel()

	sessions := newTestSessions(t, time.Now())
	roles := fakeRoles{"admin-1": true, "user-1": false}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", requestctx.UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	userRoute := sessions.Middleware(nil)(RequireUser(ok))
	adminRoute := sessions.Middleware(nil)(RequireAdmin(roles)(ok))
	brokenAdminRoute := sessions.Middleware(nil)(RequireAdmin(failingRoles{})(ok))

	tokenFor := func(userID string) string {
		token, _, err := sessions.Issue(userID)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return token
	}

	tests := []struct {
		name    string
		handler http.Handler
		token   string
		want    int
	}{
		{name: "user route anonymous", handler: userRoute, want: http.StatusUnauthorized},
		{name: "user route bad cookie", handler: userRoute, token: "bogus", want: http.StatusUnauthorized},
		{name: "user route signed in", handler: userRoute, token: tokenFor("user-1"), want: http.StatusNoContent},
		{name: "admin route anonymous", handler: adminRoute, want: http.StatusUnauthorized},
		{name: "admin route non admin", handler: adminRoute, token: tokenFor("user-1"), want: http.StatusForbidden},
		{name: "admin route admin", handler: adminRoute, token: tokenFor("admin-1"), want: http.StatusNoContent},
		{name: "admin route deleted user", handler: adminRoute, token: tokenFor("gone"), want: http.StatusUnauthorized},
		{name: "admin route lookup failure", handler: brokenAdminRoute, token: tokenFor("admin-1"), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tc.token})
			}
			rec := httptest.NewRecorder()
			tc.handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
