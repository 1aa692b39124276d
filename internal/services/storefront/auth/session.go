// Package auth issues session cookies and gates routes by role.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
)

// CookieName is the HTTP-only cookie that carries the session token.
const CookieName = "sf_session"

const (
	// DefaultIssuer is used when no issuer is configured.
	DefaultIssuer = "storefront"
	// DefaultTTL is the session lifetime when none is configured.
	DefaultTTL = 7 * 24 * time.Hour
	// MinSecretLength is the shortest accepted signing secret.
	MinSecretLength = 32
)

var (
	// ErrUnauthenticated is returned when a route needs a session.
	ErrUnauthenticated = apperrors.New(apperrors.CodeUnauthenticated, "authentication required")
	// ErrForbidden is returned when the session lacks the admin role.
	ErrForbidden = apperrors.New(apperrors.CodeForbidden, "admin role required")
)

// Config defines how session tokens are signed.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Sessions issues and verifies session tokens.
type Sessions struct {
	secret []byte
	issuer string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// NewSessions validates cfg and returns a session manager.
func NewSessions(cfg Config) (*Sessions, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{
		secret: append([]byte(nil), cfg.Secret...),
		issuer: issuer,
		ttl:    ttl,
		secure: cfg.Secure,
		now:    time.Now,
	}, nil
}

// Issue signs a token for userID and returns it with its expiry.
func (s *Sessions) Issue(userID string) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// Verify returns the user ID of a valid token.
func (s *Sessions) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUnauthenticated, "invalid session", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "session subject is required")
	}
	return claims.Subject, nil
}

// SetCookie issues a session for userID and writes it to w.
func (s *Sessions) SetCookie(w http.ResponseWriter, userID string) error {
	token, expires, err := s.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
