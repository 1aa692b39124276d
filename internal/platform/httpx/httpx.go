// Package httpx provides HTTP middleware and JSON response helpers.
package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"runtime/debug"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/i18n"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HeaderRequestID carries the correlation identifier.
const HeaderRequestID = "X-Request-ID"

// MaxJSONBodyBytes caps decoded JSON request bodies.
const MaxJSONBodyBytes = 1 << 20

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if requestID == "" {
				generated, err := id.NewID()
				if err != nil {
					generated = fmt.Sprintf("req-%d", time.Now().UnixNano())
				}
				requestID = generated
			}
			w.Header().Set(HeaderRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), requestID)))
		})
	}
}

// Locale negotiates the response locale from Accept-Language.
func Locale() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := i18n.Default().Match(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(requestctx.WithLocale(r.Context(), locale)))
		})
	}
}

// RecoverPanic converts panics into HTTP 500 responses.
func RecoverPanic(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Error("panic recovered",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", requestctx.RequestIDFromContext(r.Context())),
						zap.Any("panic", recovered),
						zap.ByteString("stack", debug.Stack()),
					)
					WriteError(w, r, fmt.Errorf("panic: %v", recovered))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestctx.RequestIDFromContext(r.Context())),
			}
			if span := trace.SpanContextFromContext(r.Context()); span.HasTraceID() {
				fields = append(fields, zap.String("trace_id", span.TraceID().String()))
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("http request", fields...)
				return
			}
			logger.Info("http request", fields...)
		})
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteJSON writes a JSON response with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// WriteError writes err as a localized JSON error. Errors outside the domain
// are reported as UNKNOWN with status 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil {
		return
	}
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	locale := ""
	if r != nil {
		locale = requestctx.LocaleFromContext(r.Context())
	}
	code, message := apperrors.Public(err, locale)
	_ = WriteJSON(w, code.HTTPStatus(), ErrorBody{Error: message, Code: string(code)})
}

// DecodeJSON reads a JSON body into target, rejecting unknown fields and
// oversized payloads.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return apperrors.New(apperrors.CodeInvalidInput, "request body is required")
	}
	body := http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "decode json body", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return apperrors.New(apperrors.CodeInvalidInput, "request body must hold a single json value")
	}
	return nil
}

// TrustedProxies lists the peers whose X-Forwarded-For header is honored.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies parses CIDR prefixes or bare addresses.
func ParseTrustedProxies(values []string) (TrustedProxies, error) {
	var proxies TrustedProxies
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(value); err == nil {
			proxies = append(proxies, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("parse trusted proxy %q: %w", value, err)
		}
		addr = addr.Unmap()
		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return proxies, nil
}

func (t TrustedProxies) contains(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range t {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the client behind any trusted proxies.
// X-Forwarded-For is read right to left and only while the hop it came
// from is trusted, so a client cannot pick its own address.
func (t TrustedProxies) ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host := remoteHost(r.RemoteAddr)
	if !t.contains(host) {
		return host
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			return host
		}
		host = hop
		if !t.contains(hop) {
			return hop
		}
	}
	return host
}

// ClientIP returns the remote host of the request, ignoring forwarding
// headers.
func ClientIP(r *http.Request) string {
	return TrustedProxies(nil).ClientIP(r)
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// Origin reconstructs the scheme and host the client used, honoring
// X-Forwarded-Proto from a fronting proxy.
func Origin(r *http.Request) string {
	if r == nil {
		return ""
	}
	if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" {
		return strings.TrimRight(origin, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
