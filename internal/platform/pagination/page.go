// Package pagination normalizes page sizes and encodes keyset page tokens.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

const tokenSeparator = "\x1f"

// EncodeToken packs the sort keys of the last row on a page into an opaque
// token.
func EncodeToken(keys ...string) string {
	if len(keys) == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(keys, tokenSeparator)))
}

// DecodeToken unpacks a token produced by EncodeToken. An empty token yields
// no keys. want is the number of keys the caller expects.
func DecodeToken(token string, want int) ([]string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid page token: %w", err)
	}
	keys := strings.Split(string(raw), tokenSeparator)
	if len(keys) != want {
		return nil, fmt.Errorf("invalid page token: got %d keys, want %d", len(keys), want)
	}
	return keys, nil
}
