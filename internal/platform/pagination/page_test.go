package pagination

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClampPageSize(t *testing.T) {
	t.Parallel()

	cfg := PageSizeConfig{Default: 20, Max: 100}
	tests := []struct {
		name  string
		value int
		cfg   PageSizeConfig
		want  int
	}{
		{name: "zero uses default", value: 0, cfg: cfg, want: 20},
		{name: "negative uses default", value: -3, cfg: cfg, want: 20},
		{name: "within bounds", value: 42, cfg: cfg, want: 42},
		{name: "over max", value: 500, cfg: cfg, want: 100},
		{name: "no default", value: 0, cfg: PageSizeConfig{}, want: 1},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ClampPageSize(tc.value, tc.cfg); got != tc.want {
				t.Fatalf("ClampPageSize(%d) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token := EncodeToken("Blue Mug", "abc123")
	if token == "" {
		t.Fatal("expected token")
	}
	keys, err := DecodeToken(token, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"Blue Mug", "abc123"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeToken(t *testing.T) {
	if keys, err := DecodeToken("", 2); err != nil || keys != nil {
		t.Fatalf("empty token = %v, %v; want nil, nil", keys, err)
	}
	if _, err := DecodeToken("!!not-base64!!", 2); err == nil {
		t.Fatal("expected error for malformed token")
	}
	if _, err := DecodeToken(EncodeToken("only-one"), 2); err == nil {
		t.Fatal("expected error for key count mismatch")
	}
	if EncodeToken() != "" {
		t.Fatal("expected empty token for no keys")
	}
}
