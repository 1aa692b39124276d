package domain

import "testing"

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "ana@example.com", want: true},
		{in: "first.last+tag@shop.co.uk", want: true},
		{in: "", want: false},
		{in: "ana", want: false},
		{in: "ana@localhost", want: false},
		{in: "Ana <ana@example.com>", want: false},
		{in: "ana @example.com", want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := ValidEmail(tc.in); got != tc.want {
				t.Fatalf("ValidEmail(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	if got := NormalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("NormalizeEmail = %q, want ana@example.com", got)
	}
}
