package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultLocales(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff([]string{"en-US", "pt-BR"}, Default().Locales()); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: "en-US"},
		{header: "pt-BR,pt;q=0.9", want: "pt-BR"},
		{header: "pt", want: "pt-BR"},
		{header: "fr-FR", want: "en-US"},
		{header: "not a header;;", want: "en-US"},
	}
	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			t.Parallel()
			if got := Default().Match(tc.header); got != tc.want {
				t.Fatalf("Match(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		locale string
		code   string
		data   map[string]string
		want   string
	}{
		{name: "template data", locale: "en-US", code: "CONTACT_RATE_LIMITED", data: map[string]string{"Minutes": "4"},
			want: "Please wait 4 minutes before submitting another message."},
		{name: "translated", locale: "pt-BR", code: "CART_EMPTY", want: "Informe os itens para comprar"},
		{name: "unknown locale", locale: "de-DE", code: "CART_EMPTY", want: "Please provide items to purchase"},
		{name: "unknown code", locale: "en-US", code: "NOPE", want: "NOPE"},
		{name: "conditional without data", locale: "en-US", code: "CHECKOUT_PAYMENT_FAILED", want: "Failed to create checkout session"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Default().Error(tc.locale, tc.code, tc.data); got != tc.want {
				t.Fatalf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoadRejectsBrokenCatalogs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files fstest.MapFS
	}{
		{name: "no base", files: fstest.MapFS{
			"locales/pt-BR.yaml": {Data: []byte("locale: pt-BR\nerrors:\n  A: a\n")},
		}},
		{name: "name mismatch", files: fstest.MapFS{
			"locales/en-US.yaml": {Data: []byte("locale: pt-BR\nerrors:\n  A: a\n")},
		}},
		{name: "bad template", files: fstest.MapFS{
			"locales/en-US.yaml": {Data: []byte("locale: en-US\nerrors:\n  A: \"{{ if .X }}\"\n")},
		}},
		{name: "missing key", files: fstest.MapFS{
			"locales/en-US.yaml": {Data: []byte("locale: en-US\nerrors:\n  A: a\n  B: b\n")},
			"locales/pt-BR.yaml": {Data: []byte("locale: pt-BR\nerrors:\n  A: a\n")},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(tc.files); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
}
