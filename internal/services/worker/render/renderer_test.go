package render

import (
	"strings"
	"testing"
)

func TestRenderEscapesAndBreaksLines(t *testing.T) {
	t.Parallel()

	out := Render(NewLocalizer("en"), Input{
		Name:    "Ana <script>",
		Email:   "ana@example.com",
		Message: "Line one\nLine <b>two</b>",
	})

	if out.Subject != "New Contact Form Message from Ana <script>" {
		t.Fatalf("subject = %q", out.Subject)
	}
	for _, want := range []string{
		"<h2>New Contact Form Submission</h2>",
		"<strong>From:</strong> Ana &lt;script&gt;",
		"<strong>Email:</strong> ana@example.com",
		"<p>Line one<br>Line &lt;b&gt;two&lt;/b&gt;</p>",
	} {
		if !strings.Contains(out.HTMLBody, want) {
			t.Fatalf("html body missing %q:\n%s", want, out.HTMLBody)
		}
	}
	if strings.Contains(out.HTMLBody, "<script>") {
		t.Fatal("html body contains unescaped input")
	}
	if !strings.Contains(out.TextBody, "Line one\nLine <b>two</b>") {
		t.Fatalf("text body = %q", out.TextBody)
	}
}

func TestRenderLocales(t *testing.T) {
	t.Parallel()

	tests := []struct {
		locale string
		want   string
	}{
		{locale: "en-US", want: "New Contact Form Message from Bo"},
		{locale: "pt-BR", want: "Nova mensagem do formulário de contato de Bo"},
		{locale: "pt", want: "Nova mensagem do formulário de contato de Bo"},
		{locale: "not a locale", want: "New Contact Form Message from Bo"},
		{locale: "fr", want: "New Contact Form Message from Bo"},
		{locale: "de-DE", want: "New Contact Form Message from Bo"},
		{locale: "", want: "New Contact Form Message from Bo"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.locale, func(t *testing.T) {
			t.Parallel()
			out := Render(NewLocalizer(tc.locale), Input{Name: "Bo", Email: "bo@example.com", Message: "Hi"})
			if out.Subject != tc.want {
				t.Fatalf("subject = %q, want %q", out.Subject, tc.want)
			}
		})
	}

	if out := Render(nil, Input{Name: "Bo"}); out.Subject != "New Contact Form Message from Bo" {
		t.Fatalf("nil localizer subject = %q", out.Subject)
	}
}
