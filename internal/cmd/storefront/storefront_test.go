package storefront

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	t.Setenv("STOREFRONT_HTTP_ADDR", ":9090")
	t.Setenv("STOREFRONT_SMTP_HOST", "smtp.example.com")
	t.Setenv("STOREFRONT_SESSION_TTL", "2h")
	t.Setenv("STOREFRONT_TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")

	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/shop.db", "-mail-max-attempts", "3", "-log-format", "console"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.DBPath != "/tmp/shop.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.MailMaxAttempts != 3 {
		t.Fatalf("max attempts = %d, want 3", cfg.MailMaxAttempts)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("session ttl = %v", cfg.SessionTTL)
	}
	if cfg.Log.Format != "console" || cfg.Log.Level != "info" {
		t.Fatalf("log config = %+v", cfg.Log)
	}

	runtime := cfg.RuntimeConfig()
	if runtime.SMTP.Host != "smtp.example.com" || runtime.SMTP.Port != 587 {
		t.Fatalf("smtp = %+v", runtime.SMTP)
	}
	if len(runtime.TrustedProxies) != 2 || runtime.TrustedProxies[1] != "192.0.2.1" {
		t.Fatalf("trusted proxies = %v", runtime.TrustedProxies)
	}
}

func TestRunRejectsMissingSecrets(t *testing.T) {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if err := Run(t.Context(), cfg); err == nil {
		t.Fatal("expected missing secret error")
	}
}
