package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/formkit-labs/domainmail/internal/domain"
	"github.com/formkit-labs/domainmail/internal/email"
)

// clearEnv blanks every env var the loader reads so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"PROVIDER",
		"SMTP_FROM", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
		"SMTP_SECURE_SOCKET_OPTIONS",
		"SES_REGION", "SES_ACCESS_KEY_ID", "SES_SECRET_ACCESS_KEY",
		"TLS_CA_FILE", "TLS_INSECURE_SKIP_VERIFY",
		"SEND_TIMEOUT_SECONDS", "LOG_LEVEL",
	}
	for _, env := range envVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != "" {
		t.Errorf("Provider: got %q, want empty", cfg.Provider)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.SendTimeoutSeconds != 30 {
		t.Errorf("SendTimeoutSeconds: got %d, want 30", cfg.SendTimeoutSeconds)
	}
	if cfg.SMTP.Legacy.Host != "" {
		t.Errorf("SMTP.Legacy.Host: got %q, want empty", cfg.SMTP.Legacy.Host)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROVIDER", "SES")
	t.Setenv("SMTP_FROM", "noreply@legacy.test")
	t.Setenv("SMTP_HOST", "legacy.mail.test")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USERNAME", "legacy-user")
	t.Setenv("SMTP_PASSWORD", "legacy-pass")
	t.Setenv("SMTP_SECURE_SOCKET_OPTIONS", "StartTls")
	t.Setenv("SES_REGION", "eu-west-2")
	t.Setenv("TLS_INSECURE_SKIP_VERIFY", "true")
	t.Setenv("SEND_TIMEOUT_SECONDS", "5")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != "ses" {
		t.Errorf("Provider: got %q, want %q", cfg.Provider, "ses")
	}
	if cfg.SMTP.Legacy.From != "noreply@legacy.test" {
		t.Errorf("Legacy.From: got %q, want %q", cfg.SMTP.Legacy.From, "noreply@legacy.test")
	}
	if cfg.SMTP.Legacy.Host != "legacy.mail.test" {
		t.Errorf("Legacy.Host: got %q, want %q", cfg.SMTP.Legacy.Host, "legacy.mail.test")
	}
	if cfg.SMTP.Legacy.Port != 2525 {
		t.Errorf("Legacy.Port: got %d, want 2525", cfg.SMTP.Legacy.Port)
	}
	if cfg.SES.Region != "eu-west-2" {
		t.Errorf("SES.Region: got %q, want %q", cfg.SES.Region, "eu-west-2")
	}
	if !cfg.TLS.InsecureSkipVerify {
		t.Error("TLS.InsecureSkipVerify: got false, want true")
	}
	if cfg.SendTimeoutSeconds != 5 {
		t.Errorf("SendTimeoutSeconds: got %d, want 5", cfg.SendTimeoutSeconds)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromFile_DomainSections(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
provider: smtp
smtp:
  example.com:
    from: forms@example.com
    host: smtp.example.com
    port: 587
    username: mailer
    password: s3cret
    secure_socket_options: StartTls
  default:
    from: forms@fallback.test
    host: smtp.fallback.test
  host: legacy.mail.test
  from: noreply@legacy.test
recaptcha:
  example.com:
    site_key: site-abc
    secret_key: secret-abc
  default:
    site_key: site-default
    secret_key: secret-default
logging:
  level: warn
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sec, ok := cfg.SMTP.Domains["example.com"]
	if !ok {
		t.Fatal("smtp.example.com section missing")
	}
	if sec.Host != "smtp.example.com" {
		t.Errorf("Host: got %q, want %q", sec.Host, "smtp.example.com")
	}
	if sec.Port != 587 {
		t.Errorf("Port: got %d, want 587", sec.Port)
	}
	if sec.SecureSocketOptions != "StartTls" {
		t.Errorf("SecureSocketOptions: got %q, want %q", sec.SecureSocketOptions, "StartTls")
	}
	if _, ok := cfg.SMTP.Domains["default"]; !ok {
		t.Error("smtp.default section missing")
	}
	if cfg.SMTP.Legacy.Host != "legacy.mail.test" {
		t.Errorf("Legacy.Host: got %q, want %q", cfg.SMTP.Legacy.Host, "legacy.mail.test")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestResolve_DomainTier(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
smtp:
  example.com:
    from: forms@example.com
    host: smtp.example.com
    port: 587
    username: mailer
    password: s3cret
  default:
    host: smtp.fallback.test
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := cfg.Resolve("example.com")
	want := email.Profile{
		From:     "forms@example.com",
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer",
		Password: "s3cret",
		Security: email.SecurityAuto,
	}
	if got != want {
		t.Errorf("Resolve(example.com): got %+v, want %+v", got, want)
	}
}

func TestResolve_NormalizedHost(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
smtp:
  example.com:
    host: smtp.example.com
    port: 587
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The www-prefixed request host normalizes onto the bare section key.
	got := cfg.Resolve(domain.Normalize("www.example.com"))
	if got.Host != "smtp.example.com" || got.Port != 587 {
		t.Errorf("got %+v, want host smtp.example.com port 587", got)
	}
}

func TestResolve_DefaultTier(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
smtp:
  example.com:
    host: smtp.example.com
  default:
    from: forms@fallback.test
    host: smtp.fallback.test
    secure_socket_options: ssl
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := cfg.Resolve("other.org")
	if got.Host != "smtp.fallback.test" {
		t.Errorf("Host: got %q, want %q", got.Host, "smtp.fallback.test")
	}
	if got.Security != email.SecuritySSLOnConnect {
		t.Errorf("Security: got %v, want %v", got.Security, email.SecuritySSLOnConnect)
	}
	if got.Port != 587 {
		t.Errorf("Port: got %d, want 587", got.Port)
	}
}

func TestResolve_LegacyTier(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMTP_HOST", "legacy.mail.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := cfg.Resolve("anything.test")
	if got.Host != "legacy.mail.test" {
		t.Errorf("Host: got %q, want %q", got.Host, "legacy.mail.test")
	}
	if got.Port != 587 {
		t.Errorf("Port: got %d, want 587 (default when unset)", got.Port)
	}
}

func TestResolve_NoTiers(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := cfg.Resolve("unconfigured.test")
	if got.Host != "" || got.From != "" || got.Username != "" || got.Password != "" {
		t.Errorf("expected blank profile, got %+v", got)
	}
	if got.Port != 587 {
		t.Errorf("Port: got %d, want 587", got.Port)
	}
}

func TestResolve_UnparseablePort(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
smtp:
  example.com:
    host: smtp.example.com
    port: not-a-port
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.Resolve("example.com").Port; got != 587 {
		t.Errorf("Port: got %d, want 587", got)
	}
}

func TestSMTPConfigured(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SMTPConfigured() {
		t.Error("empty config reports SMTP configured")
	}

	t.Setenv("SMTP_HOST", "legacy.mail.test")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.SMTPConfigured() {
		t.Error("legacy host not detected")
	}

	path := writeConfigFile(t, `
smtp:
  example.com:
    host: smtp.example.com
`)
	t.Setenv("SMTP_HOST", "")
	cfg, err = LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.SMTPConfigured() {
		t.Error("domain section host not detected")
	}
}

func TestRecaptchaFor(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
recaptcha:
  example.com:
    site_key: site-abc
    secret_key: secret-abc
  default:
    site_key: site-default
    secret_key: secret-default
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.RecaptchaFor("example.com").SiteKey; got != "site-abc" {
		t.Errorf("SiteKey: got %q, want %q", got, "site-abc")
	}
	if got := cfg.RecaptchaFor("other.org").SiteKey; got != "site-default" {
		t.Errorf("SiteKey fallback: got %q, want %q", got, "site-default")
	}

	empty, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := empty.RecaptchaFor("example.com"); got != (RecaptchaKeys{}) {
		t.Errorf("expected zero keys, got %+v", got)
	}
}
