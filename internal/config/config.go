// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback, plus domain-tiered resolution of SMTP
// profiles and reCAPTCHA key pairs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/formkit-labs/domainmail/internal/email"
)

// defaultSendTimeoutSeconds bounds one delivery attempt.
const defaultSendTimeoutSeconds = 30

// Config holds the complete application configuration.
type Config struct {
	Provider  string                   `yaml:"provider"`
	SMTP      SMTPSettings             `yaml:"smtp"`
	Recaptcha map[string]RecaptchaKeys `yaml:"recaptcha"`
	SES       SESConfig                `yaml:"ses"`
	TLS       TLSConfig                `yaml:"tls"`
	Logging   LoggingConfig            `yaml:"logging"`
	// SendTimeoutSeconds bounds a single delivery attempt, covering
	// dial, auth and transmission.
	SendTimeoutSeconds int `yaml:"send_timeout_seconds"`
}

// ProfileSection is one SMTP configuration section as it appears in the
// store, either keyed by domain or as the legacy flat block. Unknown keys
// inside a section are ignored; missing keys keep their zero value.
type ProfileSection struct {
	From                string `yaml:"from"`
	Host                string `yaml:"host"`
	Port                Port   `yaml:"port"`
	Username            string `yaml:"username"`
	Password            string `yaml:"password"`
	SecureSocketOptions string `yaml:"secure_socket_options"`
}

// Port is a TCP port that tolerates malformed configuration values.
// Unset, unparseable or out-of-range values decode to zero; resolution
// substitutes the submission default in that case.
type Port int

// UnmarshalYAML accepts both integer and string scalars and swallows
// values that are not a valid port.
func (p *Port) UnmarshalYAML(value *yaml.Node) error {
	*p = parsePort(value.Value)
	return nil
}

func parsePort(v string) Port {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > 65535 {
		return 0
	}
	return Port(n)
}

// SMTPSettings holds the domain-keyed SMTP sections plus the legacy
// single-tenant block. In YAML both live under the same "smtp" mapping:
// mapping-valued entries are domain sections, scalar entries are the
// legacy flat keys (from, host, port, username, password).
type SMTPSettings struct {
	Domains map[string]ProfileSection
	Legacy  ProfileSection
}

// UnmarshalYAML splits the smtp mapping into domain sections and legacy
// flat keys. Unknown scalar keys are ignored.
func (s *SMTPSettings) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("smtp: expected a mapping, got kind %v", value.Kind)
	}

	s.Domains = make(map[string]ProfileSection)

	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		key := keyNode.Value

		if valNode.Kind == yaml.MappingNode {
			var sec ProfileSection
			if err := valNode.Decode(&sec); err != nil {
				return fmt.Errorf("smtp.%s: %w", key, err)
			}
			s.Domains[key] = sec
			continue
		}

		switch strings.ToLower(key) {
		case "from":
			s.Legacy.From = valNode.Value
		case "host":
			s.Legacy.Host = valNode.Value
		case "port":
			s.Legacy.Port = parsePort(valNode.Value)
		case "username":
			s.Legacy.Username = valNode.Value
		case "password":
			s.Legacy.Password = valNode.Value
		case "secure_socket_options":
			s.Legacy.SecureSocketOptions = valNode.Value
		}
	}

	return nil
}

// RecaptchaKeys is a per-domain reCAPTCHA key pair.
type RecaptchaKeys struct {
	SiteKey   string `yaml:"site_key"`
	SecretKey string `yaml:"secret_key"`
}

// SESConfig holds AWS SES delivery backend configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// TLSConfig holds client-side TLS options for the SMTP transport.
type TLSConfig struct {
	CAFile             string `yaml:"ca_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Resolve maps a tenant domain key onto an SMTP profile. Resolution tiers,
// first match wins: the section keyed by the exact domain, the section
// keyed "default", then the legacy flat block. Resolve never fails; when
// no tier matches, the returned profile is blank apart from the default
// port, and callers must treat the empty host as a configuration gap
// before attempting delivery.
func (c *Config) Resolve(domainKey string) email.Profile {
	sec, ok := c.SMTP.Domains[domainKey]
	if !ok {
		sec, ok = c.SMTP.Domains["default"]
	}
	if !ok {
		sec = c.SMTP.Legacy
	}

	port := int(sec.Port)
	if port == 0 {
		port = email.DefaultPort
	}

	return email.Profile{
		From:     sec.From,
		Host:     sec.Host,
		Port:     port,
		Username: sec.Username,
		Password: sec.Password,
		Security: email.ParseTransportSecurity(sec.SecureSocketOptions),
	}
}

// RecaptchaFor maps a tenant domain key onto its reCAPTCHA key pair,
// falling back to the "default" section. Missing both tiers yields the
// zero value.
func (c *Config) RecaptchaFor(domainKey string) RecaptchaKeys {
	if keys, ok := c.Recaptcha[domainKey]; ok {
		return keys
	}
	return c.Recaptcha["default"]
}

// SMTPConfigured returns true if any SMTP tier carries a host: a domain
// section, the default section, or the legacy flat block.
func (c *Config) SMTPConfigured() bool {
	for _, sec := range c.SMTP.Domains {
		if sec.Host != "" {
			return true
		}
	}
	return c.SMTP.Legacy.Host != ""
}

// SESConfigured returns true if the SES backend has a region set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Logging.Level = "info"
	c.SendTimeoutSeconds = defaultSendTimeoutSeconds
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values. Domain
// sections are file-only; the env surface covers the legacy flat keys
// and the global knobs.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("SMTP_FROM"); v != "" {
		c.SMTP.Legacy.From = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Legacy.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		c.SMTP.Legacy.Port = parsePort(v)
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Legacy.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Legacy.Password = v
	}
	if v := os.Getenv("SMTP_SECURE_SOCKET_OPTIONS"); v != "" {
		c.SMTP.Legacy.SecureSocketOptions = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}

	if v := os.Getenv("TLS_CA_FILE"); v != "" {
		c.TLS.CAFile = v
	}
	if v := os.Getenv("TLS_INSECURE_SKIP_VERIFY"); v != "" {
		c.TLS.InsecureSkipVerify = v == "1" || strings.EqualFold(v, "true")
	}

	if v := os.Getenv("SEND_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SendTimeoutSeconds = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
