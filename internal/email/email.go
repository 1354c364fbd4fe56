// Package email defines the outbound email data model shared by the
// configuration resolver, the composers and the delivery backends.
package email

import "strings"

// DefaultPort is the SMTP submission port used when a profile has no
// usable port value.
const DefaultPort = 587

// TransportSecurity selects how the SMTP connection is secured.
type TransportSecurity int

const (
	// SecurityAuto negotiates STARTTLS opportunistically and falls back
	// to plaintext when the server does not offer it.
	SecurityAuto TransportSecurity = iota
	// SecurityStartTLS requires a successful STARTTLS upgrade.
	SecurityStartTLS
	// SecuritySSLOnConnect uses implicit TLS from the first byte.
	SecuritySSLOnConnect
	// SecurityNone disables transport encryption entirely.
	SecurityNone
)

// String returns the configuration spelling of the security mode.
func (s TransportSecurity) String() string {
	switch s {
	case SecurityStartTLS:
		return "starttls"
	case SecuritySSLOnConnect:
		return "ssl"
	case SecurityNone:
		return "none"
	default:
		return "auto"
	}
}

// ParseTransportSecurity maps a configuration value onto a security mode.
// Unknown or empty values resolve to SecurityAuto.
func ParseTransportSecurity(v string) TransportSecurity {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "starttls":
		return SecurityStartTLS
	case "ssl", "sslonconnect":
		return SecuritySSLOnConnect
	case "none":
		return SecurityNone
	default:
		return SecurityAuto
	}
}

// Profile is a resolved SMTP credential set for one tenant domain.
// It is constructed per send by the configuration resolver and never
// mutated afterwards.
type Profile struct {
	From     string
	Host     string
	Port     int
	Username string
	Password string
	Security TransportSecurity
}

// Message is a composed outbound email. TextBody is optional; when set,
// the delivery backend sends a multipart/alternative message so clients
// can choose between the plain-text and HTML representations.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string

	// RunID correlates the message with one workflow execution in logs.
	RunID string
}
