// Package tls builds the client-side TLS configuration used when dialing
// SMTP servers.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ClientConfig returns the TLS configuration for connecting to host. With
// no CA file and verification enabled it returns nil, letting the
// transport library use its defaults. A CA file replaces the system roots,
// which covers SMTP servers with private or self-signed certificates.
func ClientConfig(host, caFile string, insecureSkipVerify bool) (*tls.Config, error) {
	if caFile == "" && !insecureSkipVerify {
		return nil, nil
	}

	cfg := &tls.Config{
		ServerName:         host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecureSkipVerify,
	}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA file %s", caFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
