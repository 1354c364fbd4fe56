// Package domain normalizes request host names into tenant keys used to
// select per-domain configuration.
package domain

import "strings"

// Default is the sentinel tenant key used when no host name is available.
const Default = "default"

// Normalize converts a raw host name into a tenant key: lower-cased, with a
// single leading "www." stripped. An empty host yields the Default key.
func Normalize(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return Default
	}
	return host
}
