// Package mailer defines the interface for email delivery backends.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/formkit-labs/domainmail/internal/email"
)

// ErrNoHost reports a resolved profile with no SMTP host. Profile
// resolution never fails, so this configuration gap surfaces here, at
// the edge of delivery.
var ErrNoHost = errors.New("smtp profile has no host configured")

// Mailer is the interface that email delivery backends must implement.
// Each backend transmits a composed message using the credentials of the
// resolved per-domain profile.
type Mailer interface {
	// Send delivers the message. Transport, auth and network failures
	// are reported as a *DeliveryError; sends are never retried.
	Send(ctx context.Context, profile email.Profile, msg *email.Message) error

	// Name returns the human-readable name of this backend.
	Name() string
}

// DeliveryError wraps a transport-level send failure with its cause.
type DeliveryError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Backend, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *DeliveryError) Unwrap() error { return e.Err }
