// Package stdout implements a Mailer that prints messages to standard
// output instead of delivering them, for development and dry runs.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/formkit-labs/domainmail/internal/email"
)

// Mailer prints composed messages to stdout in a human-readable format.
type Mailer struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Mailer that writes to os.Stdout.
func New() *Mailer {
	return &Mailer{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Mailer that writes to the given
// writer. This is useful for testing.
func NewWithWriter(w io.Writer) *Mailer {
	return &Mailer{writer: w}
}

// Send prints the message to stdout in a readable format.
// It always returns nil (success).
func (m *Mailer) Send(_ context.Context, profile email.Profile, msg *email.Message) error {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("From: %s\n", profile.From))
	b.WriteString(fmt.Sprintf("To: %s\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	if msg.RunID != "" {
		b.WriteString(fmt.Sprintf("Run-ID: %s\n", msg.RunID))
	}
	b.WriteString("Body:\n")

	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}
	b.WriteString(body + "\n")

	b.WriteString("========================================\n")

	fmt.Fprint(m.writer, b.String())

	return nil
}

// Name returns the backend name.
func (m *Mailer) Name() string {
	return "stdout"
}
