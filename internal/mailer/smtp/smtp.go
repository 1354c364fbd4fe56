// Package smtp implements a Mailer that transmits messages over SMTP
// using the credentials of the resolved per-domain profile.
package smtp

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/formkit-labs/domainmail/internal/email"
	"github.com/formkit-labs/domainmail/internal/mailer"
	clienttls "github.com/formkit-labs/domainmail/internal/tls"
)

// Mailer dials the profile's SMTP server per send. Submissions are
// sporadic, so no connection is kept open between sends.
type Mailer struct {
	caFile             string
	insecureSkipVerify bool
}

// New creates an SMTP Mailer. caFile optionally points at a PEM bundle
// replacing the system roots; insecureSkipVerify disables certificate
// verification for lab servers.
func New(caFile string, insecureSkipVerify bool) *Mailer {
	return &Mailer{caFile: caFile, insecureSkipVerify: insecureSkipVerify}
}

// Send transmits the message to profile.Host:profile.Port. When the
// message carries a text body the mail is multipart/alternative, letting
// clients choose between the plain-text and HTML representations;
// otherwise it is HTML-only. Failures are not retried.
func (m *Mailer) Send(ctx context.Context, profile email.Profile, msg *email.Message) error {
	if profile.Host == "" {
		return mailer.ErrNoHost
	}

	mm := mail.NewMsg()
	if err := mm.From(profile.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", profile.From, err)
	}
	if err := mm.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}
	mm.Subject(msg.Subject)
	if msg.RunID != "" {
		mm.SetGenHeader("X-Correlation-ID", msg.RunID)
	}

	if msg.TextBody != "" {
		mm.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		mm.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	} else {
		mm.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	}

	opts := []mail.Option{
		mail.WithPort(profile.Port),
	}

	if profile.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(profile.Username),
			mail.WithPassword(profile.Password),
		)
	}

	switch profile.Security {
	case email.SecurityStartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case email.SecuritySSLOnConnect:
		opts = append(opts, mail.WithSSL())
	case email.SecurityNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	tlsCfg, err := clienttls.ClientConfig(profile.Host, m.caFile, m.insecureSkipVerify)
	if err != nil {
		return fmt.Errorf("failed to build TLS config: %w", err)
	}
	if tlsCfg != nil {
		opts = append(opts, mail.WithTLSConfig(tlsCfg))
	}

	client, err := mail.NewClient(profile.Host, opts...)
	if err != nil {
		return &mailer.DeliveryError{Backend: m.Name(), Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return &mailer.DeliveryError{Backend: m.Name(), Err: err}
	}

	return nil
}

// Name returns the backend name.
func (m *Mailer) Name() string {
	return "smtp"
}
