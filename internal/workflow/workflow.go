// Package workflow orchestrates one form-submission email run: validate
// the workflow settings, resolve the tenant's SMTP profile, compose and
// send the notification email, and optionally send a thank-you copy back
// to the submitter.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formkit-labs/domainmail/internal/compose"
	"github.com/formkit-labs/domainmail/internal/config"
	"github.com/formkit-labs/domainmail/internal/email"
	"github.com/formkit-labs/domainmail/internal/mailer"
	"github.com/formkit-labs/domainmail/internal/submission"
	"github.com/formkit-labs/domainmail/internal/token"
)

// confirmationSubject is the fixed subject of the thank-you email.
const confirmationSubject = "Thank you for your submission"

// Status is the caller-facing outcome of one execution. Hosts only need
// to know whether the run succeeded; Result.Reason carries the detail for
// those that want it.
type Status int

const (
	// StatusCompleted means every attempted send succeeded.
	StatusCompleted Status = iota
	// StatusFailed means validation or a send failed; remaining steps
	// were skipped.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "failed"
}

// Result reports one execution. Status is the contract; Reason is
// supplementary diagnostics, empty on success.
type Result struct {
	Status Status
	Reason string
}

// Settings is the per-form workflow configuration, constructed once from
// the persisted form definition and reused across submissions.
type Settings struct {
	Recipient           string
	Subject             string
	CustomMessage       string
	ShowAllFields       bool
	SendCopyToSubmitter bool
	SubmitterEmailField string
}

// Validate checks the required settings, returning one descriptive error
// per gap. Execution must not be attempted while the list is non-empty.
func (s Settings) Validate() []error {
	var errs []error
	if s.Recipient == "" {
		errs = append(errs, errors.New("email address is required"))
	}
	if s.Subject == "" {
		errs = append(errs, errors.New("email subject is required"))
	}
	return errs
}

// FieldIdents maps the logical workflow settings onto the identifiers the
// host stores them under. Hosts with diverging identifier sets supply
// their own table at startup instead of a parallel implementation.
type FieldIdents struct {
	Recipient           string
	Subject             string
	CustomMessage       string
	ShowAllFields       string
	SendCopyToSubmitter string
	SubmitterEmailField string
}

// DefaultFieldIdents is the identifier table of the reference host.
var DefaultFieldIdents = FieldIdents{
	Recipient:           "email",
	Subject:             "subject",
	CustomMessage:       "customMessage",
	ShowAllFields:       "showAllFields",
	SendCopyToSubmitter: "sendCopyToSubmitter",
	SubmitterEmailField: "submitterEmailField",
}

// SettingsFromValues binds raw persisted setting values onto Settings
// using the given identifier table. ShowAllFields is on by default:
// checkbox values are "1" when ticked, and an absent value keeps the
// historical include-everything behavior.
func SettingsFromValues(idents FieldIdents, values map[string]string) Settings {
	showAll := values[idents.ShowAllFields]
	return Settings{
		Recipient:           values[idents.Recipient],
		Subject:             values[idents.Subject],
		CustomMessage:       values[idents.CustomMessage],
		ShowAllFields:       showAll == "" || showAll == "1",
		SendCopyToSubmitter: values[idents.SendCopyToSubmitter] == "1",
		SubmitterEmailField: values[idents.SubmitterEmailField],
	}
}

// state tracks where the run is in its send sequence, for logging.
type state int

const (
	stateIdle state = iota
	stateSendingNotification
	stateSendingConfirmation
)

func (s state) String() string {
	switch s {
	case stateSendingNotification:
		return "sending_notification"
	case stateSendingConfirmation:
		return "sending_confirmation"
	default:
		return "idle"
	}
}

// Runner executes the workflow against a resolved tenant domain.
type Runner struct {
	cfg    *config.Config
	mailer mailer.Mailer

	// now is the clock used for the submission timestamp, overridable
	// in tests.
	now func() time.Time
}

// New creates a Runner delivering through the given backend.
func New(cfg *config.Config, m mailer.Mailer) *Runner {
	return &Runner{cfg: cfg, mailer: m, now: time.Now}
}

// Execute runs one submission through the workflow. The domain key is
// passed in explicitly by the caller; nothing is read from ambient
// request state. Any failure aborts the remaining steps: a failed
// notification send skips the confirmation entirely. Full diagnostics
// are logged here; the returned Result collapses them into a status and
// a reason string.
func (r *Runner) Execute(ctx context.Context, domainKey string, settings Settings, rec submission.Record) (res Result) {
	runID := uuid.NewString()
	log := slog.With("run_id", runID, "domain", domainKey, "form", rec.FormName())

	// Composition and delivery run over host-supplied data; a panic
	// anywhere below collapses to a Failed status like any other
	// orchestration failure.
	defer func() {
		if p := recover(); p != nil {
			log.Error("workflow panicked", "panic", p)
			res = Result{Status: StatusFailed, Reason: fmt.Sprintf("panic: %v", p)}
		}
	}()

	if errs := settings.Validate(); len(errs) > 0 {
		log.Error("invalid workflow settings", "errors", errors.Join(errs...))
		return Result{Status: StatusFailed, Reason: fmt.Sprintf("invalid settings: %v", errors.Join(errs...))}
	}

	now := r.now()
	profile := r.cfg.Resolve(domainKey)
	st := stateIdle

	if settings.Recipient != "" {
		st = stateSendingNotification
		log.Debug("state transition", "state", st.String())

		msg := &email.Message{
			To:       settings.Recipient,
			Subject:  token.Replace(settings.Subject, rec, now),
			HTMLBody: compose.Notification(rec, now, settings.CustomMessage, settings.ShowAllFields),
			RunID:    runID,
		}

		if err := r.send(ctx, profile, msg); err != nil {
			log.Error("notification send failed",
				"state", st.String(),
				"to", settings.Recipient,
				"backend", r.mailer.Name(),
				"error", err,
			)
			return Result{Status: StatusFailed, Reason: fmt.Sprintf("notification send: %v", err)}
		}
		log.Info("notification sent", "to", settings.Recipient, "backend", r.mailer.Name())
	}

	if settings.SendCopyToSubmitter {
		submitter := SubmitterEmail(rec, settings.SubmitterEmailField)
		if submitter == "" {
			log.Warn("submitter copy requested but no submitter address found",
				"field", settings.SubmitterEmailField)
		} else {
			st = stateSendingConfirmation
			log.Debug("state transition", "state", st.String())

			msg := &email.Message{
				To:       submitter,
				Subject:  confirmationSubject,
				HTMLBody: compose.Confirmation(rec),
				RunID:    runID,
			}

			if err := r.send(ctx, profile, msg); err != nil {
				log.Error("confirmation send failed",
					"state", st.String(),
					"to", submitter,
					"backend", r.mailer.Name(),
					"error", err,
				)
				return Result{Status: StatusFailed, Reason: fmt.Sprintf("confirmation send: %v", err)}
			}
			log.Info("confirmation sent", "to", submitter, "backend", r.mailer.Name())
		}
	}

	return Result{Status: StatusCompleted}
}

// send delivers one message with the configured per-send timeout, so one
// slow SMTP server cannot hold the submission indefinitely.
func (r *Runner) send(ctx context.Context, profile email.Profile, msg *email.Message) error {
	timeout := time.Duration(r.cfg.SendTimeoutSeconds) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.mailer.Send(ctx, profile, msg)
}

// SubmitterEmail extracts the submitter's address from the record entry
// whose key matches the configured field identifier, case-insensitively.
// Returns the empty string when the field is unset or unmatched.
func SubmitterEmail(rec submission.Record, fieldKey string) string {
	if fieldKey == "" {
		return ""
	}
	for _, e := range rec.Entries() {
		if strings.EqualFold(e.Key, fieldKey) {
			return strings.TrimSpace(e.Value.Flatten())
		}
	}
	return ""
}
