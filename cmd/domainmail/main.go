// Package main is the entry point for the domainmail dispatcher CLI.
// It runs one form submission through the email workflow: resolve the
// tenant's SMTP profile, compose the notification, send, and optionally
// send a thank-you copy to the submitter.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/formkit-labs/domainmail/internal/config"
	"github.com/formkit-labs/domainmail/internal/domain"
	"github.com/formkit-labs/domainmail/internal/mailer"
	"github.com/formkit-labs/domainmail/internal/mailer/ses"
	"github.com/formkit-labs/domainmail/internal/mailer/smtp"
	"github.com/formkit-labs/domainmail/internal/mailer/stdout"
	"github.com/formkit-labs/domainmail/internal/submission"
	"github.com/formkit-labs/domainmail/internal/workflow"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	domainFlag := flag.String("domain", "", "host name of the tenant site that triggered the submission")
	submissionPath := flag.String("submission", "", "path to the submission JSON file")
	recipient := flag.String("to", "", "notification recipient address")
	subject := flag.String("subject", "", "notification subject template")
	customMessage := flag.String("custom-message", "", "custom message template shown above the field table")
	showAllFields := flag.Bool("show-all-fields", true, "include all form fields in the notification")
	sendCopy := flag.Bool("send-copy", false, "send a thank-you copy to the submitter")
	submitterField := flag.String("submitter-field", "", "field identifier holding the submitter's email address")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	settings := workflow.Settings{
		Recipient:           *recipient,
		Subject:             *subject,
		CustomMessage:       *customMessage,
		ShowAllFields:       *showAllFields,
		SendCopyToSubmitter: *sendCopy,
		SubmitterEmailField: *submitterField,
	}
	if errs := settings.Validate(); len(errs) > 0 {
		for _, err := range errs {
			slog.Error("invalid workflow settings", "error", err)
		}
		os.Exit(1)
	}

	rec, err := loadSubmission(*submissionPath)
	if err != nil {
		slog.Error("failed to load submission", "error", err)
		os.Exit(1)
	}

	domainKey := domain.Normalize(*domainFlag)

	// Select email delivery backend
	m := selectMailer(cfg)

	slog.Info("starting domainmail run",
		"domain", domainKey,
		"form", rec.FormName(),
		"backend", m.Name(),
		"send_copy", settings.SendCopyToSubmitter,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, cancelling run", "signal", sig)
		cancel()
	}()

	res := workflow.New(cfg, m).Execute(ctx, domainKey, settings, rec)
	if res.Status != workflow.StatusCompleted {
		slog.Error("workflow failed", "reason", res.Reason)
		os.Exit(1)
	}

	slog.Info("workflow completed")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectMailer chooses the delivery backend based on configuration.
// An explicit provider key takes precedence; otherwise SMTP is used when
// any SMTP tier is configured, then SES, then stdout as the dry-run
// fallback.
func selectMailer(cfg *config.Config) mailer.Mailer {
	switch cfg.Provider {
	case "smtp":
		return smtp.New(cfg.TLS.CAFile, cfg.TLS.InsecureSkipVerify)

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("SES backend selected but ses.region is required")
			os.Exit(1)
		}
		m, err := ses.New(context.Background(), ses.Config{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		})
		if err != nil {
			slog.Error("failed to create SES backend", "error", err)
			os.Exit(1)
		}
		return m

	case "stdout":
		return stdout.New()

	case "":
		if cfg.SMTPConfigured() {
			return smtp.New(cfg.TLS.CAFile, cfg.TLS.InsecureSkipVerify)
		}
		if cfg.SESConfigured() {
			m, err := ses.New(context.Background(), ses.Config{
				Region:          cfg.SES.Region,
				AccessKeyID:     cfg.SES.AccessKeyID,
				SecretAccessKey: cfg.SES.SecretAccessKey,
			})
			if err != nil {
				slog.Error("failed to create SES backend", "error", err)
				os.Exit(1)
			}
			return m
		}
		slog.Info("no delivery backend configured, using stdout")
		return stdout.New()

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(1)
		return nil
	}
}

// submissionFile is the on-disk JSON shape of one form submission.
type submissionFile struct {
	FormName string `json:"form_name"`
	Fields   []struct {
		ID      string `json:"id"`
		Alias   string `json:"alias"`
		Caption string `json:"caption"`
	} `json:"fields"`
	Values []struct {
		Key    string   `json:"key"`
		Value  string   `json:"value"`
		Values []string `json:"values"`
	} `json:"values"`
}

// loadSubmission reads a submission JSON file into a record. An entry
// with a "values" list becomes a multi-value answer.
func loadSubmission(path string) (submission.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("submission file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read submission file: %w", err)
	}

	var sf submissionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse submission file: %w", err)
	}

	fields := make([]submission.Field, 0, len(sf.Fields))
	for _, f := range sf.Fields {
		fields = append(fields, submission.Field{ID: f.ID, Alias: f.Alias, Caption: f.Caption})
	}

	entries := make([]submission.Entry, 0, len(sf.Values))
	for _, v := range sf.Values {
		val := submission.StringValue(v.Value)
		if len(v.Values) > 0 {
			val = submission.ListValue(v.Values...)
		}
		entries = append(entries, submission.Entry{Key: v.Key, Value: val})
	}

	return submission.NewMemoryRecord(sf.FormName, fields, entries), nil
}
