// Package ses implements a Mailer that delivers messages via AWS SES v2.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/formkit-labs/domainmail/internal/email"
	"github.com/formkit-labs/domainmail/internal/mailer"
)

// Config holds the configuration for creating a Mailer.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Mailer sends messages via the AWS SES v2 API. The sender address comes
// from the per-domain profile, so one SES account serves every tenant.
type Mailer struct {
	client SendEmailAPI
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new SES Mailer with the given configuration.
func New(ctx context.Context, cfg Config) (*Mailer, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Mailer{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates a Mailer with a custom client, used for testing.
func NewWithClient(client SendEmailAPI) *Mailer {
	return &Mailer{client: client}
}

// Send delivers the message through the SES API. The profile supplies the
// sender address; a failed API call is not retried.
func (m *Mailer) Send(ctx context.Context, profile email.Profile, msg *email.Message) error {
	if _, err := m.client.SendEmail(ctx, buildInput(profile.From, msg)); err != nil {
		return &mailer.DeliveryError{Backend: m.Name(), Err: err}
	}
	return nil
}

// Name returns the backend name.
func (m *Mailer) Name() string {
	return "ses"
}

// buildInput creates a SES SendEmailInput carrying the HTML body and,
// when present, the plain-text alternative.
func buildInput(sender string, msg *email.Message) *sesv2.SendEmailInput {
	body := &types.Body{
		Html: &types.Content{
			Data:    aws.String(msg.HTMLBody),
			Charset: aws.String("UTF-8"),
		},
	}
	if msg.TextBody != "" {
		body.Text = &types.Content{
			Data:    aws.String(msg.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	}
}
