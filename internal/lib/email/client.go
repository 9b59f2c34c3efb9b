// Package email sends the transactional mail of the forms backend through
// Resend. Bodies are rendered from HTML templates embedded in the binary.
package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/yourconsultingltd/ycl-backend/internal/config"
)

// ErrNotConfigured is returned by every send when no API key is set.
var ErrNotConfigured = errors.New("email provider not configured")

// Sender is the part of the Resend emails service the client uses.
type Sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Client renders templates and hands them to the provider.
type Client struct {
	sender   Sender
	from     string
	operator string
	logger   *zerolog.Logger
}

// NewClient creates a Resend-backed client. Without an API key the client
// is still usable but reports Configured() == false and refuses to send.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	var sender Sender
	if cfg.Email.Configured() {
		sender = resend.NewClient(cfg.Email.ResendAPIKey).Emails
	}
	return NewClientWithSender(sender, cfg.Email, logger)
}

// NewClientWithSender creates a client on an arbitrary Sender.
func NewClientWithSender(sender Sender, cfg config.EmailConfig, logger *zerolog.Logger) *Client {
	return &Client{
		sender:   sender,
		from:     fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
		operator: cfg.OperatorAddress,
		logger:   logger,
	}
}

// Configured reports whether mail can be sent.
func (c *Client) Configured() bool {
	return c != nil && c.sender != nil
}

// OperatorAddress is where internal notifications go.
func (c *Client) OperatorAddress() string {
	return c.operator
}

// SendEmail renders templateName with data and sends it to a single recipient.
func (c *Client) SendEmail(ctx context.Context, to, subject string, templateName Template, data map[string]string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var body bytes.Buffer
	if err := Render(&body, templateName, data); err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    body.String(),
	}

	resp, err := c.sender.SendWithContext(ctx, params)
	if err != nil {
		return errors.Wrapf(err, "failed to send %s email", templateName)
	}

	if resp != nil {
		c.logger.Debug().
			Str("template", string(templateName)).
			Str("email_id", resp.Id).
			Msg("email accepted by provider")
	}

	return nil
}
