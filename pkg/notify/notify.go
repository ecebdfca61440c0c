// Package notify delivers the confirmation, acceptance and rejection emails.
// Delivery is always best-effort: callers log failures and carry on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hogis-registration/config"
)

var (
	ErrNotConfigured = errors.New("notification provider not configured")
	ErrSendFailed    = errors.New("failed to send notification email")
	ErrNoRecipient   = errors.New("email and name are required")
)

// Receipt provider acknowledgement
type Receipt struct {
	MessageID string `json:"messageId"`
}

// Dispatcher sends the three registration emails
type Dispatcher interface {
	SendConfirmation(ctx context.Context, email, name string) (*Receipt, error)
	SendAcceptance(ctx context.Context, email, name string) (*Receipt, error)
	SendRejection(ctx context.Context, email, name, reason string) (*Receipt, error)
}

// transport delivers one rendered message and returns the provider message id
type transport interface {
	send(ctx context.Context, msg *Message) (string, error)
	name() string
}

// templated renders locally and hands the message to a transport
type templated struct {
	renderer *Renderer
	tr       transport
	logger   *zap.Logger
}

// New builds the dispatcher selected by cfg.Provider
func New(cfg *config.MailConfig, logger *zap.Logger) (Dispatcher, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "remote" {
		if cfg.RemoteBaseURL == "" {
			return nil, fmt.Errorf("%w: mail.remote_base_url is empty", ErrNotConfigured)
		}
		return NewRemote(cfg.RemoteBaseURL, cfg.RelaySecret, nil), nil
	}

	renderer, err := NewRenderer(DefaultCompetition, DefaultContact)
	if err != nil {
		return nil, err
	}

	var tr transport
	switch provider {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("%w: mail.smtp_host is empty", ErrNotConfigured)
		}
		tr = newSMTPTransport(cfg)
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("%w: mail.sendgrid_api_key is empty", ErrNotConfigured)
		}
		tr = newSendGridTransport(cfg, "")
	case "log", "":
		tr = newLogTransport(logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
	}

	logger.Info("notification dispatcher ready", zap.String("provider", tr.name()))
	return &templated{renderer: renderer, tr: tr, logger: logger}, nil
}

func (d *templated) SendConfirmation(ctx context.Context, email, name string) (*Receipt, error) {
	return d.deliver(ctx, KindConfirmation, email, name, "")
}

func (d *templated) SendAcceptance(ctx context.Context, email, name string) (*Receipt, error) {
	return d.deliver(ctx, KindAcceptance, email, name, "")
}

func (d *templated) SendRejection(ctx context.Context, email, name, reason string) (*Receipt, error) {
	return d.deliver(ctx, KindRejection, email, name, reason)
}

func (d *templated) deliver(ctx context.Context, kind Kind, email, name, reason string) (*Receipt, error) {
	if email == "" || name == "" {
		return nil, ErrNoRecipient
	}

	msg, err := d.renderer.Render(kind, email, name, reason)
	if err != nil {
		return nil, err
	}

	id, err := d.tr.send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s via %s: %v", ErrSendFailed, kind, d.tr.name(), err)
	}

	d.logger.Info("notification sent",
		zap.String("kind", string(kind)),
		zap.String("provider", d.tr.name()),
		zap.String("message_id", id),
	)
	return &Receipt{MessageID: id}, nil
}
