// Package email delivers notifications with attachments over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shic-it/feishu-approval-mailer/internal/form"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender sends notification mails via SMTP. Port 465 uses implicit SSL,
// port 587 uses STARTTLS; the distinction matters for Office 365 vs
// classic SSL mailboxes.
type Sender struct {
	cfg    Config
	logger *zap.Logger
}

// NewSender creates a new mail sender
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// Send delivers one notification. Attachments without downloaded content
// are skipped; the attachment list is consumed and not retained.
func (s *Sender) Send(ctx context.Context, to, subject, body string, attachments []form.Attachment) error {
	msg, err := s.buildMessage(to, subject, body, attachments)
	if err != nil {
		return err
	}

	client, err := s.newClient()
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	s.logger.Info("Sending mail",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("attachments", len(msg.GetAttachments())))

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (s *Sender) buildMessage(to, subject, body string, attachments []form.Attachment) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	for _, att := range attachments {
		if att.Content == nil {
			continue
		}
		if err := msg.AttachReader(att.Name, bytes.NewReader(att.Content)); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", att.Name, err)
		}
	}
	return msg, nil
}

func (s *Sender) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}

	if s.cfg.Port == 587 {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithSSL())
	}

	return mail.NewClient(s.cfg.Host, opts...)
}
