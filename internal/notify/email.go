// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/models"
)

// EmailChannel sends a plain-text message over SMTP.
type EmailChannel struct {
	cfg         config.EmailConfig
	dialTimeout time.Duration
}

func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	return &EmailChannel{cfg: cfg, dialTimeout: defaultChannelTimeout}
}

func (c *EmailChannel) Name() string  { return ChannelEmail }
func (c *EmailChannel) Enabled() bool { return c.cfg.Enabled }

func (c *EmailChannel) Validate() error {
	if c.cfg.SMTPHost == "" {
		return errors.New("SMTP host is required")
	}
	if c.cfg.SMTPPort <= 0 || c.cfg.SMTPPort > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", c.cfg.SMTPPort)
	}
	if _, err := mail.ParseAddress(c.cfg.From); err != nil {
		return fmt.Errorf("invalid SMTP from address: %w", err)
	}
	if len(c.cfg.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	for _, to := range c.cfg.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}
	return nil
}

func (c *EmailChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	msg := buildEmail(c.cfg.From, c.cfg.To, n, time.Now())
	if err := c.sendSMTP(ctx, msg); err != nil {
		return &SendError{Code: classifyEmailError(err), Message: err.Error(), Err: err}
	}
	return nil
}

func buildEmail(from string, to []string, n *models.Notification, now time.Time) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + FormatTitle(n) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	if n.ID != "" {
		b.WriteString("X-OmniStream-Notification: " + n.ID + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(FormatText(n))
	b.WriteString("\r\n")
	return b.String()
}

func (c *EmailChannel) sendSMTP(ctx context.Context, msg string) error {
	addr := net.JoinHostPort(c.cfg.SMTPHost, strconv.Itoa(c.cfg.SMTPPort))

	dialer := &net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: c.cfg.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if c.cfg.Username != "" && c.cfg.Password != "" {
		auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	from, _ := mail.ParseAddress(c.cfg.From)
	if err := client.Mail(from.Address); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range c.cfg.To {
		rcpt, _ := mail.ParseAddress(to)
		if err := client.Rcpt(rcpt.Address); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt.Address, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once DATA closes; a failed QUIT does not undo it.
	_ = client.Quit()
	return nil
}

func classifyEmailError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorCodeTimeout
	}
	// 4xx replies are temporary in SMTP, 5xx are permanent.
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 400 && tpErr.Code < 500 {
		return ErrorCodeServerError
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "authentication"):
		return ErrorCodeAuthFailed
	case strings.Contains(errStr, "connect"):
		return ErrorCodeConnectionFailed
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ErrorCodeTimeout
	case strings.Contains(errStr, "recipient"):
		return ErrorCodeNotFound
	}
	return ErrorCodeUnknown
}
