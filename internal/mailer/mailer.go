package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"dassyor/config"
	"dassyor/pkg/metrics"
)

const (
	bulkBatchSize  = 50
	bulkBatchDelay = time.Second
)

// Sender delivers email. Fakes implement this in tests.
type Sender interface {
	Send(to, subject, htmlBody string) error
	BulkSend(recipients []string, subject, htmlBody string) error
}

// SMTPMailer sends mail over an implicit-TLS SMTP connection.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers a single HTML message.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		metrics.IncrementEmailSent("single", "error")
		return fmt.Errorf("smtp dial: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		metrics.IncrementEmailSent("single", "error")
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.Host)
	if err := client.Auth(auth); err != nil {
		metrics.IncrementEmailSent("single", "error")
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(m.cfg.Sender); err != nil {
		metrics.IncrementEmailSent("single", "error")
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		metrics.IncrementEmailSent("single", "error")
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		metrics.IncrementEmailSent("single", "error")
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(m.buildMessage(to, subject, htmlBody))); err != nil {
		w.Close()
		metrics.IncrementEmailSent("single", "error")
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		metrics.IncrementEmailSent("single", "error")
		return fmt.Errorf("smtp close: %w", err)
	}

	if err := client.Quit(); err != nil {
		m.logger.Warn("smtp quit failed", zap.Error(err))
	}

	metrics.IncrementEmailSent("single", "ok")
	m.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// BulkSend delivers the same message to many recipients in batches of 50
// with a fixed one second pause between batches. Per-recipient failures are
// logged and skipped; the batch keeps going.
func (m *SMTPMailer) BulkSend(recipients []string, subject, htmlBody string) error {
	for start := 0; start < len(recipients); start += bulkBatchSize {
		end := start + bulkBatchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		for _, to := range recipients[start:end] {
			if err := m.Send(to, subject, htmlBody); err != nil {
				metrics.IncrementEmailSent("bulk", "error")
				m.logger.Error("bulk email failed", zap.String("to", to), zap.Error(err))
				continue
			}
			metrics.IncrementEmailSent("bulk", "ok")
		}

		if end < len(recipients) {
			time.Sleep(bulkBatchDelay)
		}
	}
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, htmlBody string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.SenderName, m.cfg.Sender)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.String()
}
