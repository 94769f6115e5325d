package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig carries the transport settings for the SMTP sender. All values are
// environment-supplied.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool // implicit TLS on connect; otherwise STARTTLS is attempted
	Username string
	Password string
	From     string
}

// SMTPSender delivers email over a plain SMTP backend with optional TLS.
// It exists for deployments without a Resend key.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer *net.Dialer
	now    func() time.Time
}

// NewSMTPSender creates an SMTP-backed sender.
// PRE: cfg.Host, cfg.Port, cfg.From are set
// POST: Returns a ready-to-use sender
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp sender: host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp sender: invalid port %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp sender: from address is required")
	}
	return &SMTPSender{
		cfg:    cfg,
		dialer: &net.Dialer{Timeout: 30 * time.Second},
		now:    time.Now,
	}, nil
}

// Send composes a MIME message (multipart when attachments are present) and
// delivers it in one SMTP session.
// PRE: req has at least one recipient
// POST: Message handed to the SMTP server, or an error; no retry here
func (s *SMTPSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if len(req.To) == 0 {
		return SendResult{}, errors.New("smtp sender: at least one recipient is required")
	}

	from := req.From
	if from == "" {
		from = s.cfg.From
	}

	msg := s.buildMessage(req, from)
	if err := s.deliver(ctx, from, req.To, msg); err != nil {
		slog.Error("smtp_send_failed", "error", err, "to", req.To, "subject", req.Subject)
		return SendResult{}, err
	}

	sentAt := s.now()
	slog.Info("smtp_sent", "to", req.To, "subject", req.Subject, "attachments", len(req.Attachments))
	return SendResult{
		MessageID: fmt.Sprintf("smtp-%d", sentAt.UnixNano()),
		SentAt:    sentAt,
	}, nil
}

func (s *SMTPSender) buildMessage(req SendRequest, from string) []byte {
	var buf bytes.Buffer

	write := func(format string, args ...any) {
		fmt.Fprintf(&buf, format, args...)
		buf.WriteString("\r\n")
	}

	write("From: %s", sanitizeHeader(from))
	write("To: %s", sanitizeHeader(strings.Join(req.To, ", ")))
	if req.ReplyTo != "" {
		write("Reply-To: %s", sanitizeHeader(req.ReplyTo))
	}
	write("Subject: %s", mime.QEncoding.Encode("utf-8", sanitizeHeader(req.Subject)))
	write("Date: %s", s.now().UTC().Format(time.RFC1123Z))
	write("MIME-Version: 1.0")

	if len(req.Attachments) == 0 {
		write("Content-Type: text/html; charset=UTF-8")
		write("")
		buf.WriteString(normalizeBody(req.HTML))
		return buf.Bytes()
	}

	const boundary = "divecenter-mime-boundary"
	write("Content-Type: multipart/mixed; boundary=%q", boundary)
	write("")
	write("--%s", boundary)
	write("Content-Type: text/html; charset=UTF-8")
	write("")
	buf.WriteString(normalizeBody(req.HTML))
	write("")

	for _, att := range req.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		write("--%s", boundary)
		write("Content-Type: %s", contentType)
		write("Content-Transfer-Encoding: base64")
		write("Content-Disposition: attachment; filename=%q", sanitizeHeader(att.Filename))
		write("")
		writeBase64Lines(&buf, att.Content)
	}
	write("--%s--", boundary)

	return buf.Bytes()
}

func (s *SMTPSender) deliver(ctx context.Context, from string, recipients []string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp sender: dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	if s.cfg.Secure {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp sender: new client: %w", err)
	}
	defer client.Close()

	if !s.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("smtp sender: starttls: %w", err)
			}
		}
	}

	if s.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp sender: auth: %w", err)
			}
		}
	}

	if err := client.Mail(envelopeAddress(from)); err != nil {
		return fmt.Errorf("smtp sender: mail from: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(envelopeAddress(rcpt)); err != nil {
			return fmt.Errorf("smtp sender: rcpt to %s: %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp sender: data: %w", err)
	}
	if _, err := writer.Write(message); err != nil {
		_ = writer.Close()
		return fmt.Errorf("smtp sender: data write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp sender: data close: %w", err)
	}

	if err := client.Quit(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("smtp sender: quit: %w", err)
	}
	return ctx.Err()
}

// envelopeAddress strips an optional display name: "Name <a@b>" -> "a@b".
func envelopeAddress(value string) string {
	if i := strings.LastIndex(value, "<"); i >= 0 {
		if j := strings.LastIndex(value, ">"); j > i {
			return value[i+1 : j]
		}
	}
	return strings.TrimSpace(value)
}

func sanitizeHeader(value string) string {
	clean := strings.ReplaceAll(value, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.TrimSpace(clean)
}

func normalizeBody(body string) string {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

// writeBase64Lines emits base64 content wrapped at 76 columns per RFC 2045.
func writeBase64Lines(buf *bytes.Buffer, content []byte) {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	if len(encoded) > 0 {
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
}
