package email

import (
	"strings"
	"testing"
	"time"
)

func testSMTPSender(t *testing.T) *SMTPSender {
	t.Helper()
	sender, err := NewSMTPSender(SMTPConfig{
		Host: "mail.example.com",
		Port: 587,
		From: "Dive Center <certs@example.com>",
	})
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	sender.now = func() time.Time { return time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC) }
	return sender
}

func TestNewSMTPSenderValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  SMTPConfig
	}{
		{"missing host", SMTPConfig{Port: 587, From: "a@b.com"}},
		{"bad port", SMTPConfig{Host: "mail.example.com", Port: 0, From: "a@b.com"}},
		{"missing from", SMTPConfig{Host: "mail.example.com", Port: 587}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSMTPSender(tc.cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestBuildMessagePlainHTML(t *testing.T) {
	sender := testSMTPSender(t)
	msg := string(sender.buildMessage(SendRequest{
		To:      []string{"diver@example.com"},
		Subject: "Your Certificate",
		HTML:    "<p>Congratulations</p>",
	}, "certs@example.com"))

	for _, want := range []string{
		"From: certs@example.com\r\n",
		"To: diver@example.com\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"<p>Congratulations</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if strings.Contains(msg, "multipart/mixed") {
		t.Error("plain message should not be multipart")
	}
}

func TestBuildMessageWithAttachment(t *testing.T) {
	sender := testSMTPSender(t)
	msg := string(sender.buildMessage(SendRequest{
		To:      []string{"diver@example.com"},
		Subject: "Your Certificate",
		HTML:    "<p>Attached</p>",
		Attachments: []Attachment{{
			Filename:    "certificate-42.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.4 fake"),
		}},
	}, "certs@example.com"))

	for _, want := range []string{
		"Content-Type: multipart/mixed;",
		"Content-Type: application/pdf\r\n",
		"Content-Transfer-Encoding: base64\r\n",
		`Content-Disposition: attachment; filename="certificate-42.pdf"` + "\r\n",
		"JVBERi0xLjQgZmFrZQ==", // base64 of the fake PDF bytes
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuildMessageSanitizesHeaders(t *testing.T) {
	sender := testSMTPSender(t)
	msg := string(sender.buildMessage(SendRequest{
		To:      []string{"diver@example.com"},
		Subject: "Line\r\nInjection: attempt",
		HTML:    "<p>hi</p>",
	}, "certs@example.com"))

	if strings.Contains(msg, "Injection: attempt\r\n") {
		t.Error("subject newline was not sanitized")
	}
}

func TestEnvelopeAddress(t *testing.T) {
	cases := map[string]string{
		"Dive Center <certs@example.com>": "certs@example.com",
		"certs@example.com":               "certs@example.com",
		"  certs@example.com  ":           "certs@example.com",
	}
	for in, want := range cases {
		if got := envelopeAddress(in); got != want {
			t.Errorf("envelopeAddress(%q) = %q, want %q", in, got, want)
		}
	}
}
