package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"divecenter/internal/adapters/email"
	issuanceStore "divecenter/internal/adapters/storage/issuance"
	outboxStore "divecenter/internal/adapters/storage/outbox"
	"divecenter/internal/domain/application"
	"divecenter/internal/domain/certificate"
	outboxDomain "divecenter/internal/domain/outbox"
)

// Data policy values for applications with missing applicant fields.
const (
	DataPolicyPlaceholder = "placeholder"
	DataPolicyStrict      = "strict"
)

var (
	// ErrPartialApplicationData is returned under the strict data policy when the
	// application is missing the applicant name or email.
	ErrPartialApplicationData = errors.New("application is missing applicant data")

	// ErrCertificateDispatchFailed wraps a transport failure after the certificate
	// was rendered; the email has been queued in the outbox for retry.
	ErrCertificateDispatchFailed = errors.New("certificate email dispatch failed")
)

// PDFRenderer renders a self-contained HTML document to PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// IssueCertificateInput carries input for the certificate issuance pipeline.
type IssueCertificateInput struct {
	Application application.Application
	// Resend forces re-generation with a fresh certificate number even when an
	// issuance record already exists for this application.
	Resend bool
}

// IssueCertificateDeps holds dependencies for certificate issuance.
type IssueCertificateDeps struct {
	Renderer      PDFRenderer
	Sender        email.Sender
	From          string // sender address for certificate emails
	IssuanceStore issuanceStore.Store
	OutboxStore   outboxStore.Store
	Assets        certificate.Assets
	DataPolicy    string // DataPolicyPlaceholder (default) or DataPolicyStrict
	Now           func() time.Time
	GenerateID    func() string
}

// IssueCertificateResult carries the outcome of issuance.
type IssueCertificateResult struct {
	// AlreadyIssued is true when an issuance record existed and no resend was
	// requested; nothing was rendered or sent.
	AlreadyIssued     bool
	CertificateNumber string
	MessageID         string
}

// ExecuteIssueCertificate runs the certificate pipeline for one application:
// idempotency check, data policy, HTML render, PDF rasterization, email dispatch,
// issuance record.
// PRE: input.Application has a positive ID
// POST: Exactly one render and one send on the issuing path; zero of each when
// already issued; a failed dispatch is queued in the outbox before the error
// returns
// INVARIANT: The issuance record is written only after a successful dispatch
func ExecuteIssueCertificate(ctx context.Context, input IssueCertificateInput, deps IssueCertificateDeps) (IssueCertificateResult, error) {
	app := input.Application
	if app.ID <= 0 {
		return IssueCertificateResult{}, fmt.Errorf("invalid application id %d", app.ID)
	}

	existing, err := deps.IssuanceStore.GetByApplicationID(ctx, app.ID)
	if err == nil && !input.Resend {
		slog.Info("cert_event", "event", "already_issued", "application_id", app.ID, "certificate_number", existing.CertificateNumber)
		return IssueCertificateResult{AlreadyIssued: true, CertificateNumber: existing.CertificateNumber}, nil
	}
	if err != nil && !errors.Is(err, issuanceStore.ErrNotFound) {
		return IssueCertificateResult{}, fmt.Errorf("check issuance record: %w", err)
	}

	if !app.HasApplicantData() {
		if deps.DataPolicy == DataPolicyStrict {
			slog.Warn("cert_event", "event", "partial_data_rejected", "application_id", app.ID)
			return IssueCertificateResult{}, ErrPartialApplicationData
		}
		if strings.TrimSpace(app.ApplicantName) == "" {
			app.ApplicantName = certificate.PlaceholderName
		}
		if strings.TrimSpace(app.ApplicantEmail) == "" {
			app.ApplicantEmail = certificate.PlaceholderEmail
		}
		slog.Warn("cert_event", "event", "partial_data_placeholders", "application_id", app.ID)
	}

	now := deps.Now()
	number := certificate.NewNumber(app.ID, now)
	completionDate := certificate.FormatCompletionDate(app.CompletionDate, now)

	html, err := certificate.RenderHTML(certificate.Details{
		ApplicantName:  app.ApplicantName,
		CourseName:     app.CourseName,
		CompletionDate: completionDate,
		Number:         number,
	}, deps.Assets)
	if err != nil {
		return IssueCertificateResult{}, fmt.Errorf("render certificate html: %w", err)
	}

	pdf, err := deps.Renderer.RenderPDF(ctx, html)
	if err != nil {
		return IssueCertificateResult{}, fmt.Errorf("render certificate pdf: %w", err)
	}

	artifact := certificate.Artifact{
		ApplicationID:  app.ID,
		ApplicantName:  app.ApplicantName,
		ApplicantEmail: app.ApplicantEmail,
		CourseName:     app.CourseName,
		CompletionDate: completionDate,
		Number:         number,
		PDF:            pdf,
	}
	if err := artifact.Validate(); err != nil {
		return IssueCertificateResult{}, fmt.Errorf("certificate artifact invalid: %w", err)
	}

	sendResult, sendErr := deps.Sender.Send(ctx, email.SendRequest{
		To:      []string{app.ApplicantEmail},
		From:    deps.From,
		Subject: fmt.Sprintf("Your %s Certificate", app.CourseName),
		HTML:    certificateEmailHTML(artifact),
		Attachments: []email.Attachment{{
			Filename:    artifact.Filename(),
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	})
	if sendErr != nil {
		if queueErr := queueCertificateEmail(ctx, deps, artifact, sendErr); queueErr != nil {
			slog.Error("cert_event", "event", "outbox_enqueue_failed", "application_id", app.ID, "error", queueErr.Error())
		}
		slog.Error("cert_event", "event", "dispatch_failed", "application_id", app.ID, "error", sendErr.Error())
		return IssueCertificateResult{}, fmt.Errorf("%w: %v", ErrCertificateDispatchFailed, sendErr)
	}

	record := issuanceStore.Record{
		ApplicationID:     app.ID,
		CertificateNumber: number,
		ApplicantName:     app.ApplicantName,
		ApplicantEmail:    app.ApplicantEmail,
		CourseName:        app.CourseName,
		CompletionDate:    completionDate,
		IssuedAt:          now,
		MessageID:         sendResult.MessageID,
	}
	if err := deps.IssuanceStore.Save(ctx, record); err != nil {
		// The certificate is already out; log rather than fail the request.
		slog.Error("cert_event", "event", "issuance_record_failed", "application_id", app.ID, "error", err.Error())
	}

	slog.Info("cert_event", "event", "issued", "application_id", app.ID, "certificate_number", number, "message_id", sendResult.MessageID)
	return IssueCertificateResult{CertificateNumber: number, MessageID: sendResult.MessageID}, nil
}

// queueCertificateEmail records a failed dispatch in the outbox so the
// background worker can retry it without consulting the backend again.
func queueCertificateEmail(ctx context.Context, deps IssueCertificateDeps, artifact certificate.Artifact, cause error) error {
	payload, err := outboxDomain.CertificateEmailPayload{
		ApplicationID:  artifact.ApplicationID,
		ApplicantName:  artifact.ApplicantName,
		ApplicantEmail: artifact.ApplicantEmail,
		CourseName:     artifact.CourseName,
		CompletionDate: artifact.CompletionDate,
		Number:         artifact.Number,
	}.Encode()
	if err != nil {
		return fmt.Errorf("encode outbox payload: %w", err)
	}

	entry := outboxDomain.Entry{
		ID:           deps.GenerateID(),
		ActionType:   outboxDomain.ActionTypeCertificateEmail,
		Payload:      payload,
		Status:       outboxDomain.StatusPending,
		MaxAttempts:  5,
		CreatedAt:    deps.Now(),
		ErrorMessage: cause.Error(),
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validate outbox entry: %w", err)
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		return fmt.Errorf("save outbox entry: %w", err)
	}
	slog.Info("outbox_enqueued", "entry_id", entry.ID, "action_type", entry.ActionType, "application_id", artifact.ApplicationID)
	return nil
}

// certificateEmailHTML builds the congratulatory body that carries the PDF.
func certificateEmailHTML(a certificate.Artifact) string {
	esc := template.HTMLEscapeString
	var b strings.Builder
	b.WriteString(`<div style="font-family: Georgia, serif; max-width: 600px; margin: 0 auto; color: #0b3d5c;">`)
	fmt.Fprintf(&b, `<h1 style="color: #0b3d5c;">Congratulations, %s!</h1>`, esc(a.ApplicantName))
	fmt.Fprintf(&b, `<p>You have successfully completed the <strong>%s</strong> course on %s.</p>`, esc(a.CourseName), esc(a.CompletionDate))
	fmt.Fprintf(&b, `<p>Your certificate number is <strong>%s</strong>. Your official certificate is attached to this email as a PDF.</p>`, esc(a.Number))
	b.WriteString(`<p>We look forward to seeing you underwater again soon.</p>`)
	b.WriteString(`</div>`)
	return b.String()
}
