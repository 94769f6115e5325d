package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"divecenter/internal/domain/application"
)

// CertificationBackend defines the backend operations needed by the status
// update pipeline.
type CertificationBackend interface {
	UpdateApplicationStatus(ctx context.Context, id int64, status string) (application.Application, error)
	ListApplications(ctx context.Context) ([]application.Application, error)
}

// UpdateApplicationStatusInput carries input for the status update pipeline.
type UpdateApplicationStatusInput struct {
	ApplicationID int64
	Status        string
	// Resend forces certificate re-generation for an already-issued application.
	Resend bool
}

// UpdateApplicationStatusDeps holds dependencies for the status update pipeline.
type UpdateApplicationStatusDeps struct {
	Backend     CertificationBackend
	Certificate IssueCertificateDeps
}

// UpdateApplicationStatusResult carries the pipeline outcome.
type UpdateApplicationStatusResult struct {
	Application       application.Application
	CertificateIssued bool
	AlreadyIssued     bool
	CertificateNumber string
}

// ExecuteUpdateApplicationStatus updates an application's status on the backend
// and, on a transition to completed, runs the certificate issuance pipeline:
// locate the application in the full collection, render the certificate to PDF
// and email it to the applicant.
// PRE: input.ApplicationID > 0
// POST: Backend status updated; certificate rendered and dispatched exactly once
// on the completed path; non-completion transitions touch neither renderer nor
// mailer
// INVARIANT: A backend failure aborts before any render or send
func ExecuteUpdateApplicationStatus(ctx context.Context, input UpdateApplicationStatusInput, deps UpdateApplicationStatusDeps) (UpdateApplicationStatusResult, error) {
	if input.ApplicationID <= 0 {
		return UpdateApplicationStatusResult{}, fmt.Errorf("invalid application id %d", input.ApplicationID)
	}
	if !application.ValidStatus(input.Status) {
		slog.Info("cert_event", "event", "invalid_status", "application_id", input.ApplicationID, "status", input.Status)
		return UpdateApplicationStatusResult{}, application.ErrInvalidStatus
	}

	updated, err := deps.Backend.UpdateApplicationStatus(ctx, input.ApplicationID, input.Status)
	if err != nil {
		slog.Error("cert_event", "event", "status_update_failed", "application_id", input.ApplicationID, "status", input.Status, "error", err.Error())
		return UpdateApplicationStatusResult{}, fmt.Errorf("update application status: %w", err)
	}
	slog.Info("cert_event", "event", "status_updated", "application_id", input.ApplicationID, "status", input.Status)

	result := UpdateApplicationStatusResult{Application: updated}
	if !application.IsCompletion(input.Status) {
		return result, nil
	}

	// The backend's status ack carries only a partial record, so the full
	// application is located in the collection listing.
	apps, err := deps.Backend.ListApplications(ctx)
	if err != nil {
		return result, fmt.Errorf("list applications: %w", err)
	}
	app, err := application.FindByID(apps, input.ApplicationID)
	if err != nil {
		slog.Error("cert_event", "event", "application_not_found", "application_id", input.ApplicationID)
		return result, err
	}
	app.Status = input.Status

	issued, err := ExecuteIssueCertificate(ctx, IssueCertificateInput{
		Application: app,
		Resend:      input.Resend,
	}, deps.Certificate)
	if err != nil {
		return result, err
	}

	result.CertificateIssued = !issued.AlreadyIssued
	result.AlreadyIssued = issued.AlreadyIssued
	result.CertificateNumber = issued.CertificateNumber
	return result, nil
}
