package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"divecenter/internal/adapters/email"
	issuanceStore "divecenter/internal/adapters/storage/issuance"
	outboxStore "divecenter/internal/adapters/storage/outbox"
	"divecenter/internal/domain/certificate"
	domain "divecenter/internal/domain/outbox"
)

// OutboxProcessor handles retrying failed external dispatches.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the external ID (e.g. provider message ID) and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
	}
}

// ProcessPending processes pending outbox entries with retries.
// PRE: Context is valid
// POST: Pending entries are processed, failed entries marked for retry
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}

	return nil
}

// processEntry processes a single outbox entry.
func (p *OutboxProcessor) processEntry(ctx context.Context, entry domain.Entry) error {
	// Check if enough time has passed since last attempt
	if !entry.LastAttemptedAt.IsZero() {
		delay := entry.NextRetryDelay(p.baseDelay, p.maxDelay)
		if time.Since(entry.LastAttemptedAt) < delay {
			return nil // Not ready to retry yet
		}
	}

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt()
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err.Error())
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}

	return p.store.Save(ctx, entry)
}

// ProcessSingle manually processes a single outbox entry (for admin retry).
// PRE: entryID is non-empty
// POST: Entry is processed, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in terminal state and cannot be retried", entryID)
	}

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		return fmt.Errorf("no executor registered for action type: %s", entry.ActionType)
	}

	entry.MarkAttempt()
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
	} else {
		entry.MarkSuccess(externalID)
	}

	return p.store.Save(ctx, entry)
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// --- Certificate Email Executor ---

// CertificateEmailExecutor re-renders and re-sends a certificate email from an
// outbox payload, without consulting the backend again.
type CertificateEmailExecutor struct {
	Renderer      PDFRenderer
	Sender        email.Sender
	From          string
	IssuanceStore issuanceStore.Store
	Assets        certificate.Assets
	Now           func() time.Time
}

// Execute replays a certificate email dispatch from the payload.
// PRE: payload is valid JSON matching CertificateEmailPayload
// POST: Certificate re-rendered and sent; issuance record written on success
// INVARIANT: Outbox entry status is managed by the caller
func (e *CertificateEmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	p, err := domain.DecodeCertificateEmailPayload(payload)
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	if p.ApplicantEmail == "" {
		return "", errors.New("payload has no applicant email")
	}

	html, err := certificate.RenderHTML(certificate.Details{
		ApplicantName:  p.ApplicantName,
		CourseName:     p.CourseName,
		CompletionDate: p.CompletionDate,
		Number:         p.Number,
	}, e.Assets)
	if err != nil {
		return "", fmt.Errorf("render certificate html: %w", err)
	}

	pdf, err := e.Renderer.RenderPDF(ctx, html)
	if err != nil {
		return "", fmt.Errorf("render certificate pdf: %w", err)
	}

	artifact := certificate.Artifact{
		ApplicationID:  p.ApplicationID,
		ApplicantName:  p.ApplicantName,
		ApplicantEmail: p.ApplicantEmail,
		CourseName:     p.CourseName,
		CompletionDate: p.CompletionDate,
		Number:         p.Number,
		PDF:            pdf,
	}

	result, err := e.Sender.Send(ctx, email.SendRequest{
		To:      []string{p.ApplicantEmail},
		From:    e.From,
		Subject: fmt.Sprintf("Your %s Certificate", p.CourseName),
		HTML:    certificateEmailHTML(artifact),
		Attachments: []email.Attachment{{
			Filename:    artifact.Filename(),
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("send certificate email: %w", err)
	}

	record := issuanceStore.Record{
		ApplicationID:     p.ApplicationID,
		CertificateNumber: p.Number,
		ApplicantName:     p.ApplicantName,
		ApplicantEmail:    p.ApplicantEmail,
		CourseName:        p.CourseName,
		CompletionDate:    p.CompletionDate,
		IssuedAt:          e.Now(),
		MessageID:         result.MessageID,
	}
	if err := e.IssuanceStore.Save(ctx, record); err != nil {
		slog.Error("cert_event", "event", "issuance_record_failed", "application_id", p.ApplicationID, "error", err.Error())
	}

	return result.MessageID, nil
}

// --- Background Worker ---

// StartBackgroundWorker starts a goroutine that periodically processes pending
// outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_worker_error", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_worker_stopped")
				return
			}
		}
	}()
}
