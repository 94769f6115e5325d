package orchestrators

import (
	"context"
	"errors"
	"testing"

	outboxDomain "divecenter/internal/domain/outbox"
)

func queuedEntry(t *testing.T) outboxDomain.Entry {
	t.Helper()
	payload, err := outboxDomain.CertificateEmailPayload{
		ApplicationID:  42,
		ApplicantName:  "Jane Diver",
		ApplicantEmail: "jane@example.com",
		CourseName:     "Open Water Diver",
		CompletionDate: "February 20, 2026",
		Number:         "CERT-42-1700000000000",
	}.Encode()
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	return outboxDomain.Entry{
		ID:          "entry-001",
		ActionType:  outboxDomain.ActionTypeCertificateEmail,
		Payload:     payload,
		Status:      outboxDomain.StatusPending,
		MaxAttempts: 5,
		CreatedAt:   fixedTime,
	}
}

func testExecutor(renderer *mockRenderer, sender *mockEmailSender, issuance *mockIssuanceStore) *CertificateEmailExecutor {
	return &CertificateEmailExecutor{
		Renderer:      renderer,
		Sender:        sender,
		From:          "certs@bluereef.example",
		IssuanceStore: issuance,
		Now:           fixedNow,
	}
}

func TestCertificateEmailExecutor_ReplaysDispatch(t *testing.T) {
	renderer := &mockRenderer{}
	sender := &mockEmailSender{}
	issuance := newMockIssuanceStore()
	exec := testExecutor(renderer, sender, issuance)

	entry := queuedEntry(t)
	externalID, err := exec.Execute(context.Background(), entry.Payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if externalID != "msg-001" {
		t.Errorf("expected provider message id, got %q", externalID)
	}
	if renderer.calls != 1 || sender.calls != 1 {
		t.Errorf("expected 1 render and 1 send, got %d/%d", renderer.calls, sender.calls)
	}

	req := sender.requests[0]
	if req.To[0] != "jane@example.com" {
		t.Errorf("expected original recipient, got %q", req.To[0])
	}
	if req.Attachments[0].Filename != "certificate-42.pdf" {
		t.Errorf("expected canonical filename, got %q", req.Attachments[0].Filename)
	}

	record, err := issuance.GetByApplicationID(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected issuance record after replay: %v", err)
	}
	// The replay keeps the number the certificate was originally generated with.
	if record.CertificateNumber != "CERT-42-1700000000000" {
		t.Errorf("unexpected certificate number %q", record.CertificateNumber)
	}
}

func TestCertificateEmailExecutor_BadPayload(t *testing.T) {
	exec := testExecutor(&mockRenderer{}, &mockEmailSender{}, newMockIssuanceStore())

	if _, err := exec.Execute(context.Background(), "{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if _, err := exec.Execute(context.Background(), `{"application_id":1}`); err == nil {
		t.Fatal("expected error for payload without applicant email")
	}
}

func TestProcessPending_MarksSuccessAndFailure(t *testing.T) {
	store := newMockOutboxStore()
	entry := queuedEntry(t)
	if err := store.Save(context.Background(), entry); err != nil {
		t.Fatalf("save entry: %v", err)
	}

	sender := &mockEmailSender{}
	processor := NewOutboxProcessor(store, map[string]ActionExecutor{
		outboxDomain.ActionTypeCertificateEmail: testExecutor(&mockRenderer{}, sender, newMockIssuanceStore()),
	})

	if err := processor.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	processed := store.entries["entry-001"]
	if processed.Status != outboxDomain.StatusDone {
		t.Errorf("expected done status, got %q", processed.Status)
	}
	if processed.ExternalID != "msg-001" {
		t.Errorf("expected external id recorded, got %q", processed.ExternalID)
	}

	// A failing executor marks the entry for retry.
	failing := queuedEntry(t)
	failing.ID = "entry-002"
	if err := store.Save(context.Background(), failing); err != nil {
		t.Fatalf("save entry: %v", err)
	}
	sender.err = errors.New("still down")
	if err := processor.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	retried := store.entries["entry-002"]
	if retried.Status != outboxDomain.StatusRetrying && retried.Status != outboxDomain.StatusFailed {
		t.Errorf("expected retrying or failed status, got %q", retried.Status)
	}
	if retried.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", retried.Attempts)
	}
}

func TestProcessPending_UnknownActionType(t *testing.T) {
	store := newMockOutboxStore()
	entry := queuedEntry(t)
	entry.ActionType = "carrier_pigeon"
	if err := store.Save(context.Background(), entry); err != nil {
		t.Fatalf("save entry: %v", err)
	}

	processor := NewOutboxProcessor(store, map[string]ActionExecutor{})
	if err := processor.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	processed := store.entries["entry-001"]
	if processed.ErrorMessage == "" {
		t.Error("expected error message for unknown action type")
	}
}

func TestAbandonEntry(t *testing.T) {
	store := newMockOutboxStore()
	entry := queuedEntry(t)
	if err := store.Save(context.Background(), entry); err != nil {
		t.Fatalf("save entry: %v", err)
	}

	processor := NewOutboxProcessor(store, nil)
	if err := processor.AbandonEntry(context.Background(), "entry-001"); err != nil {
		t.Fatalf("AbandonEntry: %v", err)
	}
	if store.entries["entry-001"].Status != outboxDomain.StatusAbandoned {
		t.Errorf("expected abandoned status, got %q", store.entries["entry-001"].Status)
	}
}
