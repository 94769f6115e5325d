package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"divecenter/internal/adapters/email"
	issuanceStore "divecenter/internal/adapters/storage/issuance"
	"divecenter/internal/domain/application"
	"divecenter/internal/domain/certificate"
	outboxDomain "divecenter/internal/domain/outbox"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// --- mocks ---

type mockCertBackend struct {
	applications []application.Application
	updateErr    error
	listErr      error
	updateCalls  int
	listCalls    int
	lastStatus   string
}

func (m *mockCertBackend) UpdateApplicationStatus(_ context.Context, id int64, status string) (application.Application, error) {
	m.updateCalls++
	m.lastStatus = status
	if m.updateErr != nil {
		return application.Application{}, m.updateErr
	}
	return application.Application{ID: id, Status: status}, nil
}

func (m *mockCertBackend) ListApplications(_ context.Context) ([]application.Application, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.applications, nil
}

// mockRenderer records render calls and shares a sequence counter with the
// sender so ordering can be asserted.
type mockRenderer struct {
	calls    int
	sequence *[]string
	err      error
	pdf      []byte
}

func (m *mockRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	m.calls++
	if m.sequence != nil {
		*m.sequence = append(*m.sequence, "render")
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.pdf != nil {
		return m.pdf, nil
	}
	return []byte("%PDF-1.4 test"), nil
}

type mockEmailSender struct {
	calls    int
	sequence *[]string
	err      error
	requests []email.SendRequest
}

func (m *mockEmailSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	m.calls++
	if m.sequence != nil {
		*m.sequence = append(*m.sequence, "send")
	}
	m.requests = append(m.requests, req)
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	return email.SendResult{MessageID: "msg-001", SentAt: fixedTime}, nil
}

type mockIssuanceStore struct {
	records map[int64]issuanceStore.Record
}

func newMockIssuanceStore() *mockIssuanceStore {
	return &mockIssuanceStore{records: make(map[int64]issuanceStore.Record)}
}

func (m *mockIssuanceStore) GetByApplicationID(_ context.Context, id int64) (issuanceStore.Record, error) {
	r, ok := m.records[id]
	if !ok {
		return issuanceStore.Record{}, issuanceStore.ErrNotFound
	}
	return r, nil
}

func (m *mockIssuanceStore) Save(_ context.Context, r issuanceStore.Record) error {
	m.records[r.ApplicationID] = r
	return nil
}

func (m *mockIssuanceStore) List(_ context.Context, limit int) ([]issuanceStore.Record, error) {
	var out []issuanceStore.Record
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

type mockOutboxStore struct {
	entries map[string]outboxDomain.Entry
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outboxDomain.Entry)}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outboxDomain.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outboxDomain.Entry{}, errors.New("not found")
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outboxDomain.Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outboxDomain.Entry, error) {
	var out []outboxDomain.Entry
	for _, e := range m.entries {
		if e.Status == outboxDomain.StatusPending || e.Status == outboxDomain.StatusRetrying {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, limit int) ([]outboxDomain.Entry, error) {
	return nil, nil
}

func (m *mockOutboxStore) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

// --- fixture ---

type pipelineFixture struct {
	backend  *mockCertBackend
	renderer *mockRenderer
	sender   *mockEmailSender
	issuance *mockIssuanceStore
	outbox   *mockOutboxStore
	sequence []string
}

func newPipelineFixture(apps ...application.Application) *pipelineFixture {
	f := &pipelineFixture{
		backend:  &mockCertBackend{applications: apps},
		renderer: &mockRenderer{},
		sender:   &mockEmailSender{},
		issuance: newMockIssuanceStore(),
		outbox:   newMockOutboxStore(),
	}
	f.renderer.sequence = &f.sequence
	f.sender.sequence = &f.sequence
	return f
}

func (f *pipelineFixture) deps() UpdateApplicationStatusDeps {
	return UpdateApplicationStatusDeps{
		Backend: f.backend,
		Certificate: IssueCertificateDeps{
			Renderer:      f.renderer,
			Sender:        f.sender,
			From:          "Blue Reef Dive Center <certs@bluereef.example>",
			IssuanceStore: f.issuance,
			OutboxStore:   f.outbox,
			DataPolicy:    DataPolicyPlaceholder,
			Now:           fixedNow,
			GenerateID:    fixedID,
		},
	}
}

func completedApp() application.Application {
	return application.Application{
		ID:             42,
		ApplicantName:  "Jane Diver",
		ApplicantEmail: "jane@example.com",
		CourseName:     "Open Water Diver",
		CompletionDate: "2026-02-20",
		Status:         application.StatusOngoing,
	}
}

// --- tests ---

func TestExecuteUpdateApplicationStatus_CompletedHappyPath(t *testing.T) {
	f := newPipelineFixture(completedApp())
	deps := f.deps()

	result, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusCompleted,
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.backend.updateCalls != 1 {
		t.Errorf("expected 1 backend update, got %d", f.backend.updateCalls)
	}
	if f.renderer.calls != 1 {
		t.Errorf("expected exactly 1 render, got %d", f.renderer.calls)
	}
	if f.sender.calls != 1 {
		t.Errorf("expected exactly 1 send, got %d", f.sender.calls)
	}
	if len(f.sequence) != 2 || f.sequence[0] != "render" || f.sequence[1] != "send" {
		t.Errorf("expected render before send, got %v", f.sequence)
	}

	req := f.sender.requests[0]
	if len(req.To) != 1 || req.To[0] != "jane@example.com" {
		t.Errorf("expected send to applicant, got %v", req.To)
	}
	if !strings.Contains(req.Subject, "Open Water Diver") {
		t.Errorf("expected subject to contain course name, got %q", req.Subject)
	}
	if len(req.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(req.Attachments))
	}
	att := req.Attachments[0]
	if att.Filename != "certificate-42.pdf" {
		t.Errorf("expected attachment filename certificate-42.pdf, got %q", att.Filename)
	}
	if att.ContentType != "application/pdf" {
		t.Errorf("expected application/pdf content type, got %q", att.ContentType)
	}
	if string(att.Content) != "%PDF-1.4 test" {
		t.Error("expected attachment bytes to equal rendered PDF bytes")
	}

	if !result.CertificateIssued {
		t.Error("expected CertificateIssued=true")
	}
	if !strings.HasPrefix(result.CertificateNumber, "CERT-42-") {
		t.Errorf("expected certificate number with CERT-42- prefix, got %q", result.CertificateNumber)
	}

	record, err := f.issuance.GetByApplicationID(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected issuance record: %v", err)
	}
	if record.CertificateNumber != result.CertificateNumber {
		t.Errorf("issuance record number %q != result number %q", record.CertificateNumber, result.CertificateNumber)
	}
	if record.MessageID != "msg-001" {
		t.Errorf("expected message id recorded, got %q", record.MessageID)
	}
}

func TestExecuteUpdateApplicationStatus_NonCompletionSkipsPipeline(t *testing.T) {
	f := newPipelineFixture(completedApp())

	result, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusApproved,
	}, f.deps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.backend.updateCalls != 1 {
		t.Errorf("expected 1 backend update, got %d", f.backend.updateCalls)
	}
	if f.backend.listCalls != 0 {
		t.Errorf("expected 0 list calls for non-completion, got %d", f.backend.listCalls)
	}
	if f.renderer.calls != 0 || f.sender.calls != 0 {
		t.Errorf("expected no render/send for non-completion, got %d/%d", f.renderer.calls, f.sender.calls)
	}
	if result.CertificateIssued {
		t.Error("expected CertificateIssued=false")
	}
}

func TestExecuteUpdateApplicationStatus_InvalidStatus(t *testing.T) {
	f := newPipelineFixture()

	_, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        "graduated",
	}, f.deps())
	if !errors.Is(err, application.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if f.backend.updateCalls != 0 {
		t.Errorf("expected no backend calls for invalid status, got %d", f.backend.updateCalls)
	}
}

func TestExecuteUpdateApplicationStatus_BackendFailureAbortsPipeline(t *testing.T) {
	f := newPipelineFixture(completedApp())
	f.backend.updateErr = errors.New("backend down")

	_, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusCompleted,
	}, f.deps())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if f.renderer.calls != 0 || f.sender.calls != 0 {
		t.Errorf("expected no render/send after backend failure, got %d/%d", f.renderer.calls, f.sender.calls)
	}
}

func TestExecuteUpdateApplicationStatus_ApplicationNotFound(t *testing.T) {
	f := newPipelineFixture(completedApp()) // only id 42 exists

	_, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 99,
		Status:        application.StatusCompleted,
	}, f.deps())
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.renderer.calls != 0 || f.sender.calls != 0 {
		t.Errorf("expected no render/send for missing application, got %d/%d", f.renderer.calls, f.sender.calls)
	}
}

func TestExecuteUpdateApplicationStatus_AlreadyIssuedIsIdempotent(t *testing.T) {
	f := newPipelineFixture(completedApp())
	f.issuance.records[42] = issuanceStore.Record{
		ApplicationID:     42,
		CertificateNumber: "CERT-42-1700000000000",
	}

	result, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusCompleted,
	}, f.deps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AlreadyIssued {
		t.Error("expected AlreadyIssued=true")
	}
	if result.CertificateIssued {
		t.Error("expected CertificateIssued=false on repeat")
	}
	if result.CertificateNumber != "CERT-42-1700000000000" {
		t.Errorf("expected existing certificate number, got %q", result.CertificateNumber)
	}
	if f.renderer.calls != 0 || f.sender.calls != 0 {
		t.Errorf("expected no render/send on repeat completion, got %d/%d", f.renderer.calls, f.sender.calls)
	}
}

func TestExecuteUpdateApplicationStatus_ResendRegenerates(t *testing.T) {
	f := newPipelineFixture(completedApp())
	f.issuance.records[42] = issuanceStore.Record{
		ApplicationID:     42,
		CertificateNumber: "CERT-42-1700000000000",
	}

	result, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusCompleted,
		Resend:        true,
	}, f.deps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.renderer.calls != 1 || f.sender.calls != 1 {
		t.Errorf("expected 1 render and 1 send on resend, got %d/%d", f.renderer.calls, f.sender.calls)
	}
	if result.CertificateNumber == "CERT-42-1700000000000" {
		t.Error("expected a fresh certificate number on resend")
	}
	if f.issuance.records[42].CertificateNumber != result.CertificateNumber {
		t.Error("expected issuance record updated with new number")
	}
}

func TestExecuteUpdateApplicationStatus_StrictPolicyRejectsPartialData(t *testing.T) {
	app := completedApp()
	app.ApplicantEmail = ""
	f := newPipelineFixture(app)
	deps := f.deps()
	deps.Certificate.DataPolicy = DataPolicyStrict

	_, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusCompleted,
	}, deps)
	if !errors.Is(err, ErrPartialApplicationData) {
		t.Fatalf("expected ErrPartialApplicationData, got %v", err)
	}
	if f.renderer.calls != 0 || f.sender.calls != 0 {
		t.Errorf("expected no render/send under strict policy, got %d/%d", f.renderer.calls, f.sender.calls)
	}
}

func TestExecuteUpdateApplicationStatus_PlaceholderPolicySubstitutes(t *testing.T) {
	app := completedApp()
	app.ApplicantName = ""
	app.ApplicantEmail = ""
	f := newPipelineFixture(app)

	_, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusCompleted,
	}, f.deps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.sender.calls != 1 {
		t.Fatalf("expected 1 send, got %d", f.sender.calls)
	}
	req := f.sender.requests[0]
	if req.To[0] != certificate.PlaceholderEmail {
		t.Errorf("expected placeholder recipient, got %q", req.To[0])
	}
	if !strings.Contains(req.HTML, certificate.PlaceholderName) {
		t.Error("expected placeholder name in email body")
	}
}

func TestExecuteUpdateApplicationStatus_DispatchFailureQueuesOutbox(t *testing.T) {
	f := newPipelineFixture(completedApp())
	f.sender.err = errors.New("provider unavailable")

	_, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusCompleted,
	}, f.deps())
	if !errors.Is(err, ErrCertificateDispatchFailed) {
		t.Fatalf("expected ErrCertificateDispatchFailed, got %v", err)
	}

	if len(f.outbox.entries) != 1 {
		t.Fatalf("expected 1 outbox entry, got %d", len(f.outbox.entries))
	}
	entry := f.outbox.entries["test-id-001"]
	if entry.ActionType != outboxDomain.ActionTypeCertificateEmail {
		t.Errorf("expected certificate_email action type, got %q", entry.ActionType)
	}
	payload, err := outboxDomain.DecodeCertificateEmailPayload(entry.Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ApplicationID != 42 || payload.ApplicantEmail != "jane@example.com" {
		t.Errorf("unexpected payload: %+v", payload)
	}

	// No issuance record until a dispatch succeeds.
	if _, err := f.issuance.GetByApplicationID(context.Background(), 42); !errors.Is(err, issuanceStore.ErrNotFound) {
		t.Errorf("expected no issuance record after failed dispatch, got %v", err)
	}
}

func TestExecuteUpdateApplicationStatus_RenderFailureSkipsSend(t *testing.T) {
	f := newPipelineFixture(completedApp())
	f.renderer.err = errors.New("chromium crashed")

	_, err := ExecuteUpdateApplicationStatus(context.Background(), UpdateApplicationStatusInput{
		ApplicationID: 42,
		Status:        application.StatusCompleted,
	}, f.deps())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if f.sender.calls != 0 {
		t.Errorf("expected no send after render failure, got %d", f.sender.calls)
	}
}
