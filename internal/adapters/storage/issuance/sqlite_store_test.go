package issuance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"divecenter/internal/adapters/storage"
)

// openTestDB creates an in-memory SQLite database with the full schema.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db
}

func testRecord(appID int64) Record {
	return Record{
		ApplicationID:     appID,
		CertificateNumber: "CERT-42-1700000000000",
		ApplicantName:     "Jane Diver",
		ApplicantEmail:    "jane@example.com",
		CourseName:        "Open Water Diver",
		CompletionDate:    "March 05, 2025",
		IssuedAt:          time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC),
		MessageID:         "msg-abc",
	}
}

func TestSaveAndGetByApplicationID(t *testing.T) {
	db := openTestDB(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	want := testRecord(42)
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByApplicationID(ctx, 42)
	if err != nil {
		t.Fatalf("GetByApplicationID: %v", err)
	}
	if got.CertificateNumber != want.CertificateNumber {
		t.Errorf("CertificateNumber = %q, want %q", got.CertificateNumber, want.CertificateNumber)
	}
	if got.ApplicantEmail != want.ApplicantEmail {
		t.Errorf("ApplicantEmail = %q, want %q", got.ApplicantEmail, want.ApplicantEmail)
	}
	if !got.IssuedAt.Equal(want.IssuedAt) {
		t.Errorf("IssuedAt = %v, want %v", got.IssuedAt, want.IssuedAt)
	}
}

func TestGetByApplicationIDNotFound(t *testing.T) {
	db := openTestDB(t)
	store := NewSQLiteStore(db)

	_, err := store.GetByApplicationID(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveUpsertsOnApplicationID(t *testing.T) {
	db := openTestDB(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	first := testRecord(7)
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := first
	second.CertificateNumber = "CERT-7-1800000000000"
	second.MessageID = "msg-resend"
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := store.GetByApplicationID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByApplicationID: %v", err)
	}
	if got.CertificateNumber != second.CertificateNumber {
		t.Errorf("CertificateNumber = %q, want upserted %q", got.CertificateNumber, second.CertificateNumber)
	}

	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record after upsert, got %d", len(records))
	}
}

func TestListOrdersByIssuedAtDesc(t *testing.T) {
	db := openTestDB(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	older := testRecord(1)
	older.IssuedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testRecord(2)
	newer.IssuedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, r := range []Record{older, newer} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ApplicationID != 2 {
		t.Errorf("expected newest first, got application %d", records[0].ApplicationID)
	}
}
