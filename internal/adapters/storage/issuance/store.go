// Package issuance persists the record of certificates that have already been
// issued, keyed by application ID. The pipeline consults it so a repeated
// completion update does not send a second certificate.
package issuance

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no issuance exists for an application.
var ErrNotFound = errors.New("issuance: not found")

// Record captures one issued certificate.
type Record struct {
	ApplicationID     int64
	CertificateNumber string
	ApplicantName     string
	ApplicantEmail    string
	CourseName        string
	CompletionDate    string // formatted display date as it appeared on the certificate
	IssuedAt          time.Time
	MessageID         string // provider message ID of the dispatch
}

// Store persists issuance records.
type Store interface {
	// GetByApplicationID retrieves the issuance for an application.
	// PRE: applicationID > 0
	// POST: Returns the record or ErrNotFound
	GetByApplicationID(ctx context.Context, applicationID int64) (Record, error)

	// Save persists an issuance record (insert or update).
	// PRE: record has ApplicationID and CertificateNumber set
	// POST: Record is persisted
	Save(ctx context.Context, r Record) error

	// List returns the most recent issuances.
	// PRE: limit > 0
	// POST: Returns up to limit records ordered by issued_at desc
	List(ctx context.Context, limit int) ([]Record, error)
}
