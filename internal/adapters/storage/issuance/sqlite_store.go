package issuance

import (
	"context"
	"database/sql"
	"time"

	"divecenter/internal/adapters/storage"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const recordColumns = "application_id, certificate_number, applicant_name, applicant_email, course_name, completion_date, issued_at, message_id"

// SQLiteStore implements the issuance Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new issuance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByApplicationID retrieves the issuance for an application.
// PRE: applicationID > 0
// POST: Returns the record or ErrNotFound
func (s *SQLiteStore) GetByApplicationID(ctx context.Context, applicationID int64) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM certificate_issuance WHERE application_id = ?", applicationID)
	r, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	return r, err
}

// Save persists an issuance record (insert or update).
// PRE: record has ApplicationID and CertificateNumber set
// POST: Record is persisted
func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO certificate_issuance (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(application_id) DO UPDATE SET
		   certificate_number=excluded.certificate_number, applicant_name=excluded.applicant_name,
		   applicant_email=excluded.applicant_email, course_name=excluded.course_name,
		   completion_date=excluded.completion_date, issued_at=excluded.issued_at,
		   message_id=excluded.message_id`,
		r.ApplicationID, r.CertificateNumber, r.ApplicantName, r.ApplicantEmail,
		r.CourseName, r.CompletionDate, r.IssuedAt.Format(dateLayout), r.MessageID)
	return err
}

// List returns the most recent issuances.
// PRE: limit > 0
// POST: Returns up to limit records ordered by issued_at desc
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM certificate_issuance ORDER BY issued_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(scan func(dest ...interface{}) error) (Record, error) {
	var r Record
	var issuedAt string
	err := scan(&r.ApplicationID, &r.CertificateNumber, &r.ApplicantName, &r.ApplicantEmail,
		&r.CourseName, &r.CompletionDate, &issuedAt, &r.MessageID)
	if err != nil {
		return Record{}, err
	}
	r.IssuedAt, _ = time.Parse(dateLayout, issuedAt)
	return r, nil
}
