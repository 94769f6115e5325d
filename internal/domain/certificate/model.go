package certificate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PDF page geometry for rendered certificates.
const (
	PageFormat = "A4"
	Landscape  = true
)

// Placeholder values substituted when the backend record is missing applicant
// fields and the data policy allows degradation.
const (
	PlaceholderName  = "Unknown User"
	PlaceholderEmail = "unknown@divers.invalid"
)

// Domain errors
var (
	ErrEmptyApplicantName = errors.New("applicant name is required")
	ErrEmptyCourseName    = errors.New("certification name is required")
	ErrEmptyNumber        = errors.New("certificate number is required")
	ErrEmptyPDF           = errors.New("certificate PDF payload is empty")
)

// Artifact is the ephemeral certificate produced for one completed application.
// It exists only for the lifetime of a single issuance: rendered, attached to an
// outbound email, then discarded. Nothing persists it besides the issuance record
// (which keeps the number, not the bytes).
type Artifact struct {
	ApplicationID  int64
	ApplicantName  string
	ApplicantEmail string
	CourseName     string
	CompletionDate string // human-formatted, see FormatCompletionDate
	Number         string
	PDF            []byte
}

// Validate checks that the Artifact carries everything the dispatcher needs.
// PRE: Artifact struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Artifact) Validate() error {
	if strings.TrimSpace(a.ApplicantName) == "" {
		return ErrEmptyApplicantName
	}
	if strings.TrimSpace(a.CourseName) == "" {
		return ErrEmptyCourseName
	}
	if strings.TrimSpace(a.Number) == "" {
		return ErrEmptyNumber
	}
	if len(a.PDF) == 0 {
		return ErrEmptyPDF
	}
	return nil
}

// Filename returns the canonical attachment filename for this artifact.
// One convention for all call sites: certificate-<applicationID>.pdf.
func (a *Artifact) Filename() string {
	return fmt.Sprintf("certificate-%d.pdf", a.ApplicationID)
}

// NewNumber derives a certificate number from the application id and the
// generation time. Numbers are unique per issuance, not per application: an
// explicit re-issue produces a fresh number.
func NewNumber(applicationID int64, issuedAt time.Time) string {
	return fmt.Sprintf("CERT-%d-%d", applicationID, issuedAt.UnixMilli())
}

// completionDateLayouts are the accepted inputs, tried in order. The backend
// emits RFC 3339 or date-only strings; day and month may be unpadded.
var completionDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-1-2 15:04:05",
	"2006-1-2",
}

// FormatCompletionDate renders a completion date as "January 02, 2006" with a
// zero-padded day. Absent, literal "undefined"/"null", or unparseable inputs all
// fall back to now, formatted the same way; the function never fails.
// POST: Returned string always matches <FullMonthName> <DD>, <YYYY>
func FormatCompletionDate(raw string, now time.Time) string {
	t, ok := ParseCompletionDate(raw)
	if !ok {
		t = now
	}
	return t.Format("January 02, 2006")
}

// ParseCompletionDate attempts to parse a backend completion date.
// POST: Returns the parsed time and true, or zero time and false
func ParseCompletionDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "undefined" || s == "null" {
		return time.Time{}, false
	}
	for _, layout := range completionDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
