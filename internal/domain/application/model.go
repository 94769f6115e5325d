package application

import (
	"errors"
	"strings"
)

// Status constants for a certification application. The backend owns the state
// machine; these are the values this server recognizes and will forward.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusRejected  = "rejected"
)

// ValidStatuses contains all recognized status values.
var ValidStatuses = []string{
	StatusPending, StatusApproved, StatusOngoing,
	StatusCompleted, StatusCancelled, StatusRejected,
}

// Domain errors
var (
	ErrInvalidStatus = errors.New("status must be one of: pending, approved, ongoing, completed, cancelled, rejected")
	ErrNotFound      = errors.New("application not found")
)

// Application is the certification application record as read from the backend.
// This side never writes it directly; the only mutation is the status update
// issued through the backend API.
type Application struct {
	ID             int64
	ApplicantName  string
	ApplicantEmail string
	CourseName     string
	CompletionDate string // raw backend value, formatted at certificate time
	Status         string
}

// ValidStatus reports whether s is a recognized status value.
// PRE: none
// POST: Returns true only for the six enumerated statuses
func ValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsCompletion reports whether a transition to s triggers certificate issuance.
func IsCompletion(s string) bool {
	return s == StatusCompleted
}

// HasApplicantData reports whether the record carries everything the certificate
// pipeline needs without substitution.
// INVARIANT: Application fields are not mutated
func (a *Application) HasApplicantData() bool {
	return strings.TrimSpace(a.ApplicantName) != "" &&
		strings.TrimSpace(a.ApplicantEmail) != "" &&
		strings.TrimSpace(a.CompletionDate) != ""
}

// FindByID linear-scans the collection for a matching identifier. The backend
// exposes no single-record fetch, so the locator works over the full list.
// POST: Returns the matching application or ErrNotFound
func FindByID(apps []Application, id int64) (Application, error) {
	for _, a := range apps {
		if a.ID == id {
			return a, nil
		}
	}
	return Application{}, ErrNotFound
}
