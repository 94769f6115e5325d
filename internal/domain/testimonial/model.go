package testimonial

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxContentLength = 2000
	MaxNameLength    = 120
)

// Domain errors
var (
	ErrEmptyName      = errors.New("name is required")
	ErrEmptyContent   = errors.New("testimonial content is required")
	ErrContentTooLong = errors.New("testimonial content cannot exceed 2000 characters")
	ErrNameTooLong    = errors.New("name cannot exceed 120 characters")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// Testimonial is a guest review submitted through this server and stored by the
// backend.
type Testimonial struct {
	ID      int64
	Name    string
	Email   string
	Content string
	Rating  int
}

// Validate checks a testimonial submission before it is forwarded.
// PRE: Testimonial struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Testimonial) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(t.Content) == "" {
		return ErrEmptyContent
	}
	if len(t.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	if t.Rating < 1 || t.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// IsValidationError reports whether err is one of this package's validation errors.
func IsValidationError(err error) bool {
	for _, e := range []error{ErrEmptyName, ErrEmptyContent, ErrContentTooLong, ErrNameTooLong, ErrInvalidRating} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
