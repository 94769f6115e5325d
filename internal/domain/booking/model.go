package booking

import (
	"errors"
	"strings"
	"time"
)

// Status constants for bookings as reported by the backend.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Domain errors
var (
	ErrEmptyGuestName  = errors.New("guest name is required")
	ErrInvalidEmail    = errors.New("guest email must contain '@'")
	ErrInvalidGuests   = errors.New("guest count must be at least 1")
	ErrInvalidCheckIn  = errors.New("check-in date is required")
	ErrInvalidCheckOut = errors.New("check-out must be after check-in")
	ErrEmptyRoom       = errors.New("room is required")
)

// Booking is a room reservation request. The backend is the system of record;
// this side validates the payload before forwarding it.
type Booking struct {
	ID         int64
	RoomID     int64
	GuestName  string
	GuestEmail string
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	Status     string
}

// Validate checks the booking request before it is forwarded to the backend.
// PRE: Booking struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Booking) Validate() error {
	if b.RoomID <= 0 {
		return ErrEmptyRoom
	}
	if strings.TrimSpace(b.GuestName) == "" {
		return ErrEmptyGuestName
	}
	if !strings.Contains(b.GuestEmail, "@") {
		return ErrInvalidEmail
	}
	if b.Guests < 1 {
		return ErrInvalidGuests
	}
	if b.CheckIn.IsZero() {
		return ErrInvalidCheckIn
	}
	if b.CheckOut.IsZero() || !b.CheckOut.After(b.CheckIn) {
		return ErrInvalidCheckOut
	}
	return nil
}

// Nights returns the whole number of nights covered by the booking.
// INVARIANT: Booking fields are not mutated
func (b *Booking) Nights() int {
	if b.CheckOut.Before(b.CheckIn) {
		return 0
	}
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Overlaps reports whether two date ranges share at least one night.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && checkIn.Before(b.CheckOut)
}
