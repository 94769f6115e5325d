package booking_test

import (
	"testing"
	"time"

	"divecenter/internal/domain/booking"
)

func validBooking() booking.Booking {
	return booking.Booking{
		RoomID:     3,
		GuestName:  "Jane Diver",
		GuestEmail: "jane@example.com",
		CheckIn:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
		Guests:     2,
	}
}

// TestBooking_Validate tests validation of Booking.
func TestBooking_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *booking.Booking)
		wantErr error
	}{
		{"valid", func(b *booking.Booking) {}, nil},
		{"no room", func(b *booking.Booking) { b.RoomID = 0 }, booking.ErrEmptyRoom},
		{"empty name", func(b *booking.Booking) { b.GuestName = " " }, booking.ErrEmptyGuestName},
		{"bad email", func(b *booking.Booking) { b.GuestEmail = "nope" }, booking.ErrInvalidEmail},
		{"zero guests", func(b *booking.Booking) { b.Guests = 0 }, booking.ErrInvalidGuests},
		{"no check-in", func(b *booking.Booking) { b.CheckIn = time.Time{} }, booking.ErrInvalidCheckIn},
		{"check-out before check-in", func(b *booking.Booking) { b.CheckOut = b.CheckIn.AddDate(0, 0, -1) }, booking.ErrInvalidCheckOut},
		{"check-out equals check-in", func(b *booking.Booking) { b.CheckOut = b.CheckIn }, booking.ErrInvalidCheckOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(&b)
			if err := b.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestBooking_Nights verifies night counting.
func TestBooking_Nights(t *testing.T) {
	b := validBooking()
	if got := b.Nights(); got != 3 {
		t.Errorf("Nights() = %d, want 3", got)
	}
}

// TestBooking_Overlaps verifies date-range overlap detection.
func TestBooking_Overlaps(t *testing.T) {
	b := validBooking() // Sep 1 – Sep 4

	day := func(d int) time.Time { return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name           string
		in, out        time.Time
		want           bool
	}{
		{"inside", day(2), day(3), true},
		{"spanning", day(1), day(10), true},
		{"starts during", day(3), day(6), true},
		{"back to back after", day(4), day(6), false},
		{"back to back before", day(1).AddDate(0, 0, -3), day(1), false},
		{"disjoint", day(10), day(12), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Overlaps(tt.in, tt.out); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.in, tt.out, got, tt.want)
			}
		})
	}
}
