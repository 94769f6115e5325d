package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"divecenter/internal/adapters/backend"
	"divecenter/internal/domain/booking"
	"divecenter/internal/domain/room"
)

// BookingBackend defines the backend operations needed by CreateBooking.
type BookingBackend interface {
	GetRoom(ctx context.Context, id int64) (room.Room, error)
	ListBookings(ctx context.Context) ([]booking.Booking, error)
	CreateBooking(ctx context.Context, b booking.Booking) (booking.Booking, error)
}

// CreateBookingInput carries input for the booking orchestrator.
type CreateBookingInput struct {
	Booking booking.Booking
}

// CreateBookingDeps holds dependencies for CreateBooking.
type CreateBookingDeps struct {
	Backend BookingBackend
}

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomTooSmall     = errors.New("room cannot accommodate the requested number of guests")
	ErrRoomNotAvailable = errors.New("room is not available for the requested dates")
)

// ExecuteCreateBooking validates a booking locally and against the current
// booking list, then forwards it to the backend of record.
// PRE: input.Booking carries room, guest and date fields
// POST: Booking created on the backend, returned with its assigned ID
// INVARIANT: No backend write happens for a booking that fails local validation
func ExecuteCreateBooking(ctx context.Context, input CreateBookingInput, deps CreateBookingDeps) (booking.Booking, error) {
	b := input.Booking
	if err := b.Validate(); err != nil {
		return booking.Booking{}, err
	}

	rm, err := deps.Backend.GetRoom(ctx, b.RoomID)
	if err != nil {
		if backend.IsNotFound(err) {
			return booking.Booking{}, ErrRoomNotFound
		}
		return booking.Booking{}, fmt.Errorf("get room: %w", err)
	}
	if !rm.Fits(b.Guests) {
		return booking.Booking{}, ErrRoomTooSmall
	}

	existing, err := deps.Backend.ListBookings(ctx)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("list bookings: %w", err)
	}
	for _, other := range existing {
		if other.RoomID != b.RoomID || other.Status == booking.StatusCancelled {
			continue
		}
		if other.Overlaps(b.CheckIn, b.CheckOut) {
			return booking.Booking{}, ErrRoomNotAvailable
		}
	}

	created, err := deps.Backend.CreateBooking(ctx, b)
	if err != nil {
		slog.Error("booking_event", "event", "create_failed", "room_id", b.RoomID, "error", err.Error())
		return booking.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	slog.Info("booking_event", "event", "created", "booking_id", created.ID, "room_id", created.RoomID, "nights", created.Nights())
	return created, nil
}
