package projections

import (
	"context"
	"fmt"
	"time"

	"divecenter/internal/domain/booking"
	"divecenter/internal/domain/room"
)

// RoomAvailabilityBackend fetches rooms and bookings from the backend.
type RoomAvailabilityBackend interface {
	ListRooms(ctx context.Context) ([]room.Room, error)
	ListBookings(ctx context.Context) ([]booking.Booking, error)
}

// GetRoomAvailabilityQuery carries query parameters.
type GetRoomAvailabilityQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int // 0 means any capacity
}

// RoomAvailability pairs a room with its availability for the queried range.
type RoomAvailability struct {
	Room      room.Room
	Available bool
}

// GetRoomAvailabilityResult carries the query result.
type GetRoomAvailabilityResult struct {
	Rooms []RoomAvailability
}

// GetRoomAvailabilityDeps holds dependencies for GetRoomAvailability.
type GetRoomAvailabilityDeps struct {
	Backend RoomAvailabilityBackend
}

// QueryGetRoomAvailability cross-references the room catalog with current
// bookings to flag which rooms are free for a date range.
// PRE: CheckIn is before CheckOut
// POST: Returns every room fitting the guest count, flagged available when no
// non-cancelled booking overlaps the range
func QueryGetRoomAvailability(ctx context.Context, query GetRoomAvailabilityQuery, deps GetRoomAvailabilityDeps) (GetRoomAvailabilityResult, error) {
	if !query.CheckIn.Before(query.CheckOut) {
		return GetRoomAvailabilityResult{}, booking.ErrInvalidCheckOut
	}

	rooms, err := deps.Backend.ListRooms(ctx)
	if err != nil {
		return GetRoomAvailabilityResult{}, fmt.Errorf("list rooms: %w", err)
	}
	bookings, err := deps.Backend.ListBookings(ctx)
	if err != nil {
		return GetRoomAvailabilityResult{}, fmt.Errorf("list bookings: %w", err)
	}

	// Index overlapping bookings by room
	occupied := make(map[int64]bool)
	for _, b := range bookings {
		if b.Status == booking.StatusCancelled {
			continue
		}
		if b.Overlaps(query.CheckIn, query.CheckOut) {
			occupied[b.RoomID] = true
		}
	}

	var result []RoomAvailability
	for _, r := range rooms {
		if query.Guests > 0 && !r.Fits(query.Guests) {
			continue
		}
		result = append(result, RoomAvailability{
			Room:      r,
			Available: !occupied[r.ID],
		})
	}

	return GetRoomAvailabilityResult{Rooms: result}, nil
}
