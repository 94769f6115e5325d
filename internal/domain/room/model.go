package room

// Room is a dive-center room as served by the backend catalog. Read-only here.
type Room struct {
	ID            int64
	Name          string
	Type          string // e.g. "standard", "sea_view", "dorm"
	Capacity      int
	PricePerNight float64
	Description   string
}

// Fits reports whether the room can host the requested party size.
func (r *Room) Fits(guests int) bool {
	return guests > 0 && guests <= r.Capacity
}
