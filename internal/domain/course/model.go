package course

// Course is a certification course from the backend catalog (Open Water,
// Advanced Open Water, Rescue Diver, ...). Read-only here.
type Course struct {
	ID           int64
	Name         string
	Level        string
	DurationDays int
	Price        float64
	Description  string
}
