package backend

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"divecenter/internal/domain/application"
	"divecenter/internal/domain/booking"
	"divecenter/internal/domain/course"
	"divecenter/internal/domain/room"
	"divecenter/internal/domain/testimonial"
)

// envelope is the backend's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// flexID accepts identifiers serialized as either JSON numbers or strings; the
// backend is not consistent about which it emits.
type flexID int64

// UnmarshalJSON coerces string or numeric identifiers to int64.
func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

// applicationRecord mirrors the backend wire shape for certification
// applications. Applicant and certification details arrive either nested or
// flattened depending on the endpoint version.
type applicationRecord struct {
	ID             flexID `json:"id"`
	Status         string `json:"status"`
	CompletionDate string `json:"completion_date"`
	User           struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Certification struct {
		Name string `json:"name"`
	} `json:"certification"`
	UserName          string `json:"user_name"`
	UserEmail         string `json:"user_email"`
	CertificationName string `json:"certification_name"`
}

func (r applicationRecord) toDomain() application.Application {
	name := r.User.Name
	if name == "" {
		name = r.UserName
	}
	email := r.User.Email
	if email == "" {
		email = r.UserEmail
	}
	courseName := r.Certification.Name
	if courseName == "" {
		courseName = r.CertificationName
	}
	return application.Application{
		ID:             int64(r.ID),
		ApplicantName:  name,
		ApplicantEmail: email,
		CourseName:     courseName,
		CompletionDate: r.CompletionDate,
		Status:         r.Status,
	}
}

type roomRecord struct {
	ID            flexID  `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Capacity      int     `json:"capacity"`
	PricePerNight float64 `json:"price_per_night"`
	Description   string  `json:"description"`
}

func (r roomRecord) toDomain() room.Room {
	return room.Room{
		ID:            int64(r.ID),
		Name:          r.Name,
		Type:          r.Type,
		Capacity:      r.Capacity,
		PricePerNight: r.PricePerNight,
		Description:   r.Description,
	}
}

const bookingDateLayout = "2006-01-02"

type bookingRecord struct {
	ID         flexID `json:"id"`
	RoomID     flexID `json:"room_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
	Status     string `json:"status"`
}

func (r bookingRecord) toDomain() booking.Booking {
	checkIn, _ := time.Parse(bookingDateLayout, r.CheckIn)
	checkOut, _ := time.Parse(bookingDateLayout, r.CheckOut)
	return booking.Booking{
		ID:         int64(r.ID),
		RoomID:     int64(r.RoomID),
		GuestName:  r.GuestName,
		GuestEmail: r.GuestEmail,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     r.Guests,
		Status:     r.Status,
	}
}

// bookingPayload is the outbound shape for booking creation.
type bookingPayload struct {
	RoomID     int64  `json:"room_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
}

type courseRecord struct {
	ID           flexID  `json:"id"`
	Name         string  `json:"name"`
	Level        string  `json:"level"`
	DurationDays int     `json:"duration_days"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
}

func (r courseRecord) toDomain() course.Course {
	return course.Course{
		ID:           int64(r.ID),
		Name:         r.Name,
		Level:        r.Level,
		DurationDays: r.DurationDays,
		Price:        r.Price,
		Description:  r.Description,
	}
}

type testimonialRecord struct {
	ID      flexID `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

func (r testimonialRecord) toDomain() testimonial.Testimonial {
	return testimonial.Testimonial{
		ID:      int64(r.ID),
		Name:    r.Name,
		Email:   r.Email,
		Content: r.Content,
		Rating:  r.Rating,
	}
}

// User is a diver account as served by the backend.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type userRecord struct {
	ID    flexID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Post is a blog entry from the backend; Body is markdown.
type Post struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
}

type postRecord struct {
	ID          flexID `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
}
