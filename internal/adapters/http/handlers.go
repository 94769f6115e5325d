package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"divecenter/internal/adapters/backend"
	"divecenter/internal/application/orchestrators"
	"divecenter/internal/application/projections"
	"divecenter/internal/domain/booking"
	"divecenter/internal/domain/room"
	"divecenter/internal/domain/testimonial"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts a markdown body to HTML, falling back to the raw
// text on conversion failure.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData writes the standard success envelope mirroring the backend's.
func writeData(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// writeError writes the standard failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID parses the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleHealthz reports liveness.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": timeNow().UTC().Format(time.RFC3339)})
}

// --- Rooms ---

func handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := backendClient.ListRooms(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeData(w, "rooms retrieved", roomsJSON(rooms))
}

func handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	rm, err := backendClient.GetRoom(r.Context(), id)
	if err != nil {
		if backend.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		internalError(w, err)
		return
	}
	writeData(w, "room retrieved", roomJSON(rm))
}

// handleRoomAvailability reports which rooms are free for a date range
// (?check_in=YYYY-MM-DD&check_out=YYYY-MM-DD&guests=N).
func handleRoomAvailability(w http.ResponseWriter, r *http.Request) {
	checkIn, err1 := time.Parse("2006-01-02", r.URL.Query().Get("check_in"))
	checkOut, err2 := time.Parse("2006-01-02", r.URL.Query().Get("check_out"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "check_in and check_out must be YYYY-MM-DD dates")
		return
	}
	guests, _ := strconv.Atoi(r.URL.Query().Get("guests"))

	result, err := projections.QueryGetRoomAvailability(r.Context(), projections.GetRoomAvailabilityQuery{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   guests,
	}, projections.GetRoomAvailabilityDeps{Backend: backendClient})
	if err != nil {
		if err == booking.ErrInvalidCheckOut {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(result.Rooms))
	for _, ra := range result.Rooms {
		entry := roomJSON(ra.Room)
		entry["available"] = ra.Available
		out = append(out, entry)
	}
	writeData(w, "availability computed", out)
}

func roomJSON(rm room.Room) map[string]any {
	return map[string]any{
		"id":              rm.ID,
		"name":            rm.Name,
		"type":            rm.Type,
		"capacity":        rm.Capacity,
		"price_per_night": rm.PricePerNight,
		"description":     rm.Description,
	}
}

func roomsJSON(rooms []room.Room) []map[string]any {
	out := make([]map[string]any, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, roomJSON(rm))
	}
	return out
}

// --- Bookings ---

const bookingDateLayout = "2006-01-02"

type bookingRequest struct {
	RoomID     int64  `json:"room_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
}

func handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	checkIn, err1 := time.Parse(bookingDateLayout, req.CheckIn)
	checkOut, err2 := time.Parse(bookingDateLayout, req.CheckOut)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "check_in and check_out must be YYYY-MM-DD dates")
		return
	}

	created, err := orchestrators.ExecuteCreateBooking(r.Context(), orchestrators.CreateBookingInput{
		Booking: booking.Booking{
			RoomID:     req.RoomID,
			GuestName:  req.GuestName,
			GuestEmail: req.GuestEmail,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Guests:     req.Guests,
		},
	}, orchestrators.CreateBookingDeps{Backend: backendClient})
	if err != nil {
		switch err {
		case orchestrators.ErrRoomNotFound:
			writeError(w, http.StatusNotFound, err.Error())
		case orchestrators.ErrRoomTooSmall, orchestrators.ErrRoomNotAvailable,
			booking.ErrEmptyRoom, booking.ErrEmptyGuestName, booking.ErrInvalidEmail,
			booking.ErrInvalidGuests, booking.ErrInvalidCheckIn, booking.ErrInvalidCheckOut:
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			internalError(w, err)
		}
		return
	}

	writeData(w, "booking created", bookingJSON(created))
}

func handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := backendClient.ListBookings(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingJSON(b))
	}
	writeData(w, "bookings retrieved", out)
}

func bookingJSON(b booking.Booking) map[string]any {
	return map[string]any{
		"id":          b.ID,
		"room_id":     b.RoomID,
		"guest_name":  b.GuestName,
		"guest_email": b.GuestEmail,
		"check_in":    b.CheckIn.Format(bookingDateLayout),
		"check_out":   b.CheckOut.Format(bookingDateLayout),
		"guests":      b.Guests,
		"status":      b.Status,
		"nights":      b.Nights(),
	}
}

// --- Courses ---

func handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := backendClient.ListCourses(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(courses))
	for _, c := range courses {
		out = append(out, map[string]any{
			"id":            c.ID,
			"name":          c.Name,
			"level":         c.Level,
			"duration_days": c.DurationDays,
			"price":         c.Price,
			"description":   c.Description,
		})
	}
	writeData(w, "certifications retrieved", out)
}

// --- Testimonials ---

type testimonialRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

func handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := backendClient.ListTestimonials(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(testimonials))
	for _, t := range testimonials {
		out = append(out, testimonialJSON(t))
	}
	writeData(w, "testimonials retrieved", out)
}

func handleSubmitTestimonial(w http.ResponseWriter, r *http.Request) {
	var req testimonialRequest
	if err := strictDecode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := orchestrators.ExecuteSubmitTestimonial(r.Context(), orchestrators.SubmitTestimonialInput{
		Testimonial: testimonial.Testimonial{
			Name:    req.Name,
			Email:   req.Email,
			Content: req.Content,
			Rating:  req.Rating,
		},
	}, orchestrators.SubmitTestimonialDeps{Backend: backendClient})
	if err != nil {
		if testimonial.IsValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		internalError(w, err)
		return
	}

	writeData(w, "testimonial submitted", testimonialJSON(created))
}

func testimonialJSON(t testimonial.Testimonial) map[string]any {
	return map[string]any{
		"id":      t.ID,
		"name":    t.Name,
		"content": t.Content,
		"rating":  t.Rating,
	}
}

// --- Blog ---

func handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := backendClient.ListPosts(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		out = append(out, map[string]any{
			"id":           p.ID,
			"slug":         p.Slug,
			"title":        p.Title,
			"published_at": p.PublishedAt,
		})
	}
	writeData(w, "posts retrieved", out)
}

func handleGetPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	post, err := backendClient.GetPost(r.Context(), slug)
	if err != nil {
		if backend.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		internalError(w, err)
		return
	}
	writeData(w, "post retrieved", map[string]any{
		"id":           post.ID,
		"slug":         post.Slug,
		"title":        post.Title,
		"body":         post.Body,
		"body_html":    renderMarkdown(post.Body),
		"published_at": post.PublishedAt,
	})
}

// --- Users ---

func handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := backendClient.ListUsers(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeData(w, "users retrieved", users)
}
