package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"divecenter/internal/domain/application"
	"divecenter/internal/domain/booking"
	"divecenter/internal/domain/course"
	"divecenter/internal/domain/room"
	"divecenter/internal/domain/testimonial"
)

// Error is a non-success response from the backend of record.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("backend: request failed (status %d)", e.StatusCode)
}

// Client talks to the dive-center backend REST API. Every call is bounded by
// the configured per-request timeout on top of whatever deadline the caller's
// context carries.
type Client struct {
	baseURL  string
	apiToken string
	client   *http.Client
	timeout  time.Duration
}

// Config carries construction parameters for the backend client.
type Config struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a backend API client.
// PRE: cfg.BaseURL is non-empty
// POST: Returns a ready-to-use client with a bounded per-call timeout
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base url required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiToken: cfg.APIToken,
		client:   client,
		timeout:  timeout,
	}, nil
}

// doJSON issues one request and decodes the backend envelope into out (when
// out is non-nil). Non-2xx statuses and success=false envelopes both surface
// as *Error.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("backend build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("backend_request_failed", "method", method, "path", path, "error", err.Error())
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("backend read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Some endpoints return the data without the wrapper.
		if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
			if err := json.Unmarshal(raw, out); err == nil {
				return nil
			}
		}
		return &Error{StatusCode: resp.StatusCode, Message: "malformed response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (!env.Success && (env.Error != "" || env.Message != "")) {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		slog.Warn("backend_error_response", "method", method, "path", path, "status", resp.StatusCode, "message", msg)
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("backend decode data: %w", err)
		}
	}
	return nil
}

// UpdateApplicationStatus commits a status change for a certification
// application to the backend of record.
// PRE: status has been validated against application.ValidStatuses
// POST: Remote application state is mutated exactly once; returns the
// acknowledged record
func (c *Client) UpdateApplicationStatus(ctx context.Context, id int64, status string) (application.Application, error) {
	var rec applicationRecord
	path := fmt.Sprintf("/certification-applications/%d/status", id)
	if err := c.doJSON(ctx, http.MethodPut, path, map[string]string{"status": status}, &rec); err != nil {
		return application.Application{}, err
	}
	ack := rec.toDomain()
	if ack.ID == 0 {
		ack.ID = id
	}
	if ack.Status == "" {
		ack.Status = status
	}
	return ack, nil
}

// ListApplications fetches the full certification-application collection. The
// backend exposes no single-record endpoint, so callers locate records with a
// linear scan.
func (c *Client) ListApplications(ctx context.Context) ([]application.Application, error) {
	var recs []applicationRecord
	if err := c.doJSON(ctx, http.MethodGet, "/certification-applications", nil, &recs); err != nil {
		return nil, err
	}
	apps := make([]application.Application, 0, len(recs))
	for _, r := range recs {
		apps = append(apps, r.toDomain())
	}
	return apps, nil
}

// ListRooms fetches the room catalog.
func (c *Client) ListRooms(ctx context.Context) ([]room.Room, error) {
	var recs []roomRecord
	if err := c.doJSON(ctx, http.MethodGet, "/rooms", nil, &recs); err != nil {
		return nil, err
	}
	rooms := make([]room.Room, 0, len(recs))
	for _, r := range recs {
		rooms = append(rooms, r.toDomain())
	}
	return rooms, nil
}

// GetRoom fetches one room by id.
func (c *Client) GetRoom(ctx context.Context, id int64) (room.Room, error) {
	var rec roomRecord
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/rooms/%d", id), nil, &rec); err != nil {
		return room.Room{}, err
	}
	return rec.toDomain(), nil
}

// ListBookings fetches all bookings.
func (c *Client) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	var recs []bookingRecord
	if err := c.doJSON(ctx, http.MethodGet, "/bookings", nil, &recs); err != nil {
		return nil, err
	}
	bookings := make([]booking.Booking, 0, len(recs))
	for _, r := range recs {
		bookings = append(bookings, r.toDomain())
	}
	return bookings, nil
}

// CreateBooking forwards a validated booking request.
// PRE: b.Validate() returned nil
// POST: Booking is stored by the backend; returns the acknowledged record
func (c *Client) CreateBooking(ctx context.Context, b booking.Booking) (booking.Booking, error) {
	payload := bookingPayload{
		RoomID:     b.RoomID,
		GuestName:  b.GuestName,
		GuestEmail: b.GuestEmail,
		CheckIn:    b.CheckIn.Format(bookingDateLayout),
		CheckOut:   b.CheckOut.Format(bookingDateLayout),
		Guests:     b.Guests,
	}
	var rec bookingRecord
	if err := c.doJSON(ctx, http.MethodPost, "/bookings", payload, &rec); err != nil {
		return booking.Booking{}, err
	}
	return rec.toDomain(), nil
}

// ListCourses fetches the certification course catalog.
func (c *Client) ListCourses(ctx context.Context) ([]course.Course, error) {
	var recs []courseRecord
	if err := c.doJSON(ctx, http.MethodGet, "/certifications", nil, &recs); err != nil {
		return nil, err
	}
	courses := make([]course.Course, 0, len(recs))
	for _, r := range recs {
		courses = append(courses, r.toDomain())
	}
	return courses, nil
}

// ListTestimonials fetches published testimonials.
func (c *Client) ListTestimonials(ctx context.Context) ([]testimonial.Testimonial, error) {
	var recs []testimonialRecord
	if err := c.doJSON(ctx, http.MethodGet, "/testimonials", nil, &recs); err != nil {
		return nil, err
	}
	items := make([]testimonial.Testimonial, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.toDomain())
	}
	return items, nil
}

// CreateTestimonial forwards a validated testimonial submission.
// PRE: t.Validate() returned nil
func (c *Client) CreateTestimonial(ctx context.Context, t testimonial.Testimonial) (testimonial.Testimonial, error) {
	payload := map[string]any{
		"name":    t.Name,
		"email":   t.Email,
		"content": t.Content,
		"rating":  t.Rating,
	}
	var rec testimonialRecord
	if err := c.doJSON(ctx, http.MethodPost, "/testimonials", payload, &rec); err != nil {
		return testimonial.Testimonial{}, err
	}
	return rec.toDomain(), nil
}

// ListUsers fetches diver accounts (admin surface).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var recs []userRecord
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, &recs); err != nil {
		return nil, err
	}
	users := make([]User, 0, len(recs))
	for _, r := range recs {
		users = append(users, User{ID: int64(r.ID), Name: r.Name, Email: r.Email, Role: r.Role})
	}
	return users, nil
}

// ListPosts fetches blog posts; bodies are markdown.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var recs []postRecord
	if err := c.doJSON(ctx, http.MethodGet, "/blog", nil, &recs); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(recs))
	for _, r := range recs {
		posts = append(posts, Post{ID: int64(r.ID), Slug: r.Slug, Title: r.Title, Body: r.Body, PublishedAt: r.PublishedAt})
	}
	return posts, nil
}

// GetPost fetches one blog post by slug.
func (c *Client) GetPost(ctx context.Context, slug string) (Post, error) {
	var rec postRecord
	if err := c.doJSON(ctx, http.MethodGet, "/blog/"+slug, nil, &rec); err != nil {
		return Post{}, err
	}
	return Post{ID: int64(rec.ID), Slug: rec.Slug, Title: rec.Title, Body: rec.Body, PublishedAt: rec.PublishedAt}, nil
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.StatusCode == http.StatusNotFound
}
