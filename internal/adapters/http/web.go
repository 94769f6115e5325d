// Package web wires the HTTP surface: JSON handlers over the backend client,
// local auth, and the certificate pipeline trigger.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"divecenter/internal/adapters/http/middleware"
	accountStore "divecenter/internal/adapters/storage/account"
	issuanceStore "divecenter/internal/adapters/storage/issuance"
	outboxStore "divecenter/internal/adapters/storage/outbox"
	"divecenter/internal/application/orchestrators"
	"divecenter/internal/domain/account"
	"divecenter/internal/domain/application"
	"divecenter/internal/domain/booking"
	"divecenter/internal/domain/course"
	"divecenter/internal/domain/room"
	"divecenter/internal/domain/testimonial"

	"divecenter/internal/adapters/backend"
)

// Backend is the REST client surface the handlers depend on. *backend.Client
// satisfies it; tests substitute a stub.
type Backend interface {
	UpdateApplicationStatus(ctx context.Context, id int64, status string) (application.Application, error)
	ListApplications(ctx context.Context) ([]application.Application, error)
	ListRooms(ctx context.Context) ([]room.Room, error)
	GetRoom(ctx context.Context, id int64) (room.Room, error)
	ListBookings(ctx context.Context) ([]booking.Booking, error)
	CreateBooking(ctx context.Context, b booking.Booking) (booking.Booking, error)
	ListCourses(ctx context.Context) ([]course.Course, error)
	ListTestimonials(ctx context.Context) ([]testimonial.Testimonial, error)
	CreateTestimonial(ctx context.Context, t testimonial.Testimonial) (testimonial.Testimonial, error)
	ListUsers(ctx context.Context) ([]backend.User, error)
	ListPosts(ctx context.Context) ([]backend.Post, error)
	GetPost(ctx context.Context, slug string) (backend.Post, error)
}

var _ Backend = (*backend.Client)(nil)

// Stores holds all local storage dependencies.
type Stores struct {
	AccountStore  accountStore.Store
	IssuanceStore issuanceStore.Store
	OutboxStore   outboxStore.Store
}

// Config carries everything NewMux needs to wire the handlers.
type Config struct {
	Stores      *Stores
	Backend     Backend
	Certificate orchestrators.IssueCertificateDeps
	Processor   *orchestrators.OutboxProcessor
}

// loadCSRFKey reads the CSRF secret from DIVECENTER_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("DIVECENTER_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("DIVECENTER_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("DIVECENTER_ENV") == "production" {
		log.Fatal("DIVECENTER_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set DIVECENTER_CSRF_KEY for production.")
	return key
}

// Global wiring (set by NewMux)
var (
	stores        *Stores
	backendClient Backend
	certDeps      orchestrators.IssueCertificateDeps
	processor     *orchestrators.OutboxProcessor
	sessions      *middleware.SessionStore
)

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// NewMux wires HTTP handlers for the app.
func NewMux(cfg *Config) http.Handler {
	stores = cfg.Stores
	backendClient = cfg.Backend
	certDeps = cfg.Certificate
	processor = cfg.Processor
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("DIVECENTER_ENV") == "production"

	mux := http.NewServeMux()
	registerRoutes(mux)

	csrfKey := loadCSRFKey()
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: SecurityHeaders -> CSRF -> Auth -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
	)
}

func registerRoutes(mux *http.ServeMux) {
	requireAuth := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireRole(account.RoleAdmin)(h)
	}

	mux.HandleFunc("GET /healthz", handleHealthz)

	// Public catalog and submission endpoints
	mux.HandleFunc("GET /rooms", handleListRooms)
	mux.HandleFunc("GET /rooms/availability", handleRoomAvailability)
	mux.HandleFunc("GET /rooms/{id}", handleGetRoom)
	mux.HandleFunc("POST /bookings", handleCreateBooking)
	mux.HandleFunc("GET /certifications", handleListCourses)
	mux.HandleFunc("GET /testimonials", handleListTestimonials)
	mux.HandleFunc("POST /testimonials", handleSubmitTestimonial)
	mux.HandleFunc("GET /blog", handleListPosts)
	mux.HandleFunc("GET /blog/{slug}", handleGetPost)

	// Operator authentication
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)
	mux.Handle("POST /accounts/password", requireAuth(handleChangePassword))

	// Operator endpoints
	mux.Handle("GET /bookings", requireAuth(handleListBookings))
	mux.Handle("GET /certification-applications", requireAuth(handleListApplications))
	mux.Handle("POST /certification-applications/{id}/status", requireAuth(handleUpdateApplicationStatus))

	// Admin endpoints
	mux.Handle("GET /users", requireAdmin(handleListUsers))
	mux.Handle("GET /admin/issuances", requireAdmin(handleListIssuances))
	mux.Handle("GET /admin/outbox", requireAdmin(handleListOutbox))
	mux.Handle("POST /admin/outbox/{id}/retry", requireAdmin(handleRetryOutboxEntry))
	mux.Handle("POST /admin/outbox/{id}/abandon", requireAdmin(handleAbandonOutboxEntry))
}
