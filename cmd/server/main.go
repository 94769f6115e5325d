package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"divecenter/internal/adapters/backend"
	emailPkg "divecenter/internal/adapters/email"
	web "divecenter/internal/adapters/http"
	"divecenter/internal/adapters/render"
	"divecenter/internal/adapters/storage"
	accountStore "divecenter/internal/adapters/storage/account"
	issuanceStore "divecenter/internal/adapters/storage/issuance"
	outboxStore "divecenter/internal/adapters/storage/outbox"
	"divecenter/internal/application/orchestrators"
	"divecenter/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	env := envOrDefault("DIVECENTER_ENV", "development")
	logLevel := slog.LevelInfo
	if env != "production" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Local database for accounts, issuance records, and the outbox. All
	// catalog data lives in the backend.
	dbPath := envOrDefault("DIVECENTER_DB", "divecenter.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	acctStore := accountStore.NewSQLiteStore(db)
	stores := &web.Stores{
		AccountStore:  acctStore,
		IssuanceStore: issuanceStore.NewSQLiteStore(db),
		OutboxStore:   outboxStore.NewSQLiteStore(db),
	}

	// Seed default admin account if no accounts exist
	adminEmail := envOrDefault("DIVECENTER_ADMIN_EMAIL", "admin@bluereef.example")
	adminPassword := envOrDefault("DIVECENTER_ADMIN_PASSWORD", "Thermocline sunrise")
	seedDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Backend REST client
	backendClient, err := backend.NewClient(backend.Config{
		BaseURL:  envOrDefault("DIVECENTER_BACKEND_URL", "http://localhost:8000/api"),
		APIToken: os.Getenv("DIVECENTER_BACKEND_TOKEN"),
		Timeout:  envDuration("DIVECENTER_BACKEND_TIMEOUT", 10*time.Second),
	})
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}

	// Certificate rendering
	renderer := render.NewPlaywrightRenderer(envDuration("DIVECENTER_RENDER_TIMEOUT", render.DefaultTimeout))
	assets := render.LoadAssets(envOrDefault("DIVECENTER_ASSETS_DIR", "assets"))

	// Email sender: Resend when a key is present, SMTP as the fallback
	// transport, noop otherwise.
	emailFrom := envOrDefault("DIVECENTER_EMAIL_FROM", "Blue Reef Dive Center <noreply@bluereef.example>")
	var sender emailPkg.Sender
	switch {
	case os.Getenv("DIVECENTER_RESEND_KEY") != "":
		sender = emailPkg.NewResendSender(os.Getenv("DIVECENTER_RESEND_KEY"), emailFrom)
		log.Println("Email sender configured (Resend)")
	case os.Getenv("DIVECENTER_SMTP_HOST") != "":
		port, err := strconv.Atoi(envOrDefault("DIVECENTER_SMTP_PORT", "587"))
		if err != nil {
			log.Fatalf("invalid DIVECENTER_SMTP_PORT: %v", err)
		}
		smtpSender, err := emailPkg.NewSMTPSender(emailPkg.SMTPConfig{
			Host:     os.Getenv("DIVECENTER_SMTP_HOST"),
			Port:     port,
			Secure:   os.Getenv("DIVECENTER_SMTP_SECURE") == "true",
			Username: os.Getenv("DIVECENTER_SMTP_USER"),
			Password: os.Getenv("DIVECENTER_SMTP_PASS"),
			From:     emailFrom,
		})
		if err != nil {
			log.Fatalf("failed to configure SMTP sender: %v", err)
		}
		sender = smtpSender
		log.Println("Email sender configured (SMTP)")
	default:
		sender = emailPkg.NewNoopSender()
		if env == "production" {
			log.Println("WARNING: no email transport configured; certificate delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop; set DIVECENTER_RESEND_KEY or DIVECENTER_SMTP_HOST for real delivery)")
		}
	}

	certDeps := orchestrators.IssueCertificateDeps{
		Renderer:      renderer,
		Sender:        sender,
		From:          emailFrom,
		IssuanceStore: stores.IssuanceStore,
		OutboxStore:   stores.OutboxStore,
		Assets:        assets,
		DataPolicy:    envOrDefault("DIVECENTER_DATA_POLICY", orchestrators.DataPolicyPlaceholder),
		Now:           time.Now,
		GenerateID:    func() string { return uuid.New().String() },
	}

	// Background worker retrying failed certificate dispatches
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeCertificateEmail: &orchestrators.CertificateEmailExecutor{
			Renderer:      renderer,
			Sender:        sender,
			From:          emailFrom,
			IssuanceStore: stores.IssuanceStore,
			Assets:        assets,
			Now:           time.Now,
		},
	})
	outboxStopCh := make(chan struct{})
	orchestrators.StartBackgroundWorker(processor, envDuration("DIVECENTER_OUTBOX_INTERVAL", time.Minute), outboxStopCh)
	defer close(outboxStopCh)

	mux := web.NewMux(&web.Config{
		Stores:      stores,
		Backend:     backendClient,
		Certificate: certDeps,
		Processor:   processor,
	})

	addr := envOrDefault("DIVECENTER_ADDR", ":8080")
	log.Printf("Dive center server %s starting on %s (env=%s)", version, addr, env)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
