package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/billing"
	"softwarepar.lat/internal/httpapi"
	"softwarepar.lat/internal/ledger"
	"softwarepar.lat/internal/mailer"
	"softwarepar.lat/internal/notify"
	"softwarepar.lat/internal/obs"
	"softwarepar.lat/internal/portfolio"
	"softwarepar.lat/internal/projects"
	"softwarepar.lat/internal/tickets"
)

var version = "1.2.0"

func main() {
	// Local development keeps its settings in a .env file. Absence is fine;
	// production injects real environment variables.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("SOFTWAREPAR_COMMIT"))

	// Without a DSN every store is in-memory, which is enough for demos
	// and local frontend work.
	var db *sql.DB
	if dsn := os.Getenv("SOFTWAREPAR_PG_DSN"); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var (
		users        auth.UserStore
		ledgerStore  ledger.Store
		projectStore projects.Store
		ticketStore  tickets.Store
		noteStore    notify.Store
		itemStore    portfolio.Store
		payStore     billing.Store
	)
	if db != nil {
		users = auth.NewPGUserStore(db)
		ledgerStore = ledger.NewPGStore(db)
		projectStore = projects.NewPGStore(db)
		ticketStore = tickets.NewPGStore(db)
		noteStore = notify.NewPGStore(db)
		itemStore = portfolio.NewPGStore(db)
		payStore = billing.NewPGStore(db)
	} else {
		log.Println("SOFTWAREPAR_PG_DSN not set, using in-memory stores")
		users = auth.NewMemoryUserStore()
		ledgerStore = ledger.NewInMemory()
		projectStore = projects.NewInMemory()
		ticketStore = tickets.NewInMemory()
		noteStore = notify.NewInMemory()
		itemStore = portfolio.NewInMemory()
		payStore = billing.NewInMemory()
	}

	mail := mailer.New(mailer.Config{
		Host:     os.Getenv("SOFTWAREPAR_SMTP_HOST"),
		Port:     envOr("SOFTWAREPAR_SMTP_PORT", "587"),
		Username: os.Getenv("SOFTWAREPAR_SMTP_USER"),
		Password: os.Getenv("SOFTWAREPAR_SMTP_PASS"),
		From:     envOr("SOFTWAREPAR_SMTP_FROM", "no-reply@softwarepar.lat"),
	})

	ledgerSvc := ledger.NewService(ledgerStore)
	projectSvc := projects.NewService(projectStore)
	ticketSvc := tickets.NewService(ticketStore)
	portfolioSvc := portfolio.NewService(itemStore)
	hub := notify.NewHub(noteStore)
	billingSvc := billing.NewService(payStore, projectStore, ledgerSvc, users, hub, mail)

	// Provider credentials may also arrive via the admin endpoint at runtime.
	if token := os.Getenv("SOFTWAREPAR_MP_ACCESS_TOKEN"); token != "" {
		if err := billingSvc.Configure(billing.ProviderConfig{
			AccessToken: token,
			PublicKey:   os.Getenv("SOFTWAREPAR_MP_PUBLIC_KEY"),
			WebhookURL:  os.Getenv("SOFTWAREPAR_MP_WEBHOOK_URL"),
		}); err != nil {
			log.Fatalf("configure payment provider: %v", err)
		}
	}

	api := httpapi.New(httpapi.Config{
		Users:        users,
		Ledger:       ledgerSvc,
		Projects:     projectSvc,
		Tickets:      ticketSvc,
		Portfolio:    portfolioSvc,
		Billing:      billingSvc,
		Hub:          hub,
		Mailer:       mail,
		ReadyProbe:   httpapi.ReadyProbe{DB: db},
		Version:      version,
		ContactEmail: envOr("SOFTWAREPAR_CONTACT_EMAIL", "hola@softwarepar.lat"),
	})

	srv := &http.Server{
		Addr:              envOr("SOFTWAREPAR_HTTP_ADDR", ":8080"),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting softwarepar-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
