package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/trainer-bookings/internal/database"
	authmw "github.com/diagnosis/trainer-bookings/internal/http/middleware"
	"github.com/diagnosis/trainer-bookings/internal/http/router"
	"github.com/diagnosis/trainer-bookings/internal/notify"
	"github.com/diagnosis/trainer-bookings/internal/platform/auth"
	"github.com/diagnosis/trainer-bookings/internal/platform/mailer"
	"github.com/diagnosis/trainer-bookings/internal/repo"
	"github.com/diagnosis/trainer-bookings/internal/service"
	"github.com/diagnosis/trainer-bookings/pkg/config"
	"github.com/diagnosis/trainer-bookings/pkg/events"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
	"github.com/diagnosis/trainer-bookings/pkg/metrics"
)

func main() {
	cfg := config.Load()
	metrics.Register()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		publisher = nc
	}
	defer publisher.Close()

	var limiter *authmw.RateLimiter
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		limiter = authmw.NewRateLimiter(authmw.NewRedisCounter(rdb), authmw.RateLimitConfig{
			Requests: cfg.RateLimit.LoginRequests,
			Window:   cfg.RateLimit.LoginWindow,
		})
	}

	tokens := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	wf := service.NewWorkflow(
		repo.NewUsersRepo(db),
		repo.NewBookingRepo(db),
		auth.NewHasher(),
		tokens,
		notify.New(newMailer(cfg.Email), cfg.Email.AdminTo),
		publisher,
		service.AdminCredentials{Username: cfg.Auth.DashboardUser, PasswordHash: cfg.Auth.DashboardPassHash},
	)

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: router.New(router.Deps{
			Workflow:       wf,
			Tokens:         tokens,
			DB:             db,
			LoginLimiter:   limiter,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting server", "port", cfg.Server.Port, "backend", db.Backend())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	<-done
}

// newMailer picks the transport: dev logging, the MailerSend API when a key is
// set, plain SMTP otherwise.
func newMailer(cfg config.EmailConfig) mailer.Service {
	switch {
	case cfg.DevMode:
		return mailer.NewDevMailer()
	case cfg.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.SMTPUser)
	default:
		return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.FromName, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}
