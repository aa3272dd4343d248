package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Auth      AuthConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// DatabaseConfig selects the storage engine: a non-empty URL means PostgreSQL,
// otherwise the SQLite file at SQLitePath is used.
type DatabaseConfig struct {
	URL        string
	SQLitePath string
}

type RedisConfig struct {
	URL string
}

type NATSConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	DashboardUser     string
	DashboardPassHash string
}

type EmailConfig struct {
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	SMTPUseTLS    bool
	FromName      string
	AdminTo       string
	MailerSendKey string
	DevMode       bool // print emails to logs instead of sending
}

type RateLimitConfig struct {
	LoginRequests int
	LoginWindow   time.Duration
}

// Load reads the configuration from the environment, after loading a .env file
// from the working directory if there is one.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "4000"),
			ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 20*time.Second),
			IdleTimeout:    getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"https://trainerpr0.netlify.app", "http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			URL:        getEnv("DATABASE_URL", ""),
			SQLitePath: getEnv("SQLITE_PATH", "./bookings.db"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", "dev-only-secret-change-in-prod"),
			TokenTTL:          getDuration("TOKEN_TTL", 8*time.Hour),
			DashboardUser:     getEnv("DASHBOARD_USER", ""),
			DashboardPassHash: getEnv("DASHBOARD_PASS_HASH", ""),
		},
		Email: EmailConfig{
			SMTPHost:      getEnv("EMAIL_HOST", "localhost"),
			SMTPPort:      getInt("EMAIL_PORT", 1025),
			SMTPUser:      getEnv("EMAIL_USER", ""),
			SMTPPass:      getEnv("EMAIL_PASS", ""),
			SMTPUseTLS:    getBool("EMAIL_USE_TLS", false),
			FromName:      getEnv("EMAIL_FROM_NAME", "Trainer App"),
			AdminTo:       getEnv("EMAIL_TO", ""),
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			DevMode:       getBool("EMAIL_DEV_MODE", false),
		},
		RateLimit: RateLimitConfig{
			LoginRequests: getInt("LOGIN_RATE_LIMIT", 10),
			LoginWindow:   getDuration("LOGIN_RATE_WINDOW", time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
