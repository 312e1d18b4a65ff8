package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string
	LogLevel    string

	// Store selection. SheetID, when set, overrides the deployment's own workbook.
	DeploymentID string
	SheetID      string
	SheetName    string

	ExecPath        string
	MaxBodyBytes    int64
	CORSAllowOrigin string

	KafkaBrokers []string
	KafkaTopic   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	AllowedEmails      []string
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:beacon.sqlite"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DeploymentID:       getEnv("DEPLOYMENT_ID", "default"),
		SheetID:            getEnv("SHEET_ID", ""),
		SheetName:          getEnv("SHEET_NAME", "events"),
		ExecPath:           getEnv("EXEC_PATH", "/exec"),
		MaxBodyBytes:       getEnvInt64("MAX_BODY_BYTES", 10*1024),
		CORSAllowOrigin:    getEnv("CORS_ALLOW_ORIGIN", "*"),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "beacon.events"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:8080/api/v1/rows"),
		AllowedEmails:      splitList(getEnv("ALLOWED_EMAILS", "")),
	}
}

// Workbook returns the store the endpoint appends to.
func (c *Config) Workbook() string {
	if id := strings.TrimSpace(c.SheetID); id != "" {
		return id
	}
	return c.DeploymentID
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
