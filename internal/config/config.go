// Package config holds portal-wide constants and the environment-driven
// runtime configuration shared by the service, the admin CLI and the portal client.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration read from the environment.
type Config struct {
	Port        string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	TelegramBotToken string
	TelegramChatID   int64

	// Portal client
	APIBaseURL    string
	SessionRedis  bool
	SessionDevice string
	Language      string
	LocalesDir    string

	// Static logins as "username:password" pairs, comma separated. A password
	// starting with "$2" is a bcrypt hash.
	DemoStudents       string
	TriageAccounts     string
	SuperAdminAccounts string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("WARN: no .env file loaded, using process environment")
	}

	cfg := &Config{
		Port:               GetEnv("PORT", "8080"),
		DatabaseURL:        databaseURL(),
		RedisAddr:          GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIBaseURL:         GetEnv("PORTAL_API_URL", "http://localhost:8080"),
		SessionDevice:      GetEnv("PORTAL_DEVICE", "default"),
		Language:           GetEnv("PORTAL_LANG", "en"),
		LocalesDir:         os.Getenv("PORTAL_LOCALES_DIR"),
		DemoStudents:       os.Getenv("DEMO_STUDENTS"),
		TriageAccounts:     os.Getenv("TRIAGE_ACCOUNTS"),
		SuperAdminAccounts: os.Getenv("SUPERADMIN_ACCOUNTS"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
	}
	cfg.SessionRedis = GetEnv("PORTAL_SESSION_REDIS", "false") == "true"

	return cfg, nil
}

// RequireServer checks the settings the HTTP service cannot start without.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

// ParseAccounts splits "user:pass,user2:pass2" into a map. Malformed pairs are skipped.
func ParseAccounts(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		user, pass, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || user == "" || pass == "" {
			continue
		}
		out[user] = pass
	}
	return out
}

// GetEnv returns the value of key or defaultValue when it is unset.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_USER", "user"),
		GetEnv("DB_PASSWORD", "password"),
		GetEnv("DB_NAME", "complaintsdb"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_SSLMODE", "disable"),
	)
}
