package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store and device storage backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AWS      AWSConfig
	Gallery  GalleryConfig
	Sheets   SheetsConfig
	Drafts   DraftsConfig
	Events   EventsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// AllowedOrigins returns the CORS origins as a list, also used for the websocket origin check.
func (c ServerConfig) AllowedOrigins() []string {
	return splitTrim(c.CORSAllowedOrigins, ",")
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend string // postgres | memory
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/symposium?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds AWS credentials.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	PresignExpireMinutes int
}

// GalleryConfig points at the bucket holding the photo gallery. Empty Bucket disables it.
type GalleryConfig struct {
	Bucket       string
	Prefix       string
	PublicRead   bool
	CacheSeconds int
}

// CacheTTL is how long a gallery listing is served from memory.
func (c GalleryConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheSeconds) * time.Second
}

// SheetsConfig holds the Google Sheets export target.
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
}

// Enabled reports whether the export target is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsFile != "" && c.SpreadsheetID != ""
}

// DraftsConfig holds per-device storage settings.
type DraftsConfig struct {
	Backend  string // redis | memory
	TTLHours int
}

// TTL is how long a device keeps its saved form data.
func (c DraftsConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// EventsConfig holds event catalog overrides.
type EventsConfig struct {
	Closed       []string // event names that no longer accept registrations
	PasswordCost int      // bcrypt cost; 0 uses the library default
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "symposium"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "ap-south-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Gallery: GalleryConfig{
			Bucket:       getEnv("GALLERY_BUCKET", ""),
			Prefix:       getEnv("GALLERY_PREFIX", "gallery/"),
			PublicRead:   getEnvBool("GALLERY_PUBLIC_READ", true),
			CacheSeconds: getEnvInt("GALLERY_CACHE_SECONDS", 300),
		},
		Sheets: SheetsConfig{
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			SpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		},
		Drafts: DraftsConfig{
			Backend:  strings.ToLower(getEnv("DRAFTS_BACKEND", BackendRedis)),
			TTLHours: getEnvInt("DRAFTS_TTL_HOURS", 24*30),
		},
		Events: EventsConfig{
			Closed:       splitTrim(getEnv("CLOSED_EVENTS", ""), ","),
			PasswordCost: getEnvInt("PASSWORD_BCRYPT_COST", 0),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND: unsupported backend %q", c.Store.Backend)
	}
	switch c.Drafts.Backend {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("DRAFTS_BACKEND: unsupported backend %q", c.Drafts.Backend)
	}
	if c.Drafts.TTLHours <= 0 {
		return fmt.Errorf("DRAFTS_TTL_HOURS must be positive, got %d", c.Drafts.TTLHours)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
