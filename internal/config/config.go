package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Redis    RedisConfig
	Export   ExportConfig
	Checkout CheckoutConfig
}

type AppConfig struct {
	Port          string
	Env           string
	LogLevel      string
	BaseURL       string
	SessionSecret string
	AIServiceURL  string
	WorkspaceTTL  time.Duration
	MaxPhotoBytes int64

	// SessionSecretGenerated is set when no secret was configured.
	SessionSecretGenerated bool
}

type StoreConfig struct {
	DatabaseURL            string
	SupabaseURL            string
	SupabaseServiceRoleKey string
}

type RedisConfig struct {
	Addr     string
	Password string
}

type ExportConfig struct {
	ChromePath      string
	Bucket          string
	BucketEndpoint  string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type CheckoutConfig struct {
	CardDelay           time.Duration
	PixDelay            time.Duration
	ApprovedExportDelay time.Duration
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func (c AppConfig) IsDevelopment() bool { return c.Env == "development" }

// Backend names the configured document store, or "" when persistence is off.
func (c StoreConfig) Backend() string {
	switch {
	case c.DatabaseURL != "":
		return "postgres"
	case c.SupabaseURL != "" && c.SupabaseServiceRoleKey != "":
		return "supabase"
	default:
		return ""
	}
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	var errs []error
	opt := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	dur := func(key string, def time.Duration) time.Duration {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, raw))
			return def
		}
		return d
	}
	size := func(key string, def int64) int64 {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid size %q", key, raw))
			return def
		}
		return n
	}

	cfg := Config{
		App: AppConfig{
			Port:          opt("PORT", "3000"),
			Env:           opt("APP_ENV", "production"),
			LogLevel:      opt("LOG_LEVEL", "info"),
			SessionSecret: opt("SESSION_SECRET", ""),
			AIServiceURL:  opt("AI_SERVICE_URL", ""),
			WorkspaceTTL:  dur("WORKSPACE_TTL", 24*time.Hour),
			MaxPhotoBytes: size("MAX_PHOTO_BYTES", 2<<20),
		},
		Store: StoreConfig{
			DatabaseURL:            opt("DATABASE_URL", ""),
			SupabaseURL:            opt("SUPABASE_URL", ""),
			SupabaseServiceRoleKey: opt("SUPABASE_SERVICE_ROLE_KEY", ""),
		},
		Redis: RedisConfig{
			Addr:     opt("REDIS_ADDR", ""),
			Password: opt("REDIS_PASSWORD", ""),
		},
		Export: ExportConfig{
			ChromePath:      opt("CHROME_PATH", ""),
			Bucket:          opt("EXPORT_BUCKET", ""),
			BucketEndpoint:  opt("EXPORT_BUCKET_ENDPOINT", ""),
			Region:          opt("AWS_REGION", ""),
			AccessKeyID:     opt("EXPORT_ACCESS_KEY_ID", ""),
			SecretAccessKey: opt("EXPORT_SECRET_ACCESS_KEY", ""),
		},
		Checkout: CheckoutConfig{
			CardDelay:           dur("CARD_DELAY", 3*time.Second),
			PixDelay:            dur("PIX_DELAY", 5*time.Second),
			ApprovedExportDelay: dur("APPROVED_EXPORT_DELAY", 2*time.Second),
		},
	}
	cfg.App.BaseURL = strings.TrimRight(opt("APP_BASE_URL", "http://localhost:"+cfg.App.Port), "/")

	if cfg.App.SessionSecret == "" {
		if !cfg.App.IsDevelopment() {
			errs = append(errs, fmt.Errorf("%w: SESSION_SECRET", errMissingRequiredEnv))
		} else {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				errs = append(errs, fmt.Errorf("generate session secret: %w", err))
			}
			cfg.App.SessionSecret = hex.EncodeToString(b)
			cfg.App.SessionSecretGenerated = true
		}
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}
