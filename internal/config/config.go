package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers supported by the API.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	CORSAllowOrigins       string
	DatabaseURL            string
	DatabaseDriver         string
	RedisURL               string
	NATSURL                string
	NATSSubjectPrefix      string
	JWTSecret              string
	JWTRefreshSecret       string
	JWTAccessTTL           time.Duration
	JWTRefreshTTL          time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxMB            int
	DashboardCacheTTL      time.Duration
	AIAPIKey               string
	AIBaseURL              string
	AIModel                string
	AIMaxTokens            int
	AIRateLimit            int
	AIRateWindow           time.Duration
}

// IsDevelopment reports whether the service runs in a local development environment.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "" || strings.EqualFold(c.AppEnv, "development")
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DRUMSCHOOL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Drum School API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("nats.subject_prefix", "drumschool")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")
	v.SetDefault("cloudinary.folder", "drumschool/avatars")
	v.SetDefault("upload.max_mb", 5)
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.rate_limit", 5)
	v.SetDefault("ai.rate_window", "1m")

	durations := map[string]time.Duration{}
	for _, key := range []string{"jwt.access_ttl", "jwt.refresh_ttl", "dashboard.cache_ttl", "ai.rate_window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		DatabaseURL:            v.GetString("database.url"),
		DatabaseDriver:         strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubjectPrefix:      v.GetString("nats.subject_prefix"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		JWTAccessTTL:           durations["jwt.access_ttl"],
		JWTRefreshTTL:          durations["jwt.refresh_ttl"],
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		DashboardCacheTTL:      durations["dashboard.cache_ttl"],
		AIAPIKey:               v.GetString("ai.api_key"),
		AIBaseURL:              v.GetString("ai.base_url"),
		AIModel:                v.GetString("ai.model"),
		AIMaxTokens:            v.GetInt("ai.max_tokens"),
		AIRateLimit:            v.GetInt("ai.rate_limit"),
		AIRateWindow:           durations["ai.rate_window"],
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 5
	}

	return cfg, nil
}
