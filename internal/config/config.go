package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	DBMaxOpenConns         int
	DBMaxIdleConns         int
	DBConnMaxLifetime      time.Duration
	DBSlowQueryThreshold   time.Duration
	RedisURL               string
	NATSURL                string
	NATSSubjectPrefix      string
	JWTSecret              string
	IdentityCacheTTL       time.Duration
	SettingsCacheTTL       time.Duration
	LegacyErrorStatus      bool
	LogActivityPerMinute   int
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether logo uploads can be forwarded to Cloudinary.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCHOOL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "School Admin API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("nats.subject_prefix", "school")
	v.SetDefault("auth.identity_cache_ttl", "1m")
	v.SetDefault("settings.cache_ttl", "5m")
	v.SetDefault("http.legacy_error_status", true)
	v.SetDefault("rate_limit.log_activity_per_minute", 120)
	v.SetDefault("cloudinary.folder", "school/branding")
	v.SetDefault("uploads.max_size_mb", 2)

	identityTTL, err := parseDuration(v.GetString("auth.identity_cache_ttl"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid identity cache ttl: %w", err)
	}

	settingsTTL, err := parseDuration(v.GetString("settings.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid settings cache ttl: %w", err)
	}

	connLifetime, err := parseDuration(v.GetString("database.conn_max_lifetime"), 30*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	slowQuery, err := parseDuration(v.GetString("database.slow_query_threshold"), 200*time.Millisecond)
	if err != nil {
		return Config{}, fmt.Errorf("invalid database slow query threshold: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		DBMaxOpenConns:         v.GetInt("database.max_open_conns"),
		DBMaxIdleConns:         v.GetInt("database.max_idle_conns"),
		DBConnMaxLifetime:      connLifetime,
		DBSlowQueryThreshold:   slowQuery,
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubjectPrefix:      strings.Trim(v.GetString("nats.subject_prefix"), "."),
		JWTSecret:              v.GetString("jwt.secret"),
		IdentityCacheTTL:       identityTTL,
		SettingsCacheTTL:       settingsTTL,
		LegacyErrorStatus:      v.GetBool("http.legacy_error_status"),
		LogActivityPerMinute:   v.GetInt("rate_limit.log_activity_per_minute"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("uploads.max_size_mb"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.LogActivityPerMinute <= 0 {
		cfg.LogActivityPerMinute = 120
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 2
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
