package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Upload        UploadConfig
	AI            AIConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type UploadConfig struct {
	MaxFileBytes int64
	MaxFiles     int
}

type AIConfig struct {
	Enabled     bool
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("TABLECHAT_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid TABLECHAT_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "TABLECHAT_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TABLECHAT_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TABLECHAT_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TABLECHAT_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "TABLECHAT_UPLOAD_MAX_FILE_BYTES", &cfg.Upload.MaxFileBytes); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TABLECHAT_UPLOAD_MAX_FILES", &cfg.Upload.MaxFiles); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TABLECHAT_AI_ENABLED", &cfg.AI.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_AI_BASE_URL", &cfg.AI.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_AI_API_KEY", &cfg.AI.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_AI_MODEL", &cfg.AI.Model); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "TABLECHAT_AI_TEMPERATURE", &cfg.AI.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TABLECHAT_AI_TIMEOUT", &cfg.AI.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TABLECHAT_ARCHIVE_ENABLED", &cfg.Archive.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_ARCHIVE_REGION", &cfg.Archive.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_ARCHIVE_BUCKET", &cfg.Archive.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TABLECHAT_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TABLECHAT_ARCHIVE_PREFIX", &cfg.Archive.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TABLECHAT_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TABLECHAT_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "TABLECHAT_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Upload.MaxFileBytes <= 0 {
		return Config{}, fmt.Errorf("upload max file bytes must be positive")
	}
	if cfg.Upload.MaxFiles <= 0 {
		return Config{}, fmt.Errorf("upload max files must be positive")
	}
	if cfg.AI.Enabled && cfg.AI.APIKey == "" {
		return Config{}, fmt.Errorf("TABLECHAT_AI_API_KEY is required when AI is enabled")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "tablechat-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Upload: UploadConfig{
			MaxFileBytes: 32 << 20,
			MaxFiles:     20,
		},
		AI: AIConfig{
			Enabled:     false,
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-5",
			Temperature: 0.1,
			Timeout:     30 * time.Second,
		},
		Archive: ArchiveConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "tablechat",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
