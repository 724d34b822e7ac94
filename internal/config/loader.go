package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "driftgate.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if v := os.Getenv("DRIFTGATE_CONFIG"); v != "" {
		path = v
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// Location resolves the display time zone. validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Slack.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "DRIFTGATE_PORT")
	setString(&cfg.Server.WebhookPath, "DRIFTGATE_WEBHOOK_PATH")
	setString(&cfg.Server.IngestPath, "DRIFTGATE_INGEST_PATH")

	// Slack
	setString(&cfg.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	setString(&cfg.Slack.BotToken, "SLACK_BOT_TOKEN")
	setString(&cfg.Slack.APIURL, "SLACK_API_URL")
	setDuration(&cfg.Slack.Timeout, "DRIFTGATE_SLACK_TIMEOUT")
	setDuration(&cfg.Slack.ReplayWindow, "DRIFTGATE_REPLAY_WINDOW")
	setString(&cfg.Slack.DisplayTimezone, "DRIFTGATE_TIMEZONE")

	// Remediation and compliance
	setFields(&cfg.Remediation.Command, "DRIFTGATE_REMEDIATION_COMMAND")
	setString(&cfg.Remediation.WorkDir, "DRIFTGATE_REMEDIATION_WORKDIR")
	setDuration(&cfg.Remediation.Timeout, "DRIFTGATE_REMEDIATION_TIMEOUT")
	setInt(&cfg.Remediation.OutputLines, "DRIFTGATE_REMEDIATION_OUTPUT_LINES")
	setFields(&cfg.Compliance.Command, "DRIFTGATE_COMPLIANCE_COMMAND")
	setString(&cfg.Compliance.TargetDir, "DRIFTGATE_COMPLIANCE_TARGET")
	setDuration(&cfg.Compliance.Timeout, "DRIFTGATE_COMPLIANCE_TIMEOUT")

	// Storage
	setString(&cfg.Storage.AuditLog, "DRIFTGATE_AUDIT_LOG")
	setString(&cfg.Storage.MetricsFile, "DRIFTGATE_METRICS_FILE")
	setString(&cfg.Storage.MarkerDir, "DRIFTGATE_MARKER_DIR")

	// Idempotency
	setString(&cfg.Idempotency.Backend, "DRIFTGATE_IDEMPOTENCY_BACKEND")
	setString(&cfg.Idempotency.Bucket, "DRIFTGATE_IDEMPOTENCY_BUCKET")
	setInt64(&cfg.Idempotency.CacheSizeMB, "DRIFTGATE_IDEMPOTENCY_CACHE_MB")
	setDuration(&cfg.Idempotency.CacheTTL, "DRIFTGATE_IDEMPOTENCY_CACHE_TTL")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "DRIFTGATE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "DRIFTGATE_PG_MIN_CONNS")

	setString(&cfg.Ingest.Token, "DRIFTGATE_INGEST_TOKEN")

	setString(&cfg.Logging.Level, "DRIFTGATE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "DRIFTGATE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "DRIFTGATE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "DRIFTGATE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "DRIFTGATE_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "DRIFTGATE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "DRIFTGATE_RATE_BURST")

	setInt(&cfg.Workers.MaxConcurrent, "DRIFTGATE_WORKERS")
	setDuration(&cfg.Workers.DrainTimeout, "DRIFTGATE_DRAIN_TIMEOUT")

	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTel.Insecure, "OTEL_EXPORTER_OTLP_INSECURE")
	setString(&cfg.OTel.ServiceName, "OTEL_SERVICE_NAME")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Slack.SigningSecret == "" {
		return errors.New("slack.signing_secret is required")
	}
	if cfg.Slack.ReplayWindow <= 0 {
		return errors.New("slack.replay_window must be > 0")
	}
	if _, err := time.LoadLocation(cfg.Slack.DisplayTimezone); err != nil {
		return fmt.Errorf("slack.display_timezone: %w", err)
	}
	if len(cfg.Remediation.Command) == 0 {
		return errors.New("remediation.command is required")
	}
	if len(cfg.Compliance.Command) == 0 {
		return errors.New("compliance.command is required")
	}
	if cfg.Storage.AuditLog == "" || cfg.Storage.MetricsFile == "" {
		return errors.New("storage.audit_log and storage.metrics_file are required")
	}
	switch cfg.Idempotency.Backend {
	case "file":
		if cfg.Storage.MarkerDir == "" {
			return errors.New("storage.marker_dir is required for the file backend")
		}
	case "nats":
		if cfg.NATS.URL == "" {
			return errors.New("nats.url is required for the nats backend")
		}
	default:
		return fmt.Errorf("idempotency.backend %q must be file or nats", cfg.Idempotency.Backend)
	}
	if cfg.Workers.MaxConcurrent < 1 {
		return errors.New("workers.max_concurrent must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setFields splits a whitespace-separated command line.
func setFields(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.Fields(v)
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
