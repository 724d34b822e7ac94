// Package config provides hierarchical configuration loading for driftgate.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the driftgate service.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	Server      Server      `yaml:"server"`
	Slack       Slack       `yaml:"slack"`
	Remediation Remediation `yaml:"remediation"`
	Compliance  Compliance  `yaml:"compliance"`
	Storage     Storage     `yaml:"storage"`
	Idempotency Idempotency `yaml:"idempotency"`
	NATS        NATS        `yaml:"nats"`
	Postgres    Postgres    `yaml:"postgres"`
	Ingest      Ingest      `yaml:"ingest"`
	Logging     Logging     `yaml:"logging"`
	Breaker     Breaker     `yaml:"breaker"`
	Rate        Rate        `yaml:"rate"`
	Workers     Workers     `yaml:"workers"`
	OTel        OTel        `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port        string `yaml:"port"`
	WebhookPath string `yaml:"webhook_path"`
	IngestPath  string `yaml:"ingest_path"`
}

// Slack holds chat platform configuration.
type Slack struct {
	SigningSecret   string        `yaml:"signing_secret"` //nolint:gosec // config field name, not a hardcoded secret
	BotToken        string        `yaml:"bot_token"`      //nolint:gosec // config field name, not a hardcoded secret
	APIURL          string        `yaml:"api_url"`        // override for tests and proxies; empty = slack.com
	Timeout         time.Duration `yaml:"timeout"`
	ReplayWindow    time.Duration `yaml:"replay_window"`
	DisplayTimezone string        `yaml:"display_timezone"`
}

// Remediation holds the external remediation command.
type Remediation struct {
	Command     []string      `yaml:"command"`
	WorkDir     string        `yaml:"work_dir"`
	Timeout     time.Duration `yaml:"timeout"` // 0 = no timeout
	OutputLines int           `yaml:"output_lines"`
}

// Compliance holds the external compliance scan command.
// The literal "{target}" in Command is replaced with TargetDir.
type Compliance struct {
	Command   []string      `yaml:"command"`
	TargetDir string        `yaml:"target_dir"`
	Timeout   time.Duration `yaml:"timeout"` // 0 = no timeout
}

// Storage holds paths of the append-only stores.
type Storage struct {
	AuditLog    string `yaml:"audit_log"`
	MetricsFile string `yaml:"metrics_file"`
	MarkerDir   string `yaml:"marker_dir"`
}

// Idempotency selects and tunes the incident marker store.
type Idempotency struct {
	Backend     string        `yaml:"backend"` // "file" | "nats"
	Bucket      string        `yaml:"bucket"`  // NATS KV bucket name
	CacheSizeMB int64         `yaml:"cache_size_mb"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// NATS holds NATS JetStream configuration. Empty URL disables NATS.
type NATS struct {
	URL string `yaml:"url"`
}

// Postgres holds the optional audit mirror connection. Empty DSN disables it.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// Ingest holds the out-of-band metrics ingestion settings.
type Ingest struct {
	Token string `yaml:"token"` //nolint:gosec // config field name, not a hardcoded secret
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for outbound chat calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Workers bounds background remediation runs.
type Workers struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	DrainTimeout  time.Duration `yaml:"drain_timeout"`
}

// OTel holds OpenTelemetry exporter configuration. Empty Endpoint disables export.
type OTel struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:        "5000",
			WebhookPath: "/slack/interact",
			IngestPath:  "/metrics/ingest",
		},
		Slack: Slack{
			Timeout:         8 * time.Second,
			ReplayWindow:    300 * time.Second,
			DisplayTimezone: "UTC",
		},
		Remediation: Remediation{
			Command:     []string{"ansible-playbook", "../ansible/remediate.yml"},
			Timeout:     30 * time.Minute,
			OutputLines: 30,
		},
		Compliance: Compliance{
			Command:   []string{"checkov", "-d", "{target}", "-o", "json", "--quiet"},
			TargetDir: "../terraform",
			Timeout:   10 * time.Minute,
		},
		Storage: Storage{
			AuditLog:    "../logs/audit.log",
			MetricsFile: "../logs/metrics.csv",
			MarkerDir:   "../logs/markers",
		},
		Idempotency: Idempotency{
			Backend:     "file",
			Bucket:      "DRIFTGATE_MARKERS",
			CacheSizeMB: 8,
			CacheTTL:    time.Hour,
		},
		Postgres: Postgres{
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		Logging: Logging{
			Level:   "info",
			Service: "driftgate",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             50,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		Workers: Workers{
			MaxConcurrent: 2,
			DrainTimeout:  45 * time.Minute,
		},
		OTel: OTel{
			ServiceName: "driftgate",
		},
	}
}
