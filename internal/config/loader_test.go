package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validDefaults() Config {
	cfg := Defaults()
	cfg.Slack.SigningSecret = "test-secret"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "5000" {
		t.Errorf("expected port 5000, got %s", cfg.Server.Port)
	}
	if cfg.Slack.ReplayWindow != 300*time.Second {
		t.Errorf("expected replay window 300s, got %v", cfg.Slack.ReplayWindow)
	}
	if cfg.Remediation.OutputLines != 30 {
		t.Errorf("expected 30 output lines, got %d", cfg.Remediation.OutputLines)
	}
	if cfg.Idempotency.Backend != "file" {
		t.Errorf("expected file backend, got %s", cfg.Idempotency.Backend)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
slack:
  display_timezone: "Europe/Berlin"
remediation:
  command: ["make", "fix"]
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Slack.DisplayTimezone != "Europe/Berlin" {
		t.Errorf("expected Europe/Berlin, got %s", cfg.Slack.DisplayTimezone)
	}
	if len(cfg.Remediation.Command) != 2 || cfg.Remediation.Command[0] != "make" {
		t.Errorf("expected [make fix], got %v", cfg.Remediation.Command)
	}
	// Unchanged fields keep defaults
	if cfg.Slack.Timeout != 8*time.Second {
		t.Errorf("expected default slack timeout, got %v", cfg.Slack.Timeout)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := loadYAML(&cfg, path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DRIFTGATE_PORT", "7070")
	t.Setenv("SLACK_SIGNING_SECRET", "s3cret")
	t.Setenv("DRIFTGATE_REMEDIATION_COMMAND", "bash ./fix.sh --apply")
	t.Setenv("DRIFTGATE_WORKERS", "4")
	t.Setenv("DRIFTGATE_REPLAY_WINDOW", "1m")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Slack.SigningSecret != "s3cret" {
		t.Errorf("expected signing secret from env, got %q", cfg.Slack.SigningSecret)
	}
	want := []string{"bash", "./fix.sh", "--apply"}
	if len(cfg.Remediation.Command) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Remediation.Command)
	}
	for i := range want {
		if cfg.Remediation.Command[i] != want[i] {
			t.Errorf("command[%d]: expected %q, got %q", i, want[i], cfg.Remediation.Command[i])
		}
	}
	if cfg.Workers.MaxConcurrent != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers.MaxConcurrent)
	}
	if cfg.Slack.ReplayWindow != time.Minute {
		t.Errorf("expected 1m replay window, got %v", cfg.Slack.ReplayWindow)
	}
}

func TestLoadEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("DRIFTGATE_WORKERS", "many")
	t.Setenv("DRIFTGATE_SLACK_TIMEOUT", "soon")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.Workers.MaxConcurrent != 2 {
		t.Errorf("expected default workers, got %d", cfg.Workers.MaxConcurrent)
	}
	if cfg.Slack.Timeout != 8*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Slack.Timeout)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "missing signing secret",
			modify: func(c *Config) { c.Slack.SigningSecret = "" },
			errMsg: "slack.signing_secret is required",
		},
		{
			name:   "zero replay window",
			modify: func(c *Config) { c.Slack.ReplayWindow = 0 },
			errMsg: "slack.replay_window must be > 0",
		},
		{
			name:   "empty remediation command",
			modify: func(c *Config) { c.Remediation.Command = nil },
			errMsg: "remediation.command is required",
		},
		{
			name:   "empty compliance command",
			modify: func(c *Config) { c.Compliance.Command = nil },
			errMsg: "compliance.command is required",
		},
		{
			name:   "nats backend without url",
			modify: func(c *Config) { c.Idempotency.Backend = "nats" },
			errMsg: "nats.url is required for the nats backend",
		},
		{
			name:   "unknown backend",
			modify: func(c *Config) { c.Idempotency.Backend = "redis" },
			errMsg: `idempotency.backend "redis" must be file or nats`,
		},
		{
			name:   "zero workers",
			modify: func(c *Config) { c.Workers.MaxConcurrent = 0 },
			errMsg: "workers.max_concurrent must be >= 1",
		},
		{
			name:   "zero breaker failures",
			modify: func(c *Config) { c.Breaker.MaxFailures = 0 },
			errMsg: "breaker.max_failures must be >= 1",
		},
		{
			name:   "zero rate burst",
			modify: func(c *Config) { c.Rate.Burst = 0 },
			errMsg: "rate.burst must be >= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateTimezone(t *testing.T) {
	cfg := validDefaults()
	cfg.Slack.DisplayTimezone = "Mars/Olympus_Mons"
	if err := validate(&cfg); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}

func TestValidateDefaultsWithSecret(t *testing.T) {
	cfg := validDefaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults with a secret should validate, got %v", err)
	}
}

func TestLocation(t *testing.T) {
	cfg := validDefaults()
	cfg.Slack.DisplayTimezone = "America/New_York"
	if got := cfg.Location().String(); got != "America/New_York" {
		t.Errorf("expected America/New_York, got %s", got)
	}
}
