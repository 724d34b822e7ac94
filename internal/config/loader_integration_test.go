package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Integration tests that exercise the full LoadFrom pipeline:
// defaults < YAML < environment variables.

func TestLoadFrom_FullHierarchy(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
slack:
  signing_secret: "from-yaml"
logging:
  level: "debug"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DRIFTGATE_PORT", "7070")
	t.Setenv("DRIFTGATE_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("env should override YAML: got port %q, want 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override YAML: got level %q, want warn", cfg.Logging.Level)
	}
	if cfg.Slack.SigningSecret != "from-yaml" {
		t.Errorf("expected YAML secret, got %q", cfg.Slack.SigningSecret)
	}
}

func TestLoadFrom_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("SLACK_SIGNING_SECRET", "")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error without a signing secret")
	}
	if !strings.Contains(err.Error(), "slack.signing_secret is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadFrom_EnvOnly(t *testing.T) {
	t.Setenv("SLACK_SIGNING_SECRET", "env-secret")
	t.Setenv("DRIFTGATE_IDEMPOTENCY_BACKEND", "nats")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Idempotency.Backend != "nats" {
		t.Errorf("expected nats backend, got %q", cfg.Idempotency.Backend)
	}
}
