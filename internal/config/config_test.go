package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database_path: /tmp/jobs.db
listen_addr: ":9090"
ingest_interval: 30m
source_timeout: 20s
sources:
  - name: RemoteOK
    enabled: false
  - name: Remotive
rate_limit:
  min_delay: 1s
  source_overrides:
    Working Nomads: 10s
retry:
  max_retries: 4
  base_delay: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/jobs.db" || cfg.ListenAddr != ":9090" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
	if cfg.IngestInterval != 30*time.Minute {
		t.Errorf("IngestInterval = %v, want 30m", cfg.IngestInterval)
	}
	if cfg.SourceTimeout != 20*time.Second {
		t.Errorf("SourceTimeout = %v, want 20s", cfg.SourceTimeout)
	}
	if cfg.SourceEnabled("RemoteOK") {
		t.Error("expected RemoteOK disabled")
	}
	if !cfg.SourceEnabled("Remotive") {
		t.Error("expected Remotive enabled when enabled is omitted")
	}
	if !cfg.SourceEnabled("Jobspresso") {
		t.Error("expected unlisted source enabled")
	}
	if cfg.RateLimit.MinDelayFor("Working Nomads") != 10*time.Second {
		t.Errorf("override = %v, want 10s", cfg.RateLimit.MinDelayFor("Working Nomads"))
	}
	if cfg.RateLimit.MinDelayFor("Remotive") != time.Second {
		t.Errorf("fallback = %v, want 1s", cfg.RateLimit.MinDelayFor("Remotive"))
	}
	if cfg.Retry.MaxRetries != 4 || cfg.Retry.BaseDelay != 2*time.Second {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.DatabasePath != def.DatabasePath || cfg.ListenAddr != def.ListenAddr {
		t.Errorf("expected default paths, got %+v", cfg)
	}
	if cfg.IngestInterval != time.Hour || cfg.SourceTimeout != 45*time.Second {
		t.Errorf("unexpected default intervals: %v %v", cfg.IngestInterval, cfg.SourceTimeout)
	}
	if cfg.Retry.MaxRetries != 2 || cfg.Retry.BaseDelay != 5*time.Second {
		t.Errorf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.Notification.Type != "log" {
		t.Errorf("expected log notifier by default, got %q", cfg.Notification.Type)
	}
	if cfg.Resume.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("unexpected LLM base URL %q", cfg.Resume.LLM.BaseURL)
	}
}

func TestLoad_ZeroIngestIntervalDisables(t *testing.T) {
	cfg, err := Load(writeConfig(t, "ingest_interval: 0s\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IngestInterval != 0 {
		t.Errorf("IngestInterval = %v, want 0", cfg.IngestInterval)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("REMOTEHUB_TEST_KEY", "sk-test")
	cfg, err := Load(writeConfig(t, `
resume:
  llm:
    enabled: true
    model: gpt-4o-mini
    api_key: ${REMOTEHUB_TEST_KEY}
    timeout: 10s
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Resume.LLM.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.Resume.LLM.APIKey)
	}
	if cfg.Resume.LLM.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Resume.LLM.Timeout)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid yaml", "ingest_interval: [broken", "parse config"},
		{"invalid duration", "source_timeout: soon", "source_timeout"},
		{"invalid override", "rate_limit:\n  source_overrides:\n    RemoteOK: fast\n", "source_overrides"},
		{"negative interval", "ingest_interval: -1m", "ingest_interval"},
		{"zero source timeout", "source_timeout: 0s", "source_timeout"},
		{"duplicate source", "sources:\n  - name: A\n  - name: A\n", "listed twice"},
		{"slack without webhook", "notification:\n  type: slack\n", "webhook_url"},
		{"slack bad webhook", "notification:\n  type: slack\n  webhook_url: https://evil.example/\n", "hooks.slack.com"},
		{"unknown notifier", "notification:\n  type: email\n", "notification.type"},
		{"llm without key", "resume:\n  llm:\n    enabled: true\n    model: m\n", "api_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestCheckSources(t *testing.T) {
	cfg := &Config{Sources: []SourceConfig{{Name: "RemoteOK"}, {Name: "Monster"}}}
	err := cfg.CheckSources([]string{"RemoteOK", "Remotive"})
	if err == nil || !strings.Contains(err.Error(), "Monster") {
		t.Fatalf("expected unknown source error naming Monster, got %v", err)
	}

	ok := &Config{Sources: []SourceConfig{{Name: "Remotive"}}}
	if err := ok.CheckSources([]string{"RemoteOK", "Remotive"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
