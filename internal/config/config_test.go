package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "cortex.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "cooldown_seconds: 5\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CooldownSeconds != 5 {
		t.Errorf("cooldown = %v, want 5", cfg.CooldownSeconds)
	}
	if cfg.MaxConcurrentRequests != 4 {
		t.Errorf("max_concurrent_requests = %d, want default 4", cfg.MaxConcurrentRequests)
	}
	if cfg.Provider.Type != "ollama" {
		t.Errorf("provider.type = %q, want default ollama", cfg.Provider.Type)
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
cooldown_seconds: 20
request_timeout_seconds: 60
max_concurrent_requests: 2
listen_addr: ":9090"
nats_url: "nats://localhost:4222"
provider:
  id: main
  type: openai
  endpoint: "http://localhost:8000"
  model: gpt-4o-mini
sim:
  agents: 8
  tick_hz: 20
  duration_seconds: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cooldown() != 20*time.Second {
		t.Errorf("Cooldown() = %v, want 20s", cfg.Cooldown())
	}
	if cfg.Provider.Type != "openai" {
		t.Errorf("provider.type = %q", cfg.Provider.Type)
	}
	if cfg.Sim.Agents != 8 {
		t.Errorf("sim.agents = %d", cfg.Sim.Agents)
	}
	if cfg.TickInterval() != 50*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 50ms", cfg.TickInterval())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"negative cooldown", "cooldown_seconds: -1\n"},
		{"zero workers", "max_concurrent_requests: 0\n"},
		{"zero tick rate", "sim:\n  tick_hz: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.yaml)
			if _, err := Load(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "cooldown_seconds: 5\n")

	reloaded := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	// Give the watcher a beat to register before rewriting.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("cooldown_seconds: 9\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.CooldownSeconds != 9 {
			t.Errorf("reloaded cooldown = %v, want 9", cfg.CooldownSeconds)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("config change was not observed")
	}
}

func TestWatchIgnoresInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "cooldown_seconds: 5\n")

	reloaded := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("cooldown_seconds: -3\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		t.Errorf("invalid config was delivered: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}
