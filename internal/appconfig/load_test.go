package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 99
http:
  addr: ":8080"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRequiresConfigVersionWhenFilePresent(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":8080"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected missing version error, got %v", err)
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
service:
  snapshot_debounce_ms: 250
  home_url: "https://start.example"
replica:
  drag_threshold: 9
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Service.SnapshotDebounceMS != 250 {
		t.Fatalf("snapshot_debounce_ms = %d", cfg.Service.SnapshotDebounceMS)
	}
	if cfg.Service.HomeURL != "https://start.example" {
		t.Fatalf("home_url = %q", cfg.Service.HomeURL)
	}
	if cfg.Replica.DragThreshold != 9 {
		t.Fatalf("drag_threshold = %d", cfg.Replica.DragThreshold)
	}
	// Untouched keys keep their defaults.
	def := DefaultConfig()
	if cfg.Replica.SuppressionTimeoutMS != def.Replica.SuppressionTimeoutMS {
		t.Fatalf("suppression_timeout_ms = %d", cfg.Replica.SuppressionTimeoutMS)
	}
	if cfg.HTTP.Addr != def.HTTP.Addr {
		t.Fatalf("http.addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfigVersion != CurrentConfigVersion {
		t.Fatalf("config_version = %d", cfg.ConfigVersion)
	}
}

func TestLoadRejectsNegativeDurations(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
replica:
  suppression_timeout_ms: -5
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected negative timeout error")
	}
}

func TestToSchemaConversions(t *testing.T) {
	cfg := DefaultConfig()
	service := cfg.Service.ToSchema()
	if service.SnapshotDebounce != 100*time.Millisecond {
		t.Fatalf("snapshot debounce = %v", service.SnapshotDebounce)
	}
	replica := cfg.Replica.ToSchema()
	if replica.SuppressionTimeout != 2000*time.Millisecond {
		t.Fatalf("suppression timeout = %v", replica.SuppressionTimeout)
	}
	if replica.DragThreshold != cfg.Replica.DragThreshold {
		t.Fatalf("drag threshold = %d", replica.DragThreshold)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config to exist: %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}

	// The written file round-trips through Load.
	if _, err := Load(path); err != nil {
		t.Fatalf("load written default: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
