package schema

import (
	"testing"
	"time"
)

func TestNormalizeServiceConfigDefaults(t *testing.T) {
	cfg, err := NormalizeServiceConfig(ServiceConfig{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.SnapshotDebounce != DefaultSnapshotDebounce {
		t.Fatalf("expected default debounce, got %v", cfg.SnapshotDebounce)
	}
	if cfg.TitleMax != DefaultTitleMax {
		t.Fatalf("expected default title max, got %d", cfg.TitleMax)
	}
}

func TestNormalizeServiceConfigHomeTitle(t *testing.T) {
	cfg, err := NormalizeServiceConfig(ServiceConfig{HomeURL: "about:home"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.HomeTitle != "Home" {
		t.Fatalf("expected home title default, got %q", cfg.HomeTitle)
	}
}

func TestNormalizeServiceConfigRejectsNegativeDebounce(t *testing.T) {
	if _, err := NormalizeServiceConfig(ServiceConfig{SnapshotDebounce: -time.Second}); err == nil {
		t.Fatalf("expected error for negative debounce")
	}
}

func TestNormalizeReplicaConfigDefaults(t *testing.T) {
	cfg, err := NormalizeReplicaConfig(ReplicaConfig{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.SuppressionTimeout != DefaultSuppressionTimeout {
		t.Fatalf("expected default suppression timeout, got %v", cfg.SuppressionTimeout)
	}
	if cfg.CommandTimeout != DefaultCommandTimeout {
		t.Fatalf("expected default command timeout, got %v", cfg.CommandTimeout)
	}
	if cfg.DragThreshold != DefaultDragThreshold {
		t.Fatalf("expected default drag threshold, got %d", cfg.DragThreshold)
	}
}

func TestValidateUserID(t *testing.T) {
	for _, id := range []UserID{"alice", "a-b.c_1"} {
		if err := ValidateUserID(id); err != nil {
			t.Fatalf("expected %q valid: %v", id, err)
		}
	}
	for _, id := range []UserID{"", "Alice", "a b", " alice"} {
		if err := ValidateUserID(id); err == nil {
			t.Fatalf("expected %q invalid", id)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	url, err := NormalizeURL("  https://example.org/a  ")
	if err != nil {
		t.Fatalf("normalize url: %v", err)
	}
	if url != "https://example.org/a" {
		t.Fatalf("unexpected url %q", url)
	}
	for _, raw := range []string{"", "   ", "https://a b"} {
		if _, err := NormalizeURL(raw); err == nil {
			t.Fatalf("expected %q invalid", raw)
		}
	}
}

func TestSnapshotClone(t *testing.T) {
	snap := Snapshot{
		Tabs:     []TabItem{{ID: "a"}, {ID: "b"}},
		Order:    []TabID{"a", "b"},
		ActiveID: "a",
	}
	clone := snap.Clone()
	clone.Order[0] = "b"
	clone.Tabs[0].Title = "changed"
	if snap.Order[0] != "a" || snap.Tabs[0].Title != "" {
		t.Fatalf("clone shares backing arrays with original")
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := TruncateTitle("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := TruncateTitle("abcdefgh", 5); got != "abcd…" {
		t.Fatalf("unexpected %q", got)
	}
}
