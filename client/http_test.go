package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"pkt.systems/tabdeck/core"
	"pkt.systems/tabdeck/httpapi"
	"pkt.systems/tabdeck/internal/eventbus"
	"pkt.systems/tabdeck/schema"
)

func newBackend(t *testing.T) (*httptest.Server, core.Service, *eventbus.Bus) {
	t.Helper()
	bus := eventbus.New(0, nil)
	service, err := core.NewService(schema.ServiceConfig{}, core.ServiceDeps{SnapshotSink: bus})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	backend := httptest.NewServer(httpapi.NewServer(httpapi.Config{}, service, bus).Handler())
	t.Cleanup(backend.Close)
	return backend, service, bus
}

func TestHTTPCommandsRoundTrip(t *testing.T) {
	backend, _, _ := newBackend(t)
	c := NewHTTP(backend.URL, "alice", "sess-1", nil)
	ctx := context.Background()

	created, err := c.CreateTab(ctx, schema.CreateTabRequest{URL: "https://a", Title: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Tab.ID == "" || created.Tab.URL != "https://a" {
		t.Fatalf("unexpected tab %+v", created.Tab)
	}
	second, err := c.CreateTab(ctx, schema.CreateTabRequest{URL: "https://b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reordered, err := c.ReorderTab(ctx, schema.ReorderTabRequest{TabID: created.Tab.ID, TargetIndex: 1})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(reordered.Order) != 2 || reordered.Order[1] != created.Tab.ID {
		t.Fatalf("unexpected order %v", reordered.Order)
	}

	if _, err := c.ActivateTab(ctx, schema.ActivateTabRequest{TabID: second.Tab.ID}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := c.CloseTab(ctx, schema.CloseTabRequest{TabID: second.Tab.ID}); err != nil {
		t.Fatalf("close: %v", err)
	}

	snap, err := c.ListTabs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snap.Order) != 1 || snap.Order[0] != created.Tab.ID {
		t.Fatalf("unexpected snapshot order %v", snap.Order)
	}
}

func TestHTTPCommandErrorSurfaced(t *testing.T) {
	backend, _, _ := newBackend(t)
	c := NewHTTP(backend.URL, "alice", "sess-1", nil)

	_, err := c.ActivateTab(context.Background(), schema.ActivateTabRequest{TabID: "missing"})
	if err == nil {
		t.Fatalf("expected error for unknown tab")
	}
}

func TestHTTPSnapshotStream(t *testing.T) {
	backend, _, _ := newBackend(t)
	streamer := NewHTTP(backend.URL, "alice", "sess-1", nil)
	other := NewHTTP(backend.URL, "alice", "sess-2", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, stop, err := streamer.Snapshots(ctx)
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	defer stop()

	// Initial snapshot arrives immediately.
	select {
	case snap := <-ch:
		if snap.Reason != schema.ReasonImmediate {
			t.Fatalf("initial reason = %q", snap.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no initial snapshot")
	}

	if _, err := other.CreateTab(context.Background(), schema.CreateTabRequest{URL: "https://a"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case snap := <-ch:
		if snap.Reason != schema.ReasonRoutine {
			t.Fatalf("cross-session update reason = %q", snap.Reason)
		}
		if len(snap.Order) != 1 {
			t.Fatalf("unexpected order %v", snap.Order)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no routine snapshot after cross-session create")
	}
}

func TestDecodeEventLine(t *testing.T) {
	snap, ok, err := decodeEventLine([]byte(`data: {"type":"snapshot","tabs":[],"order":["t1"],"activeId":"t1","reason":"immediate"}`))
	if err != nil || !ok {
		t.Fatalf("decode failed: ok=%v err=%v", ok, err)
	}
	if len(snap.Order) != 1 || snap.Order[0] != "t1" || snap.Reason != schema.ReasonImmediate {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if _, ok, err := decodeEventLine([]byte("")); ok || err != nil {
		t.Fatalf("blank line must be skipped")
	}
	if _, ok, err := decodeEventLine([]byte(`data: {"type":"ping"}`)); ok || err != nil {
		t.Fatalf("non-snapshot event must be skipped, err=%v", err)
	}
	if _, _, err := decodeEventLine([]byte("data: {broken")); err == nil {
		t.Fatalf("malformed payload must error")
	}
}
