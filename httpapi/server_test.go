package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pkt.systems/tabdeck/core"
	"pkt.systems/tabdeck/internal/eventbus"
	"pkt.systems/tabdeck/schema"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	bus := eventbus.New(0, nil)
	service, err := core.NewService(schema.ServiceConfig{}, core.ServiceDeps{SnapshotSink: bus})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewServer(Config{Addr: "127.0.0.1:0"}, service, bus)
}

func postCommand(t *testing.T, handler http.Handler, user, session, cmdType string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]any{"type": cmdType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body["payload"] = json.RawMessage(raw)
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal command: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/command", bytes.NewReader(data))
	if user != "" {
		req.Header.Set(HeaderUser, user)
	}
	if session != "" {
		req.Header.Set(HeaderSession, session)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) CommandResult {
	t.Helper()
	var result CommandResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v (%s)", err, rec.Body.String())
	}
	return result
}

func TestCommandCreateTab(t *testing.T) {
	handler := newTestServer(t).Handler()
	rec := postCommand(t, handler, "alice", "sess-1", "create", map[string]any{
		"url": "https://example.com", "title": "Example", "activate": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decodeResult(t, rec)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	var data struct {
		Tab schema.TabItem `json:"tab"`
	}
	if err := json.Unmarshal(result.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Tab.ID == "" || data.Tab.URL != "https://example.com" {
		t.Fatalf("unexpected tab %+v", data.Tab)
	}
}

func TestCommandReorderReturnsOrder(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()
	var ids []string
	for _, url := range []string{"https://a", "https://b", "https://c"} {
		rec := postCommand(t, handler, "alice", "sess-1", "create", map[string]any{"url": url})
		result := decodeResult(t, rec)
		var data struct {
			Tab schema.TabItem `json:"tab"`
		}
		if err := json.Unmarshal(result.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		ids = append(ids, string(data.Tab.ID))
	}

	rec := postCommand(t, handler, "alice", "sess-1", "reorder", map[string]any{
		"tabId": ids[0], "targetIndex": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decodeResult(t, rec)
	var data struct {
		Order []schema.TabID `json:"order"`
	}
	if err := json.Unmarshal(result.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	want := []schema.TabID{schema.TabID(ids[1]), schema.TabID(ids[2]), schema.TabID(ids[0])}
	if len(data.Order) != 3 || data.Order[0] != want[0] || data.Order[1] != want[1] || data.Order[2] != want[2] {
		t.Fatalf("order = %v, want %v", data.Order, want)
	}
}

func TestCommandErrors(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := postCommand(t, handler, "alice", "s", "switch", map[string]any{"tabId": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown tab status = %d", rec.Code)
	}
	if result := decodeResult(t, rec); result.Success || result.Error == "" {
		t.Fatalf("expected error result, got %+v", result)
	}

	rec = postCommand(t, handler, "alice", "s", "teleport", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type status = %d", rec.Code)
	}

	rec = postCommand(t, handler, "alice", "s", "reorder", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing payload status = %d", rec.Code)
	}

	rec = postCommand(t, handler, "", "s", "create", map[string]any{"url": "https://a"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing user status = %d", rec.Code)
	}
}

func TestTabsEndpointReturnsSnapshot(t *testing.T) {
	handler := newTestServer(t).Handler()
	postCommand(t, handler, "alice", "s", "create", map[string]any{"url": "https://a"})

	req := httptest.NewRequest(http.MethodGet, "/api/tabs", nil)
	req.Header.Set(HeaderUser, "alice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap schema.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Order) != 1 || len(snap.Tabs) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestEventsStreamDeliversSnapshots(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()
	postCommand(t, handler, "alice", "other", "create", map[string]any{"url": "https://a"})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	req.Header.Set(HeaderUser, "alice")
	req.Header.Set(HeaderSession, "sess-1")
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()

	// Let the stream subscribe, then push a command from another session.
	time.Sleep(50 * time.Millisecond)
	postCommand(t, handler, "alice", "other", "create", map[string]any{"url": "https://b"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	var events []StreamEvent
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("decode event: %v (%s)", err, line)
		}
		events = append(events, event)
	}
	if len(events) < 2 {
		t.Fatalf("expected initial snapshot plus update, got %d events", len(events))
	}
	if events[0].Type != "snapshot" || events[0].Reason != schema.ReasonImmediate {
		t.Fatalf("initial event %+v", events[0])
	}
	last := events[len(events)-1]
	if len(last.Order) != 2 {
		t.Fatalf("expected two tabs in final snapshot, got %v", last.Order)
	}
	if last.Reason != schema.ReasonRoutine {
		t.Fatalf("other-session update must be routine, got %q", last.Reason)
	}
}

func TestRequestLoggingPreservesStatus(t *testing.T) {
	handler := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodGet, "/api/command", nil)
	req.Header.Set(HeaderUser, "alice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
