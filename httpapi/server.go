package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pkt.systems/tabdeck/core"
	"pkt.systems/tabdeck/internal/eventbus"
	"pkt.systems/tabdeck/internal/logx"
	"pkt.systems/tabdeck/schema"
)

// Identity headers; every request names the user and the command origin
// session so snapshot reasons can be attributed.
const (
	HeaderUser    = "X-Tabdeck-User"
	HeaderSession = "X-Tabdeck-Session"
)

// Command is the request envelope for POST /api/command.
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CommandResult is the response envelope for POST /api/command.
type CommandResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// StreamEvent frames one server-sent event on GET /api/events.
type StreamEvent struct {
	Type string `json:"type"`
	schema.Snapshot
}

// Server serves the tab command and event API.
type Server struct {
	cfg     Config
	service core.Service
	bus     *eventbus.Bus
}

// NewServer constructs an HTTP server over the registry service and the
// snapshot bus.
func NewServer(cfg Config, service core.Service, bus *eventbus.Bus) *Server {
	return &Server{cfg: cfg, service: service, bus: bus}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/command", s.requireIdentity(s.handleCommand))
	mux.HandleFunc("/api/tabs", s.requireIdentity(s.handleTabs))
	mux.HandleFunc("/api/events", s.requireIdentity(s.handleEvents))
	return withRequestLogging(mux, lookupIdentity)
}

type identity struct {
	user    schema.UserID
	session schema.SessionID
}

func lookupIdentity(r *http.Request) (schema.UserID, string) {
	return schema.UserID(strings.TrimSpace(r.Header.Get(HeaderUser))), strings.TrimSpace(r.Header.Get(HeaderSession))
}

func (s *Server) requireIdentity(next func(http.ResponseWriter, *http.Request, identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, session := lookupIdentity(r)
		if err := schema.ValidateUserID(user); err != nil {
			logx.Ctx(r.Context()).With("remote", clientIP(r)).Warn("http identity rejected", "err", err)
			writeResult(w, http.StatusUnauthorized, CommandResult{Error: "missing or invalid " + HeaderUser + " header"})
			return
		}
		next(w, r, identity{user: user, session: schema.SessionID(session)})
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, id identity) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.WithUser(r.Context(), id.user)
	var cmd Command
	if err := decodeJSON(r.Body, &cmd); err != nil {
		log.Warn("http command decode failed", "err", err)
		writeResult(w, http.StatusBadRequest, CommandResult{Error: err.Error()})
		return
	}
	log = log.With("command", cmd.Type)
	data, err := s.dispatch(r.Context(), id, cmd)
	if err != nil {
		log.Warn("http command failed", "err", err)
		writeResult(w, statusFor(err), CommandResult{Error: err.Error()})
		return
	}
	writeResult(w, http.StatusOK, CommandResult{Success: true, Data: data})
	log.Info("http command ok")
}

func (s *Server) dispatch(ctx context.Context, id identity, cmd Command) (json.RawMessage, error) {
	switch cmd.Type {
	case "create":
		var payload struct {
			URL      string `json:"url"`
			Title    string `json:"title"`
			Pin      bool   `json:"pin"`
			Activate bool   `json:"activate"`
		}
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return nil, err
		}
		resp, err := s.service.CreateTab(ctx, schema.CreateTabRequest{
			UserID:   id.user,
			Origin:   id.session,
			URL:      payload.URL,
			Title:    payload.Title,
			Pin:      payload.Pin,
			Activate: payload.Activate,
		})
		if err != nil {
			return nil, err
		}
		return marshalData(map[string]any{"tab": resp.Tab})
	case "close":
		var payload struct {
			TabID string `json:"tabId"`
		}
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return nil, err
		}
		_, err := s.service.CloseTab(ctx, schema.CloseTabRequest{
			UserID: id.user,
			Origin: id.session,
			TabID:  schema.TabID(payload.TabID),
		})
		return nil, err
	case "switch":
		var payload struct {
			TabID string `json:"tabId"`
		}
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return nil, err
		}
		_, err := s.service.ActivateTab(ctx, schema.ActivateTabRequest{
			UserID: id.user,
			Origin: id.session,
			TabID:  schema.TabID(payload.TabID),
		})
		return nil, err
	case "reorder":
		var payload struct {
			TabID       string `json:"tabId"`
			TargetIndex int    `json:"targetIndex"`
		}
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return nil, err
		}
		resp, err := s.service.ReorderTab(ctx, schema.ReorderTabRequest{
			UserID:      id.user,
			Origin:      id.session,
			TabID:       schema.TabID(payload.TabID),
			TargetIndex: payload.TargetIndex,
		})
		if err != nil {
			return nil, err
		}
		return marshalData(map[string]any{"order": resp.Order})
	case "setTitle":
		var payload struct {
			TabID string `json:"tabId"`
			Title string `json:"title"`
		}
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return nil, err
		}
		// Title pushes are registry-initiated state, routine for every
		// session including the caller's.
		_, err := s.service.SetTitle(ctx, schema.SetTitleRequest{
			UserID: id.user,
			TabID:  schema.TabID(payload.TabID),
			Title:  payload.Title,
		})
		return nil, err
	case "setLoading":
		var payload struct {
			TabID   string `json:"tabId"`
			Loading bool   `json:"loading"`
		}
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			return nil, err
		}
		_, err := s.service.SetLoading(ctx, schema.SetLoadingRequest{
			UserID:  id.user,
			TabID:   schema.TabID(payload.TabID),
			Loading: payload.Loading,
		})
		return nil, err
	default:
		return nil, fmt.Errorf("%w: unknown command type %q", schema.ErrInvalidRequest, cmd.Type)
	}
}

func (s *Server) handleTabs(w http.ResponseWriter, r *http.Request, id identity) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := logx.WithUser(r.Context(), id.user)
	resp, err := s.service.ListTabs(r.Context(), schema.ListTabsRequest{UserID: id.user})
	if err != nil {
		log.Warn("http tabs list failed", "err", err)
		writeResult(w, statusFor(err), CommandResult{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp.Snapshot)
	log.Debug("http tabs list ok", "count", len(resp.Snapshot.Order))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, id identity) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeResult(w, http.StatusInternalServerError, CommandResult{Error: "stream unsupported"})
		return
	}
	log := logx.WithUser(r.Context(), id.user).With("session", id.session)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Initial full state so the replica never starts empty.
	resp, err := s.service.ListTabs(r.Context(), schema.ListTabsRequest{UserID: id.user})
	if err == nil {
		snap := resp.Snapshot
		snap.Reason = schema.ReasonImmediate
		_ = writeSSEvent(w, StreamEvent{Type: "snapshot", Snapshot: snap})
		flusher.Flush()
	}

	ch, unsubscribe := s.bus.Subscribe(id.user, id.session)
	defer unsubscribe()

	notify := r.Context().Done()
	log.Info("http stream opened")
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case snap, open := <-ch:
			if !open {
				log.Info("http stream unsubscribed")
				return
			}
			_ = writeSSEvent(w, StreamEvent{Type: "snapshot", Snapshot: snap})
			flusher.Flush()
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrTabNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidUser),
		errors.Is(err, schema.ErrInvalidURL),
		errors.Is(err, schema.ErrInvalidIndex),
		errors.Is(err, schema.ErrPinnedViolation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func decodePayload(payload json.RawMessage, target any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: missing payload", schema.ErrInvalidRequest)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err)
	}
	return nil
}

func marshalData(payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeResult(w http.ResponseWriter, status int, result CommandResult) {
	writeJSON(w, status, result)
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return err
}
