package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/tabdeck/httpapi"
	"pkt.systems/tabdeck/schema"
)

// HTTP talks to a remote registry over the command and event API.
type HTTP struct {
	baseURL string
	user    schema.UserID
	session schema.SessionID
	client  *http.Client
	log     pslog.Logger
}

// NewHTTP constructs a registry client for the server at baseURL.
func NewHTTP(baseURL string, user schema.UserID, session schema.SessionID, logger pslog.Logger) *HTTP {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		session: session,
		client:  &http.Client{},
		log:     logger.With("remote", baseURL),
	}
}

func (c *HTTP) CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error) {
	var data struct {
		Tab schema.TabItem `json:"tab"`
	}
	err := c.command(ctx, "create", map[string]any{
		"url":      req.URL,
		"title":    req.Title,
		"pin":      req.Pin,
		"activate": req.Activate,
	}, &data)
	return schema.CreateTabResponse{Tab: data.Tab}, err
}

func (c *HTTP) CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error) {
	err := c.command(ctx, "close", map[string]any{"tabId": req.TabID}, nil)
	return schema.CloseTabResponse{}, err
}

func (c *HTTP) ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error) {
	err := c.command(ctx, "switch", map[string]any{"tabId": req.TabID}, nil)
	return schema.ActivateTabResponse{}, err
}

func (c *HTTP) ReorderTab(ctx context.Context, req schema.ReorderTabRequest) (schema.ReorderTabResponse, error) {
	var data struct {
		Order []schema.TabID `json:"order"`
	}
	err := c.command(ctx, "reorder", map[string]any{
		"tabId":       req.TabID,
		"targetIndex": req.TargetIndex,
	}, &data)
	return schema.ReorderTabResponse{Order: data.Order}, err
}

func (c *HTTP) ListTabs(ctx context.Context) (schema.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tabs", nil)
	if err != nil {
		return schema.Snapshot{}, err
	}
	c.setIdentity(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return schema.Snapshot{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return schema.Snapshot{}, fmt.Errorf("tabs list: unexpected status %d", resp.StatusCode)
	}
	var snap schema.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return schema.Snapshot{}, err
	}
	return snap, nil
}

// Snapshots opens the event stream and decodes snapshot events until ctx is
// canceled or the server closes the stream.
func (c *HTTP) Snapshots(ctx context.Context) (<-chan schema.Snapshot, func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	c.setIdentity(req)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, nil, fmt.Errorf("event stream: unexpected status %d", resp.StatusCode)
	}

	ch := make(chan schema.Snapshot, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		if err := readEventStream(streamCtx, resp.Body, ch); err != nil && streamCtx.Err() == nil {
			c.log.Warn("event stream closed", "err", err)
		}
	}()
	return ch, cancel, nil
}

func readEventStream(ctx context.Context, body io.Reader, out chan<- schema.Snapshot) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		snap, ok, err := decodeEventLine(scanner.Bytes())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		select {
		case out <- snap:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var dataPrefix = []byte("data: ")

func decodeEventLine(line []byte) (schema.Snapshot, bool, error) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return schema.Snapshot{}, false, nil
	}
	var event httpapi.StreamEvent
	if err := json.Unmarshal(bytes.TrimPrefix(line, dataPrefix), &event); err != nil {
		return schema.Snapshot{}, false, fmt.Errorf("decode event: %w", err)
	}
	if event.Type != "snapshot" {
		return schema.Snapshot{}, false, nil
	}
	return event.Snapshot, true, nil
}

func (c *HTTP) command(ctx context.Context, cmdType string, payload any, data any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(httpapi.Command{Type: cmdType, Payload: raw})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/command", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setIdentity(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var result httpapi.CommandResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("command %s: decode response: %w", cmdType, err)
	}
	if !result.Success {
		if result.Error == "" {
			return fmt.Errorf("command %s: unexpected status %d", cmdType, resp.StatusCode)
		}
		return errors.New(result.Error)
	}
	if data != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, data); err != nil {
			return fmt.Errorf("command %s: decode data: %w", cmdType, err)
		}
	}
	return nil
}

func (c *HTTP) setIdentity(req *http.Request) {
	req.Header.Set(httpapi.HeaderUser, string(c.user))
	req.Header.Set(httpapi.HeaderSession, string(c.session))
}
