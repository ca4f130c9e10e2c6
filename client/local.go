// Package client provides registry clients for the replica store: an
// in-process client over the core service and an HTTP client speaking the
// command and event API.
package client

import (
	"context"

	"pkt.systems/tabdeck/core"
	"pkt.systems/tabdeck/internal/eventbus"
	"pkt.systems/tabdeck/schema"
)

// Local wires the replica straight to an in-process service and snapshot
// bus. Commands are stamped with the client's user and session so snapshot
// reasons attribute correctly.
type Local struct {
	service core.Service
	bus     *eventbus.Bus
	user    schema.UserID
	session schema.SessionID
}

// NewLocal constructs an in-process registry client.
func NewLocal(service core.Service, bus *eventbus.Bus, user schema.UserID, session schema.SessionID) *Local {
	return &Local{service: service, bus: bus, user: user, session: session}
}

func (c *Local) CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error) {
	req.UserID = c.user
	req.Origin = c.session
	return c.service.CreateTab(ctx, req)
}

func (c *Local) CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error) {
	req.UserID = c.user
	req.Origin = c.session
	return c.service.CloseTab(ctx, req)
}

func (c *Local) ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error) {
	req.UserID = c.user
	req.Origin = c.session
	return c.service.ActivateTab(ctx, req)
}

func (c *Local) ReorderTab(ctx context.Context, req schema.ReorderTabRequest) (schema.ReorderTabResponse, error) {
	req.UserID = c.user
	req.Origin = c.session
	return c.service.ReorderTab(ctx, req)
}

func (c *Local) ListTabs(ctx context.Context) (schema.Snapshot, error) {
	resp, err := c.service.ListTabs(ctx, schema.ListTabsRequest{UserID: c.user})
	if err != nil {
		return schema.Snapshot{}, err
	}
	return resp.Snapshot, nil
}

// Snapshots subscribes the client's session to the snapshot bus.
func (c *Local) Snapshots(ctx context.Context) (<-chan schema.Snapshot, func(), error) {
	ch, cancel := c.bus.Subscribe(c.user, c.session)
	return ch, cancel, nil
}
