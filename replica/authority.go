// Package replica mirrors the registry's tab state on the UI side and keeps
// it consistent with local optimistic reorders under a suppression window.
package replica

import (
	"context"

	"pkt.systems/tabdeck/schema"
)

// Authority is the injected registry client: commands plus the snapshot
// subscription. Implementations live in the client package; tests inject
// fakes.
type Authority interface {
	CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error)
	CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error)
	ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error)
	ReorderTab(ctx context.Context, req schema.ReorderTabRequest) (schema.ReorderTabResponse, error)
	Snapshots(ctx context.Context) (<-chan schema.Snapshot, func(), error)
}

// VisualMover lets the store fall back to a visual-only reorder when the
// local order is empty while the rendered strip is not. Best-effort UX
// patch for a desynced replica, not a consistency mechanism: no command is
// issued and the model is left untouched.
type VisualMover interface {
	TabCount() int
	MoveTab(fromIndex, toIndex int)
}
