package schema

import "time"

// ServiceConfig defines defaults and limits for the tab registry.
type ServiceConfig struct {
	// SnapshotDebounce bounds push frequency: routine snapshots emitted within
	// this window are coalesced into the latest one.
	SnapshotDebounce time.Duration
	// HomeURL, when set, seeds a pinned home tab for each user on first touch.
	HomeURL   string
	HomeTitle string
	// TitleMax truncates tab titles pushed to replicas.
	TitleMax int
}

// ReplicaConfig defines timing for the UI replica store and drag controller.
type ReplicaConfig struct {
	// SuppressionTimeout is the safety-net expiry for the suppression window.
	SuppressionTimeout time.Duration
	// CommandTimeout bounds a single command round-trip to the registry.
	CommandTimeout time.Duration
	// DragThreshold is the pointer travel needed to promote a press to a drag.
	DragThreshold int
}

// Defaults applied by the normalize helpers.
const (
	DefaultSnapshotDebounce   = 100 * time.Millisecond
	DefaultSuppressionTimeout = 2000 * time.Millisecond
	DefaultCommandTimeout     = 5 * time.Second
	DefaultDragThreshold      = 5
	DefaultTitleMax           = 80
)
