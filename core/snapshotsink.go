package core

import "pkt.systems/tabdeck/schema"

// SnapshotSink receives a full snapshot after every registry state change.
// The sink is responsible for per-session reason attribution: the event's
// Origin session receives it as immediate, everyone else as routine.
type SnapshotSink interface {
	OnSnapshot(event schema.SnapshotEvent)
}
