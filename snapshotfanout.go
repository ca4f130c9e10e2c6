package tabdeck

import (
	"pkt.systems/tabdeck/core"
	"pkt.systems/tabdeck/schema"
)

type snapshotFanout struct {
	sinks []core.SnapshotSink
}

func (f snapshotFanout) OnSnapshot(event schema.SnapshotEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnSnapshot(event)
	}
}
