package core

import "pkt.systems/pslog"

// ServiceDeps captures optional dependencies for the registry service.
type ServiceDeps struct {
	SnapshotSink SnapshotSink
	Logger       pslog.Logger
}
