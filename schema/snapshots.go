package schema

// SnapshotReason tags the provenance of a snapshot push.
type SnapshotReason string

const (
	// ReasonRoutine marks background reconciliation or changes that did not
	// originate from the receiving session.
	ReasonRoutine SnapshotReason = "routine"
	// ReasonImmediate marks a snapshot generated synchronously as the direct
	// consequence of a command issued by the receiving session.
	ReasonImmediate SnapshotReason = "immediate"
)

// Snapshot is a full-replace description of the tab set. It supersedes the
// previous snapshot wholesale; there is no field-level merge.
type Snapshot struct {
	Tabs     []TabItem      `json:"tabs"`
	Order    []TabID        `json:"order"`
	ActiveID TabID          `json:"activeId"`
	PinnedID TabID          `json:"pinnedId,omitempty"`
	Reason   SnapshotReason `json:"reason"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Tabs != nil {
		out.Tabs = append([]TabItem(nil), s.Tabs...)
	}
	if s.Order != nil {
		out.Order = append([]TabID(nil), s.Order...)
	}
	return out
}

// SnapshotEvent carries a registry snapshot to sinks before per-session
// reason attribution. Origin is empty for registry-initiated changes.
type SnapshotEvent struct {
	UserID   UserID
	Origin   SessionID
	Snapshot Snapshot
}
