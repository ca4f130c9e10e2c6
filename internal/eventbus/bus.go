// Package eventbus fans registry snapshots out to per-session subscribers.
//
// Reason attribution happens here: the session that issued the command
// receives the resulting snapshot synchronously as immediate; every other
// subscriber receives it as routine, coalesced within the debounce window.
// The reason tag, not arrival order, decides precedence on the replica side.
package eventbus

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tabdeck/schema"
)

const defaultDepth = 256

// Bus distributes snapshots to per-user subscribers.
type Bus struct {
	mu       sync.Mutex
	subs     map[schema.UserID]map[*subscriber]struct{}
	log      pslog.Logger
	debounce time.Duration
	depth    int
}

type subscriber struct {
	session schema.SessionID
	ch      chan schema.Snapshot
	pending *schema.Snapshot
	timer   *time.Timer
}

// New constructs a Bus coalescing routine snapshots within debounce.
func New(debounce time.Duration, logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:     make(map[schema.UserID]map[*subscriber]struct{}),
		log:      logger,
		debounce: debounce,
		depth:    defaultDepth,
	}
}

// Subscribe registers a session subscriber for the user and returns the
// snapshot channel plus a cancel func.
func (b *Bus) Subscribe(userID schema.UserID, session schema.SessionID) (<-chan schema.Snapshot, func()) {
	if b == nil {
		return nil, func() {}
	}
	sub := &subscriber{
		session: session,
		ch:      make(chan schema.Snapshot, b.depth),
	}
	b.mu.Lock()
	userSubs := b.subs[userID]
	if userSubs == nil {
		userSubs = make(map[*subscriber]struct{})
		b.subs[userID] = userSubs
	}
	userSubs[sub] = struct{}{}
	count := len(userSubs)
	b.mu.Unlock()
	b.log.With("user", userID, "session", session).Debug("eventbus subscribe", "subs", count)
	return sub.ch, func() {
		b.mu.Lock()
		if subs := b.subs[userID]; subs != nil {
			if _, ok := subs[sub]; ok {
				delete(subs, sub)
				if sub.timer != nil {
					sub.timer.Stop()
					sub.timer = nil
				}
				sub.pending = nil
				if len(subs) == 0 {
					delete(b.subs, userID)
				}
				close(sub.ch)
			}
		}
		b.mu.Unlock()
		b.log.With("user", userID, "session", session).Debug("eventbus unsubscribe")
	}
}

// OnSnapshot implements core.SnapshotSink.
func (b *Bus) OnSnapshot(event schema.SnapshotEvent) {
	if b == nil {
		return
	}
	b.mu.Lock()
	for sub := range b.subs[event.UserID] {
		if event.Origin != "" && sub.session == event.Origin {
			b.deliverImmediateLocked(event.UserID, sub, event.Snapshot)
			continue
		}
		b.scheduleRoutineLocked(event.UserID, sub, event.Snapshot)
	}
	b.mu.Unlock()
}

func (b *Bus) deliverImmediateLocked(userID schema.UserID, sub *subscriber, snapshot schema.Snapshot) {
	// The immediate snapshot supersedes any pending routine one wholesale.
	if sub.timer != nil {
		sub.timer.Stop()
		sub.timer = nil
	}
	sub.pending = nil
	snapshot = snapshot.Clone()
	snapshot.Reason = schema.ReasonImmediate
	b.sendLocked(userID, sub, snapshot)
}

func (b *Bus) scheduleRoutineLocked(userID schema.UserID, sub *subscriber, snapshot schema.Snapshot) {
	clone := snapshot.Clone()
	clone.Reason = schema.ReasonRoutine
	if b.debounce <= 0 {
		b.sendLocked(userID, sub, clone)
		return
	}
	sub.pending = &clone
	if sub.timer == nil {
		sub.timer = time.AfterFunc(b.debounce, func() {
			b.flushRoutine(userID, sub)
		})
	}
}

func (b *Bus) flushRoutine(userID schema.UserID, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs := b.subs[userID]; subs == nil {
		return
	} else if _, ok := subs[sub]; !ok {
		return
	}
	sub.timer = nil
	if sub.pending == nil {
		return
	}
	snapshot := *sub.pending
	sub.pending = nil
	b.sendLocked(userID, sub, snapshot)
}

func (b *Bus) sendLocked(userID schema.UserID, sub *subscriber, snapshot schema.Snapshot) {
	select {
	case sub.ch <- snapshot:
	default:
		b.log.With("user", userID, "session", sub.session).Warn("eventbus subscriber full, snapshot dropped", "reason", snapshot.Reason)
	}
}
