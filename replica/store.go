package replica

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tabdeck/schema"
)

// Store holds the last-known registry snapshot and applies incoming
// snapshots under the suppression policy. All mutation funnels through one
// mutex; the suppression flag is readable synchronously by the command and
// snapshot paths while the render path observes changes via Subscribe.
type Store struct {
	cfg       schema.ReplicaConfig
	user      schema.UserID
	session   schema.SessionID
	authority Authority
	log       pslog.Logger

	mu       sync.Mutex
	tabs     map[schema.TabID]schema.TabItem
	order    []schema.TabID
	active   schema.TabID
	pinned   schema.TabID
	lastGood []schema.TabID
	gen      uint64
	dropped  int

	suppressed  bool
	supTimer    *time.Timer
	supDeadline time.Time

	visual  VisualMover
	subs    map[int]func()
	nextSub int
}

// StoreDeps captures the store's collaborators.
type StoreDeps struct {
	Authority Authority
	Visual    VisualMover
	Logger    pslog.Logger
}

// NewStore constructs a replica store for one user session.
func NewStore(cfg schema.ReplicaConfig, user schema.UserID, session schema.SessionID, deps StoreDeps) (*Store, error) {
	normalized, err := schema.NormalizeReplicaConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if user != "" {
		logger = logger.With("user", user)
	}
	if session != "" {
		logger = logger.With("session", session)
	}
	return &Store{
		cfg:       normalized,
		user:      user,
		session:   session,
		authority: deps.Authority,
		log:       logger,
		tabs:      make(map[schema.TabID]schema.TabItem),
		visual:    deps.Visual,
		subs:      make(map[int]func()),
	}, nil
}

// SetVisualMover wires the rendered strip in after construction; the render
// layer is typically built around an existing store.
func (s *Store) SetVisualMover(mover VisualMover) {
	s.mu.Lock()
	s.visual = mover
	s.mu.Unlock()
}

// Run pumps registry snapshots into the store until ctx is canceled or the
// subscription closes.
func (s *Store) Run(ctx context.Context) error {
	ch, cancel, err := s.authority.Snapshots(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			s.ApplyIncoming(snap)
		}
	}
}

// Subscribe registers a change notification callback and returns a cancel
// func. Callbacks run outside the store lock.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// View returns a copy of the current replica state.
func (s *Store) View() schema.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := schema.Snapshot{
		Tabs:     make([]schema.TabItem, 0, len(s.order)),
		Order:    append([]schema.TabID(nil), s.order...),
		ActiveID: s.active,
		PinnedID: s.pinned,
	}
	for _, id := range s.order {
		if item, ok := s.tabs[id]; ok {
			snapshot.Tabs = append(snapshot.Tabs, item)
		}
	}
	return snapshot
}

// Suppressed reports whether the suppression window is active.
func (s *Store) Suppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressed
}

// DroppedSnapshots reports how many routine snapshots suppression discarded.
func (s *Store) DroppedSnapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// ApplyIncoming applies a registry snapshot. While the suppression window is
// active, routine snapshots are discarded wholesale; immediate snapshots
// always apply and clear suppression. Returns whether the snapshot applied.
func (s *Store) ApplyIncoming(snap schema.Snapshot) bool {
	s.mu.Lock()
	if s.suppressed && snap.Reason != schema.ReasonImmediate {
		s.dropped++
		count := s.dropped
		s.mu.Unlock()
		s.log.Debug("replica snapshot dropped", "reason", snap.Reason, "dropped", count)
		return false
	}
	s.tabs = make(map[schema.TabID]schema.TabItem, len(snap.Tabs))
	for _, item := range snap.Tabs {
		s.tabs[item.ID] = item
	}
	s.order = append([]schema.TabID(nil), snap.Order...)
	s.active = snap.ActiveID
	s.pinned = snap.PinnedID
	s.lastGood = append([]schema.TabID(nil), snap.Order...)
	s.gen++
	if snap.Reason == schema.ReasonImmediate {
		s.clearSuppressionLocked()
	}
	s.mu.Unlock()
	s.log.Trace("replica snapshot applied", "reason", snap.Reason, "tabs", len(snap.Order))
	s.notify()
	return true
}

// BeginDrag raises the suppression window when a drag session starts,
// renewing any pending expiry.
func (s *Store) BeginDrag() {
	s.mu.Lock()
	s.armSuppressionLocked()
	s.mu.Unlock()
	s.log.Debug("replica suppression armed", "cause", "drag")
}

// ApplyLocalReorder performs the optimistic local splice and issues the
// reorder command without blocking the caller. Indices use final-position
// semantics (remove-then-insert). Equal indices after clamping are a no-op
// that clears suppression immediately.
func (s *Store) ApplyLocalReorder(fromIndex, toIndex int) {
	s.mu.Lock()
	n := len(s.order)
	if n == 0 {
		mover := s.visual
		s.clearSuppressionLocked()
		s.mu.Unlock()
		if mover != nil && mover.TabCount() > 0 {
			// Model and strip disagree; move the elements and nothing else.
			s.log.Warn("replica order empty, visual-only reorder", "from", fromIndex, "to", toIndex)
			mover.MoveTab(fromIndex, toIndex)
		}
		s.notify()
		return
	}
	floor := 0
	if s.pinned != "" {
		floor = 1
	}
	from := clamp(fromIndex, floor, n-1)
	to := clamp(toIndex, floor, n-1)
	if from == to {
		s.clearSuppressionLocked()
		s.mu.Unlock()
		s.log.Debug("replica reorder no-op", "index", from)
		s.notify()
		return
	}
	s.lastGood = append([]schema.TabID(nil), s.order...)
	s.order = spliceOrder(s.order, from, to)
	id := s.order[to]
	s.armSuppressionLocked()
	gen := s.gen
	s.mu.Unlock()
	s.log.Info("replica local reorder", "tab", id, "from", from, "to", to)
	s.notify()
	go s.issueReorder(id, to, gen)
}

func (s *Store) issueReorder(id schema.TabID, target int, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommandTimeout)
	defer cancel()
	_, err := s.authority.ReorderTab(ctx, schema.ReorderTabRequest{
		UserID:      s.user,
		Origin:      s.session,
		TabID:       id,
		TargetIndex: target,
	})
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.gen == gen {
		// No snapshot superseded the optimistic splice; restore the
		// last-known-good order rather than keep an order the registry
		// never accepted.
		s.order = append([]schema.TabID(nil), s.lastGood...)
		s.clearSuppressionLocked()
	}
	s.mu.Unlock()
	s.log.Warn("replica reorder rejected, rolled back", "tab", id, "target", target, "err", err)
	s.notify()
}

// CreateTab issues a create command; the result arrives as an immediate
// snapshot rather than a local mutation.
func (s *Store) CreateTab(url, title string) {
	go s.command("create", func(ctx context.Context) error {
		_, err := s.authority.CreateTab(ctx, schema.CreateTabRequest{
			UserID:   s.user,
			Origin:   s.session,
			URL:      url,
			Title:    title,
			Activate: true,
		})
		return err
	})
}

// CloseTab issues a close command for the tab.
func (s *Store) CloseTab(id schema.TabID) {
	go s.command("close", func(ctx context.Context) error {
		_, err := s.authority.CloseTab(ctx, schema.CloseTabRequest{UserID: s.user, Origin: s.session, TabID: id})
		return err
	})
}

// ActivateTab issues a switch command for the tab.
func (s *Store) ActivateTab(id schema.TabID) {
	go s.command("switch", func(ctx context.Context) error {
		_, err := s.authority.ActivateTab(ctx, schema.ActivateTabRequest{UserID: s.user, Origin: s.session, TabID: id})
		return err
	})
}

// command runs a non-optimistic command with the configured timeout.
// Failures are scoped to the command: logged, never propagated to the UI
// event loop.
func (s *Store) command(kind string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommandTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.log.Warn("replica command failed", "command", kind, "err", err)
	}
}

// armSuppressionLocked (re)starts the suppression window. At most one timer
// is live: renewing stops the previous one.
func (s *Store) armSuppressionLocked() {
	if s.supTimer != nil {
		s.supTimer.Stop()
	}
	s.suppressed = true
	s.supDeadline = time.Now().Add(s.cfg.SuppressionTimeout)
	s.supTimer = time.AfterFunc(s.cfg.SuppressionTimeout, s.expireSuppression)
}

func (s *Store) clearSuppressionLocked() {
	if s.supTimer != nil {
		s.supTimer.Stop()
		s.supTimer = nil
	}
	s.suppressed = false
}

func (s *Store) expireSuppression() {
	s.mu.Lock()
	// A timer that fired just before a renewal must not clear the renewed
	// window; the deadline tells the stale callback apart.
	if !s.suppressed || time.Now().Before(s.supDeadline) {
		s.mu.Unlock()
		return
	}
	s.suppressed = false
	s.supTimer = nil
	s.mu.Unlock()
	s.log.Debug("replica suppression expired")
	s.notify()
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func spliceOrder(order []schema.TabID, from, to int) []schema.TabID {
	id := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order, "")
	copy(order[to+1:], order[to:])
	order[to] = id
	return order
}
