package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabdeck/internal/logx"
	"pkt.systems/tabdeck/schema"
)

// service implements the registry behavior.
type service struct {
	cfg      schema.ServiceConfig
	sink     SnapshotSink
	logger   pslog.Logger
	mu       sync.Mutex
	userTabs map[schema.UserID]*userState
}

type userState struct {
	tabs   map[schema.TabID]*tab
	order  []schema.TabID
	active schema.TabID
	pinned schema.TabID
}

// NewService constructs the registry service.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &service{
		cfg:      normalized,
		sink:     deps.SnapshotSink,
		logger:   logger,
		userTabs: make(map[schema.UserID]*userState),
	}, nil
}

func (s *service) CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return schema.CreateTabResponse{}, err
	}
	log := logx.WithSession(logx.WithUser(ctx, userID), req.Origin)
	url, err := schema.NormalizeURL(req.URL)
	if err != nil {
		log.Warn("registry tab create failed", "err", err)
		return schema.CreateTabResponse{}, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = url
	}
	title = schema.TruncateTitle(title, s.cfg.TitleMax)

	created := &tab{
		ID:      schema.TabID(newID()),
		URL:     url,
		Title:   title,
		Loading: true,
	}

	s.mu.Lock()
	state := s.getOrCreateUserStateLocked(userID)
	if req.Pin && state.pinned != "" {
		s.mu.Unlock()
		log.Warn("registry tab create failed", "err", schema.ErrPinnedViolation)
		return schema.CreateTabResponse{}, schema.ErrPinnedViolation
	}
	state.tabs[created.ID] = created
	if req.Pin {
		state.order = append([]schema.TabID{created.ID}, state.order...)
		state.pinned = created.ID
	} else {
		state.order = append(state.order, created.ID)
	}
	if req.Activate || state.active == "" {
		state.active = created.ID
	}
	event := s.snapshotEventLocked(userID, req.Origin)
	s.mu.Unlock()

	s.emit(event)
	log.Info("registry tab created", "tab", created.ID, "url", url, "pinned", req.Pin)
	return schema.CreateTabResponse{Tab: created.Item()}, nil
}

func (s *service) CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return schema.CloseTabResponse{}, err
	}
	log := logx.WithSession(logx.WithUserTab(ctx, userID, req.TabID), req.Origin)

	s.mu.Lock()
	state := s.getOrCreateUserStateLocked(userID)
	closed := state.tabs[req.TabID]
	if closed == nil {
		s.mu.Unlock()
		log.Warn("registry tab close failed", "err", schema.ErrTabNotFound)
		return schema.CloseTabResponse{}, schema.ErrTabNotFound
	}
	if req.TabID == state.pinned {
		s.mu.Unlock()
		log.Warn("registry tab close failed", "err", schema.ErrPinnedViolation)
		return schema.CloseTabResponse{}, schema.ErrPinnedViolation
	}
	index := indexOf(state.order, req.TabID)
	delete(state.tabs, req.TabID)
	state.order = removeTabID(state.order, req.TabID)
	if state.active == req.TabID {
		state.active = neighborAt(state.order, index)
	}
	event := s.snapshotEventLocked(userID, req.Origin)
	s.mu.Unlock()

	s.emit(event)
	log.Info("registry tab closed")
	return schema.CloseTabResponse{Tab: closed.Item()}, nil
}

func (s *service) ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return schema.ActivateTabResponse{}, err
	}
	log := logx.WithSession(logx.WithUserTab(ctx, userID, req.TabID), req.Origin)

	s.mu.Lock()
	state := s.getOrCreateUserStateLocked(userID)
	target := state.tabs[req.TabID]
	if target == nil {
		s.mu.Unlock()
		log.Warn("registry tab activate failed", "err", schema.ErrTabNotFound)
		return schema.ActivateTabResponse{}, schema.ErrTabNotFound
	}
	state.active = req.TabID
	event := s.snapshotEventLocked(userID, req.Origin)
	s.mu.Unlock()

	s.emit(event)
	log.Info("registry tab activated")
	return schema.ActivateTabResponse{Tab: target.Item()}, nil
}

func (s *service) ReorderTab(ctx context.Context, req schema.ReorderTabRequest) (schema.ReorderTabResponse, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return schema.ReorderTabResponse{}, err
	}
	log := logx.WithSession(logx.WithUserTab(ctx, userID, req.TabID), req.Origin)

	s.mu.Lock()
	state := s.getOrCreateUserStateLocked(userID)
	if state.tabs[req.TabID] == nil {
		s.mu.Unlock()
		log.Warn("registry reorder failed", "err", schema.ErrTabNotFound)
		return schema.ReorderTabResponse{}, schema.ErrTabNotFound
	}
	if req.TargetIndex < 0 || req.TargetIndex >= len(state.order) {
		s.mu.Unlock()
		log.Warn("registry reorder failed", "err", schema.ErrInvalidIndex, "target", req.TargetIndex)
		return schema.ReorderTabResponse{}, schema.ErrInvalidIndex
	}
	if req.TabID == state.pinned || (state.pinned != "" && req.TargetIndex == 0) {
		s.mu.Unlock()
		log.Warn("registry reorder failed", "err", schema.ErrPinnedViolation, "target", req.TargetIndex)
		return schema.ReorderTabResponse{}, schema.ErrPinnedViolation
	}
	state.order = splice(state.order, indexOf(state.order, req.TabID), req.TargetIndex)
	order := append([]schema.TabID(nil), state.order...)
	event := s.snapshotEventLocked(userID, req.Origin)
	s.mu.Unlock()

	s.emit(event)
	log.Info("registry tab reordered", "target", req.TargetIndex)
	return schema.ReorderTabResponse{Order: order}, nil
}

func (s *service) SetTitle(ctx context.Context, req schema.SetTitleRequest) (schema.SetTitleResponse, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return schema.SetTitleResponse{}, err
	}
	log := logx.WithUserTab(ctx, userID, req.TabID)
	title := schema.TruncateTitle(strings.TrimSpace(req.Title), s.cfg.TitleMax)
	if title == "" {
		return schema.SetTitleResponse{}, errors.New("title is required")
	}

	s.mu.Lock()
	state := s.getOrCreateUserStateLocked(userID)
	target := state.tabs[req.TabID]
	if target == nil {
		s.mu.Unlock()
		log.Warn("registry title update failed", "err", schema.ErrTabNotFound)
		return schema.SetTitleResponse{}, schema.ErrTabNotFound
	}
	target.Title = title
	event := s.snapshotEventLocked(userID, "")
	s.mu.Unlock()

	s.emit(event)
	log.Debug("registry title updated", "title", title)
	return schema.SetTitleResponse{Tab: target.Item()}, nil
}

func (s *service) SetLoading(ctx context.Context, req schema.SetLoadingRequest) (schema.SetLoadingResponse, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return schema.SetLoadingResponse{}, err
	}
	log := logx.WithUserTab(ctx, userID, req.TabID)

	s.mu.Lock()
	state := s.getOrCreateUserStateLocked(userID)
	target := state.tabs[req.TabID]
	if target == nil {
		s.mu.Unlock()
		log.Warn("registry loading update failed", "err", schema.ErrTabNotFound)
		return schema.SetLoadingResponse{}, schema.ErrTabNotFound
	}
	target.Loading = req.Loading
	event := s.snapshotEventLocked(userID, "")
	s.mu.Unlock()

	s.emit(event)
	log.Trace("registry loading updated", "loading", req.Loading)
	return schema.SetLoadingResponse{Tab: target.Item()}, nil
}

func (s *service) ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return schema.ListTabsResponse{}, err
	}
	log := logx.WithUser(ctx, userID)

	s.mu.Lock()
	state := s.getOrCreateUserStateLocked(userID)
	snapshot := snapshotLocked(state)
	s.mu.Unlock()

	snapshot.Reason = schema.ReasonRoutine
	log.Trace("registry tabs listed", "count", len(snapshot.Order), "active", snapshot.ActiveID)
	return schema.ListTabsResponse{Snapshot: snapshot}, nil
}

func (s *service) emit(event schema.SnapshotEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnSnapshot(event)
}

func (s *service) snapshotEventLocked(userID schema.UserID, origin schema.SessionID) schema.SnapshotEvent {
	return schema.SnapshotEvent{
		UserID:   userID,
		Origin:   origin,
		Snapshot: snapshotLocked(s.userTabs[userID]),
	}
}

func snapshotLocked(state *userState) schema.Snapshot {
	snapshot := schema.Snapshot{
		Tabs:     make([]schema.TabItem, 0, len(state.order)),
		Order:    append([]schema.TabID(nil), state.order...),
		ActiveID: state.active,
		PinnedID: state.pinned,
	}
	for _, id := range state.order {
		if current := state.tabs[id]; current != nil {
			snapshot.Tabs = append(snapshot.Tabs, current.Item())
		}
	}
	return snapshot
}

func (s *service) getOrCreateUserStateLocked(userID schema.UserID) *userState {
	entry := s.userTabs[userID]
	if entry == nil {
		entry = &userState{tabs: make(map[schema.TabID]*tab)}
		if s.cfg.HomeURL != "" {
			home := &tab{
				ID:    schema.TabID(newID()),
				URL:   s.cfg.HomeURL,
				Title: s.cfg.HomeTitle,
			}
			entry.tabs[home.ID] = home
			entry.order = append(entry.order, home.ID)
			entry.pinned = home.ID
			entry.active = home.ID
		}
		s.userTabs[userID] = entry
	}
	return entry
}

func normalizeUserID(userID schema.UserID) (schema.UserID, error) {
	if err := schema.ValidateUserID(userID); err != nil {
		return "", schema.ErrInvalidUser
	}
	return userID, nil
}

func indexOf(order []schema.TabID, id schema.TabID) int {
	for i, current := range order {
		if current == id {
			return i
		}
	}
	return -1
}

func removeTabID(order []schema.TabID, id schema.TabID) []schema.TabID {
	for i, current := range order {
		if current == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// neighborAt picks the tab occupying the closed tab's slot, falling back to
// the new last tab when the closed one was rightmost.
func neighborAt(order []schema.TabID, index int) schema.TabID {
	if len(order) == 0 {
		return ""
	}
	if index < 0 || index >= len(order) {
		return order[len(order)-1]
	}
	return order[index]
}

// splice moves the element at from to index to with remove-then-insert
// semantics; both indices address the same slice length.
func splice(order []schema.TabID, from, to int) []schema.TabID {
	if from < 0 || from >= len(order) || to < 0 || to >= len(order) || from == to {
		return order
	}
	id := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order, "")
	copy(order[to+1:], order[to:])
	order[to] = id
	return order
}
