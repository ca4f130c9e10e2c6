// Package tui renders the tab strip in the terminal and drives the drag
// controller from pointer events.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"pkt.systems/pslog"
	"pkt.systems/tabdeck/drag"
	"pkt.systems/tabdeck/replica"
	"pkt.systems/tabdeck/schema"
)

// snapshotMsg signals that the replica store changed.
type snapshotMsg struct{}

type model struct {
	store   *replica.Store
	strip   *Strip
	ctrl    *drag.Controller
	input   textinput.Model
	typing  bool
	width   int
	height  int
	updates chan struct{}
	log     pslog.Logger
}

// NewModel builds the program model around a replica store.
func NewModel(store *replica.Store, cfg schema.ReplicaConfig, logger pslog.Logger) tea.Model {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	strip := NewStrip()
	store.SetVisualMover(strip)
	ctrl := drag.NewController(cfg, store, strip, drag.Hooks{
		OnClick: func(id schema.TabID) { store.ActivateTab(id) },
	}, logger)

	input := textinput.New()
	input.Placeholder = "https://"
	input.Prompt = promptStyle.Render("url> ")
	input.CharLimit = 512

	updates := make(chan struct{}, 1)
	store.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	m := model{
		store:   store,
		strip:   strip,
		ctrl:    ctrl,
		input:   input,
		updates: updates,
		log:     logger,
	}
	m.strip.SetSnapshot(store.View())
	return m
}

func (m model) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return snapshotMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.strip.SetSnapshot(m.store.View())
		m.syncDrag()
		return m, m.waitForUpdate()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.strip.SetWidth(msg.Width)
		return m, nil
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.BlurMsg:
		// Terminal focus loss aborts any drag in flight.
		m.ctrl.Cancel()
		m.syncDrag()
		return m, nil
	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if msg.Y == 0 {
			m.ctrl.PointerDown(msg.X)
		}
	case msg.Action == tea.MouseActionMotion:
		m.ctrl.PointerMove(msg.X)
	case msg.Action == tea.MouseActionRelease:
		m.ctrl.PointerUp(msg.X)
	}
	m.syncDrag()
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing {
		switch msg.String() {
		case "esc":
			m.typing = false
			m.input.Blur()
			m.input.Reset()
			return m, nil
		case "enter":
			url := strings.TrimSpace(m.input.Value())
			m.typing = false
			m.input.Blur()
			m.input.Reset()
			if url != "" {
				m.store.CreateTab(url, "")
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n":
		m.typing = true
		return m, m.input.Focus()
	case "w", "x":
		if active := m.store.View().ActiveID; active != "" {
			m.store.CloseTab(active)
		}
		return m, nil
	case "left", "h":
		m.activateRelative(-1)
		return m, nil
	case "right", "l":
		m.activateRelative(1)
		return m, nil
	case "esc":
		m.ctrl.Cancel()
		m.syncDrag()
		return m, nil
	}
	return m, nil
}

func (m model) activateRelative(delta int) {
	view := m.store.View()
	n := len(view.Order)
	if n == 0 {
		return
	}
	at := 0
	for i, id := range view.Order {
		if id == view.ActiveID {
			at = i
			break
		}
	}
	next := (at + delta + n) % n
	m.store.ActivateTab(view.Order[next])
}

func (m model) syncDrag() {
	if m.ctrl.State() == drag.StateDragging {
		m.strip.SetDrag(m.ctrl.DraggedIndex(), m.ctrl.DropTarget())
	} else {
		m.strip.SetDrag(-1, -1)
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.strip.View())
	b.WriteString("\n\n")

	view := m.store.View()
	for _, item := range view.Tabs {
		if item.ID == view.ActiveID {
			b.WriteString(item.URL)
			break
		}
	}
	b.WriteString("\n\n")

	if m.typing {
		b.WriteString(m.input.View())
	} else {
		status := "n new · w close · drag tabs to reorder · q quit"
		if m.store.Suppressed() {
			status = "syncing reorder… · " + status
		}
		b.WriteString(statusStyle.Render(status))
	}
	return b.String()
}

// Run starts the replica pump and the terminal program, blocking until the
// user quits or ctx is canceled.
func Run(ctx context.Context, store *replica.Store, cfg schema.ReplicaConfig, logger pslog.Logger) error {
	m := NewModel(store, cfg, logger)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	go func() {
		if err := store.Run(ctx); err != nil && ctx.Err() == nil {
			pslog.Ctx(ctx).Error("replica pump stopped", "err", err)
		}
	}()
	_, err := p.Run()
	return err
}
