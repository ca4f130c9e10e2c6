package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pkt.systems/tabdeck/drag"
	"pkt.systems/tabdeck/schema"
)

const maxTabTitle = 16

// Strip renders the tab row and owns its geometry. It serves the drag
// controller as the hit-test surface and the replica store as the visual
// fallback mover.
type Strip struct {
	width      int
	items      []schema.TabItem
	activeID   schema.TabID
	pinnedID   schema.TabID
	dragFrom   int
	dropTarget int
}

// NewStrip constructs an empty strip.
func NewStrip() *Strip {
	return &Strip{dragFrom: -1, dropTarget: -1}
}

// SetWidth sets the terminal width the strip renders into.
func (s *Strip) SetWidth(width int) {
	s.width = width
}

// SetSnapshot replaces the strip contents from a replica view. Tabs render
// in order; any visual-only moves are discarded.
func (s *Strip) SetSnapshot(snap schema.Snapshot) {
	items := make([]schema.TabItem, 0, len(snap.Order))
	byID := make(map[schema.TabID]schema.TabItem, len(snap.Tabs))
	for _, item := range snap.Tabs {
		byID[item.ID] = item
	}
	for _, id := range snap.Order {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	s.items = items
	s.activeID = snap.ActiveID
	s.pinnedID = snap.PinnedID
}

// SetDrag updates the drag affordance: the origin index renders faint and an
// insertion marker shows at the drop target. Pass -1, -1 to clear.
func (s *Strip) SetDrag(fromIndex, dropTarget int) {
	s.dragFrom = fromIndex
	s.dropTarget = dropTarget
}

// TabCount implements the visual fallback mover.
func (s *Strip) TabCount() int {
	return len(s.items)
}

// MoveTab splices the rendered cells without touching any model state.
func (s *Strip) MoveTab(fromIndex, toIndex int) {
	n := len(s.items)
	if n == 0 {
		return
	}
	from := clampIndex(fromIndex, 0, n-1)
	to := clampIndex(toIndex, 0, n-1)
	if from == to {
		return
	}
	item := s.items[from]
	rest := append(append([]schema.TabItem(nil), s.items[:from]...), s.items[from+1:]...)
	s.items = append(append(append([]schema.TabItem(nil), rest[:to]...), item), rest[to:]...)
}

// TabBounds reports the rendered extent of each tab cell. Cells are separated
// by a one-cell gap that stays fixed during a drag so midpoints do not shift
// under the pointer.
func (s *Strip) TabBounds() []drag.TabBounds {
	bounds := make([]drag.TabBounds, 0, len(s.items))
	x := 0
	for i, item := range s.items {
		w := lipgloss.Width(s.renderTab(i))
		bounds = append(bounds, drag.TabBounds{
			Index:  i,
			ID:     item.ID,
			MinX:   x,
			MaxX:   x + w - 1,
			Pinned: item.ID == s.pinnedID,
		})
		x += w + 1
	}
	return bounds
}

// View renders the strip as a single row.
func (s *Strip) View() string {
	if len(s.items) == 0 {
		return statusStyle.Render("no tabs")
	}
	marker := s.markerCell()
	var row strings.Builder
	for i := range s.items {
		if i > 0 {
			if i == marker {
				row.WriteString(markerStyle.Render("┃"))
			} else {
				row.WriteString(" ")
			}
		} else if marker == 0 {
			// Leading marker when dropping into the first slot.
			row.WriteString(markerStyle.Render("┃"))
		}
		row.WriteString(s.renderTab(i))
	}
	if marker == len(s.items) {
		row.WriteString(markerStyle.Render("┃"))
	}
	out := row.String()
	if s.width > 0 {
		out = lipgloss.NewStyle().MaxWidth(s.width).Render(out)
	}
	return out
}

func (s *Strip) renderTab(i int) string {
	item := s.items[i]
	label := schema.TruncateTitle(tabLabel(item), maxTabTitle)
	if item.ID == s.pinnedID {
		label = "⌂ " + label
	}
	if item.Loading {
		label = "⟳ " + label
	}
	switch {
	case i == s.dragFrom:
		return draggedTabStyle.Render(label)
	case item.ID == s.activeID:
		return activeTabStyle.Render(label)
	default:
		return tabStyle.Render(label)
	}
}

// markerCell maps the drop target, which counts positions with the dragged
// tab removed, onto the current cell the marker precedes. Returns len(items)
// for the trailing edge, -1 when no drag is showing.
func (s *Strip) markerCell() int {
	if s.dropTarget < 0 || s.dragFrom < 0 {
		return -1
	}
	count := 0
	for i := range s.items {
		if i == s.dragFrom {
			continue
		}
		if count == s.dropTarget {
			return i
		}
		count++
	}
	return len(s.items)
}

func tabLabel(item schema.TabItem) string {
	if strings.TrimSpace(item.Title) != "" {
		return item.Title
	}
	if item.URL != "" {
		return item.URL
	}
	return "untitled"
}

func clampIndex(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
