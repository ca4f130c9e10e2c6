package drag

import "pkt.systems/tabdeck/schema"

// TabBounds describes one tab's horizontal extent on the strip. Index is the
// tab's position in the current order; coordinates are cells, inclusive.
type TabBounds struct {
	Index  int
	ID     schema.TabID
	MinX   int
	MaxX   int
	Pinned bool
}

// Midpoint is the cell at the center of the tab. A pointer at or beyond the
// midpoint counts as having passed the tab.
func (b TabBounds) Midpoint() int {
	return (b.MinX + b.MaxX) / 2
}

// Contains reports whether x falls inside the tab's extent.
func (b TabBounds) Contains(x int) bool {
	return x >= b.MinX && x <= b.MaxX
}

// Strip exposes the rendered tab geometry to the drag controller.
type Strip interface {
	TabBounds() []TabBounds
}

// hitTest returns the bounds of the tab under x, if any.
func hitTest(bounds []TabBounds, x int) (TabBounds, bool) {
	for _, b := range bounds {
		if b.Contains(x) {
			return b, true
		}
	}
	return TabBounds{}, false
}

// dropIndex computes the insertion index for a tab dragged from fromIndex and
// released with the pointer at x. The index counts the midpoints of the other
// tabs the pointer has passed, which lands directly in remove-then-insert
// coordinates, then clamps to keep a pinned tab in the first slot.
func dropIndex(bounds []TabBounds, fromIndex, x int) int {
	n := len(bounds)
	if n == 0 {
		return 0
	}
	passed := 0
	for _, b := range bounds {
		if b.Index == fromIndex {
			continue
		}
		if x >= b.Midpoint() {
			passed++
		}
	}
	floor := 0
	if bounds[0].Pinned {
		floor = 1
	}
	if passed < floor {
		return floor
	}
	if passed > n-1 {
		return n - 1
	}
	return passed
}
