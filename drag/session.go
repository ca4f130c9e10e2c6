package drag

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabdeck/schema"
)

// State is the drag controller's lifecycle position.
type State int

const (
	// StateIdle means no pointer interaction is in progress.
	StateIdle State = iota
	// StateArmed means the pointer went down on a movable tab but has not
	// traveled far enough to count as a drag.
	StateArmed
	// StateDragging means the movement threshold was exceeded and the tab
	// follows the pointer until release or cancellation.
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Model is the slice of the replica store the controller drives.
type Model interface {
	BeginDrag()
	ApplyLocalReorder(fromIndex, toIndex int)
}

// Hooks are optional callbacks for interactions that are not reorders.
type Hooks struct {
	// OnClick fires when a press releases without crossing the drag
	// threshold, including presses on the pinned tab.
	OnClick func(id schema.TabID)
}

// Controller turns pointer events into drag sessions. It is driven from a
// single event loop and keeps no locks; feed it PointerDown, PointerMove and
// PointerUp in arrival order and Cancel on focus loss.
type Controller struct {
	threshold int
	model     Model
	strip     Strip
	hooks     Hooks
	log       pslog.Logger

	state     State
	fromIndex int
	fromID    schema.TabID
	startX    int
	candidate int
}

// NewController wires a controller to its strip geometry and replica model.
func NewController(cfg schema.ReplicaConfig, model Model, strip Strip, hooks Hooks, logger pslog.Logger) *Controller {
	threshold := cfg.DragThreshold
	if threshold <= 0 {
		threshold = schema.DefaultDragThreshold
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Controller{
		threshold: threshold,
		model:     model,
		strip:     strip,
		hooks:     hooks,
		log:       logger,
		candidate: -1,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// DropTarget returns the insertion index the pointer currently indicates, or
// -1 when no drag is in progress. The render layer uses it for the insertion
// marker.
func (c *Controller) DropTarget() int {
	if c.state != StateDragging {
		return -1
	}
	return c.candidate
}

// DraggedIndex returns the origin index of the tab being dragged, or -1.
func (c *Controller) DraggedIndex() int {
	if c.state == StateIdle {
		return -1
	}
	return c.fromIndex
}

// PointerDown arms a drag when the press lands on a movable tab. A press
// outside any tab stays idle; a press on the pinned tab arms for click
// handling only and never promotes to a drag.
func (c *Controller) PointerDown(x int) {
	if c.state != StateIdle {
		// A second press while armed or dragging restarts the session.
		c.Cancel()
	}
	b, ok := hitTest(c.strip.TabBounds(), x)
	if !ok || b.Pinned {
		if ok {
			// Pinned tabs click but never move.
			c.state = StateArmed
			c.fromIndex = -1
			c.fromID = b.ID
			c.startX = x
		}
		return
	}
	c.state = StateArmed
	c.fromIndex = b.Index
	c.fromID = b.ID
	c.startX = x
	c.log.Trace("drag armed", "tab", b.ID, "index", b.Index, "x", x)
}

// PointerMove advances an armed session into dragging once the pointer has
// traveled past the threshold, and updates the drop candidate while dragging.
func (c *Controller) PointerMove(x int) {
	switch c.state {
	case StateArmed:
		if c.fromIndex < 0 {
			return
		}
		if abs(x-c.startX) <= c.threshold {
			return
		}
		c.state = StateDragging
		c.candidate = dropIndex(c.strip.TabBounds(), c.fromIndex, x)
		c.model.BeginDrag()
		c.log.Debug("drag started", "tab", c.fromID, "from", c.fromIndex)
	case StateDragging:
		c.candidate = dropIndex(c.strip.TabBounds(), c.fromIndex, x)
	}
}

// PointerUp completes the session: a click when armed, a drop when dragging.
func (c *Controller) PointerUp(x int) {
	switch c.state {
	case StateArmed:
		id := c.fromID
		c.reset()
		if c.hooks.OnClick != nil && id != "" {
			c.hooks.OnClick(id)
		}
	case StateDragging:
		from := c.fromIndex
		target := dropIndex(c.strip.TabBounds(), from, x)
		id := c.fromID
		c.reset()
		c.log.Debug("drag dropped", "tab", id, "from", from, "to", target)
		c.model.ApplyLocalReorder(from, target)
	}
}

// Cancel aborts any in-progress session. Safe to call in any state, any
// number of times; an aborted drag leaves the suppression window to expire on
// its own rather than snapping state early.
func (c *Controller) Cancel() {
	if c.state == StateIdle {
		return
	}
	if c.state == StateDragging {
		c.log.Debug("drag canceled", "tab", c.fromID, "from", c.fromIndex)
	}
	c.reset()
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.fromIndex = -1
	c.fromID = ""
	c.startX = 0
	c.candidate = -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
