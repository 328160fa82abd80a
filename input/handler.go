package input

import (
	"time"

	"github.com/dmgcore/core/input/action"
	"github.com/dmgcore/core/input/event"
)

// Event pairs an action with the kind of input event that triggered it.
type Event struct {
	Action action.Action
	Type   event.Type
}

// Handler manages input processing with debouncing for UI actions
type Handler struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  300 * time.Millisecond,
	}
}

// ProcessEvent processes an input event, applying debouncing to Press/Release events
// of actions whose ActionInfo.Debounce is set.
// Returns true if the event should be handled, false if it was debounced
func (h *Handler) ProcessEvent(evt Event) bool {
	if !action.GetInfo(evt.Action).Debounce {
		return true
	}
	if evt.Type == event.Press || evt.Type == event.Release {
		now := time.Now()
		if lastTime, exists := h.lastActionTime[evt.Action]; exists {
			if now.Sub(lastTime) < h.debounceDelay {
				return false
			}
		}
		h.lastActionTime[evt.Action] = now
	}

	return true
}
