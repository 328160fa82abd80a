package input

import (
	"time"

	"github.com/dmgcore/core/input/action"
	"github.com/dmgcore/core/input/event"
	"github.com/dmgcore/core/joypad"
)

const (
	// debounceDuration is the minimum time between debounced events
	debounceDuration = 300 * time.Millisecond
)

// Manager handles input actions and their associated callbacks
type Manager struct {
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]map[event.Type]time.Time
	pad           *joypad.Pad
}

func NewManager(p *joypad.Pad) *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]map[event.Type]time.Time),
		pad:           p,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	if m.lastTriggered[act] == nil {
		m.lastTriggered[act] = make(map[event.Type]time.Time)
	}

	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	// Debounce Press and Release events
	if evt == event.Press || evt == event.Release {
		now := time.Now()
		if m.lastTriggered[act] == nil {
			m.lastTriggered[act] = make(map[event.Type]time.Time)
		}
		lastTime := m.lastTriggered[act][evt]
		if now.Sub(lastTime) < debounceDuration {
			return
		}
		m.lastTriggered[act][evt] = now
	}

	// GB controls, written directly to the joypad
	if m.pad != nil {
		if key, ok := m.getJoypadKey(act); ok {
			switch evt {
			case event.Press:
				m.pad.Press(key)
			case event.Release:
				m.pad.Release(key)
			}
			return // Only return for GB controls
		}
	}

	// Other emulator actions
	if m.handlers[act] != nil && len(m.handlers[act][evt]) > 0 {
		for _, callback := range m.handlers[act][evt] {
			callback()
		}
	}
}

// getJoypadKey maps Game Boy actions to joypad keys
func (m *Manager) getJoypadKey(act action.Action) (joypad.Button, bool) {
	switch act {
	case action.GBButtonA:
		return joypad.A, true
	case action.GBButtonB:
		return joypad.B, true
	case action.GBButtonStart:
		return joypad.Start, true
	case action.GBButtonSelect:
		return joypad.Select, true
	case action.GBDPadUp:
		return joypad.Up, true
	case action.GBDPadDown:
		return joypad.Down, true
	case action.GBDPadLeft:
		return joypad.Left, true
	case action.GBDPadRight:
		return joypad.Right, true
	default:
		return 0, false
	}
}
