package dmgcore

import (
	"github.com/dmgcore/core/debug"
	"github.com/dmgcore/core/input/action"
	"github.com/dmgcore/core/timing"
	"github.com/dmgcore/core/video"
)

// Emulator is the interface for all emulator implementations
type Emulator interface {
	RunUntilFrame() error
	GetCurrentFrame() *video.FrameBuffer
	HandleAction(act action.Action, pressed bool)
	ExtractDebugData() *debug.CompleteDebugData
	SetFrameLimiter(limiter timing.Limiter)
	ResetFrameTiming()
}

var _ Emulator = (*DMG)(nil)
