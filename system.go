// Package dmgcore ties the CPU, memory bus, and PPU together into a
// runnable DMG system, stepping everything T-cycle by T-cycle the way
// spec.md's system loop describes.
package dmgcore

import (
	"os"

	"github.com/dmgcore/core/cpu"
	"github.com/dmgcore/core/debug"
	"github.com/dmgcore/core/dma"
	"github.com/dmgcore/core/input/action"
	"github.com/dmgcore/core/joypad"
	"github.com/dmgcore/core/memory"
	"github.com/dmgcore/core/timing"
	"github.com/dmgcore/core/video"
)

// DMG is a complete DMG system: CPU, bus-mapped memory/peripherals, and PPU,
// driven one T-cycle at a time.
type DMG struct {
	cpu *cpu.Cpu
	mem *memory.MMU
	gpu *video.GPU
	dma *dma.Controller

	limiter timing.Limiter

	cycleCount uint64
}

// New creates a DMG with no cartridge loaded, equivalent to powering on
// without a game inserted.
func New() *DMG {
	return newDMG(memory.New())
}

// NewWithFile loads a ROM file from disk and returns a DMG ready to run it.
func NewWithFile(path string) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cart := memory.NewCartridgeWithData(data)
	return newDMG(memory.NewWithCartridge(cart)), nil
}

func newDMG(mem *memory.MMU) *DMG {
	d := &DMG{
		cpu:     cpu.New(),
		mem:     mem,
		gpu:     video.NewGpu(mem),
		dma:     dma.New(),
		limiter: timing.NewNoOpLimiter(),
	}
	mem.StartDMA = d.dma.Start
	return d
}

// executeTCycle advances every component by exactly one T-cycle, in the
// order spec.md's system loop documents: CPU first (it drives the bus
// latches other components observe), then the peripherals that tick every
// T-cycle regardless of CPU activity.
func (d *DMG) executeTCycle() {
	d.cpu.ExecuteTCycle(d.mem)
	d.mem.ExecuteTCycle()
	d.gpu.Tick(1)
	d.dma.ExecuteTCycle(d.mem)
	d.cycleCount++
}

// RunUntilFrame steps the system until the PPU has produced one complete
// frame (one VBlank-to-VBlank pass), then returns.
func (d *DMG) RunUntilFrame() error {
	target := d.cycleCount + timing.CyclesPerFrame
	for d.cycleCount < target {
		d.executeTCycle()
	}
	if d.limiter != nil {
		d.limiter.WaitForNextFrame()
	}
	return nil
}

// GetCurrentFrame returns the PPU's current framebuffer.
func (d *DMG) GetCurrentFrame() *video.FrameBuffer {
	return d.gpu.GetFrameBuffer()
}

// HandleAction applies a Game Boy button press/release to the joypad;
// non-GB actions (debug toggles, snapshots, etc.) are the host's concern and
// are ignored here.
func (d *DMG) HandleAction(act action.Action, pressed bool) {
	key, ok := gbButtonFor(act)
	if !ok {
		return
	}
	if pressed {
		d.mem.Joypad.Press(key)
	} else {
		d.mem.Joypad.Release(key)
	}
}

func gbButtonFor(act action.Action) (joypad.Button, bool) {
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

// ExtractDebugData snapshots CPU, memory, OAM and VRAM state for debug
// tooling. Returns nil if the DMG hasn't been constructed through New or
// NewWithFile (mem/cpu/gpu left as their zero values).
func (d *DMG) ExtractDebugData() *debug.CompleteDebugData {
	if d.mem == nil || d.cpu == nil || d.gpu == nil {
		return nil
	}

	snap := d.cpu.Snapshot()
	cpuState := &debug.CPUState{
		A: snap.A, F: snap.F, B: snap.B, C: snap.C,
		D: snap.D, E: snap.E, H: snap.H, L: snap.L,
		SP: snap.SP, PC: snap.PC, IME: snap.IME,
		Cycles: d.cycleCount,
	}

	const snapshotSize = 16
	startAddr := snap.PC
	size := snapshotSize
	if uint32(startAddr)+uint32(size) > 0x10000 {
		size = 0x10000 - int(startAddr)
	}
	bytes := make([]uint8, size)
	for i := range bytes {
		bytes[i] = d.mem.Read(startAddr + uint16(i))
	}

	oam := debug.ExtractOAMDataFromReader(d.mem, 0, 16)
	vram := debug.ExtractVRAMDataFromReader(d.mem)

	return &debug.CompleteDebugData{
		OAM:             oam,
		VRAM:            vram,
		CPU:             cpuState,
		Memory:          &debug.MemorySnapshot{StartAddr: startAddr, Bytes: bytes},
		DebuggerState:   debug.DebuggerRunning,
		InterruptEnable: d.mem.Read(0xFFFF),
		InterruptFlags:  d.mem.Read(0xFF0F),
	}
}

// SetFrameLimiter installs a frame pacing strategy; the zero value runs
// unthrottled.
func (d *DMG) SetFrameLimiter(limiter timing.Limiter) {
	d.limiter = limiter
}

// ResetFrameTiming resets the installed frame limiter's internal clock,
// useful after a debugger pause.
func (d *DMG) ResetFrameTiming() {
	if d.limiter != nil {
		d.limiter.Reset()
	}
}

