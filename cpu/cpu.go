package cpu

// Snapshot is a point-in-time, read-only copy of the programmer-visible CPU
// state, used by debug/disassembly tooling that shouldn't reach into the
// register file directly.
type Snapshot struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
	IME                    bool
	Halted                 bool
}

// Snapshot reads out the current programmer-visible state.
func (c *Cpu) Snapshot() Snapshot {
	return Snapshot{
		A:      uint8(c.Regs.Get(RegA)),
		F:      uint8(c.Regs.Get(RegF)),
		B:      uint8(c.Regs.Get(RegB)),
		C:      uint8(c.Regs.Get(RegC)),
		D:      uint8(c.Regs.Get(RegD)),
		E:      uint8(c.Regs.Get(RegE)),
		H:      uint8(c.Regs.Get(RegH)),
		L:      uint8(c.Regs.Get(RegL)),
		SP:     c.Regs.Get(RegSP),
		PC:     c.Regs.Get(RegPC),
		IME:    c.ime,
		Halted: c.halted,
	}
}

// IME reports whether interrupts are currently enabled (post EI/RETI delay).
func (c *Cpu) IME() bool { return c.ime }

// AtInstructionBoundary reports whether the next ExecuteTCycle call will
// begin a fresh opcode fetch's T1 — used by debuggers that single-step by
// instruction rather than by T-cycle.
func (c *Cpu) AtInstructionBoundary() bool {
	return c.mode == modeFetch && c.tState == 1 && !c.halted
}

// ServicingInterrupt reports whether the CPU is mid-dispatch of an interrupt
// acknowledgment sequence.
func (c *Cpu) ServicingInterrupt() bool { return c.servicingInterrupt }

// StepInstruction runs T-cycles until the CPU returns to a fresh fetch
// boundary (or HALT), for callers that don't need per-T-cycle granularity —
// tests and the debugger's step-instruction command.
func (c *Cpu) StepInstruction(bus Bus) {
	c.ExecuteTCycle(bus)
	for !c.AtInstructionBoundary() && !c.halted {
		c.ExecuteTCycle(bus)
	}
}
