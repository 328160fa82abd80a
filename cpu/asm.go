package cpu

// asm.go is the small builder used by decode.go to compile each opcode
// family into a flat []MicroCode. Most helpers below return one T-cycle's
// worth of MicroCode; mcycle and its variants pad one out to a four-T-cycle
// M-cycle, and decode.go chains those into whole programs.
// This plays the role original_source/soc/src/cpu/micro_code/src/compiler.rs
// fills with its ADDR/RD/WR/LD/ALU mini-assembly, just expressed as plain Go
// functions instead of a combinator/template system, since Go has no macro
// layer to mirror the Rust build-time expansion with.

type program []MicroCode

func (p program) withEnd() program {
	if len(p) == 0 {
		return p
	}
	p[len(p)-1].IsEnd = true
	return p
}

func (p program) withCondEnd(cond Condition) program {
	if len(p) == 0 {
		return p
	}
	p[len(p)-1].IsCondEnd = true
	p[len(p)-1].Cond = cond
	return p
}

// nop produces an idle T-cycle: no bus activity at all.
func nop() MicroCode { return MicroCode{} }

// readAddr asserts the address bus from reg and the memory read line. The
// sampled byte lands in the data latch on the same T-cycle this micro-op runs.
func readAddr(reg Register) MicroCode {
	return MicroCode{RegToAddrBuffer: true, AddrSelect: reg, MemReadEnable: true}
}

// writeAddr asserts the address bus from reg and the memory write line; the
// byte driven out is whatever the control unit's data-bus priority chain
// picks (set via the ALU-to-data or reg-to-data flags on the same T-cycle).
func writeAddr(reg Register) MicroCode {
	return MicroCode{RegToAddrBuffer: true, AddrSelect: reg, MemWriteEnable: true}
}

// latchInto writes the just-sampled data bus value into a register.
func latchInto(reg Register) MicroCode {
	return MicroCode{RegSelect: reg, RegWriteEnable: true}
}

// driveReg drives a register's value onto the internal data bus (used to
// source a write, e.g. `LD (HL),r`).
func driveReg(reg Register) MicroCode {
	return MicroCode{RegSelect: reg, RegToData: true}
}

// incr/decr apply the incrementer to the addressed pair and write the result
// back into that same pair (post-increment/decrement addressing, e.g. HL+/HL-).
func incrPair(pair Register) MicroCode {
	return MicroCode{AddrSelect: pair, IncOp: IncInc, IncToAddrBus: true, AddrWriteEnable: true}
}

func decrPair(pair Register) MicroCode {
	return MicroCode{AddrSelect: pair, IncOp: IncDec, IncToAddrBus: true, AddrWriteEnable: true}
}

// aluStep computes op over a single register operand (ACT) and optionally
// writes the result back to a register, under the given flag mask. Used by
// the single-operand families: INC/DEC r, DAA/CPL/SCF/CCF, A-register
// rotates.
func aluStep(op AluOp, actSrc Register, out AluOutSelect, fmask uint8, writeTo Register, writeReg bool) MicroCode {
	return MicroCode{
		AluOp:             op,
		ActFromReg:        actSrc,
		AluOutSelect:      out,
		AluWriteFMask:     fmask,
		AluRegWriteEnable: writeReg,
		RegSelect:         writeTo,
	}
}

// immediate wraps a single register/ALU micro-op as a whole one-M-cycle
// program, folded into the fetch machine cycle (see MicroCode.Immediate).
func immediate(mc MicroCode) program {
	mc.Immediate = true
	return program{mc}
}

func pairMove(dst, src Register) MicroCode {
	return MicroCode{PairMoveEnable: true, PairMoveSrc: src, PairMoveDst: dst}
}

func relJump() MicroCode { return MicroCode{ApplyRelJump: true} }

func spOffset(dst Register) MicroCode { return MicroCode{ApplySPOffset: true, SPOffsetDst: dst} }

func add16HL(src Register) MicroCode { return MicroCode{Apply16Add: true, Add16Src: src} }

func endOf(p program) program { return p.withEnd() }

// readPCByte reads the byte at PC, advances PC past it, and leaves the value
// in the data latch for the caller's next T-cycle to consume. Used for
// immediate operands and relative/absolute jump targets.
func readPCByte() MicroCode {
	return MicroCode{RegToAddrBuffer: true, AddrSelect: RegPC, MemReadEnable: true,
		IncToAddrBus: true, IncOp: IncInc, AddrWriteEnable: true}
}

// mcycle pads a single bus/register/ALU action out to a full 4-T-cycle
// machine cycle, with the real effect landing on the last T-cycle. This
// reproduces correct per-instruction T-cycle counts without replicating the
// original hardware's exact intra-M-cycle latch-replay timing (see
// DESIGN.md's note on M-cycle padding instead of literal latch replay).
func mcycle(op MicroCode) program {
	return program{nop(), nop(), nop(), op}
}

// mcycleRead is a convenience mcycle for "assert address, read" steps.
func mcycleRead(reg Register) program {
	return mcycle(readAddr(reg))
}

func mcycleWrite(reg Register) program {
	return mcycle(writeAddr(reg))
}
