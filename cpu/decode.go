package cpu

// decode.go builds, once per opcode, the flat []MicroCode program a fetch
// dispatches into. This mirrors the role of
// original_source/soc/src/cpu/micro_code/src/pla.rs's decode_op/decode_cb_op:
// a pure function from opcode byte to micro-program, driven by the classic
// gbz80 operand bit fields (z = opcode&7, y = (opcode>>3)&7, x = opcode>>6).

var mainTable [256]program
var cbTable [256]program
var interruptVectors = [5]uint16{0x40, 0x48, 0x50, 0x58, 0x60}

func init() {
	for op := 0; op < 256; op++ {
		mainTable[op] = buildMain(uint8(op))
		cbTable[op] = buildCB(uint8(op))
	}
}

func decodeMain(opcode uint8) program { return mainTable[opcode] }
func decodeCB(opcode uint8) program   { return cbTable[opcode] }

// interruptProgram builds the 18-T-cycle interrupt-acknowledge sequence:
// two idle T-cycles, then a CALL-shaped push-PC-and-jump to the vector for
// the lowest set bit of mask. Clearing IF happens here, on dispatch, not on
// return, matching the real hardware's immediate IF-bit clear.
func interruptProgram(mask uint8) program {
	bit := lowestSetBit(mask)
	vector := interruptVectors[bit]

	p := program{
		nop(), nop(), // 2 idle T-cycles
		nop(), nop(), nop(),
		{AddrSelect: RegSP, IncOp: IncDec, IncToAddrBus: true, AddrWriteEnable: true},
		nop(), nop(), nop(),
		{RegToAddrBuffer: true, AddrSelect: RegSP, MemWriteEnable: true, RegToData: true, RegSelect: RegPCHigh,
			IncOp: IncDec, IncToAddrBus: true, AddrWriteEnable: true},
		nop(), nop(), nop(),
		{RegToAddrBuffer: true, AddrSelect: RegSP, MemWriteEnable: true, RegToData: true, RegSelect: RegPCLow},
		nop(), nop(), nop(),
		{ClearInterruptBit: true, InterruptBit: bit, SetPCConst: true, PCConst: vector},
	}
	return p.withEnd()
}

func lowestSetBit(mask uint8) uint8 {
	for i := uint8(0); i < 5; i++ {
		if mask&(1<<i) != 0 {
			return i
		}
	}
	return 0
}

// --- operand decoding helpers -------------------------------------------

func opZ(op uint8) uint8 { return op & 7 }
func opY(op uint8) uint8 { return (op >> 3) & 7 }
func opX(op uint8) uint8 { return op >> 6 }
func opP(op uint8) uint8 { return opY(op) >> 1 }
func opQ(op uint8) uint8 { return opY(op) & 1 }

func regOf(field uint8) Register  { return singleTable[field&7] }
func spPairOf(field uint8) Register { return spPairTable[field&3] }
func afPairOf(field uint8) Register { return afPairTable[field&3] }

var condTable = [4]Condition{CondNZ, CondZ, CondNC, CondC}

func condOf(field uint8) Condition { return condTable[field&3] }

var aluOpTable = [8]AluOp{AluAdd, AluAdc, AluSub, AluSbc, AluAnd, AluXor, AluOr, AluCp}

// --- main opcode table ---------------------------------------------------

func buildMain(op uint8) program {
	switch op {
	case 0x00:
		return program{}
	case 0x10: // STOP: consumes one extra (ignored) byte
		return program{readPCByte()}.withEnd()
	case 0x76: // HALT
		return immediate(MicroCode{IsHalt: true})
	case 0xF3: // DI
		return immediate(MicroCode{DisableInterrupts: true})
	case 0xFB: // EI
		return immediate(MicroCode{EnableInterrupts: true})
	case 0x27: // DAA
		return immediate(aluStep(AluDaa, RegA, AluOutResult, FlagZ|FlagH|FlagC, RegA, true))
	case 0x2F: // CPL
		return immediate(aluStep(AluCpl, RegA, AluOutResult, FlagN|FlagH, RegA, true))
	case 0x37: // SCF
		return immediate(aluStep(AluScf, RegA, AluOutResult, FlagN|FlagH|FlagC, RegA, true))
	case 0x3F: // CCF
		return immediate(aluStep(AluCcf, RegA, AluOutResult, FlagN|FlagH|FlagC, RegA, true))
	case 0x07: // RLCA
		return immediate(rotateA(AluRlc))
	case 0x0F: // RRCA
		return immediate(rotateA(AluRrc))
	case 0x17: // RLA
		return immediate(rotateA(AluRl))
	case 0x1F: // RRA
		return immediate(rotateA(AluRr))
	case 0x08: // LD (nn),SP
		return ldAddrSP()
	case 0x18: // JR e
		return jr(CondNone, false)
	case 0x20, 0x28, 0x30, 0x38: // JR cc,e
		return jr(condOf(opY(op)-4), true)
	case 0xC3: // JP nn
		return jpImm(CondNone, false)
	case 0xC2, 0xCA, 0xD2, 0xDA: // JP cc,nn
		return jpImm(condOf(opY(op)), true)
	case 0xE9: // JP (HL)
		return immediate(pairMove(RegPC, RegHL))
	case 0xCD: // CALL nn
		return call(CondNone, false)
	case 0xC4, 0xCC, 0xD4, 0xDC: // CALL cc,nn
		return call(condOf(opY(op)), true)
	case 0xC9: // RET
		return ret(CondNone, false, false)
	case 0xD9: // RETI
		return ret(CondNone, false, true)
	case 0xC0, 0xC8, 0xD0, 0xD8: // RET cc
		return ret(condOf(opY(op)), true, false)
	case 0xE0: // LDH (n),A
		return ldhWrite()
	case 0xF0: // LDH A,(n)
		return ldhRead()
	case 0xE2: // LD (C),A
		return mcycle(MicroCode{CToAddrLow: true, MemWriteEnable: true, RegToData: true, RegSelect: RegA}).withEnd()
	case 0xF2: // LD A,(C)
		return mcycle(MicroCode{CToAddrLow: true, MemReadEnable: true, RegWriteEnable: true, RegSelect: RegA}).withEnd()
	case 0xEA: // LD (nn),A
		return ldAddrA(true)
	case 0xFA: // LD A,(nn)
		return ldAddrA(false)
	case 0xE8: // ADD SP,e
		return addSPe()
	case 0xF8: // LD HL,SP+e
		return ldHLSPe()
	case 0xF9: // LD SP,HL
		return mcycle(pairMove(RegSP, RegHL)).withEnd()
	}

	switch {
	case op >= 0x01 && op <= 0x31 && op&0x0F == 0x01 && opX(op) == 0: // LD dd,nn
		return ldPairImm(spPairOf(opP(op)))
	case op == 0x02 || op == 0x12 || op == 0x0A || op == 0x1A: // LD (BC/DE),A and LD A,(BC/DE)
		return ldIndirectBCDE(op)
	case op == 0x22 || op == 0x32 || op == 0x2A || op == 0x3A: // LD (HL+/-),A and LD A,(HL+/-)
		return ldIndirectHLAuto(op)
	case op&0xCF == 0x03: // INC dd
		return mcycle(incrPair(spPairOf(opP(op)))).withEnd()
	case op&0xCF == 0x0B: // DEC dd
		return mcycle(decrPair(spPairOf(opP(op)))).withEnd()
	case op&0xCF == 0x09: // ADD HL,rr
		return mcycle(add16HL(spPairOf(opP(op)))).withEnd()
	case opX(op) == 0 && opZ(op) == 4: // INC r
		return incDecReg(opY(op), AluInc8)
	case opX(op) == 0 && opZ(op) == 5: // DEC r
		return incDecReg(opY(op), AluDec8)
	case opX(op) == 0 && opZ(op) == 6: // LD r,n
		return ldRegImm(opY(op))
	case opX(op) == 1: // LD r,r' (includes HALT at 0x76, handled above)
		return ldRegReg(opY(op), opZ(op))
	case opX(op) == 2: // ALU A,r
		return aluRegOp(aluOpTable[opY(op)], opZ(op))
	case op&0xC7 == 0xC1 && opZ(op) == 1: // POP rr
		return pop(afPairOf(opP(op)))
	case op&0xCF == 0xC5: // PUSH rr
		return push(afPairOf(opP(op)))
	case opX(op) == 3 && opZ(op) == 6: // ALU A,n
		return aluImmOp(aluOpTable[opY(op)])
	case opX(op) == 3 && opZ(op) == 7: // RST
		return rst(opY(op) * 8)
	}

	// Unassigned/invalid opcode: behaves as a bus-idle NOP. Real hardware
	// locks up permanently on these; that lockup isn't reproduced here.
	return program{}
}

func rotateA(op AluOp) MicroCode {
	mc := aluStep(op, RegA, AluOutResult, FlagZ|FlagN|FlagH|FlagC, RegA, true)
	mc.AluForceZ = true
	return mc
}

func incDecReg(yField uint8, op AluOp) program {
	r := regOf(yField)
	if r != RegInvalid {
		return immediate(aluStep(op, r, AluOutResult, FlagZ|FlagN|FlagH, r, true))
	}
	// INC/DEC (HL): read, modify and write back across two more M-cycles.
	read := mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemReadEnable: true,
		RegSelect: RegALUTmp, RegWriteEnable: true})
	write := mcycle(MicroCode{AluOp: op, ActFromReg: RegALUTmp, AluOutSelect: AluOutResult,
		AluWriteFMask: FlagZ | FlagN | FlagH, AluRegWriteEnable: true, RegSelect: RegALUTmp,
		RegToAddrBuffer: true, AddrSelect: RegHL, MemWriteEnable: true, RegToData: true})
	return append(append(program{}, read...), write.withEnd()...)
}

func ldRegImm(yField uint8) program {
	r := regOf(yField)
	mc := readPCByte()
	if r != RegInvalid {
		mc.RegWriteEnable = true
		mc.RegSelect = r
		return mcycle(mc).withEnd()
	}
	// LD (HL),n: read n, then write it to (HL).
	mc.RegWriteEnable = true
	mc.RegSelect = RegALUTmp
	read := mcycle(mc)
	write := mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemWriteEnable: true,
		RegToData: true, RegSelect: RegALUTmp})
	return append(append(program{}, read...), write.withEnd()...)
}

func ldRegReg(yField, zField uint8) program {
	dst := regOf(yField)
	src := regOf(zField)
	switch {
	case dst == RegInvalid: // LD (HL),r
		return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemWriteEnable: true,
			RegToData: true, RegSelect: src}).withEnd()
	case src == RegInvalid: // LD r,(HL)
		return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemReadEnable: true,
			RegWriteEnable: true, RegSelect: dst}).withEnd()
	default:
		return immediate(MicroCode{AluOp: AluMov, ActFromReg: src, AluOutSelect: AluOutResult,
			AluRegWriteEnable: true, RegSelect: dst})
	}
}

func aluRegOp(op AluOp, zField uint8) program {
	src := regOf(zField)
	if src != RegInvalid {
		return immediate(MicroCode{AluOp: op, ActFromReg: RegA, TmpFromReg: src, AluOutSelect: AluOutResult,
			AluWriteFMask: 0xF0, AluRegWriteEnable: op != AluCp, RegSelect: RegA})
	}
	return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemReadEnable: true,
		AluOp: op, ActFromReg: RegA, TmpFromData: true, AluOutSelect: AluOutResult,
		AluWriteFMask: 0xF0, AluRegWriteEnable: op != AluCp, RegSelect: RegA}).withEnd()
}

func aluImmOp(op AluOp) program {
	mc := readPCByte()
	mc.AluOp = op
	mc.ActFromReg = RegA
	mc.TmpFromData = true
	mc.AluOutSelect = AluOutResult
	mc.AluWriteFMask = 0xF0
	mc.AluRegWriteEnable = op != AluCp
	mc.RegSelect = RegA
	return mcycle(mc).withEnd()
}

func ldPairImm(dst Register) program {
	high, low := dst.Decompose()
	m2 := readPCByte()
	m2.RegWriteEnable = true
	m2.RegSelect = low
	m3 := readPCByte()
	m3.RegWriteEnable = true
	m3.RegSelect = high
	return append(mcycle(m2), mcycle(m3).withEnd()...)
}

func ldIndirectBCDE(op uint8) program {
	toMem := op&0x08 == 0
	var addrReg Register
	switch op & 0xF0 {
	case 0x00:
		addrReg = RegBC
	case 0x10:
		addrReg = RegDE
	}
	if toMem {
		return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: addrReg, MemWriteEnable: true,
			RegToData: true, RegSelect: RegA}).withEnd()
	}
	return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: addrReg, MemReadEnable: true,
		RegWriteEnable: true, RegSelect: RegA}).withEnd()
}

func ldIndirectHLAuto(op uint8) program {
	switch op {
	case 0x22: // LD (HL+),A
		return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemWriteEnable: true,
			RegToData: true, RegSelect: RegA, IncOp: IncInc, IncToAddrBus: true, AddrWriteEnable: true}).withEnd()
	case 0x32: // LD (HL-),A
		return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemWriteEnable: true,
			RegToData: true, RegSelect: RegA, IncOp: IncDec, IncToAddrBus: true, AddrWriteEnable: true}).withEnd()
	case 0x2A: // LD A,(HL+)
		return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemReadEnable: true,
			RegWriteEnable: true, RegSelect: RegA, IncOp: IncInc, IncToAddrBus: true, AddrWriteEnable: true}).withEnd()
	default: // 0x3A LD A,(HL-)
		return mcycle(MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemReadEnable: true,
			RegWriteEnable: true, RegSelect: RegA, IncOp: IncDec, IncToAddrBus: true, AddrWriteEnable: true}).withEnd()
	}
}

func ldAddrSP() program {
	m2 := readPCByte()
	m2.RegWriteEnable, m2.RegSelect = true, RegTempLow
	m3 := readPCByte()
	m3.RegWriteEnable, m3.RegSelect = true, RegTempHigh
	m4 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegTemp, MemWriteEnable: true,
		RegToData: true, RegSelect: RegSPLow, IncOp: IncInc, IncToAddrBus: true, AddrWriteEnable: true}
	m5 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegTemp, MemWriteEnable: true,
		RegToData: true, RegSelect: RegSPHigh}
	p := append(mcycle(m2), mcycle(m3)...)
	p = append(p, mcycle(m4)...)
	return append(p, mcycle(m5).withEnd()...)
}

func ldAddrA(toMem bool) program {
	m2 := readPCByte()
	m2.RegWriteEnable, m2.RegSelect = true, RegTempLow
	m3 := readPCByte()
	m3.RegWriteEnable, m3.RegSelect = true, RegTempHigh
	var m4 MicroCode
	if toMem {
		m4 = MicroCode{RegToAddrBuffer: true, AddrSelect: RegTemp, MemWriteEnable: true, RegToData: true, RegSelect: RegA}
	} else {
		m4 = MicroCode{RegToAddrBuffer: true, AddrSelect: RegTemp, MemReadEnable: true, RegWriteEnable: true, RegSelect: RegA}
	}
	p := append(mcycle(m2), mcycle(m3)...)
	return append(p, mcycle(m4).withEnd()...)
}

func ldhWrite() program {
	m2 := readPCByte()
	m3 := MicroCode{FFToAddrHi: true, MemWriteEnable: true, RegToData: true, RegSelect: RegA}
	return append(mcycle(m2), mcycle(m3).withEnd()...)
}

func ldhRead() program {
	m2 := readPCByte()
	m3 := MicroCode{FFToAddrHi: true, MemReadEnable: true, RegWriteEnable: true, RegSelect: RegA}
	return append(mcycle(m2), mcycle(m3).withEnd()...)
}

func addSPe() program {
	m2 := readPCByte()
	m2.RegWriteEnable, m2.RegSelect = true, RegTempLow
	m3 := spOffset(RegSP)
	return append(append(mcycle(m2), mcycle(m3)...), mcycle(nop()).withEnd()...)
}

func ldHLSPe() program {
	m2 := readPCByte()
	m2.RegWriteEnable, m2.RegSelect = true, RegTempLow
	m3 := spOffset(RegHL)
	return append(mcycle(m2), mcycle(m3).withEnd()...)
}

func jr(cond Condition, conditional bool) program {
	m2 := readPCByte()
	m2.RegWriteEnable, m2.RegSelect = true, RegTempLow
	cycle2 := mcycle(m2)
	if conditional {
		cycle2 = cycle2.withCondEnd(cond)
	}
	cycle3 := mcycle(relJump()).withEnd()
	return append(cycle2, cycle3...)
}

func jpImm(cond Condition, conditional bool) program {
	m2 := readPCByte()
	m2.RegWriteEnable, m2.RegSelect = true, RegTempLow
	m3 := readPCByte()
	m3.RegWriteEnable, m3.RegSelect = true, RegTempHigh
	cycle3 := mcycle(m3)
	if conditional {
		cycle3 = cycle3.withCondEnd(cond)
	}
	cycle4 := mcycle(pairMove(RegPC, RegTemp)).withEnd()
	return append(append(mcycle(m2), cycle3...), cycle4...)
}

func call(cond Condition, conditional bool) program {
	m2 := readPCByte()
	m2.RegWriteEnable, m2.RegSelect = true, RegTempLow
	m3 := readPCByte()
	m3.RegWriteEnable, m3.RegSelect = true, RegTempHigh
	cycle3 := mcycle(m3)
	if conditional {
		cycle3 = cycle3.withCondEnd(cond)
	}
	m4 := decrPair(RegSP)
	m5 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemWriteEnable: true, RegToData: true,
		RegSelect: RegPCHigh, IncOp: IncDec, IncToAddrBus: true, AddrWriteEnable: true}
	m6high := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemWriteEnable: true, RegToData: true,
		RegSelect: RegPCLow}
	m6 := m6high
	m6.PairMoveEnable, m6.PairMoveSrc, m6.PairMoveDst = true, RegTemp, RegPC

	p := append(mcycle(m2), cycle3...)
	p = append(p, mcycle(m4)...)
	p = append(p, mcycle(m5)...)
	return append(p, mcycle(m6).withEnd()...)
}

func ret(cond Condition, conditional bool, enableInterrupts bool) program {
	var p program
	if conditional {
		p = append(p, mcycle(nop()).withCondEnd(cond)...)
	}
	m2 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemReadEnable: true, RegWriteEnable: true,
		RegSelect: RegTempLow, IncOp: IncInc, IncToAddrBus: true, AddrWriteEnable: true}
	m3 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemReadEnable: true, RegWriteEnable: true,
		RegSelect: RegTempHigh, IncOp: IncInc, IncToAddrBus: true, AddrWriteEnable: true}
	m4 := pairMove(RegPC, RegTemp)
	if enableInterrupts {
		m4.EnableInterrupts = true
	}
	p = append(p, mcycle(m2)...)
	p = append(p, mcycle(m3)...)
	p = append(p, mcycle(m4).withEnd()...)
	if enableInterrupts {
		// RETI's IME takes effect starting with the very next instruction,
		// not after one more, unlike plain EI.
		p[len(p)-1].EnableInterrupts = true
	}
	return p
}

func push(pair Register) program {
	high, low := pair.Decompose()
	m2 := decrPair(RegSP)
	m3 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemWriteEnable: true, RegToData: true,
		RegSelect: high, IncOp: IncDec, IncToAddrBus: true, AddrWriteEnable: true}
	m4 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemWriteEnable: true, RegToData: true,
		RegSelect: low}
	p := append(mcycle(m2), mcycle(m3)...)
	return append(p, mcycle(m4).withEnd()...)
}

func pop(pair Register) program {
	high, low := pair.Decompose()
	m2 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemReadEnable: true, RegWriteEnable: true,
		RegSelect: low, IncOp: IncInc, IncToAddrBus: true, AddrWriteEnable: true}
	m3 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemReadEnable: true, RegWriteEnable: true,
		RegSelect: high, IncOp: IncInc, IncToAddrBus: true, AddrWriteEnable: true}
	return append(mcycle(m2), mcycle(m3).withEnd()...)
}

func rst(target uint8) program {
	m2 := decrPair(RegSP)
	m3 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemWriteEnable: true, RegToData: true,
		RegSelect: RegPCHigh, IncOp: IncDec, IncToAddrBus: true, AddrWriteEnable: true}
	m4 := MicroCode{RegToAddrBuffer: true, AddrSelect: RegSP, MemWriteEnable: true, RegToData: true,
		RegSelect: RegPCLow, SetPCConst: true, PCConst: uint16(target)}
	p := append(mcycle(m2), mcycle(m3)...)
	return append(p, mcycle(m4).withEnd()...)
}

// --- CB-prefixed opcode table --------------------------------------------

func buildCB(op uint8) program {
	r := regOf(opZ(op))
	x := opX(op)
	y := opY(op)

	var alu AluOp
	var fmask uint8 = 0xF0
	bitSelect := y

	switch x {
	case 0: // rotate/shift family, selected by y
		alu = [8]AluOp{AluRlc, AluRrc, AluRl, AluRr, AluSla, AluSra, AluSwap, AluSrl}[y]
	case 1: // BIT y,r
		alu = AluBit
		fmask = FlagZ | FlagN | FlagH | FlagC
	case 2: // RES y,r
		alu = AluRes
		fmask = 0
	case 3: // SET y,r
		alu = AluSet
		fmask = 0
	}

	writesBack := x != 1 // BIT never writes back

	if r != RegInvalid {
		return immediate(MicroCode{AluOp: alu, ActFromReg: r, AluOutSelect: AluOutResult,
			AluWriteFMask: fmask, AluBitSelect: bitSelect, AluRegWriteEnable: writesBack, RegSelect: r})
	}

	// (HL) operand: read, operate, and (except for BIT) write back.
	readStage := MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemReadEnable: true,
		AluOp: alu, ActFromData: true, AluOutSelect: AluOutResult, AluWriteFMask: fmask,
		AluBitSelect: bitSelect, AluRegWriteEnable: writesBack, RegSelect: RegALUTmp}
	if !writesBack {
		return mcycle(readStage).withEnd()
	}
	writeStage := MicroCode{RegToAddrBuffer: true, AddrSelect: RegHL, MemWriteEnable: true,
		RegToData: true, RegSelect: RegALUTmp}
	return append(mcycle(readStage), mcycle(writeStage).withEnd()...)
}
