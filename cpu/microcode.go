package cpu

// AluOp enumerates every operation the ALU can perform in one T-cycle.
// Grouped the way the hardware's ALU control lines are grouped: binary ops,
// shift/rotate ops, unary/misc ops and the three bit-indexed ops.
type AluOp uint8

const (
	AluNop AluOp = iota
	AluAdd
	AluAdc
	AluSub
	AluSbc
	AluAnd
	AluXor
	AluOr
	AluCp
	AluRlc
	AluRl
	AluRrc
	AluRr
	AluSla
	AluSra
	AluSrl
	AluSwap
	AluMov
	AluCpl
	AluScf
	AluCcf
	AluDaa
	AluBit
	AluRes
	AluSet
	AluInc8
	AluDec8
)

// IncOp selects the address-incrementer's behavior for a T-cycle.
type IncOp uint8

const (
	IncMov IncOp = iota // pass address_latch through unchanged
	IncInc
	IncDec
)

// AluOutSelect picks which value is driven onto the ALU's output stage.
type AluOutSelect uint8

const (
	AluOutResult AluOutSelect = iota
	AluOutTmp
	AluOutA
	AluOutACT
	AluOutF
)

// Condition names the four flag-test conditions used by conditional
// jump/call/ret micro-ops.
type Condition uint8

const (
	CondNone Condition = iota
	CondNZ
	CondZ
	CondNC
	CondC
)

// MicroCode is the unit of CPU execution: everything the control unit needs
// to drive for exactly one T-cycle. Fields are grouped the way spec.md
// groups them (memory, register file, address bus, incrementer, ALU,
// control) and mirror the original machine's PLA output fields one-to-one.
type MicroCode struct {
	// Memory
	MemReadEnable  bool
	MemWriteEnable bool

	// Register file
	RegSelect      Register
	RegWriteEnable bool
	RegToData      bool

	// Address bus
	RegToAddrBuffer bool
	FFToAddrHi      bool
	AddrSelect      Register
	AddrWriteEnable bool

	// Incrementer
	IncOp      IncOp
	IncToAddrBus bool

	// ALU
	AluOp             AluOp
	AluOutSelect      AluOutSelect
	AluRegWriteEnable bool
	// ActFromReg/TmpFromReg name the register read into ACT/TMP before the
	// ALU computes; every MicroCode that sets AluOp must set these
	// explicitly (RegB's zero value is a real register, not a sentinel).
	// ActFromData/TmpFromData instead route the just-sampled data latch in,
	// taking priority over the *FromReg fields when set.
	ActFromReg    Register
	ActFromData   bool
	TmpFromReg    Register
	TmpFromData   bool
	TmpSignExtend bool // sign-extend the data latch into TMP (for ADD SP,e / LD HL,SP+e)
	AluWriteFMask     uint8
	AluForceZ         bool // force the Z flag result to 0 regardless of computed value
	AluBitSelect      uint8

	// Control
	IsEnd            bool
	IsCondEnd        bool
	Cond             Condition
	IsHalt           bool
	EnterCBMode      bool
	EnableInterrupts bool
	DisableInterrupts bool

	// Immediate marks a register/ALU-only micro-op that hardware resolves
	// combinationally in the same machine cycle as the opcode fetch (e.g.
	// LD r,r', INC r, ALU A,r, DAA). Instructions built this way are one full
	// M-cycle (4 T-states) rather than two, matching their documented
	// duration. Never combine with MemReadEnable/MemWriteEnable.
	Immediate bool

	// 16-bit operations the 8-bit ALU can't express, handled directly by the
	// control unit: whole-pair moves (JP (HL), LD SP,HL, landing PC from
	// TEMP), signed relative jumps, and the SP+e arithmetic shared by
	// ADD SP,e / LD HL,SP+e.
	PairMoveEnable bool
	PairMoveSrc    Register
	PairMoveDst    Register

	ApplyRelJump bool // PC += sign_extend(TEMP_LOW)

	ApplySPOffset bool // dst = SP + sign_extend(TEMP_LOW); flags computed on the low-byte add
	SPOffsetDst   Register

	Apply16Add bool // HL += Add16Src, 16-bit half-carry/carry, N cleared, Z preserved
	Add16Src   Register

	// CToAddrLow asserts the address bus as 0xFF00 | C, for LD (C),A / LD A,(C).
	CToAddrLow bool

	// SetPCConst loads PC with a compile-time constant: RST vectors and the
	// interrupt dispatch's service vectors.
	SetPCConst bool
	PCConst    uint16

	// ClearInterruptBit clears bit InterruptBit of IF, on interrupt dispatch.
	ClearInterruptBit bool
	InterruptBit      uint8
}
