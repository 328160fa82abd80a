// Package dma models OAM DMA: a write to the DMA register starts a transfer
// lasting 160 M-cycles (640 T-cycles) after one M-cycle of startup delay,
// copying one byte per M-cycle from source<<8 to OAM. CPU bus accesses are
// not blocked while a transfer runs. Grounded on
// original_source/soc/src/dma.rs's execute_tcycle, restructured from its
// request-object return style into a direct Bus callback since this module
// drives OAM writes through memory.MMU.WriteOAMByte rather than a shared
// MemoryMapped trait.
package dma

// Bus is the narrow interface the DMA controller needs from the memory unit:
// a read that goes through normal bus dispatch (so DMA from ROM/RAM/etc.
// works correctly) and a direct OAM write that bypasses it.
type Bus interface {
	Read(address uint16) byte
	WriteOAMByte(offset uint16, value byte)
}

// Controller drives an OAM DMA transfer.
type Controller struct {
	source    uint16
	byteIndex int // 161 at start, counts down to 0; copies happen while 1..=160
	tState    int // 1..4 within the current M-cycle
}

// New returns an idle DMA controller.
func New() *Controller {
	return &Controller{}
}

// Start begins a transfer from source (already shifted: page<<8), matching a
// write to the DMA register.
func (c *Controller) Start(source uint16) {
	c.source = source
	c.byteIndex = 161
	c.tState = 0
}

// Active reports whether a transfer is currently in progress.
func (c *Controller) Active() bool {
	return c.byteIndex > 0
}

// ExecuteTCycle advances the controller by one T-cycle, performing the
// M-cycle-boundary copy step when due.
func (c *Controller) ExecuteTCycle(bus Bus) {
	if c.byteIndex == 0 {
		return
	}

	c.tState++
	if c.tState < 4 {
		return
	}
	c.tState = 0

	if c.byteIndex <= 160 {
		offset := uint16(160 - c.byteIndex)
		bus.WriteOAMByte(offset, bus.Read(c.source+offset))
	}
	c.byteIndex--
}
