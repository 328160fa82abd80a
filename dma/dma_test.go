package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeBus struct {
	mem [0x10000]byte
	oam [160]byte
}

func (b *fakeBus) Read(address uint16) byte       { return b.mem[address] }
func (b *fakeBus) WriteOAMByte(offset uint16, v byte) { b.oam[offset] = v }

func TestTransferCopies160BytesAfterStartupDelay(t *testing.T) {
	bus := &fakeBus{}
	for i := range 160 {
		bus.mem[0xC000+i] = byte(i + 1)
	}

	c := New()
	c.Start(0xC000)

	assert.True(t, c.Active())

	// First M-cycle is pure startup delay, no copy yet.
	for i := 0; i < 4; i++ {
		c.ExecuteTCycle(bus)
	}
	assert.Equal(t, byte(0), bus.oam[0], "no byte copied during the startup M-cycle")

	// Remaining 160 M-cycles each copy one byte.
	for i := 0; i < 160*4; i++ {
		c.ExecuteTCycle(bus)
	}

	assert.False(t, c.Active())
	for i := range 160 {
		assert.Equal(t, byte(i+1), bus.oam[i])
	}
}

func TestRestartingMidTransferResetsSource(t *testing.T) {
	bus := &fakeBus{}
	bus.mem[0xC000] = 0xAA
	bus.mem[0xD000] = 0xBB

	c := New()
	c.Start(0xC000)
	for i := 0; i < 4*4; i++ {
		c.ExecuteTCycle(bus)
	}

	c.Start(0xD000)
	assert.True(t, c.Active())
	for i := 0; i < 4; i++ {
		c.ExecuteTCycle(bus)
	}
	assert.Equal(t, byte(0), bus.oam[0], "restart re-enters the startup delay")
}

func TestInactiveControllerIgnoresTCycles(t *testing.T) {
	bus := &fakeBus{}
	c := New()
	assert.False(t, c.Active())
	c.ExecuteTCycle(bus)
	assert.False(t, c.Active())
}
