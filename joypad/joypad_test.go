package joypad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	selectButtonsOnly uint8 = 0b0001_0000 // bit5=0 (buttons selected), bit4=1 (dpad not selected)
	selectDpadOnly    uint8 = 0b0010_0000 // bit4=0 (dpad selected), bit5=1 (buttons not selected)
)

func TestUnusedTopBitsAlwaysRead1(t *testing.T) {
	p := New()
	result := p.ReadRegister()
	assert.Equal(t, uint8(0b1100_0000), result&0b1100_0000)
}

func TestNoSelectionReadsAllHigh(t *testing.T) {
	p := New()
	p.Press(A)
	p.Press(Right)
	p.WriteRegister(0x30) // neither group selected
	assert.Equal(t, uint8(0x0F), p.ReadRegister()&0x0F)
}

func TestPressedButtonReadsLowInButtonsGroup(t *testing.T) {
	p := New()
	p.Press(A)
	p.WriteRegister(selectButtonsOnly)
	result := p.ReadRegister()
	assert.Equal(t, uint8(0), result&0x01, "A pressed should read as bit 0 low")
	assert.Equal(t, uint8(0x0E), result&0x0F, "B/Select/Start still read released")
}

func TestPressedDirectionReadsLowInDpadGroup(t *testing.T) {
	p := New()
	p.Press(Down)
	p.WriteRegister(selectDpadOnly)
	result := p.ReadRegister()
	assert.Equal(t, uint8(0), result&0x08, "Down pressed should read as bit 3 low")
}

func TestButtonsGroupIgnoredWhileDpadSelected(t *testing.T) {
	p := New()
	p.Press(A) // buttons group key, should not affect dpad reads
	p.WriteRegister(selectDpadOnly)
	assert.Equal(t, uint8(0x0F), p.ReadRegister()&0x0F)
}

func TestBothGroupsSelectedAndsTogether(t *testing.T) {
	p := New()
	p.Press(A)     // clears bit 0 of buttons
	p.Press(Right) // clears bit 0 of dpad
	p.WriteRegister(0) // both select lines active (0 = both asserted)
	result := p.ReadRegister()
	assert.Equal(t, uint8(0), result&0x01, "bit 0 low in either group pulls the ANDed line low")
}

func TestReleaseRestoresBit(t *testing.T) {
	p := New()
	p.Press(Start)
	p.Release(Start)
	p.WriteRegister(selectButtonsOnly)
	result := p.ReadRegister()
	assert.NotEqual(t, uint8(0), result&0x08, "Start should read as released (bit 3 high)")
}

func TestPressFiresInterruptOnTransition(t *testing.T) {
	p := New()
	fired := 0
	p.RequestInterrupt = func() { fired++ }

	p.Press(Up)
	assert.Equal(t, 1, fired)

	// Already pressed: no new transition, must not re-fire.
	p.Press(Up)
	assert.Equal(t, 1, fired)

	p.Release(Up)
	p.Press(Up)
	assert.Equal(t, 2, fired)
}

func TestWriteRegisterOnlyAffectsSelectionBits(t *testing.T) {
	p := New()
	p.WriteRegister(0xFF)
	result := p.ReadRegister()
	assert.Equal(t, uint8(0b0011_0000), result&0b0011_0000)
}
