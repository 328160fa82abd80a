package dmgcore

import (
	"testing"

	"github.com/dmgcore/core/input/action"
	"github.com/stretchr/testify/assert"
)

func TestNewPowersOnWithoutCartridge(t *testing.T) {
	dmg := New()
	data := dmg.ExtractDebugData()
	assert.NotNil(t, data)
	assert.Equal(t, uint16(0x0100), data.CPU.PC, "post-boot PC starts at the cartridge entry point")
}

func TestHandleActionTogglesJoypadLines(t *testing.T) {
	dmg := New()

	fired := false
	dmg.mem.Joypad.RequestInterrupt = func() { fired = true }

	dmg.HandleAction(action.GBButtonA, true)
	dmg.mem.Joypad.WriteRegister(0b0001_0000) // select buttons group
	result := dmg.mem.Joypad.ReadRegister()
	assert.Equal(t, uint8(0), result&0x01, "A should read pressed")
	assert.True(t, fired)

	dmg.HandleAction(action.GBButtonA, false)
	result = dmg.mem.Joypad.ReadRegister()
	assert.NotEqual(t, uint8(0), result&0x01, "A should read released")
}

func TestHandleActionIgnoresNonGBActions(t *testing.T) {
	dmg := New()
	assert.NotPanics(t, func() {
		dmg.HandleAction(action.EmulatorDebugToggle, true)
	})
}

func TestRunUntilFrameAdvancesCycleCount(t *testing.T) {
	dmg := New()
	before := dmg.cycleCount
	err := dmg.RunUntilFrame()
	assert.NoError(t, err)
	assert.Greater(t, dmg.cycleCount, before)
}

func TestNewWithFileReturnsErrorForMissingROM(t *testing.T) {
	_, err := NewWithFile("does-not-exist.gb")
	assert.Error(t, err)
}
