// Package joypad models the DMG's P1 button-matrix register: two 4-bit
// button groups (d-pad, buttons) muxed onto the low nibble by a selection
// line written through P1 bits 4-5.
package joypad

import "github.com/dmgcore/core/bit"

// Button names a single physical key.
type Button uint8

const (
	Right Button = iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

// Pad tracks button state and the current P1 selection line, and raises a
// joypad interrupt on a high-to-low transition of any currently-selected
// line, matching real hardware. original_source/soc/src/joypad.rs leaves its
// own interrupt edge-detection commented out as unimplemented; this module
// keeps the teacher's working edge-triggered version instead of reproducing
// that gap.
type Pad struct {
	buttons uint8 // bit=0 means pressed; bits 0-3: A,B,Select,Start
	dpad    uint8 // bit=0 means pressed; bits 0-3: Right,Left,Up,Down
	line    uint8 // raw P1 bits 4-5 as last written

	RequestInterrupt func()
}

// New returns a Pad with no buttons pressed.
func New() *Pad {
	return &Pad{buttons: 0x0F, dpad: 0x0F}
}

// ReadRegister returns P1's current value: bits 6-7 always read 1, bits 4-5
// echo the selection line, bits 0-3 report whichever group(s) are selected
// (ANDed together if both are selected, matching real hardware).
func (p *Pad) ReadRegister() uint8 {
	result := uint8(0b1100_0000)
	result |= p.line & 0b0011_0000

	selectDpad := !bit.IsSet(4, p.line)
	selectButtons := !bit.IsSet(5, p.line)

	switch {
	case selectButtons && !selectDpad:
		result |= p.buttons & 0x0F
	case selectDpad && !selectButtons:
		result |= p.dpad & 0x0F
	case selectButtons && selectDpad:
		result |= p.buttons & p.dpad & 0x0F
	default:
		result |= 0x0F
	}
	return result
}

// WriteRegister updates the selection line (only bits 4-5 are writable).
func (p *Pad) WriteRegister(value uint8) {
	p.line = value & 0b0011_0000
}

// Press clears the key's bit (active-low) and fires the joypad interrupt on
// a 1->0 transition.
func (p *Pad) Press(key Button) {
	oldButtons, oldDpad := p.buttons, p.dpad
	p.setBit(key, false)
	if p.transitioned(oldButtons, oldDpad) && p.RequestInterrupt != nil {
		p.RequestInterrupt()
	}
}

// Release sets the key's bit back (active-low, so "released" = 1).
func (p *Pad) Release(key Button) {
	p.setBit(key, true)
}

func setTo(index uint8, value uint8, set bool) uint8 {
	if set {
		return bit.Set(index, value)
	}
	return bit.Reset(index, value)
}

func (p *Pad) setBit(key Button, set bool) {
	switch key {
	case Right:
		p.dpad = setTo(0, p.dpad, set)
	case Left:
		p.dpad = setTo(1, p.dpad, set)
	case Up:
		p.dpad = setTo(2, p.dpad, set)
	case Down:
		p.dpad = setTo(3, p.dpad, set)
	case A:
		p.buttons = setTo(0, p.buttons, set)
	case B:
		p.buttons = setTo(1, p.buttons, set)
	case Select:
		p.buttons = setTo(2, p.buttons, set)
	case Start:
		p.buttons = setTo(3, p.buttons, set)
	}
}

func (p *Pad) transitioned(oldButtons, oldDpad uint8) bool {
	buttonTransitions := oldButtons &^ p.buttons
	dpadTransitions := oldDpad &^ p.dpad
	return buttonTransitions|dpadTransitions != 0
}
