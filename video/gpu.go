package video

import (
	"fmt"
	"log/slog"

	"github.com/dmgcore/core/addr"
	"github.com/dmgcore/core/bit"
	"github.com/dmgcore/core/memory"
)

// GpuMode represents the PPU's current rendering stage.
// These values match the STAT register bits 1-0.
type GpuMode int

//
// The MMU does not lock VRAM or OAM against CPU access in any mode.
const (
	// hblankMode (Mode 0): Horizontal blank period
	hblankMode GpuMode = 0
	// vblankMode (Mode 1): Vertical blank period
	vblankMode GpuMode = 1
	// oamReadMode (Mode 2): PPU is reading OAM
	oamReadMode GpuMode = 2
	// vramReadMode (Mode 3, "Transfer"): PPU is draining the pixel fifo to
	// the screen
	vramReadMode GpuMode = 3
)

// tCyclesPerLine is the number of T-cycles in one scanline, background and
// VBlank lines alike.
const tCyclesPerLine = 456

// drawingMode tracks whether the fetcher is currently producing background
// or window tiles, or has been diverted to fetch a sprite.
type drawingMode int

const (
	drawingBg drawingMode = iota
	drawingSprite
)

// GPU is a per-pixel pixel-fifo renderer: an OAM scanner, a shared
// background/window/sprite pixel fetcher and a 16-entry fifo that drains one
// pixel per T-cycle onto the framebuffer. Mode and LY/STAT timing are driven
// by a (counter, current_y) pair rather than mode-duration counters.
//
// Grounded on original_source/soc/src/gpu.rs; the teacher's OAM-scan
// 10-sprites-per-line search and STAT/LCDC bit layout survive, but the
// scanline-at-once renderer they used to feed is gone.
type GPU struct {
	memory      *memory.MMU
	framebuffer *FrameBuffer
	oam         *OAM

	mode GpuMode
	line int // LY, i.e. currentY with the line-153 wrap alias applied

	counter      int // 0..455, position within the current scanline
	currentY     int // 0..153, the true internal line (line153 aliases LY=0)
	pixelsPushed int
	isFirstFrame bool
	enteredOAM   bool

	statAsserted    bool
	oldStatAsserted bool

	fifo    PixelFifo
	fetcher PixelFetcher

	drawMode        drawingMode
	visibleSprites  []Sprite
	fetchedSprites  [10]bool
	activeSpriteIdx int

	windowYCount int
}

func NewGpu(mem *memory.MMU) *GPU {
	fb := NewFrameBuffer()
	gpu := &GPU{
		framebuffer: fb,
		memory:      mem,
		oam:         NewOAM(mem),
		mode:        vblankMode,

		// Matches the state right after the boot ROM hands off: line 153,
		// 4 T-cycles into VBlank.
		line:         0,
		currentY:     153,
		counter:      4,
		isFirstFrame: false,
	}

	lcdc := mem.Read(addr.LCDC)
	bgp := mem.Read(addr.BGP)
	slog.Debug("GPU initialized", "LCDC", fmt.Sprintf("0x%02X", lcdc), "LCD_enabled", (lcdc&0x80) != 0, "BGP", fmt.Sprintf("0x%02X", bgp))

	return gpu
}

func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Tick advances the PPU by the given number of T-cycles, one at a time.
func (g *GPU) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		g.stepTCycle()
	}
}

func (g *GPU) stepTCycle() {
	if g.readLCDCVariable(lcdDisplayEnable) == 0 {
		g.resetDisabled()
		return
	}

	g.advanceCounter()
	g.enteredOAM = (g.currentY == 0 && g.counter == 4) ||
		(g.currentY > 0 && g.currentY <= 144 && g.counter == 0)

	g.updateExternalY()
	g.updateMode()

	if g.counter == 80 {
		g.startNewScanline()
	}
	if g.counter >= 82 {
		g.transferCycle()
	}

	g.updateInterrupts()
}

func (g *GPU) advanceCounter() {
	g.counter++
	if g.counter == tCyclesPerLine {
		g.counter = 0
		g.currentY++
		if g.currentY == 154 {
			g.currentY = 0
			g.isFirstFrame = false
		}
	}
}

// updateExternalY sets LY, applying the line-153 wrap alias: hardware
// reports LY=0 for most of line 153 rather than 153.
func (g *GPU) updateExternalY() {
	switch {
	case g.currentY == 0:
		g.line = 0
	case g.currentY == 153 && g.counter >= 4:
		g.line = 0
	default:
		g.line = g.currentY
	}
	g.memory.Write(addr.LY, byte(g.line))
}

func (g *GPU) updateMode() {
	if g.counter == 0 {
		g.setMode(hblankMode)
	}
	if g.counter == 4 && (!g.isFirstFrame || g.currentY != 0) {
		g.setMode(oamReadMode)
	}
	if g.counter == 84 {
		g.setMode(vramReadMode)
	}
	if g.counter > 84 && g.pixelsPushed == 160 {
		g.setMode(hblankMode)
	}
	if (g.currentY == 144 && g.counter >= 4) || g.currentY >= 145 {
		g.setMode(vblankMode)
	}
}

// requiredLycForInterrupt returns the LY value LYC must equal for the LY=LYC
// STAT condition to be true this tick, or 256 (out of LYC's 0-255 range,
// i.e. impossible) when no match can occur. Lines 0 and 153 need special
// handling because of the LY=0 wrap alias.
func requiredLycForInterrupt(currentY, counter, externalY int) int {
	switch {
	case currentY == 0:
		if counter <= 3 {
			return 0
		}
		return externalY
	case currentY == 153:
		switch {
		case counter <= 3:
			return 256
		case counter <= 7:
			return 153
		case counter <= 11:
			return 256
		default:
			return 0
		}
	default:
		if counter <= 3 {
			return 256
		}
		return currentY
	}
}

func (g *GPU) updateInterrupts() {
	stat := g.memory.Read(addr.STAT)
	lyc := int(g.memory.Read(addr.LYC))

	lycMatch := lyc == requiredLycForInterrupt(g.currentY, g.counter, g.line)
	if lycMatch {
		stat = bit.Set(statLycCondition, stat)
	} else {
		stat = bit.Reset(statLycCondition, stat)
	}
	g.memory.Write(addr.STAT, stat)

	vblankActive := (g.currentY == 144 && g.counter >= 4) || g.currentY >= 145

	asserted := (bit.IsSet(statHblankIrq, stat) && g.mode == hblankMode) ||
		(bit.IsSet(statVblankIrq, stat) && vblankActive) ||
		(bit.IsSet(statOamIrq, stat) && g.enteredOAM) ||
		(bit.IsSet(statLycIrq, stat) && lycMatch && g.currentY > 0)

	g.statAsserted = asserted
	if g.statAsserted && !g.oldStatAsserted {
		g.memory.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	g.oldStatAsserted = g.statAsserted

	if g.counter == 4 && g.currentY == 144 {
		g.memory.RequestInterrupt(addr.VBlankInterrupt)
	}
}

// resetDisabled mirrors the hardware state while the LCD is switched off:
// a fixed (counter, current_y) position, HBlank mode, no interrupts.
func (g *GPU) resetDisabled() {
	g.counter = 7
	g.currentY = 0
	g.line = 0
	g.isFirstFrame = true
	g.pixelsPushed = 0
	g.setMode(hblankMode)
	g.memory.Write(addr.LY, 0)
}

func (g *GPU) startNewScanline() {
	g.pixelsPushed = 0

	if g.fetcher.windowMode {
		g.windowYCount++
	}

	g.fetcher = NewScanlineFetcher(g.scrollX())
	g.fifo = NewScanlineFifo(g.scrollX())
	g.drawMode = drawingBg
	g.fetchedSprites = [10]bool{}

	if g.readLCDCVariable(spriteDisplayEnable) == 1 {
		g.visibleSprites = g.oam.FindVisibleSprites(g.currentY, g.readLCDCVariable(spriteSize) == 1)
	} else {
		g.visibleSprites = nil
	}
}

// transferCycle runs one T-cycle of the fetcher/fifo/sprite pipeline: step
// the fetcher, check for a sprite to divert to, check for the window
// trigger, push a completed row, and pop a pixel to the screen.
func (g *GPU) transferCycle() {
	g.fetcher.Step(g)

	g.handleSprites()
	g.handleWindow()

	if g.fifo.HasRoom() && g.fetcher.HasData() {
		row := g.fetcher.GetRow()
		g.fifo.Push(fifoEntriesFromRow(row, g.fetcher.windowMode))
		g.fetcher.Next()
	}

	if g.fifo.HasPixels() && g.counter >= 84 {
		if g.fifo.IsGoodPixel() {
			entry := g.fifo.Peek()
			if (entry.IsSprite || g.readLCDCVariable(bgDisplay) == 1) && g.currentY < FramebufferHeight {
				g.framebuffer.buffer[g.currentY*FramebufferWidth+g.pixelsPushed] = uint32(g.entryColor(entry))
			}
			g.pixelsPushed++
		}
		g.fifo.Pop()
	}
}

func (g *GPU) handleWindow() {
	wx := int(g.memory.Read(addr.WX))
	wy := int(g.memory.Read(addr.WY))
	if g.readLCDCVariable(windowDisplayEnable) == 1 &&
		wx <= 166 &&
		wx-7 == g.pixelsPushed &&
		g.currentY >= wy &&
		g.fifo.IsGoodPixel() &&
		!g.fetcher.windowMode {
		g.fifo.Clear()
		g.fetcher.StartWindowMode()
	}
}

func (g *GPU) handleSprites() {
	idx, ok := g.findPendingSprite()

	switch g.drawMode {
	case drawingBg:
		if ok && g.fifo.EnoughForSprite() && g.fifo.IsGoodPixel() {
			g.fifo.isSuspended = true
			sprite := g.visibleSprites[idx]
			g.fetcher.StartNewSprite(g.currentY, g.readLCDCVariable(spriteSize) == 1, sprite)
			g.drawMode = drawingSprite
			g.activeSpriteIdx = idx
		} else {
			g.fifo.isSuspended = false
		}
	case drawingSprite:
		if g.fetcher.HasData() {
			sprite := g.visibleSprites[g.activeSpriteIdx]
			row := g.fetcher.GetRow()
			priority := uint8(0)
			if sprite.BehindBG {
				priority = 1
			}
			palette := uint8(0)
			if sprite.PaletteOBP1 {
				palette = 1
			}
			entries := fifoEntriesFromSpriteRow(row, priority, palette, sprite.FlipX)

			behind := pixelsBehindSprite(g.pixelsPushed, int(sprite.X))
			g.fetcher.ContinueScanline()
			g.fifo.CombinedWithSprite(entries[behind:])

			g.drawMode = drawingBg
			g.fetchedSprites[g.activeSpriteIdx] = true
		}
	}
}

// findPendingSprite returns the index (into visibleSprites) of the first
// not-yet-fetched sprite whose body covers the current pixel column.
func (g *GPU) findPendingSprite() (int, bool) {
	for i, sprite := range g.visibleSprites {
		if g.fetchedSprites[i] {
			continue
		}
		left := int(sprite.X)
		if left <= g.pixelsPushed && g.pixelsPushed < left+8 {
			return i, true
		}
	}
	return 0, false
}

// pixelsBehindSprite returns how many leading columns of a sprite's 8-pixel
// row lie left of the current output column (already pushed to the screen).
func pixelsBehindSprite(pixelsPushed, spriteLeft int) int {
	if spriteLeft < pixelsPushed {
		return pixelsPushed - spriteLeft
	}
	return 0
}

func (g *GPU) entryColor(entry FifoEntry) GBColor {
	var paletteAddr uint16 = addr.BGP
	if entry.IsSprite {
		paletteAddr = addr.OBP0
		if entry.Palette == 1 {
			paletteAddr = addr.OBP1
		}
	}
	palette := g.memory.Read(paletteAddr)
	color := (palette >> (entry.PixelIndex * 2)) & 0x03
	return ByteToColor(color)
}

func (g *GPU) vramRead(address uint16) byte {
	return g.memory.Read(address)
}

func (g *GPU) scrollX() byte { return g.memory.Read(addr.SCX) }
func (g *GPU) scrollY() byte { return g.memory.Read(addr.SCY) }

func (g *GPU) bgMapSelect() bool     { return g.readLCDCVariable(bgTileMapDisplaySelect) == 1 }
func (g *GPU) windowMapSelect() bool { return g.readLCDCVariable(windowTileMapSelect) == 1 }
func (g *GPU) bgWindowTileSet1() bool {
	return g.readLCDCVariable(bgWindowTileDataSelect) == 1
}

// LCD Stat (Status) Register bit values
// Bit 7 - unused
// Bit 6 - Interrupt based on LYC to LY comparison (based on bit 2)
// Bit 5 - Interrupt when Mode 10 (oamReadMode)
// Bit 4 - Interrupt when Mode 01 (vblankMode)
// Bit 3 - Interrupt when Mode 00 (hblankMode)
// Bit 2 - condition for triggering LYC/LY (0=LYC != LY, 1=LYC == LY)
// Bit 1,0 - represents the current GPU mode
//   - 00 -> hblankMode
//   - 01 -> vblankMode
//   - 10 -> oamReadMode
//   - 11 -> vramReadMode
type statFlag = uint8

const (
	statLycIrq       statFlag = 6
	statOamIrq                = 5
	statVblankIrq             = 4
	statHblankIrq             = 3
	statLycCondition          = 2
)

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (0=Off, 1=On)
type lcdcFlag = uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect             = 6
	windowDisplayEnable             = 5
	bgWindowTileDataSelect          = 4
	bgTileMapDisplaySelect          = 3
	spriteSize                      = 2
	spriteDisplayEnable             = 1
	bgDisplay                       = 0
)

func (g *GPU) readLCDCVariable(flag lcdcFlag) byte {
	if bit.IsSet(flag, g.memory.Read(addr.LCDC)) {
		return 1
	}
	return 0
}

// setMode sets the two bits (1,0) in the STAT register according to the
// selected GPU mode.
func (g *GPU) setMode(mode GpuMode) {
	g.mode = mode
	stat := g.memory.Read(addr.STAT)
	stat = stat&0xFC | byte(g.mode)
	g.memory.Write(addr.STAT, stat)
}
