package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/dmgcore/core/addr"
	"github.com/dmgcore/core/memory"
)

func newTestGpu() *GPU {
	mmu := memory.New()
	return NewGpu(mmu)
}

func TestUpper5(t *testing.T) {
	assert.Equal(t, 0, upper5(0))
	assert.Equal(t, 0, upper5(7))
	assert.Equal(t, 1, upper5(8))
	assert.Equal(t, 31, upper5(255))
}

func TestNewScanlineFetcherStartsAtTileIndex(t *testing.T) {
	f := NewScanlineFetcher(3)
	assert.Equal(t, FetcherReadTileIndex, f.state)
	assert.Equal(t, upper5(3), f.bgTileColumn)
	assert.False(t, f.HasData())
}

func TestFetcherStepTockGating(t *testing.T) {
	g := newTestGpu()
	f := NewScanlineFetcher(0)

	// first tick of a state only flips tock, no state change
	f.Step(g)
	assert.Equal(t, FetcherReadTileIndex, f.state)
	assert.True(t, f.tock)

	// second tick performs the read and advances state
	f.Step(g)
	assert.Equal(t, FetcherReadData0, f.state)
	assert.False(t, f.tock)
}

func TestFetcherFullFetchProducesRow(t *testing.T) {
	g := newTestGpu()
	g.currentY = 0
	g.memory.Write(addr.LCDC, 1<<bgWindowTileDataSelect) // tile set 1, 0x8000-based
	// tile map entry 0 at 0x9800 defaults to tile index 0
	g.memory.Write(addr.TileData0, 0xAA)   // low bitplane, row 0 of tile 0
	g.memory.Write(addr.TileData0+1, 0x55) // high bitplane

	f := NewScanlineFetcher(0)
	for i := 0; i < 6; i++ {
		f.Step(g)
	}
	assert.True(t, f.HasData())

	row := f.GetRow()
	assert.Equal(t, decodeTileRow(0xAA, 0x55), row)
	assert.Equal(t, FetcherIdle, f.state)
}

func TestFetcherNextAdvancesColumn(t *testing.T) {
	f := NewScanlineFetcher(0)
	f.bgTileColumn = 5
	f.Next()
	assert.Equal(t, 6, f.bgTileColumn)
	assert.Equal(t, FetcherReadTileIndex, f.state)
}

func TestFetcherWindowModeUsesWindowColumn(t *testing.T) {
	f := NewScanlineFetcher(0)
	f.windowTileColumn = 2
	f.StartWindowMode()
	assert.True(t, f.windowMode)
	f.Next()
	assert.Equal(t, 3, f.windowTileColumn)
	assert.Equal(t, 0, f.bgTileColumn)
}

func TestFetcherStartNewSpriteLatchesYWithinTile(t *testing.T) {
	f := NewScanlineFetcher(0)
	sprite := Sprite{Y: 10, TileIndex: 0x20}

	f.StartNewSprite(12, false, sprite)
	assert.True(t, f.spriteMode)
	assert.Equal(t, FetcherReadTileIndex, f.state)
	assert.Equal(t, 2, f.yWithinTile)
	assert.Equal(t, uint8(0x20), f.tileIndex)
}

func TestFetcherStartNewSpriteFlipY(t *testing.T) {
	f := NewScanlineFetcher(0)
	sprite := Sprite{Y: 10, FlipY: true}

	f.StartNewSprite(12, false, sprite) // 2 rows into an 8-tall sprite
	assert.Equal(t, 5, f.yWithinTile)
}

func TestFetcherContinueScanlineClearsSpriteMode(t *testing.T) {
	f := NewScanlineFetcher(0)
	f.StartNewSprite(0, false, Sprite{})
	f.ContinueScanline()
	assert.False(t, f.spriteMode)
	assert.Equal(t, FetcherReadTileIndex, f.state)
}

func TestReadTileDataSet0IsSigned(t *testing.T) {
	g := newTestGpu()
	// tile index 0xFF with set-0 addressing maps to 0x9000 + (-1)*16 = 0x8FF0
	g.memory.Write(0x8FF0, 0x77)

	f := PixelFetcher{tileIndex: 0xFF}
	got := f.readTileData(g, 0)
	assert.Equal(t, byte(0x77), got)
}

func TestReadTileDataSet1IsUnsigned(t *testing.T) {
	g := newTestGpu()
	g.memory.Write(addr.TileData0+0x01*16, 0x33)
	g.memory.Write(addr.LCDC, 1<<bgWindowTileDataSelect)

	f := PixelFetcher{tileIndex: 0x01}
	got := f.readTileData(g, 0)
	assert.Equal(t, byte(0x33), got)
}
