package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeTileRow(t *testing.T) {
	// data0 bit7=1 (lsb of leftmost pixel), data1 bit7=1 (msb) -> leftmost
	// pixel color index 3, rest 0.
	row := decodeTileRow(0x80, 0x80)
	entries := fifoEntriesFromRow(row, false)
	assert.Equal(t, uint8(3), entries[0].PixelIndex)
	for i := 1; i < 8; i++ {
		assert.Equal(t, uint8(0), entries[i].PixelIndex)
	}
}

func TestDecodeTileRowAllBits(t *testing.T) {
	row := decodeTileRow(0xFF, 0xFF)
	entries := fifoEntriesFromRow(row, true)
	for _, e := range entries {
		assert.Equal(t, uint8(3), e.PixelIndex)
		assert.True(t, e.IsWindow)
	}
}

func TestReverse16(t *testing.T) {
	assert.Equal(t, uint16(0x8000), reverse16(0x0001))
	assert.Equal(t, uint16(0x0001), reverse16(0x8000))
	assert.Equal(t, uint16(0), reverse16(0))
}

func TestFifoEntriesFromSpriteRowFlip(t *testing.T) {
	row := decodeTileRow(0x80, 0x00) // leftmost pixel index 1, rest 0
	plain := fifoEntriesFromSpriteRow(row, 0, 0, false)
	flipped := fifoEntriesFromSpriteRow(row, 0, 0, true)

	assert.Equal(t, uint8(1), plain[0].PixelIndex)
	assert.Equal(t, uint8(1), flipped[7].PixelIndex)
	for _, e := range plain {
		assert.True(t, e.IsSprite)
	}
}

func TestNewScanlineFifoDiscard(t *testing.T) {
	f := NewScanlineFifo(3)
	assert.Equal(t, 8+3, f.toDiscard)
	assert.False(t, f.IsGoodPixel())

	f = NewScanlineFifo(0)
	assert.Equal(t, 8, f.toDiscard)
}

func TestPixelFifoPushPop(t *testing.T) {
	f := NewScanlineFifo(0)
	assert.True(t, f.HasRoom())
	assert.False(t, f.HasPixels(), "only the 8 placeholder entries are queued")

	row := fifoEntriesFromRow(decodeTileRow(0xFF, 0x00), false)
	f.Push(row)
	assert.True(t, f.HasPixels())
	assert.False(t, f.HasRoom())

	for i := 0; i < 8; i++ {
		assert.False(t, f.IsGoodPixel())
		f.Pop()
	}
	assert.True(t, f.IsGoodPixel())
	assert.Equal(t, uint8(1), f.Peek().PixelIndex)
}

func TestPixelFifoClear(t *testing.T) {
	f := NewScanlineFifo(5)
	row := fifoEntriesFromRow(decodeTileRow(0xFF, 0x00), false)
	f.Push(row)
	f.Clear()
	assert.Equal(t, 0, f.toDiscard)
	assert.False(t, f.HasPixels())
	assert.True(t, f.HasRoom())
}

func TestBlendSpriteTransparentNeverWins(t *testing.T) {
	bg := FifoEntry{PixelIndex: 2}
	sprite := FifoEntry{PixelIndex: 0, IsSprite: true}
	assert.Equal(t, bg, blendSprite(bg, sprite))
}

func TestBlendSpriteBehindBGLosesToNonZeroBG(t *testing.T) {
	bg := FifoEntry{PixelIndex: 2}
	sprite := FifoEntry{PixelIndex: 1, IsSprite: true, Priority: 1}
	assert.Equal(t, bg, blendSprite(bg, sprite))
}

func TestBlendSpriteWinsOverZeroBG(t *testing.T) {
	bg := FifoEntry{PixelIndex: 0}
	sprite := FifoEntry{PixelIndex: 1, IsSprite: true, Priority: 1}
	got := blendSprite(bg, sprite)
	assert.Equal(t, sprite, got)
}

func TestBlendSpriteWinsWhenNotBehindBG(t *testing.T) {
	bg := FifoEntry{PixelIndex: 2}
	sprite := FifoEntry{PixelIndex: 1, IsSprite: true, Priority: 0}
	got := blendSprite(bg, sprite)
	assert.Equal(t, sprite, got)
}

func TestBlendSpriteNeverOverwritesSprite(t *testing.T) {
	bg := FifoEntry{PixelIndex: 1, IsSprite: true}
	sprite := FifoEntry{PixelIndex: 2, IsSprite: true}
	assert.Equal(t, bg, blendSprite(bg, sprite))
}

func TestCombinedWithSprite(t *testing.T) {
	f := NewScanlineFifo(0)
	row := fifoEntriesFromRow(decodeTileRow(0x00, 0x00), false) // all zero bg pixels
	f.Push(row)

	spriteRow := fifoEntriesFromSpriteRow(decodeTileRow(0xFF, 0x00), 0, 1, false)
	f.CombinedWithSprite(spriteRow[:])

	for i := 0; i < len(spriteRow); i++ {
		assert.True(t, f.entries[i].IsSprite)
		assert.Equal(t, uint8(1), f.entries[i].Palette)
	}
}
