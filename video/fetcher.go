package video

// FetcherState is one stage of the pixel fetcher's FSM.
type FetcherState int

const (
	FetcherIdle FetcherState = iota
	FetcherReadTileIndex
	FetcherReadData0
	FetcherReadData1
	FetcherReady
)

// PixelFetcher reads one 8-pixel tile row at a time from VRAM, two T-cycles
// per state, and hands the decoded row to the PixelFifo. It switches between
// background, window and sprite tiles without being a different type for
// each, matching the hardware fetcher which is a single shared unit.
//
// Grounded on original_source/soc/src/gpu/fetcher.rs.
type PixelFetcher struct {
	state      FetcherState
	tock       bool // each state takes 2 T-cycles; tock toggles which half
	spriteMode bool
	windowMode bool

	bgTileColumn     int // which bg tile column (0-31) to fetch next
	windowTileColumn int // which window tile column (0-31) to fetch next
	yWithinTile      int // row within the 8 or 16 pixel tall tile, latched at ReadTileIndex

	tileIndex uint8
	data0     uint8
	data1     uint8
}

// NewPixelFetcher returns an idle fetcher.
func NewPixelFetcher() PixelFetcher {
	return PixelFetcher{}
}

// upper5 returns the top 5 bits of an 8-bit tile-map coordinate, i.e. the
// coordinate divided by 8 and wrapped to the 32-tile-wide map.
func upper5(v int) int {
	return (v >> 3) & 0x1F
}

// NewScanlineFetcher resets the fetcher to fetch background tiles starting
// from the scrolled tile column, per fetcher.rs's start_new_scanline.
func NewScanlineFetcher(scrollX uint8) PixelFetcher {
	return PixelFetcher{
		state:        FetcherReadTileIndex,
		bgTileColumn: upper5(int(scrollX)),
	}
}

// StartNewSprite switches the fetcher to fetch a sprite's tile row,
// pre-computing the vertical offset into the tile (with Y-flip) while the
// sprite's OAM entry is still at hand.
func (f *PixelFetcher) StartNewSprite(currentY int, largeSprites bool, sprite Sprite) {
	height := 8
	if largeSprites {
		height = 16
	}
	yWithin := (currentY - int(sprite.Y)) % 16
	if sprite.FlipY {
		yWithin = height - 1 - yWithin
	}
	f.state = FetcherReadTileIndex
	f.tock = false
	f.spriteMode = true
	f.tileIndex = sprite.TileIndex
	f.yWithinTile = yWithin
}

// ContinueScanline switches a just-finished sprite fetch back to background
// fetching, restarting the FSM without touching bgTileColumn/windowTileColumn.
func (f *PixelFetcher) ContinueScanline() {
	f.state = FetcherReadTileIndex
	f.tock = false
	f.spriteMode = false
}

// StartWindowMode switches background fetching over to the window tile map
// for the rest of the scanline.
func (f *PixelFetcher) StartWindowMode() {
	f.state = FetcherReadTileIndex
	f.tock = false
	f.windowMode = true
}

// HasData reports whether a fully fetched row is waiting in GetRow.
func (f *PixelFetcher) HasData() bool {
	return f.state == FetcherReady
}

// Next restarts the FSM for the following tile column after its row has
// been consumed by GetRow.
func (f *PixelFetcher) Next() {
	f.state = FetcherReadTileIndex
	f.tock = false
	if f.windowMode {
		f.windowTileColumn++
	} else {
		f.bgTileColumn++
	}
}

// GetRow consumes the fetched tile row, interleaving its two bitplanes into
// a 16-bit pixel row (bit 15:14 is the leftmost pixel) and resetting the
// fetcher to idle until Next is called.
func (f *PixelFetcher) GetRow() uint16 {
	row := decodeTileRow(f.data0, f.data1)
	f.state = FetcherIdle
	f.data0 = 0
	f.data1 = 0
	f.tileIndex = 0
	return row
}

// Step advances the fetcher by one T-cycle. Every state takes two T-cycles;
// the actual memory read happens on the second ("tock") half.
func (f *PixelFetcher) Step(g *GPU) {
	if !f.tock {
		f.tock = true
		return
	}
	f.tock = false

	switch f.state {
	case FetcherReadTileIndex:
		if f.spriteMode {
			// The tile index and y-offset were already latched in
			// StartNewSprite; nothing more to read here.
		} else {
			f.tileIndex = g.vramRead(f.nametableAddress(g))
			f.yWithinTile = f.bgYWithinTile(g)
		}
		f.state = FetcherReadData0
	case FetcherReadData0:
		f.data0 = f.readTileData(g, 0)
		f.state = FetcherReadData1
	case FetcherReadData1:
		f.data1 = f.readTileData(g, 1)
		f.state = FetcherReady
	case FetcherReady, FetcherIdle:
		// Holds until GetRow/Next are called by the caller.
	}
}

func (f *PixelFetcher) nametableAddress(g *GPU) uint16 {
	if f.windowMode {
		return f.windowNametableAddress(g)
	}
	return f.bgNametableAddress(g)
}

func (f *PixelFetcher) bgNametableAddress(g *GPU) uint16 {
	yBase := upper5(int(g.scrollY()) + g.currentY)
	mapSelect := 0
	if g.bgMapSelect() {
		mapSelect = 1
	}
	return 0x9800 | uint16(mapSelect)<<10 | uint16(yBase)<<5 | uint16(f.bgTileColumn&0x1F)
}

func (f *PixelFetcher) windowNametableAddress(g *GPU) uint16 {
	yBase := upper5(g.windowYCount)
	mapSelect := 0
	if g.windowMapSelect() {
		mapSelect = 1
	}
	return 0x9800 | uint16(mapSelect)<<10 | uint16(yBase)<<5 | uint16(f.windowTileColumn&0x1F)
}

func (f *PixelFetcher) bgYWithinTile(g *GPU) int {
	if f.windowMode {
		return g.windowYCount % 8
	}
	return (int(g.scrollY()) + g.currentY) % 8
}

func (f *PixelFetcher) readTileData(g *GPU, byteIndex int) byte {
	useSet1 := f.spriteMode || g.bgWindowTileSet1()
	var base uint16
	if useSet1 {
		base = 0x8000 + uint16(f.tileIndex)*16
	} else {
		base = uint16(0x9000 + int(int8(f.tileIndex))*16)
	}
	addr := base + uint16(f.yWithinTile)*2 + uint16(byteIndex)
	return g.vramRead(addr)
}
