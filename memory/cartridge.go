package memory

import "github.com/dmgcore/core/util"

const titleLength = 11

const (
	titleAddress          = 0x134
	cgbFlagAddress        = 0x143
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E
)

// MBCType identifies which memory bank controller chip a cartridge header
// declares, decoded from the 0x147 byte.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

// classifyCartType maps the 0x147 header byte to an MBCType plus the
// battery/RTC/rumble extras that byte implies, per the standard DMG
// cartridge header table (cross-checked against
// original_source/soc/src/cart.rs's own, smaller CartType::from_setting for
// the MBC1/MBC3/none cases it covers).
func classifyCartType(value uint8) (kind MBCType, hasBattery, hasRTC, hasRumble bool) {
	switch value {
	case 0x00:
		return NoMBCType, false, false, false
	case 0x08, 0x09:
		return NoMBCType, false, false, false
	case 0x01, 0x02:
		return MBC1Type, false, false, false
	case 0x03:
		return MBC1Type, true, false, false
	case 0x05:
		return MBC2Type, false, false, false
	case 0x06:
		return MBC2Type, true, false, false
	case 0x0F, 0x10:
		return MBC3Type, true, true, false
	case 0x11, 0x12:
		return MBC3Type, false, false, false
	case 0x13:
		return MBC3Type, true, false, false
	case 0x19, 0x1A:
		return MBC5Type, false, false, false
	case 0x1B:
		return MBC5Type, true, false, false
	case 0x1C, 0x1D:
		return MBC5Type, false, false, true
	case 0x1E:
		return MBC5Type, true, false, true
	default:
		return MBCUnknownType, false, false, false
	}
}

func ramBankCountFromHeader(setting uint8) uint8 {
	switch setting {
	case 0x00:
		return 0
	case 0x02:
		return 1
	case 0x03:
		return 4
	case 0x04:
		return 16
	case 0x05:
		return 8
	default:
		return 0
	}
}

type Cartridge struct {
	data           []byte
	title          string
	headerChecksum uint16
	globalChecksum uint16
	mbcType        MBCType
	hasBattery     bool
	hasRTC         bool
	hasRumble      bool
	ramBankCount   uint8
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x10000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData initializes a new Cartridge from a slice of bytes,
// decoding the header fields the MMU needs to pick and size an MBC.
func NewCartridgeWithData(bytes []byte) *Cartridge {
	titleBytes := bytes[titleAddress : titleAddress+titleLength]
	mbcType, hasBattery, hasRTC, hasRumble := classifyCartType(bytes[cartridgeTypeAddress])

	cart := &Cartridge{
		data:           make([]byte, len(bytes)),
		title:          cleanGameboyTitle(titleBytes),
		headerChecksum: util.CombineBytes(bytes[headerChecksumAddress+1], bytes[headerChecksumAddress]),
		globalChecksum: util.CombineBytes(bytes[globalChecksumAddress+1], bytes[globalChecksumAddress]),
		mbcType:        mbcType,
		hasBattery:     hasBattery,
		hasRTC:         hasRTC,
		hasRumble:      hasRumble,
		ramBankCount:   ramBankCountFromHeader(bytes[ramSizeAddress]),
	}

	copy(cart.data, bytes)

	return cart
}

// ReadByte reads a byte at the specified address. Does not check bounds, so the caller must make sure the
// address is valid for the cartridge.
func (c Cartridge) ReadByte(addr uint16) uint8 {
	return c.data[addr]
}

// WriteByte does not modify the cartridge: it returns the byte stored at the specified address. Bank
// switching and cartridge RAM writes go through the MBC instead.
func (c Cartridge) WriteByte(addr uint16, value uint8) uint8 {
	return c.data[addr]
}
