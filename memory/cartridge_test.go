package memory

import "testing"

func TestClassifyCartType(t *testing.T) {
	tests := []struct {
		name           string
		value          uint8
		wantKind       MBCType
		wantBattery    bool
		wantRTC        bool
		wantRumble     bool
	}{
		{"ROM only", 0x00, NoMBCType, false, false, false},
		{"MBC1", 0x01, MBC1Type, false, false, false},
		{"MBC1+RAM+BATTERY", 0x03, MBC1Type, true, false, false},
		{"MBC2+BATTERY", 0x06, MBC2Type, true, false, false},
		{"MBC3+TIMER+BATTERY", 0x0F, MBC3Type, true, true, false},
		{"MBC3", 0x11, MBC3Type, false, false, false},
		{"MBC5", 0x19, MBC5Type, false, false, false},
		{"MBC5+RUMBLE", 0x1C, MBC5Type, false, false, true},
		{"unknown", 0xFE, MBCUnknownType, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, battery, rtc, rumble := classifyCartType(tt.value)
			if kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
			if battery != tt.wantBattery {
				t.Errorf("hasBattery = %v, want %v", battery, tt.wantBattery)
			}
			if rtc != tt.wantRTC {
				t.Errorf("hasRTC = %v, want %v", rtc, tt.wantRTC)
			}
			if rumble != tt.wantRumble {
				t.Errorf("hasRumble = %v, want %v", rumble, tt.wantRumble)
			}
		})
	}
}

func TestRamBankCountFromHeader(t *testing.T) {
	tests := []struct {
		setting uint8
		want    uint8
	}{
		{0x00, 0},
		{0x02, 1},
		{0x03, 4},
		{0x04, 16},
		{0x05, 8},
	}

	for _, tt := range tests {
		if got := ramBankCountFromHeader(tt.setting); got != tt.want {
			t.Errorf("ramBankCountFromHeader(0x%02X) = %d, want %d", tt.setting, got, tt.want)
		}
	}
}

func TestNewCartridgeWithDataDecodesHeader(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[cartridgeTypeAddress] = 0x03 // MBC1+RAM+BATTERY
	rom[ramSizeAddress] = 0x03       // 32KB = 4 banks
	copy(rom[titleAddress:], []byte("TESTGAME\x00\x00\x00"))

	cart := NewCartridgeWithData(rom)

	if cart.mbcType != MBC1Type {
		t.Errorf("mbcType = %v, want MBC1Type", cart.mbcType)
	}
	if !cart.hasBattery {
		t.Error("expected hasBattery = true")
	}
	if cart.ramBankCount != 4 {
		t.Errorf("ramBankCount = %d, want 4", cart.ramBankCount)
	}
	if cart.title != "TESTGAME" {
		t.Errorf("title = %q, want %q", cart.title, "TESTGAME")
	}
}
