package cartridge

import (
	"bytes"
	"testing"
)

// buildINES assembles a minimal well-formed iNES image: a 16-byte header
// followed by prgBanks*16KiB of PRG filled with fill and chrBanks*8KiB of
// CHR filled with fill+1, so tests can tell PRG and CHR reads apart.
func buildINES(prgBanks, chrBanks, flags6, flags7 uint8, fill uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString("NES\x1A")
	buf.WriteByte(prgBanks)
	buf.WriteByte(chrBanks)
	buf.WriteByte(flags6)
	buf.WriteByte(flags7)
	buf.Write(make([]byte, 8)) // PRG-RAM size + reserved bytes

	prg := make([]byte, int(prgBanks)*16384)
	for i := range prg {
		prg[i] = fill
	}
	buf.Write(prg)

	chr := make([]byte, int(chrBanks)*8192)
	for i := range chr {
		chr[i] = fill + 1
	}
	buf.Write(chr)

	return buf.Bytes()
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := buildINES(1, 1, 0, 0, 0)
	data[0] = 'X'

	if _, err := LoadFromReader(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for bad magic number")
	}
}

func TestLoadRejectsUnsupportedMapper(t *testing.T) {
	// mapper id 1 (MMC1) packed into flags6 high nibble
	data := buildINES(1, 1, 0x10, 0x00, 0)

	_, err := LoadFromReader(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected error for unsupported mapper id")
	}
	if _, ok := err.(*LoadError); !ok {
		t.Fatalf("error type = %T, want *LoadError", err)
	}
}

func TestMirroringDecode(t *testing.T) {
	cases := []struct {
		name       string
		flags6     uint8
		wantMirror MirrorMode
	}{
		{"horizontal", 0x00, MirrorHorizontal},
		{"vertical", 0x01, MirrorVertical},
		{"four-screen overrides bit0", 0x09, MirrorFourScreen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cart, err := LoadFromReader(bytes.NewReader(buildINES(1, 1, tc.flags6, 0, 0)))
			if err != nil {
				t.Fatalf("LoadFromReader: %v", err)
			}
			if cart.MirrorMode() != tc.wantMirror {
				t.Fatalf("MirrorMode() = %v, want %v", cart.MirrorMode(), tc.wantMirror)
			}
		})
	}
}

func TestNROM16KMirrorsAcrossBankSpace(t *testing.T) {
	cart, err := LoadFromReader(bytes.NewReader(buildINES(1, 1, 0, 0, 0x77)))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if got := cart.ReadPRG(0x8000); got != 0x77 {
		t.Fatalf("ReadPRG(0x8000) = %02X, want 0x77", got)
	}
	if got := cart.ReadPRG(0xC000); got != cart.ReadPRG(0x8000) {
		t.Fatalf("16KB PRG ROM should mirror: ReadPRG(0xC000)=%02X ReadPRG(0x8000)=%02X", got, cart.ReadPRG(0x8000))
	}
}

func TestNROM32KIsDirectMapped(t *testing.T) {
	data := buildINES(2, 1, 0, 0, 0)
	// Distinguish the two 16KB banks so 0x8000 and 0xC000 must differ.
	data[16] = 0xAA       // first byte of bank 0
	data[16+16384] = 0xBB // first byte of bank 1

	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if got := cart.ReadPRG(0x8000); got != 0xAA {
		t.Fatalf("ReadPRG(0x8000) = %02X, want 0xAA", got)
	}
	if got := cart.ReadPRG(0xC000); got != 0xBB {
		t.Fatalf("ReadPRG(0xC000) = %02X, want 0xBB", got)
	}
}

func TestCHRFallsBackToRAMWhenBankCountIsZero(t *testing.T) {
	cart, err := LoadFromReader(bytes.NewReader(buildINES(1, 0, 0, 0, 0)))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	cart.WriteCHR(0x0010, 0x42)
	if got := cart.ReadCHR(0x0010); got != 0x42 {
		t.Fatalf("ReadCHR(0x0010) = %02X, want 0x42 (CHR RAM)", got)
	}
}
