package ppu

// UpdateBuffer renders one full tile-grid background frame into the frame
// buffer, per the simplified (sprite-free) rendering model this core
// implements. The bus calls this once per completed frame via the
// frame-complete callback; call it directly only if driving the PPU
// without a bus.
func (p *PPU) UpdateBuffer() {
	baseNametable := uint16(0x2000) + uint16(p.ctrl&0x03)*0x0400
	patternBase := uint16(0x0000)
	if p.ctrl&ctrlBackgroundTbl != 0 {
		patternBase = 0x1000
	}

	for row := 0; row < 30; row++ {
		for col := 0; col < 32; col++ {
			tileID := p.bus.PPURead(baseNametable + uint16(row*32+col))
			attr := p.bus.PPURead(baseNametable + 0x03C0 + uint16(8*(row/4)+col/4))
			quadrant := quadrantShift(row, col)
			paletteSelect := (attr >> quadrant) & 0x03

			patternAddr := patternBase + uint16(tileID)*16
			var lo, hi [8]uint8
			for b := 0; b < 8; b++ {
				lo[b] = p.bus.PPURead(patternAddr + uint16(b))
				hi[b] = p.bus.PPURead(patternAddr + 8 + uint16(b))
			}

			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					bit := uint(7 - x)
					pixel := ((hi[y]>>bit)&1)<<1 | ((lo[y] >> bit) & 1)
					color := p.pixelColor(paletteSelect, pixel)
					px := col*8 + x
					py := row*8 + y
					p.frameBuffer[py*frameWidth+px] = color
				}
			}
		}
	}
}

// quadrantShift maps a tile's row/col within a 32x30 grid to the bit offset
// of its 2-bit palette selector inside the attribute byte: TL bits 0-1, TR
// 2-3, BL 4-5, BR 6-7 of the 4x4-tile block it belongs to.
func quadrantShift(row, col int) uint {
	blockRow := (row % 4) / 2
	blockCol := (col % 4) / 2
	return uint((blockRow*2 + blockCol) * 2)
}

func (p *PPU) pixelColor(paletteSelect, pixel uint8) uint32 {
	var paletteAddr uint16
	if pixel == 0 {
		paletteAddr = 0x3F00
	} else {
		paletteAddr = 0x3F00 + uint16(paletteSelect)*4 + uint16(pixel)
	}
	index := p.bus.PPURead(paletteAddr) & 0x3F
	return nesColorPalette[index]
}

// nesColorPalette is the NES's fixed 64-entry ARGB master palette.
var nesColorPalette = [64]uint32{
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// NESColorToRGB strips the alpha byte from a palette entry.
func NESColorToRGB(colorIndex uint8) uint32 {
	if colorIndex >= 64 {
		return 0
	}
	return nesColorPalette[colorIndex] & 0x00FFFFFF
}
