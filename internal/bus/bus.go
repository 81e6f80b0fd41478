// Package bus implements the system bus that arbitrates all CPU- and
// PPU-space memory accesses: work RAM, the PPU's memory-mapped register
// window, the APU register shim, controller ports, and the cartridge.
// It is the sole owner of nametable VRAM and palette RAM, and the sole
// place address-range routing and mirroring logic lives.
package bus

import (
	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

// Bus wires the CPU, PPU, APU, controllers and cartridge together and
// exposes the address-routing surface each of them reads and writes
// through. Nothing outside this package touches RAM, VRAM or palette RAM
// directly.
type Bus struct {
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Input *input.InputState

	cart *cartridge.Cartridge

	ram        [0x0800]uint8
	nametables [4][0x0400]uint8
	palette    [32]uint8

	cycles uint64

	dmaStallCycles uint64
	dmaPending     bool
}

// New creates a Bus with no cartridge loaded. Call LoadCartridge (which
// also resets the machine) before stepping.
func New() *Bus {
	b := &Bus{
		APU:   apu.New(),
		Input: input.NewInputState(),
	}
	b.PPU = ppu.New(b)
	b.CPU = cpu.New(b)
	b.PPU.SetNMICallback(b.triggerNMI)
	b.PPU.SetFrameCompleteCallback(b.completeFrame)
	return b
}

// completeFrame renders the just-finished frame into the PPU's frame
// buffer and lowers UpdateScreen, so FrameBuffer always reflects the most
// recently completed frame by the time PPU.Step returns.
func (b *Bus) completeFrame() {
	b.PPU.UpdateBuffer()
	b.PPU.UpdateScreen = false
}

// LoadCartridge installs cart as the bus's cartridge and resets the
// machine so the CPU's PC is loaded from the new cartridge's reset
// vector.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	b.Reset()
}

// Reset clears RAM, VRAM and palette RAM and resets the CPU, PPU and APU
// to their power-on state.
func (b *Bus) Reset() {
	b.ram = [0x0800]uint8{}
	b.nametables = [4][0x0400]uint8{}
	b.palette = [32]uint8{}
	b.cycles = 0
	b.dmaStallCycles = 0
	b.dmaPending = false

	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
}

func (b *Bus) triggerNMI() {
	b.CPU.RequestNMI()
}

// Step executes one CPU instruction (or, while an OAM DMA transfer is in
// flight, consumes one stall cycle) and advances the PPU and APU the
// corresponding number of cycles. It returns the number of CPU cycles
// consumed by this call.
func (b *Bus) Step() uint64 {
	if b.dmaStallCycles > 0 {
		b.dmaStallCycles--
		if b.dmaStallCycles == 0 {
			b.dmaPending = false
		}
		b.Tick(1)
		return 1
	}

	cycles := b.CPU.Step()
	b.Tick(cycles)
	return cycles
}

// Tick advances the master cycle counter by cycles CPU cycles, stepping
// the PPU exactly three dots and the APU exactly one cycle for each.
func (b *Bus) Tick(cycles uint64) {
	b.PPU.Step(int(cycles) * 3)
	for i := uint64(0); i < cycles; i++ {
		b.APU.Step()
	}
	b.cycles += cycles
}

// CycleCount returns the number of CPU cycles executed since the last
// Reset.
func (b *Bus) CycleCount() uint64 {
	return b.cycles
}

// CPURead implements cpu.Bus: it routes address into RAM (mirrored every
// 0x0800), the PPU register window (mirrored every 8 bytes), APU/IO, or
// the cartridge, per the CPU address map.
func (b *Bus) CPURead(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return b.ram[address&0x07FF]
	case address < 0x4000:
		return b.PPU.ReadRegister(address & 0x0007)
	case address == 0x4015:
		return b.APU.ReadStatus()
	case address == 0x4016 || address == 0x4017:
		return b.Input.Read(address)
	case address <= 0x4017:
		return 0
	case address < 0x4020:
		return 0
	default:
		if b.cart == nil {
			return 0
		}
		return b.cart.ReadPRG(address)
	}
}

// CPUWrite implements cpu.Bus, mirroring CPURead's routing. A write to
// $4014 starts an OAM DMA transfer instead of reaching any register.
func (b *Bus) CPUWrite(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		b.ram[address&0x07FF] = value
	case address < 0x4000:
		b.PPU.WriteRegister(address&0x0007, value)
	case address == 0x4014:
		b.startOAMDMA()
	case address == 0x4016:
		b.Input.Write(address, value)
	case address == 0x4015 || address == 0x4017:
		b.APU.WriteRegister(address, value)
	case address <= 0x4017:
		b.APU.WriteRegister(address, value)
	case address < 0x4020:
		// unmapped expansion area
	default:
		if b.cart != nil {
			b.cart.WritePRG(address, value)
		}
	}
}

// startOAMDMA stalls the CPU for 513 cycles (514 if the transfer starts
// on an odd CPU cycle) as real hardware does. Sprite rendering is out of
// scope for this core, so only the stall is modelled: the source page is
// not read and nothing is copied into OAM.
func (b *Bus) startOAMDMA() {
	if b.dmaPending {
		return
	}
	b.dmaPending = true
	b.dmaStallCycles = 513
	if b.cycles%2 == 1 {
		b.dmaStallCycles = 514
	}
}

// PPURead implements ppu.Bus: it routes address into cartridge CHR,
// mirrored nametable VRAM, or palette RAM, per the PPU address map.
func (b *Bus) PPURead(address uint16) uint8 {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		if b.cart == nil {
			return 0
		}
		return b.cart.ReadCHR(address)
	case address < 0x3F00:
		return b.readNametable(address)
	default:
		return b.readPalette(address)
	}
}

// PPUWrite implements ppu.Bus, mirroring PPURead's routing.
func (b *Bus) PPUWrite(address uint16, value uint8) {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		if b.cart != nil {
			b.cart.WriteCHR(address, value)
		}
	case address < 0x3F00:
		b.writeNametable(address, value)
	default:
		b.writePalette(address, value)
	}
}

func (b *Bus) readNametable(address uint16) uint8 {
	bank, offset := b.nametableIndex(address)
	return b.nametables[bank][offset]
}

func (b *Bus) writeNametable(address uint16, value uint8) {
	bank, offset := b.nametableIndex(address)
	b.nametables[bank][offset] = value
}

// nametableIndex folds a 0x2000-0x3EFF address into a (bank, offset) pair
// according to the cartridge's mirroring mode: Horizontal maps quadrants
// {0,0,1,1}, Vertical {0,1,0,1}, FourScreen {0,1,2,3}.
func (b *Bus) nametableIndex(address uint16) (bank, offset uint16) {
	a := address & 0x0FFF
	quadrant := a >> 10
	offset = a & 0x03FF

	mode := cartridge.MirrorHorizontal
	if b.cart != nil {
		mode = b.cart.MirrorMode()
	}

	switch mode {
	case cartridge.MirrorVertical:
		bank = []uint16{0, 1, 0, 1}[quadrant]
	case cartridge.MirrorFourScreen:
		bank = quadrant
	default: // MirrorHorizontal
		bank = []uint16{0, 0, 1, 1}[quadrant]
	}
	return bank, offset
}

// readPalette and writePalette fold the 0x3F00-0x3FFF window into the
// 32-byte palette table, applying the background-color mirror at
// 0x10/0x14/0x18/0x1C.
func (b *Bus) readPalette(address uint16) uint8 {
	return b.palette[paletteIndex(address)]
}

func (b *Bus) writePalette(address uint16, value uint8) {
	b.palette[paletteIndex(address)] = value
}

func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	if index >= 0x10 && index%4 == 0 {
		index &= 0x0F
	}
	return index
}

// FrameBuffer returns the PPU's current 256x240 ARGB frame buffer.
func (b *Bus) FrameBuffer() *[256 * 240]uint32 {
	return b.PPU.FrameBuffer()
}

// SetControllerButtons updates the given controller's full button state.
// controller is 1 or 2; any other value is ignored.
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}
