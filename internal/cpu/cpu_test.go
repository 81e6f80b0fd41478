package cpu

import "testing"

type testBus struct {
	ram [0x10000]uint8
}

func (b *testBus) CPURead(address uint16) uint8 {
	return b.ram[address]
}

func (b *testBus) CPUWrite(address uint16, value uint8) {
	b.ram[address] = value
}

func newTestCPU() (*CPU, *testBus) {
	bus := &testBus{}
	return New(bus), bus
}

func TestResetVector(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC] = 0x34
	bus.ram[0xFFFD] = 0x12

	c.Reset()

	if c.PC != 0x1234 {
		t.Fatalf("PC = %04X, want 0x1234", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %02X, want 0xFD", c.SP)
	}
	if c.GetStatusByte() != 0x24 {
		t.Fatalf("P = %02X, want 0x24", c.GetStatusByte())
	}
}

func TestADCOverflow(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	c.Reset()
	c.A = 0x50
	c.C = false
	bus.ram[0x8000] = 0x69 // ADC #imm
	bus.ram[0x8001] = 0x50

	cycles := c.Step()

	if c.A != 0xA0 {
		t.Fatalf("A = %02X, want 0xA0", c.A)
	}
	if c.C || c.Z || !c.V || !c.N {
		t.Fatalf("flags C=%v Z=%v V=%v N=%v, want C=false Z=false V=true N=true", c.C, c.Z, c.V, c.N)
	}
	if cycles != 2 {
		t.Fatalf("cycles = %d, want 2", cycles)
	}
}

func TestBranchPageCross(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	c.Reset()
	c.PC = 0x80FD
	c.Z = false
	bus.ram[0x80FD] = 0xD0 // BNE
	bus.ram[0x80FE] = 0x10

	cycles := c.Step()

	if c.PC != 0x810F {
		t.Fatalf("PC = %04X, want 0x810F", c.PC)
	}
	if cycles != 4 {
		t.Fatalf("cycles = %d, want 4", cycles)
	}
}

func TestIndirectJMPPageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	c.Reset()
	c.PC = 0x8000
	bus.ram[0x8000] = 0x6C // JMP (indirect)
	bus.ram[0x8001] = 0xFF
	bus.ram[0x8002] = 0x30
	bus.ram[0x30FF] = 0x80
	bus.ram[0x3000] = 0x50
	bus.ram[0x3100] = 0x40

	c.Step()

	if c.PC != 0x5080 {
		t.Fatalf("PC = %04X, want 0x5080", c.PC)
	}
}

func TestZeroPageIndexedWrapsWithinPage0(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	c.Reset()
	c.PC = 0x8000
	c.X = 0x10
	bus.ram[0x8000] = 0xB5 // LDA zp,X
	bus.ram[0x8001] = 0xF8
	bus.ram[0x0008] = 0x42 // (0xF8 + 0x10) & 0xFF == 0x08

	c.Step()

	if c.A != 0x42 {
		t.Fatalf("A = %02X, want 0x42 (wrapped zero-page read)", c.A)
	}
}

func TestADCThenSBCRoundTrips(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	c.Reset()
	c.PC = 0x8000
	c.A = 0x10
	c.C = true
	bus.ram[0x8000] = 0x69 // ADC #$20
	bus.ram[0x8001] = 0x20
	bus.ram[0x8002] = 0xE9 // SBC #$20
	bus.ram[0x8003] = 0x20

	c.Step()
	c.Step()

	if c.A != 0x10 {
		t.Fatalf("A = %02X, want 0x10 after ADC/SBC round trip", c.A)
	}
}

func TestNMIServicedOnNextStep(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFA], bus.ram[0xFFFB] = 0x00, 0x90
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	c.Reset()
	c.PC = 0x8000
	bus.ram[0x8000] = 0xEA // NOP

	c.RequestNMI()
	cycles := c.Step()

	if cycles != 7 {
		t.Fatalf("cycles = %d, want 7 for interrupt dispatch", cycles)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC = %04X, want 0x9000 (NMI vector)", c.PC)
	}
}

func TestUnofficialOpcodeDecodesAsNOP(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	c.Reset()
	c.PC = 0x8000
	bus.ram[0x8000] = 0x02 // unofficial/illegal opcode (KIL in most tables)

	pcBefore := c.PC
	cycles := c.Step()

	if cycles != 2 {
		t.Fatalf("cycles = %d, want 2 for NOP fallback", cycles)
	}
	if c.PC != pcBefore+1 {
		t.Fatalf("PC advanced by %d, want 1 (Implied addressing)", c.PC-pcBefore)
	}
}

func TestBRKPushesPCPlusOne(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	bus.ram[0xFFFE], bus.ram[0xFFFF] = 0x00, 0x90 // IRQ/BRK vector
	c.Reset()
	bus.ram[0x8000] = 0x00 // BRK

	c.Step()

	if c.PC != 0x9000 {
		t.Fatalf("PC = %04X, want 0x9000 (IRQ vector)", c.PC)
	}
	lo := bus.ram[0x0100+uint16(c.SP)+2]
	hi := bus.ram[0x0100+uint16(c.SP)+3]
	pushed := uint16(hi)<<8 | uint16(lo)
	if pushed != 0x8002 {
		t.Fatalf("pushed return address = %04X, want 0x8002 (BRK PC+1, skipping the padding byte)", pushed)
	}
}

func TestStackWrapsWithinPage1(t *testing.T) {
	c, bus := newTestCPU()
	bus.ram[0xFFFC], bus.ram[0xFFFD] = 0x00, 0x80
	c.Reset()
	c.SP = 0x00
	c.push(0x42)
	if c.SP != 0xFF {
		t.Fatalf("SP = %02X, want 0xFF after push wraps", c.SP)
	}
	if bus.ram[0x0100] != 0x42 {
		t.Fatalf("push wrote to wrong stack slot")
	}
}
