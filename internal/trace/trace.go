// Package trace formats one line per executed CPU instruction, in the
// column layout of a classic 6502 disassembling trace log: address,
// opcode/operand bytes, mnemonic, register file, and PPU/CPU cycle
// counters. It is an external collaborator the embedder wires in when
// CPU tracing is enabled; the CPU package itself never imports it.
package trace

import (
	"fmt"
	"io"

	"gones/internal/cpu"
)

// Logger writes cpu.Snapshot values to an underlying writer as trace lines.
type Logger struct {
	w        io.Writer
	scanline func() int
	cycle    func() int
}

// NewLogger creates a Logger writing to w. scanline and cycle report the
// PPU's current timing position for the trace line's PPU column.
func NewLogger(w io.Writer, scanline, cycle func() int) *Logger {
	return &Logger{w: w, scanline: scanline, cycle: cycle}
}

// LogInstruction writes one trace line for s.
func (l *Logger) LogInstruction(s cpu.Snapshot) {
	var operand string
	switch s.OperandLen {
	case 1:
		operand = fmt.Sprintf("%02X", s.Operand1)
	case 2:
		operand = fmt.Sprintf("%02X %02X", s.Operand1, s.Operand2)
	}

	fmt.Fprintf(l.w, "%04X  %02X %-5s %-4s A:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d\n",
		s.PC, s.Opcode, operand, s.Mnemonic,
		s.A, s.X, s.Y, s.P, s.SP,
		l.scanline(), l.cycle(), s.TotalCycles)
}
