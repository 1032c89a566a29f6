package hw

import (
	"fmt"
	"io"
)

// cpuState stores the CPU state for the execution trace.
type cpuState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Clock int64
}

// tracer writes one line per executed instruction, in the layout of the
// nestest.log golden log.
type tracer struct {
	w   io.Writer
	bus Bus
	ppu *PPU // optional, for the PPU position
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

func (t *tracer) peek(addr uint16) uint8 {
	if p, ok := t.bus.(peeker); ok {
		return p.Peek8(addr)
	}
	return t.bus.Read8(addr)
}

// write the execution trace for the instruction about to be executed. Each
// line is emitted with a single call to Write.
func (t *tracer) write(state cpuState) {
	dis := Disasm(t.peek, state.PC)
	buf := dis.Bytes()

	regs := [...]struct {
		name string
		val  uint8
	}{
		{"A:", state.A},
		{"X:", state.X},
		{"Y:", state.Y},
		{"P:", uint8(state.P)},
		{"SP:", state.SP},
	}
	for _, r := range regs {
		buf = append(buf, r.name...)
		buf = append(buf, 0, 0, ' ')
		hexEncode(buf[len(buf)-3:], r.val)
	}

	var scanline, cycle int
	if t.ppu != nil {
		scanline, cycle = t.ppu.Scanline, t.ppu.Cycle
	}

	buf = fmt.Appendf(buf, "PPU:%3d,%3d CYC:%d\n", scanline, cycle, state.Clock)
	t.w.Write(buf)
}

// DisasmOp is a disassembled instruction.
type DisasmOp struct {
	Opcode string
	Oper   string
	Buf    []byte
	PC     uint16
}

// Disasm disassembles the instruction at pc, reading memory with read.
func Disasm(read func(uint16) uint8, pc uint16) DisasmOp {
	op := opcodes[read(pc)]
	buf := make([]byte, op.Mode.Length())
	for i := range buf {
		buf[i] = read(pc + uint16(i))
	}

	d := DisasmOp{
		Opcode: op.Name.String(),
		Buf:    buf,
		PC:     pc,
	}

	var w16 uint16
	if len(buf) == 3 {
		w16 = uint16(buf[2])<<8 | uint16(buf[1])
	}

	switch op.Mode {
	case Accumulator:
		d.Oper = "A"
	case Immediate:
		d.Oper = fmt.Sprintf("#$%02X", buf[1])
	case ZeroPage:
		d.Oper = fmt.Sprintf("$%02X", buf[1])
	case ZeroPageX:
		d.Oper = fmt.Sprintf("$%02X,X", buf[1])
	case ZeroPageY:
		d.Oper = fmt.Sprintf("$%02X,Y", buf[1])
	case Relative:
		d.Oper = fmt.Sprintf("$%04X", pc+2+uint16(int8(buf[1])))
	case Absolute:
		d.Oper = fmt.Sprintf("$%04X", w16)
	case AbsoluteX:
		d.Oper = fmt.Sprintf("$%04X,X", w16)
	case AbsoluteY:
		d.Oper = fmt.Sprintf("$%04X,Y", w16)
	case Indirect:
		d.Oper = fmt.Sprintf("($%04X)", w16)
	case IndirectX:
		d.Oper = fmt.Sprintf("($%02X,X)", buf[1])
	case IndirectY:
		d.Oper = fmt.Sprintf("($%02X),Y", buf[1])
	}
	return d
}

// Bytes returns the string representation of a DisasmOp: address, raw bytes
// and instruction, padded to 48 columns. This is an optimized version,
// suitable for the execution tracer.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen, totalLen+48)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}

	for ; off < 16; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], d.Opcode)
	if d.Oper != "" {
		buf[off] = ' '
		off++
	}

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) >= totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}

	return buf
}

func (d DisasmOp) String() string {
	if d.Oper == "" {
		return d.Opcode
	}
	return d.Opcode + " " + d.Oper
}
