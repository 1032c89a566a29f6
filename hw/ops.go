package hw

import "nescore/hw/hwio"

// operand is the effective address resolved by an addressing mode. For
// immediate operands, addr is the location of the operand byte.
type operand struct {
	mode AddrMode
	addr uint16
}

// resolve computes the effective address for mode, consuming the operand
// bytes. crossed reports whether indexing crossed a page boundary.
func (c *CPU) resolve(mode AddrMode) (oper operand, crossed bool) {
	oper.mode = mode

	switch mode {
	case Implied, Accumulator:
	case Immediate:
		oper.addr = c.PC
		c.PC++
	case ZeroPage:
		oper.addr = uint16(c.fetch8())
	case ZeroPageX:
		oper.addr = uint16(c.fetch8() + c.X)
	case ZeroPageY:
		oper.addr = uint16(c.fetch8() + c.Y)
	case Relative:
		off := int8(c.fetch8())
		oper.addr = c.PC + uint16(off)
		crossed = !hwio.SamePage(c.PC, oper.addr)
	case Absolute:
		oper.addr = c.fetch16()
	case AbsoluteX:
		base := c.fetch16()
		oper.addr = base + uint16(c.X)
		crossed = !hwio.SamePage(base, oper.addr)
	case AbsoluteY:
		base := c.fetch16()
		oper.addr = base + uint16(c.Y)
		crossed = !hwio.SamePage(base, oper.addr)
	case Indirect:
		// The pointer high byte is read from the start of the same page when
		// the pointer low byte is at $xxFF.
		ptr := c.fetch16()
		lo := c.bus.Read8(ptr)
		hi := c.bus.Read8(ptr&0xFF00 | uint16(uint8(ptr)+1))
		oper.addr = uint16(hi)<<8 | uint16(lo)
	case IndirectX:
		oper.addr = c.read16zp(c.fetch8() + c.X)
	case IndirectY:
		base := c.read16zp(c.fetch8())
		oper.addr = base + uint16(c.Y)
		crossed = !hwio.SamePage(base, oper.addr)
	}
	return oper, crossed
}

func (c *CPU) load(oper operand) uint8 {
	if oper.mode == Accumulator {
		return c.A
	}
	return c.bus.Read8(oper.addr)
}

func (c *CPU) store(oper operand, val uint8) {
	if oper.mode == Accumulator {
		c.A = val
		return
	}
	c.bus.Write8(oper.addr, val)
}

var ops = [numMnemonics]func(*CPU, operand){
	ILL: nop,
	ADC: adc,
	AND: and,
	ASL: asl,
	BCC: branch(Carry, false),
	BCS: branch(Carry, true),
	BEQ: branch(Zero, true),
	BIT: bit,
	BMI: branch(Negative, true),
	BNE: branch(Zero, false),
	BPL: branch(Negative, false),
	BRK: brk,
	BVC: branch(Overflow, false),
	BVS: branch(Overflow, true),
	CLC: flag(Carry, false),
	CLD: flag(Decimal, false),
	CLI: flag(Interrupt, false),
	CLV: flag(Overflow, false),
	CMP: cmpa,
	CPX: cpx,
	CPY: cpy,
	DEC: dec,
	DEX: dex,
	DEY: dey,
	EOR: eor,
	INC: inc,
	INX: inx,
	INY: iny,
	JMP: jmp,
	JSR: jsr,
	LDA: lda,
	LDX: ldx,
	LDY: ldy,
	LSR: lsr,
	NOP: nop,
	ORA: ora,
	PHA: pha,
	PHP: php,
	PLA: pla,
	PLP: plp,
	ROL: rol,
	ROR: ror,
	RTI: rti,
	RTS: rts,
	SBC: sbc,
	SEC: flag(Carry, true),
	SED: flag(Decimal, true),
	SEI: flag(Interrupt, true),
	STA: sta,
	STX: stx,
	STY: sty,
	TAX: tax,
	TAY: tay,
	TSX: tsx,
	TXA: txa,
	TXS: txs,
	TYA: tya,
}

/* arithmetic */

// add performs A+val+C. The decimal flag is ignored on the 2A03.
func (c *CPU) add(val uint8) {
	var carry uint16
	if c.P.C() {
		carry = 1
	}
	sum := uint16(c.A) + uint16(val) + carry
	c.P.checkCV(c.A, val, sum)
	c.A = uint8(sum)
	c.P.checkNZ(c.A)
}

func adc(c *CPU, oper operand) { c.add(c.load(oper)) }

// A-M-(1-C) is A+(^M)+C in two's complement.
func sbc(c *CPU, oper operand) { c.add(^c.load(oper)) }

func (c *CPU) compare(reg, val uint8) {
	c.P.setC(reg >= val)
	c.P.checkNZ(reg - val)
}

func cmpa(c *CPU, oper operand) { c.compare(c.A, c.load(oper)) }
func cpx(c *CPU, oper operand)  { c.compare(c.X, c.load(oper)) }
func cpy(c *CPU, oper operand)  { c.compare(c.Y, c.load(oper)) }

/* logic */

func and(c *CPU, oper operand) {
	c.A &= c.load(oper)
	c.P.checkNZ(c.A)
}

func ora(c *CPU, oper operand) {
	c.A |= c.load(oper)
	c.P.checkNZ(c.A)
}

func eor(c *CPU, oper operand) {
	c.A ^= c.load(oper)
	c.P.checkNZ(c.A)
}

func bit(c *CPU, oper operand) {
	val := c.load(oper)
	c.P.setZ(c.A&val == 0)
	c.P.setV(val&0x40 != 0)
	c.P.setN(val&0x80 != 0)
}

/* shifts and rotations */

func asl(c *CPU, oper operand) {
	val := c.load(oper)
	c.P.setC(val&0x80 != 0)
	val <<= 1
	c.store(oper, val)
	c.P.checkNZ(val)
}

func lsr(c *CPU, oper operand) {
	val := c.load(oper)
	c.P.setC(val&0x01 != 0)
	val >>= 1
	c.store(oper, val)
	c.P.checkNZ(val)
}

func rol(c *CPU, oper operand) {
	val := c.load(oper)
	carry := uint8(c.P & Carry)
	c.P.setC(val&0x80 != 0)
	val = val<<1 | carry
	c.store(oper, val)
	c.P.checkNZ(val)
}

func ror(c *CPU, oper operand) {
	val := c.load(oper)
	carry := uint8(c.P&Carry) << 7
	c.P.setC(val&0x01 != 0)
	val = val>>1 | carry
	c.store(oper, val)
	c.P.checkNZ(val)
}

/* increments and decrements */

func inc(c *CPU, oper operand) {
	val := c.load(oper) + 1
	c.store(oper, val)
	c.P.checkNZ(val)
}

func dec(c *CPU, oper operand) {
	val := c.load(oper) - 1
	c.store(oper, val)
	c.P.checkNZ(val)
}

func inx(c *CPU, _ operand) { c.X++; c.P.checkNZ(c.X) }
func iny(c *CPU, _ operand) { c.Y++; c.P.checkNZ(c.Y) }
func dex(c *CPU, _ operand) { c.X--; c.P.checkNZ(c.X) }
func dey(c *CPU, _ operand) { c.Y--; c.P.checkNZ(c.Y) }

/* loads, stores and transfers */

func lda(c *CPU, oper operand) { c.A = c.load(oper); c.P.checkNZ(c.A) }
func ldx(c *CPU, oper operand) { c.X = c.load(oper); c.P.checkNZ(c.X) }
func ldy(c *CPU, oper operand) { c.Y = c.load(oper); c.P.checkNZ(c.Y) }

func sta(c *CPU, oper operand) { c.store(oper, c.A) }
func stx(c *CPU, oper operand) { c.store(oper, c.X) }
func sty(c *CPU, oper operand) { c.store(oper, c.Y) }

func tax(c *CPU, _ operand) { c.X = c.A; c.P.checkNZ(c.X) }
func tay(c *CPU, _ operand) { c.Y = c.A; c.P.checkNZ(c.Y) }
func tsx(c *CPU, _ operand) { c.X = c.SP; c.P.checkNZ(c.X) }
func txa(c *CPU, _ operand) { c.A = c.X; c.P.checkNZ(c.A) }
func tya(c *CPU, _ operand) { c.A = c.Y; c.P.checkNZ(c.A) }

// TXS is the only transfer not affecting flags.
func txs(c *CPU, _ operand) { c.SP = c.X }

/* stack */

func pha(c *CPU, _ operand) { c.push8(c.A) }
func php(c *CPU, _ operand) { c.push8(c.P.pushed(true)) }

func pla(c *CPU, _ operand) {
	c.A = c.pull8()
	c.P.checkNZ(c.A)
}

func plp(c *CPU, _ operand) { c.P = c.P.pulled(c.pull8()) }

/* control flow */

func jmp(c *CPU, oper operand) { c.PC = oper.addr }

func jsr(c *CPU, oper operand) {
	c.push16(c.PC - 1)
	c.PC = oper.addr
}

func rts(c *CPU, _ operand) { c.PC = c.pull16() + 1 }

func rti(c *CPU, _ operand) {
	c.P = c.P.pulled(c.pull8())
	c.PC = c.pull16()
}

func brk(c *CPU, _ operand) {
	// BRK has a padding byte.
	c.PC++
	c.push16(c.PC)
	c.push8(c.P.pushed(true))
	c.P.setI(true)
	c.PC = hwio.Read16(c.bus, IRQVector)
}

// branch returns a conditional branch instruction, taken when the given flag
// is on (or off). A taken branch costs an extra cycle, plus another one when
// the destination lies in another page.
func branch(f P, on bool) func(*CPU, operand) {
	return func(c *CPU, oper operand) {
		if (c.P&f != 0) != on {
			return
		}
		c.cycles++
		if !hwio.SamePage(c.PC, oper.addr) {
			c.cycles++
		}
		c.PC = oper.addr
	}
}

func flag(f P, on bool) func(*CPU, operand) {
	return func(c *CPU, _ operand) { c.P.writeFlag(f, on) }
}

func nop(*CPU, operand) {}
