package hw

// P is the processor status register.
type P uint8

const (
	Carry = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Unused
	Overflow
	Negative
)

// Bits that PLP and RTI never overwrite: they don't physically exist in the
// register and only appear in copies pushed on the stack.
const pNonAddressable = Break | Unused

func (p P) C() bool { return p&Carry != 0 }
func (p P) Z() bool { return p&Zero != 0 }
func (p P) I() bool { return p&Interrupt != 0 }
func (p P) D() bool { return p&Decimal != 0 }
func (p P) B() bool { return p&Break != 0 }
func (p P) U() bool { return p&Unused != 0 }
func (p P) V() bool { return p&Overflow != 0 }
func (p P) N() bool { return p&Negative != 0 }

func (p *P) writeFlag(flag P, on bool) {
	if on {
		*p |= flag
	} else {
		*p &^= flag
	}
}

func (p *P) setC(on bool) { p.writeFlag(Carry, on) }
func (p *P) setZ(on bool) { p.writeFlag(Zero, on) }
func (p *P) setI(on bool) { p.writeFlag(Interrupt, on) }
func (p *P) setD(on bool) { p.writeFlag(Decimal, on) }
func (p *P) setV(on bool) { p.writeFlag(Overflow, on) }
func (p *P) setN(on bool) { p.writeFlag(Negative, on) }

// checkNZ sets N and Z according to v.
func (p *P) checkNZ(v uint8) {
	p.setN(v&0x80 != 0)
	p.setZ(v == 0)
}

// checkCV sets C and V after the 8-bit addition x+y(+carry) which gave sum.
func (p *P) checkCV(x, y uint8, sum uint16) {
	// forward carry or unsigned overflow.
	p.setC(sum > 0xFF)

	// signed overflow, can only happen if the sign of the sum differs
	// from that of both operands.
	v := (uint16(x) ^ sum) & (uint16(y) ^ sum) & 0x80
	p.setV(v != 0)
}

// pulled returns the value of P after pulling val from the stack.
func (p P) pulled(val uint8) P {
	return P(val)&^pNonAddressable | p&pNonAddressable
}

// pushed returns the value of P as pushed on the stack, with the B flag
// depending on the pusher (BRK/PHP or hardware interrupt).
func (p P) pushed(brk bool) uint8 {
	v := p | Unused
	if brk {
		v |= Break
	} else {
		v &^= Break
	}
	return uint8(v)
}

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) & (1 << (7 - i))) >> (7 - i)
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}
