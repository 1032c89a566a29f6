package hwio

import (
	"fmt"

	"nescore/emu/log"
)

type RWFlags uint8

const (
	ReadOnlyFlag RWFlags = 1 << iota
	WriteOnlyFlag
)

// Reg8 is a named 8-bit hardware register. Bits set in RoMask are not
// affected by writes. The optional callbacks see every access: ReadCb and
// PeekCb receive the stored value and return the one seen by the bus. WriteCb
// is called after the value has been stored, with the previous value and the
// value written on the bus.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(val uint8) uint8
	PeekCb  func(val uint8) uint8
	WriteCb func(old uint8, val uint8)
}

func (reg Reg8) String() string {
	s := fmt.Sprintf("%s{%02x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg8) write(val uint8) {
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, val)
	}
}

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Write8 to readonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			End()
		return
	}
	reg.write(val)
}

func (reg *Reg8) Read8(addr uint16) uint8 {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Read8 from writeonly reg").
			String("name", reg.Name).
			Hex16("addr", addr).
			End()
		return 0
	}
	if reg.ReadCb != nil {
		return reg.ReadCb(reg.Value)
	}
	return reg.Value
}

func (reg *Reg8) Peek8(addr uint16) uint8 {
	if reg.PeekCb != nil {
		return reg.PeekCb(reg.Value)
	}
	if reg.Flags&WriteOnlyFlag != 0 {
		return 0
	}
	return reg.Value
}

func (reg *Reg8) GetBit(n uint) bool      { return GetBit8(reg.Value, n) }
func (reg *Reg8) GetBiti(n uint) uint8    { return GetBiti8(reg.Value, n) }
func (reg *Reg8) SetBit(n uint)           { SetBit8(&reg.Value, n) }
func (reg *Reg8) ClearBit(n uint)         { ClearBit8(&reg.Value, n) }
func (reg *Reg8) ClearBits(mask uint8)    { reg.Value &^= mask }
func (reg *Reg8) WriteBit(n uint, b bool) { WriteBit8(&reg.Value, n, b) }
