package hwio

import (
	"fmt"

	"nescore/emu/log"
)

// io8 is implemented by everything that can be mapped in a Table.
type io8 interface {
	BankIO8
	Peek8(addr uint16) uint8
}

// Table decodes a 16-bit address space, forwarding each access to the
// register, memory or device mapped at that address.
type Table struct {
	Name string

	table8 []io8
}

func NewTable(name string) *Table {
	return &Table{
		Name:   name,
		table8: make([]io8, 0x10000),
	}
}

// MapBank maps a register bank (that is, a structure containing multiple
// Reg8, Mem or Device fields) at addr. Bank fields must have been
// initialized with MustInitRegs. Only the fields whose hwio tag belongs to
// bank bankNum and specifies an offset are mapped.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus8(addr uint16, size int, io io8) {
	end := int(addr) + size
	if size <= 0 || end > len(t.table8) {
		panic(fmt.Errorf("bus %s: invalid mapping at $%04X (size %d)", t.Name, addr, size))
	}
	for a := int(addr); a < end; a++ {
		if t.table8[a] != nil {
			panic(fmt.Errorf("bus %s: $%04X is already mapped", t.Name, a))
		}
		t.table8[a] = io
	}
}

func (t *Table) MapReg8(addr uint16, reg *Reg8) {
	t.mapBus8(addr, 1, reg)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	log.ModMem.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", mem.VSize).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, mem.VSize, mem)
}

func (t *Table) MapDevice(addr uint16, dev *Device) {
	log.ModMem.DebugZ("mapping device").
		Hex16("addr", addr).
		Int("size", dev.Size).
		String("area", dev.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, dev.Size, dev)
}

// Read8 forwards the read to whatever is mapped at addr. Unmapped addresses
// read as 0.
func (t *Table) Read8(addr uint16) uint8 {
	io := t.table8[addr]
	if io == nil {
		log.ModHwIo.DebugZ("unmapped Read8").
			String("bus", t.Name).
			Hex16("addr", addr).
			End()
		return 0
	}
	return io.Read8(addr)
}

// Peek8 is like Read8, without side effects.
func (t *Table) Peek8(addr uint16) uint8 {
	io := t.table8[addr]
	if io == nil {
		return 0
	}
	return io.Peek8(addr)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.table8[addr]
	if io == nil {
		log.ModHwIo.DebugZ("unmapped Write8").
			String("bus", t.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	io.Write8(addr, val)
}
