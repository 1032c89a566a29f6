package hwio

import "fmt"

// BankIO8 is the 8-bit memory access interface shared by all memory mapped
// devices.
type BankIO8 interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr)
	hi := b.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// Mem is a linear memory area whose physical size is a power of 2. Addresses
// are masked with the physical size so that the area appears mirrored over
// its whole virtual window (VSize bytes) once mapped.
type Mem struct {
	Name  string // name of the memory area (for debugging)
	Data  []byte
	VSize int // size of the mapped window
	mask  uint16
}

// NewMem allocates a memory area of the given physical size, mapped over a
// window of vsize bytes.
func NewMem(name string, size, vsize int) Mem {
	if size <= 0 || size&(size-1) != 0 || size > 0x10000 {
		panic(fmt.Sprintf("memory %q: size %d is not a power of 2", name, size))
	}
	if vsize < size {
		vsize = size
	}
	return Mem{
		Name:  name,
		Data:  make([]byte, size),
		VSize: vsize,
		mask:  uint16(size - 1),
	}
}

func (m *Mem) Read8(addr uint16) uint8 {
	return m.Data[addr&m.mask]
}

func (m *Mem) Peek8(addr uint16) uint8 {
	return m.Data[addr&m.mask]
}

func (m *Mem) Write8(addr uint16, val uint8) {
	m.Data[addr&m.mask] = val
}
