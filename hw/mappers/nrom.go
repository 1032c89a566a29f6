package mappers

import (
	"nescore/emu/log"
)

var NROM = MapperDesc{
	Name: "NROM",
	Load: loadNROM,
}

type nrom struct {
	*base
	prgmask uint16
}

func loadNROM(b *base) (Mapper, error) {
	// NROM-128 (16KB) is mirrored over $8000-$FFFF, NROM-256 fills it.
	return &nrom{
		base:    b,
		prgmask: uint16(len(b.rom.PRGROM) - 1),
	}, nil
}

func (m *nrom) ReadPRG(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		return m.rom.PRGROM[(addr-0x8000)&m.prgmask]
	case addr >= 0x6000:
		// The $6000-$7FFF window exposes the character memory.
		return m.ReadCHR(addr - 0x6000)
	}
	return 0
}

func (m *nrom) WritePRG(addr uint16, val uint8) {
	log.ModMapper.DebugZ("write to NROM cartridge space ignored").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
}
