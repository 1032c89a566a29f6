// Package mappers implements cartridge address translation for the mappers
// found on NES cartridges.
package mappers

import (
	"fmt"

	"nescore/emu/log"
	"nescore/ines"
)

// A Mapper translates cartridge-space addresses into PRG/CHR offsets.
type Mapper interface {
	Name() string

	// CPU side, $4020-$FFFF.
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, val uint8)

	// PPU side, $0000-$1FFF.
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, val uint8)

	// Mirroring returns the current nametable arrangement.
	Mirroring() ines.NTMirroring
}

type MapperDesc struct {
	Name string
	Load func(*base) (Mapper, error)
}

// All lists supported mappers, by iNES mapper number.
var All = map[uint16]MapperDesc{
	0: NROM,
}

// Load creates the mapper the rom requires.
func Load(rom *ines.Rom) (Mapper, error) {
	desc, ok := All[rom.Mapper()]
	if !ok {
		return nil, fmt.Errorf("unsupported mapper %d", rom.Mapper())
	}
	b, err := newbase(desc, rom)
	if err != nil {
		return nil, fmt.Errorf("mapper initialization failed: %w", err)
	}
	m, err := desc.Load(b)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapper %s: %w", desc.Name, err)
	}

	log.ModMapper.InfoZ("mapper loaded").
		String("name", desc.Name).
		Int("prgrom", len(rom.PRGROM)).
		Int("chrrom", len(rom.CHRROM)).
		Stringer("mirroring", m.Mirroring()).
		End()
	return m, nil
}
