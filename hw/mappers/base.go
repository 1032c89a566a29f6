package mappers

import (
	"fmt"

	"nescore/emu/log"
	"nescore/ines"
)

const chrRAMSize = 0x2000

type base struct {
	desc MapperDesc
	rom  *ines.Rom

	chr    []byte // CHR ROM or CHR RAM
	chrRAM bool
	ntm    ines.NTMirroring
}

func ispow2(n int) bool {
	return n != 0 && n&(n-1) == 0
}

func newbase(desc MapperDesc, rom *ines.Rom) (*base, error) {
	if !ispow2(len(rom.PRGROM)) {
		return nil, fmt.Errorf("only support PRGROM with power of 2 size, got %d", len(rom.PRGROM))
	}

	b := &base{desc: desc, rom: rom, chr: rom.CHRROM, ntm: rom.Mirroring()}
	if len(b.chr) == 0 {
		// No CHR ROM, the cartridge carries 8KB of CHR RAM instead.
		b.chr = make([]byte, chrRAMSize)
		b.chrRAM = true
	}

	if b.ntm == ines.FourScreen {
		// Four-screen needs extra VRAM on the cartridge, which no supported
		// board has.
		log.ModMapper.WarnZ("four-screen mirroring unsupported, using vertical").End()
		b.ntm = ines.VertMirroring
	}
	return b, nil
}

func (b *base) Name() string                { return b.desc.Name }
func (b *base) Mirroring() ines.NTMirroring { return b.ntm }

func (b *base) ReadCHR(addr uint16) uint8 {
	return b.chr[int(addr)%len(b.chr)]
}

func (b *base) WriteCHR(addr uint16, val uint8) {
	if !b.chrRAM {
		log.ModMapper.DebugZ("write to CHR ROM ignored").
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}
	b.chr[int(addr)%len(b.chr)] = val
}
