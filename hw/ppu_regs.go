package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

const (
	// PPUCTRL bits
	// $2000

	// Nametable selection mask
	// (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
	ntselect = 0b11

	// VRAM address increment per CPU read/write of PPUDATA
	// (0: +1 i.e. horizontal; 1: +32 i.e. vertical)
	vramIncr = 2

	// Sprite pattern table address for 8x8 sprites
	// (0: $0000; 1: $1000; ignored in 8x16 mode)
	spriteAddr = 3

	// Background pattern table address (0: $0000; 1: $1000)
	backgroundAddr = 4

	// Sprite size (0: 8x8 pixels; 1: 8x16 pixels)
	spriteSize = 5

	// Generate an NMI at the start of the
	// vertical blanking interval (0: off; 1: on)
	nmi = 7
)

const (
	// PPUMASK bits
	// $2001

	// Greyscale
	// (0: normal color, 1: produce a greyscale display)
	greyscale = 0

	// Show background in leftmost 8 pixels of screen
	// 1: Show, 0: Hide
	leftmostBg = 1

	// Show sprites in leftmost 8 pixels of screen
	// 1: Show, 0: Hide
	leftmostSprites = 2

	// Show background
	showBg = 3

	// Show sprites
	showSprites = 4
)

const (
	// PPUSTATUS bits
	// $2002

	// Returns stale PPU bus contents.
	openbusMask = 0b11111

	// Sprite overflow. Set during sprite evaluation when more than 8 sprites
	// are found on a scanline, cleared at dot 1 of the pre-render line.
	spriteOverflow = 5

	// Sprite 0 Hit. Set when a nonzero pixel of sprite 0 overlaps
	// a nonzero background pixel; cleared at dot 1 of the pre-render
	// line. Used for raster timing.
	sprite0Hit = 6

	// Vertical blank has started (0: not in vblank; 1: in vblank).
	// Set at dot 1 of line 241 (the line *after* the post-render
	// line); cleared after reading $2002 and at dot 1 of the
	// pre-render line.
	vblank = 7
)

// loopy is the layout shared by the internal v and t VRAM address registers:
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy uint16

func (l loopy) coarseX() uint16   { return uint16(l) & 0x1F }
func (l loopy) coarseY() uint16   { return uint16(l) >> 5 & 0x1F }
func (l loopy) nametable() uint16 { return uint16(l) >> 10 & 0x03 }
func (l loopy) fineY() uint16     { return uint16(l) >> 12 & 0x07 }

// incX increments coarse X, switching horizontal nametable on overflow.
func (l *loopy) incX() {
	if l.coarseX() == 31 {
		*l &^= 0x001F
		*l ^= 0x0400
	} else {
		*l++
	}
}

// incY increments fine Y, overflowing into coarse Y. Coarse Y wraps at 29,
// switching vertical nametable, or at 31 without switching (attribute rows).
func (l *loopy) incY() {
	if l.fineY() < 7 {
		*l += 0x1000
		return
	}

	*l &^= 0x7000
	y := l.coarseY()
	switch y {
	case 29:
		y = 0
		*l ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	*l = *l&^0x03E0 | loopy(y<<5)
}

// copyX copies the horizontal position bits from t.
func (l *loopy) copyX(t loopy) { *l = *l&^0x041F | t&0x041F }

// copyY copies the vertical position bits from t.
func (l *loopy) copyY(t loopy) { *l = *l&^0x7BE0 | t&0x7BE0 }

// ReadOPENBUS serves reads of write-only registers: they return the value
// left on the PPU data bus by the last register access.
func (p *PPU) ReadOPENBUS(_ uint8) uint8 { return p.openBus }

// WriteOPENBUS serves registers for which a write only refreshes the latch.
func (p *PPU) WriteOPENBUS(_, val uint8) { p.openBus = val }

// PPUCTRL: $2000
func (p *PPU) WritePPUCTRL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUCTRL").Hex8("val", val).End()
	p.openBus = val

	// By toggling the nmi bit during vblank without reading PPUSTATUS, a
	// program can cause multiple NMIs to be generated.
	if !hwio.GetBit8(old, nmi) && hwio.GetBit8(val, nmi) && p.PPUSTATUS.GetBit(vblank) {
		p.bus.Raise(EventNMI)
	}

	// Transfer the nametable bits.
	p.vramTmp &^= ntselect << 10
	p.vramTmp |= loopy(val&ntselect) << 10
}

// PPUMASK: $2001
func (p *PPU) WritePPUMASK(_, val uint8) {
	log.ModPPU.DebugZ("Write to PPUMASK").Hex8("val", val).End()
	p.openBus = val
}

// PPUSTATUS: $2002
func (p *PPU) ReadPPUSTATUS(val uint8) uint8 {
	ret := p.PeekPPUSTATUS(val)

	p.PPUSTATUS.ClearBit(vblank)
	p.writeLatch = false
	p.openBus = ret
	return ret
}

func (p *PPU) PeekPPUSTATUS(val uint8) uint8 {
	return val&^openbusMask | p.openBus&openbusMask
}

// OAMDATA: $2004
func (p *PPU) ReadOAMDATA(_ uint8) uint8 {
	p.openBus = p.oamValue(p.OAMADDR.Value)
	return p.openBus
}

func (p *PPU) PeekOAMDATA(_ uint8) uint8 {
	return p.oamValue(p.OAMADDR.Value)
}

func (p *PPU) WriteOAMDATA(_, val uint8) {
	p.openBus = val
	p.OAMMem[p.OAMADDR.Value] = val
	p.OAMADDR.Value++
}

func (p *PPU) oamValue(addr uint8) uint8 {
	val := p.OAMMem[addr]
	if addr&0x03 == 2 {
		// Bits 2-4 of sprite attributes are unimplemented.
		val &= 0xE3
	}
	return val
}

// PPUSCROLL: $2005
func (p *PPU) WritePPUSCROLL(_, val uint8) {
	p.openBus = val
	log.ModPPU.DebugZ("Write to PPUSCROLL").Hex8("val", val).Bool("latch", p.writeLatch).End()

	if !p.writeLatch { // first write
		p.finex = val & 0b111
		p.vramTmp &^= 0b1_1111
		p.vramTmp |= loopy(val >> 3)
	} else { // second write
		p.vramTmp &^= 0b0111_0011_1110_0000
		p.vramTmp |= loopy(val&0b111) << 12
		p.vramTmp |= loopy(val&0b1111_1000) << 2
	}

	p.writeLatch = !p.writeLatch
}

// To read/write VRAM from CPU, PPUADDR is set to the address of the operation.
// It's a 16-bit register so 2 writes are necessary.
// PPUADDR: $2006
func (p *PPU) WritePPUADDR(_, val uint8) {
	p.openBus = val
	if !p.writeLatch { // first write
		p.vramTmp &^= 0b0111_1111_0000_0000
		p.vramTmp |= loopy(val&0b11_1111) << 8
	} else { // second write
		p.vramTmp &^= 0xff
		p.vramTmp |= loopy(val)
		p.vramAddr = p.vramTmp
	}

	p.writeLatch = !p.writeLatch
}

// PPUDATA: $2007
func (p *PPU) ReadPPUDATA(_ uint8) uint8 {
	addr := uint16(p.vramAddr) & 0x3FFF

	var val uint8
	switch {
	case addr < 0x3F00:
		// Reading VRAM is too slow so the actual data
		// will be returned at the next read.
		val = p.ppuDataRbuf
		p.ppuDataRbuf = p.read8(addr)
	default: // $3F00-3FFF
		// Reading palette data is immediate, the read buffer is filled
		// with the nametable byte 'underneath' the palette.
		val = p.read8(addr)
		p.ppuDataRbuf = p.read8(addr - 0x1000)
	}

	log.ModPPU.DebugZ("VRAM read").
		Hex16("addr", addr).
		Hex8("val", val).
		End()

	p.incVRAMaddr()
	p.openBus = val
	return val
}

// PPUDATA: $2007
func (p *PPU) WritePPUDATA(_, val uint8) {
	p.openBus = val
	addr := uint16(p.vramAddr) & 0x3FFF
	p.write8(addr, val)

	log.ModPPU.DebugZ("VRAM write").
		Hex16("addr", addr).
		Hex8("val", val).
		End()

	p.incVRAMaddr()
}

// After each i/o on PPUDATA, PPUADDR is incremented.
func (p *PPU) incVRAMaddr() {
	incr := loopy(1)
	if p.PPUCTRL.GetBit(vramIncr) {
		incr = 32
	}
	p.vramAddr = (p.vramAddr + incr) & 0x7fff
}
