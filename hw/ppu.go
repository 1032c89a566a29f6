package hw

import (
	"sync"

	"nescore/emu/log"
	"nescore/hw/hwio"
	"nescore/hw/mappers"
	"nescore/ines"
)

const (
	NumScanlines = 262 // Number of scanlines per frame.
	NumCycles    = 341 // Number of PPU cycles per scanline.

	ScreenWidth  = 256
	ScreenHeight = 240

	postRenderLine = 240
	vblankLine     = 241
	preRenderLine  = 261
)

// Frame holds a full picture as 6-bit palette indices. Turning them into colors
// is the display's concern.
type Frame [ScreenHeight][ScreenWidth]uint8

// PPU is the 2C02 picture processing unit. It runs one dot per call to Tick.
type PPU struct {
	bus    Bus
	mapper mappers.Mapper

	Cycle    int    // Current cycle/pixel in scanline
	Scanline int    // Current scanline being drawn
	Frames   uint64 // Number of completed frames

	// CPU-exposed memory-mapped PPU registers
	// mapped from $2000 to $2007, mirrored up to $3fff.
	// Write-only registers read back the open bus latch.
	PPUCTRL   hwio.Reg8 `hwio:"bank=1,offset=0x0,rcb=ReadOPENBUS,pcb=ReadOPENBUS,wcb"`
	PPUMASK   hwio.Reg8 `hwio:"bank=1,offset=0x1,rcb=ReadOPENBUS,pcb=ReadOPENBUS,wcb"`
	PPUSTATUS hwio.Reg8 `hwio:"bank=1,offset=0x2,rwmask=0,rcb,pcb,wcb=WriteOPENBUS"`
	OAMADDR   hwio.Reg8 `hwio:"bank=1,offset=0x3,rcb=ReadOPENBUS,pcb=ReadOPENBUS,wcb=WriteOPENBUS"`
	OAMDATA   hwio.Reg8 `hwio:"bank=1,offset=0x4,rcb,pcb,wcb"`
	PPUSCROLL hwio.Reg8 `hwio:"bank=1,offset=0x5,rcb=ReadOPENBUS,pcb=ReadOPENBUS,wcb"`
	PPUADDR   hwio.Reg8 `hwio:"bank=1,offset=0x6,rcb=ReadOPENBUS,pcb=ReadOPENBUS,wcb"`
	PPUDATA   hwio.Reg8 `hwio:"bank=1,offset=0x7,rcb,pcb=ReadOPENBUS,wcb"`

	// PPU address space ($0000-$3FFF).
	vbus *hwio.Table

	// $0000-$1FFF pattern tables, on the cartridge.
	chr hwio.Device

	// $2000-$3EFF nametables, 2KB of physical memory. The cartridge decides
	// how the 4 logical nametables are mapped onto it.
	NT         hwio.Device `hwio:"offset=0x2000,size=0x1F00,rcb,pcb=ReadNT,wcb"`
	Nametables [0x800]uint8

	// $3F00-$3F1F palette RAM indexes, mirrored up to $3FFF.
	PAL      hwio.Device `hwio:"offset=0x3F00,size=0x100,rcb,pcb=ReadPAL,wcb"`
	Palettes [0x20]uint8

	// Object Attribute Memory: 64 sprites, 4 bytes each.
	OAMMem [0x100]uint8

	// VRAM read/write
	vramAddr    loopy // v
	vramTmp     loopy // t
	finex       uint8 // x
	writeLatch  bool  // w
	ppuDataRbuf uint8
	openBus     uint8

	bg bgRegs

	// Secondary OAM, sprites selected for the next scanline.
	sprites   [8]sprite
	nsprites  int
	sprite0in bool // sprite 0 is part of the selected sprites

	fbmu   sync.Mutex
	frames [2]Frame
	back   int // index of the frame being drawn
}

// NewPPU creates a PPU attached to bus, reading pattern tables and nametable
// arrangement from the cartridge mapper.
func NewPPU(bus Bus, mapper mappers.Mapper) *PPU {
	p := &PPU{
		bus:    bus,
		mapper: mapper,
		vbus:   hwio.NewTable("ppu"),
	}
	hwio.MustInitRegs(p)

	p.chr = hwio.Device{
		Name:    "CHR",
		Size:    0x2000,
		ReadCb:  mapper.ReadCHR,
		PeekCb:  mapper.ReadCHR,
		WriteCb: mapper.WriteCHR,
	}
	p.vbus.MapDevice(0x0000, &p.chr)
	p.vbus.MapBank(0x0000, p, 0)
	return p
}

func (p *PPU) Reset() {
	p.Scanline = 0
	p.Cycle = 0
	p.PPUCTRL.Value = 0
	p.PPUMASK.Value = 0
	p.writeLatch = false
	p.ppuDataRbuf = 0
	p.vramTmp = 0
	p.finex = 0
	p.bg = bgRegs{}
	p.nsprites = 0
	p.sprite0in = false
}

// Frame returns a copy of the last completed frame. It's safe to call it
// concurrently with Tick.
func (p *PPU) Frame() Frame {
	p.fbmu.Lock()
	defer p.fbmu.Unlock()
	return p.frames[p.back^1]
}

func (p *PPU) swapFrames() {
	p.fbmu.Lock()
	p.back ^= 1
	p.fbmu.Unlock()
}

func (p *PPU) renderingEnabled() bool {
	return p.PPUMASK.GetBit(showBg) || p.PPUMASK.GetBit(showSprites)
}

// Tick runs one PPU cycle (dot).
func (p *PPU) Tick() {
	visible := p.Scanline < postRenderLine
	prerender := p.Scanline == preRenderLine

	if p.renderingEnabled() && (visible || prerender) {
		p.fetchBackground(prerender)
		if p.Cycle == 257 {
			if visible {
				p.evalSprites()
			} else {
				p.nsprites = 0
				p.sprite0in = false
			}
		}
	}

	if visible && p.Cycle >= 1 && p.Cycle <= ScreenWidth {
		p.renderPixel()
	}

	switch {
	case p.Scanline == postRenderLine && p.Cycle == 0:
		p.swapFrames()

	case p.Scanline == vblankLine && p.Cycle == 1:
		p.PPUSTATUS.SetBit(vblank)
		log.ModPPU.DebugZ("vblank start").Uint64("frame", p.Frames).End()
		if p.PPUCTRL.GetBit(nmi) {
			p.bus.Raise(EventNMI)
		}

	case prerender && p.Cycle == 1:
		// Clear vblank, sprite0Hit and spriteOverflow
		const mask = 1<<vblank | 1<<sprite0Hit | 1<<spriteOverflow
		p.PPUSTATUS.ClearBits(mask)
	}

	p.Cycle++
	if p.Cycle == NumCycles {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline == NumScanlines {
			p.Scanline = 0
			p.Frames++
		}
	}
}

/* PPU bus */

func (p *PPU) read8(addr uint16) uint8 {
	return p.vbus.Read8(addr & 0x3FFF)
}

func (p *PPU) write8(addr uint16, val uint8) {
	p.vbus.Write8(addr&0x3FFF, val)
}

// $2000-$3EFF
func (p *PPU) ReadNT(addr uint16) uint8       { return p.Nametables[p.ntOffset(addr)] }
func (p *PPU) WriteNT(addr uint16, val uint8) { p.Nametables[p.ntOffset(addr)] = val }

// $3F00-$3FFF
func (p *PPU) ReadPAL(addr uint16) uint8       { return p.Palettes[paletteOffset(addr)] }
func (p *PPU) WritePAL(addr uint16, val uint8) { p.Palettes[paletteOffset(addr)] = val }

// ntOffset maps a $2000-$3EFF address onto the 2KB nametable memory.
func (p *PPU) ntOffset(addr uint16) uint16 {
	addr = (addr - 0x2000) & 0x0FFF
	table, off := addr/0x400, addr%0x400

	switch p.mapper.Mirroring() {
	case ines.HorzMirroring:
		// $2000=$2400, $2800=$2C00
		table >>= 1
	default:
		// $2000=$2800, $2400=$2C00
		table &= 1
	}
	return table*0x400 + off
}

// paletteOffset maps a $3F00-$3FFF address onto the 32 bytes palette memory.
// The backdrop entries of sprite palettes mirror those of background palettes.
func paletteOffset(addr uint16) uint16 {
	addr &= 0x1F
	if addr >= 0x10 && addr&0x03 == 0 {
		addr -= 0x10
	}
	return addr
}

// AddLogContext adds the PPU position to log entries.
func (p *PPU) AddLogContext(entry *log.EntryZ) {
	entry.Int("scanline", p.Scanline).Int("cycle", p.Cycle)
}
