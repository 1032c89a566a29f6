package hw

import (
	"nescore/hw/hwio"
)

// bgRegs holds the background fetch latches and shift registers.
type bgRegs struct {
	// Latches, filled during the 8 cycles of a tile fetch.
	nt     uint8 // tile index
	at     uint8 // 2-bit palette attribute
	lo, hi uint8 // pattern planes

	// 16-bit shift registers. The high byte holds the tile being drawn, the
	// low byte is reloaded every 8 cycles with the next tile.
	patLo, patHi uint16
	atLo, atHi   uint16
}

func (bg *bgRegs) shift() {
	bg.patLo <<= 1
	bg.patHi <<= 1
	bg.atLo <<= 1
	bg.atHi <<= 1
}

func (bg *bgRegs) reload() {
	bg.patLo = bg.patLo&0xFF00 | uint16(bg.lo)
	bg.patHi = bg.patHi&0xFF00 | uint16(bg.hi)

	bg.atLo &= 0xFF00
	if bg.at&0b01 != 0 {
		bg.atLo |= 0xFF
	}
	bg.atHi &= 0xFF00
	if bg.at&0b10 != 0 {
		bg.atHi |= 0xFF
	}
}

// fetchBackground runs the background pipeline of a visible or pre-render
// scanline for the current cycle.
func (p *PPU) fetchBackground(prerender bool) {
	c := p.Cycle

	if (c >= 2 && c <= 257) || (c >= 321 && c <= 337) {
		p.bg.shift()

		switch (c - 1) % 8 {
		case 0:
			p.bg.reload()
			p.bg.nt = p.read8(0x2000 | uint16(p.vramAddr)&0x0FFF)
		case 2:
			v := p.vramAddr
			at := p.read8(0x23C0 | v.nametable()<<10 | v.coarseY()>>2<<3 | v.coarseX()>>2)
			if v.coarseY()&0x02 != 0 {
				at >>= 4
			}
			if v.coarseX()&0x02 != 0 {
				at >>= 2
			}
			p.bg.at = at & 0x03
		case 4:
			p.bg.lo = p.read8(p.bgPatternAddr())
		case 6:
			p.bg.hi = p.read8(p.bgPatternAddr() + 8)
		case 7:
			p.vramAddr.incX()
		}
	}

	switch {
	case c == 256:
		p.vramAddr.incY()
	case c == 257:
		p.vramAddr.copyX(p.vramTmp)
	case c == 338 || c == 340:
		// Unused nametable fetches.
		p.bg.nt = p.read8(0x2000 | uint16(p.vramAddr)&0x0FFF)
	case prerender && c >= 280 && c <= 304:
		p.vramAddr.copyY(p.vramTmp)
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	table := uint16(p.PPUCTRL.GetBiti(backgroundAddr)) << 12
	return table | uint16(p.bg.nt)<<4 | p.vramAddr.fineY()
}

// sprite is an entry of the secondary OAM, with its pattern already fetched.
type sprite struct {
	x      uint8
	attr   uint8
	lo, hi uint8 // pattern planes, horizontally flipped if needed
}

const (
	// sprite attribute bits
	sprPalette  = 0b11
	sprBehindBg = 5
	sprFlipH    = 6
	sprFlipV    = 7
)

func (p *PPU) spriteHeight() int {
	if p.PPUCTRL.GetBit(spriteSize) {
		return 16
	}
	return 8
}

// evalSprites selects, in OAM order, the first 8 sprites visible on the next
// scanline and fetches their patterns.
func (p *PPU) evalSprites() {
	height := p.spriteHeight()

	p.nsprites = 0
	p.sprite0in = false
	for i := 0; i < 64; i++ {
		entry := p.OAMMem[i*4 : i*4+4]

		// Sprite data is delayed by one scanline: a sprite at Y is displayed
		// starting from scanline Y+1.
		row := p.Scanline - int(entry[0])
		if row < 0 || row >= height {
			continue
		}

		if p.nsprites == len(p.sprites) {
			p.PPUSTATUS.SetBit(spriteOverflow)
			break
		}

		if i == 0 {
			p.sprite0in = true
		}

		spr := &p.sprites[p.nsprites]
		spr.x = entry[3]
		spr.attr = entry[2]
		spr.lo, spr.hi = p.fetchSpritePattern(entry[1], entry[2], row, height)
		p.nsprites++
	}
}

func (p *PPU) fetchSpritePattern(tile, attr uint8, row, height int) (lo, hi uint8) {
	if hwio.GetBit8(attr, sprFlipV) {
		row = height - 1 - row
	}

	var addr uint16
	if height == 8 {
		table := uint16(p.PPUCTRL.GetBiti(spriteAddr)) << 12
		addr = table | uint16(tile)<<4 | uint16(row)
	} else {
		// 8x16 sprites take their pattern table from bit 0 of the tile index.
		table := uint16(tile&1) << 12
		tile &= 0xFE
		if row > 7 {
			tile++
			row -= 8
		}
		addr = table | uint16(tile)<<4 | uint16(row)
	}

	lo = p.read8(addr)
	hi = p.read8(addr + 8)
	if hwio.GetBit8(attr, sprFlipH) {
		lo, hi = hwio.Reverse8(lo), hwio.Reverse8(hi)
	}
	return lo, hi
}

// bgPixel returns the 2-bit background pixel and its palette at column x.
func (p *PPU) bgPixel(x int) (pixel, palette uint8) {
	if !p.PPUMASK.GetBit(showBg) || (x < 8 && !p.PPUMASK.GetBit(leftmostBg)) {
		return 0, 0
	}

	mux := uint16(0x8000) >> p.finex
	if p.bg.patLo&mux != 0 {
		pixel |= 1
	}
	if p.bg.patHi&mux != 0 {
		pixel |= 2
	}
	if p.bg.atLo&mux != 0 {
		palette |= 1
	}
	if p.bg.atHi&mux != 0 {
		palette |= 2
	}
	return pixel, palette
}

// spritePixel returns the first opaque sprite pixel at column x, in secondary
// OAM order, and the sprite index.
func (p *PPU) spritePixel(x int) (pixel, palette uint8, behind bool, idx int) {
	if !p.PPUMASK.GetBit(showSprites) || (x < 8 && !p.PPUMASK.GetBit(leftmostSprites)) {
		return 0, 0, false, -1
	}

	for i := range p.nsprites {
		spr := &p.sprites[i]
		off := x - int(spr.x)
		if off < 0 || off > 7 {
			continue
		}

		shift := 7 - off
		pixel = (spr.lo>>shift)&1 | (spr.hi>>shift)&1<<1
		if pixel == 0 {
			continue
		}
		return pixel, 4 + spr.attr&sprPalette, hwio.GetBit8(spr.attr, sprBehindBg), i
	}
	return 0, 0, false, -1
}

// renderPixel composes the background and sprite pixels at the current dot.
func (p *PPU) renderPixel() {
	x, y := p.Cycle-1, p.Scanline

	bgpix, bgpal := p.bgPixel(x)
	sppix, sppal, behind, idx := p.spritePixel(x)

	var pixel, palette uint8
	switch {
	case bgpix == 0 && sppix == 0:
		// backdrop
	case bgpix == 0:
		pixel, palette = sppix, sppal
	case sppix == 0:
		pixel, palette = bgpix, bgpal
	default:
		if behind {
			pixel, palette = bgpix, bgpal
		} else {
			pixel, palette = sppix, sppal
		}
		if idx == 0 && p.sprite0in && x != 255 {
			p.PPUSTATUS.SetBit(sprite0Hit)
		}
	}

	color := p.Palettes[paletteOffset(uint16(palette)<<2|uint16(pixel))]
	if p.PPUMASK.GetBit(greyscale) {
		color &= 0x30
	}
	p.frames[p.back][y][x] = color & 0x3F
}
