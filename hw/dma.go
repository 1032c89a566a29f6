package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// oamDMA handles the DMA transfer of OAM (sprites attributes) to the PPU. It
// masters the bus in place of the CPU, one CPU cycle at a time.
type oamDMA struct {
	bus Bus

	OAMDMA hwio.Reg8 `hwio:"offset=0x14,writeonly,wcb"`

	page       uint8
	addr       uint8
	data       uint8
	inProgress bool

	// Since DMA can only be started on an even CPU cycle, we use a dummy cycle
	// to align the transfer with an even cycle.
	dummy bool
}

func (dma *oamDMA) initBus(bus Bus) {
	hwio.MustInitRegs(dma)
	dma.bus = bus
}

func (dma *oamDMA) reset() {
	dma.page = 0x00
	dma.addr = 0x00
	dma.data = 0x00
	dma.dummy = true
	dma.inProgress = false
}

// OAMDMA: $4014. The CPU is suspended as soon as its current instruction is
// over.
func (dma *oamDMA) WriteOAMDMA(_, val uint8) {
	log.ModDMA.InfoZ("Write to OAMDMA reg").Hex8("val", val).End()
	dma.page = val
	dma.addr = 0x00
	dma.dummy = true
	dma.inProgress = true
	dma.bus.Raise(EventDMA)
}

// process runs one CPU cycle of the transfer, cpuTicks being the CPU cycle
// count. It reports whether the transfer is over.
func (dma *oamDMA) process(cpuTicks int64) (done bool) {
	if !dma.inProgress {
		return true
	}

	const (
		even = 0
		odd  = 1
	)

	// The first cycle is always idle.
	// On odd cycle count we add an extra idle cycle.
	if dma.dummy {
		if cpuTicks%2 == odd {
			dma.dummy = false
			log.ModDMA.DebugZ("Begin PPU DMA transfer").
				Hex8("page", dma.page).
				Int64("ticks", cpuTicks).
				End()
		}
		return false
	}

	switch cpuTicks % 2 {
	case even:
		// Read from CPU bus
		addr := uint16(dma.page)<<8 | uint16(dma.addr)
		dma.data = dma.bus.Read8(addr)

	case odd:
		// Write to PPU OAM, through OAMDATA.
		dma.bus.Write8(0x2004, dma.data)
		dma.addr++
		// When this wraps around we know that 256 bytes have been written.
		if dma.addr == 0x00 {
			log.ModDMA.DebugZ("Ending PPU DMA transfer").
				Hex8("page", dma.page).
				Int64("ticks", cpuTicks).
				End()
			dma.inProgress = false
			dma.dummy = true
			return true
		}
	}
	return false
}
