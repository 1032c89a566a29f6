package hw

import (
	"fmt"
	"io"

	"nescore/hw/hwio"
	"nescore/hw/mappers"
	"nescore/ines"
)

// NES is a complete console: it owns all the components and maps them into
// the CPU address space.
//
//	$0000-$1FFF  2KB internal RAM, mirrored 4 times
//	$2000-$3FFF  PPU registers, mirrored every 8 bytes
//	$4014        OAM DMA
//	$4016-$4017  controller ports
//	$4000-$401F  APU and I/O registers (not emulated)
//	$4020-$FFFF  cartridge
type NES struct {
	CPU    *CPU
	PPU    *PPU
	Mapper mappers.Mapper

	bus  *hwio.Table // CPU address space
	RAM  hwio.Mem    `hwio:"offset=0x0000,size=0x800,vsize=0x2000"`
	cart hwio.Device

	dma   oamDMA
	input InputPorts

	ticks uint64 // PPU cycles since power-up or reset
}

// New creates a NES with the given cartridge inserted, and powers it up.
func New(rom *ines.Rom) (*NES, error) {
	m, err := mappers.Load(rom)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapper: %w", err)
	}
	return NewWithMapper(m), nil
}

// NewWithMapper creates a NES using m as cartridge, and powers it up.
func NewWithMapper(m mappers.Mapper) *NES {
	n := &NES{
		Mapper: m,
		bus:    hwio.NewTable("cpu"),
	}
	hwio.MustInitRegs(n)
	n.CPU = NewCPU(n)
	n.PPU = NewPPU(n, m)
	n.dma.initBus(n)
	n.input.initBus()
	n.initBus()
	n.Reset()
	return n
}

func (n *NES) initBus() {
	// CPU internal RAM, mirrored.
	n.bus.MapBank(0x0000, n, 0)

	// Map the 8 PPU registers (bank 1) from 0x2000 to 0x3FFF.
	for off := 0x2000; off < 0x4000; off += 8 {
		n.bus.MapBank(uint16(off), n.PPU, 1)
	}

	n.bus.MapBank(0x4000, &n.dma, 0)
	n.bus.MapBank(0x4000, &n.input, 0)

	n.cart = hwio.Device{
		Name:    "cartridge",
		Size:    0x10000 - 0x4020,
		ReadCb:  n.Mapper.ReadPRG,
		PeekCb:  n.Mapper.ReadPRG,
		WriteCb: n.Mapper.WritePRG,
	}
	n.bus.MapDevice(0x4020, &n.cart)
}

// Reset presses the reset button. RAM content survives it.
func (n *NES) Reset() {
	n.ticks = 0
	n.PPU.Reset()
	n.dma.reset()
	n.input.reset()
	n.CPU.Reset()
}

func (n *NES) Read8(addr uint16) uint8       { return n.bus.Read8(addr) }
func (n *NES) Write8(addr uint16, val uint8) { n.bus.Write8(addr, val) }
func (n *NES) Peek8(addr uint16) uint8       { return n.bus.Peek8(addr) }

// Raise delivers ev to its receiver, as a latched flag.
func (n *NES) Raise(ev Event) {
	switch ev {
	case EventNMI:
		n.CPU.TriggerNMI()
	case EventDMA:
		n.CPU.Suspend()
	case EventIRQ:
		n.CPU.SetIRQLine(true)
	case EventIRQAck:
		n.CPU.SetIRQLine(false)
	}
}

// Tick advances the whole system by one PPU cycle. The CPU runs one cycle
// every 3 ticks.
func (n *NES) Tick() {
	if n.ticks%3 == 0 {
		n.cpuTick()
	}
	n.PPU.Tick()
	n.ticks++
}

func (n *NES) cpuTick() {
	// DMA takes over the bus once the current instruction is over.
	if n.CPU.Suspended() && n.CPU.Idle() {
		if n.dma.process(n.CPU.Cycles) {
			n.CPU.Resume()
		}
		n.CPU.Stall()
		return
	}
	n.CPU.Step()
}

// RunFrame runs the system until the PPU completes the current frame.
func (n *NES) RunFrame() {
	frame := n.PPU.Frames
	for n.PPU.Frames == frame {
		n.Tick()
	}
}

// Frame returns a copy of the last completed frame.
func (n *NES) Frame() Frame { return n.PPU.Frame() }

// SetButtons sets the state of the paddle plugged into port (0 or 1).
func (n *NES) SetButtons(port int, b Buttons) {
	n.input.SetButtons(port, b)
}

// SetTraceOutput enables CPU execution tracing, nil disables it.
func (n *NES) SetTraceOutput(w io.Writer) {
	n.CPU.SetTraceOutput(w)
	if n.CPU.tracer != nil {
		n.CPU.tracer.ppu = n.PPU
	}
}
