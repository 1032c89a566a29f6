package hw

import (
	"io"

	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// Number of cycles taken by the hardware interrupt sequences (and RESET).
const interruptCycles = 7

// CPU is the 2A03 processor core (6502 without decimal mode). Instructions are
// executed atomically on their first cycle, their remaining cycles are then
// spent idle, one per call to Step.
type CPU struct {
	bus Bus

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	Cycles int64 // CPU cycles since power-up
	cycles int   // cycles left for the current instruction

	// interrupt lines
	nmiPending bool // edge triggered, sticky until serviced
	irqLine    bool // level triggered

	// set during an OAM DMA transfer.
	suspended bool

	// Non-nil when execution tracing is enabled.
	tracer *tracer
}

// NewCPU creates a new CPU at power-up state.
func NewCPU(bus Bus) *CPU {
	return &CPU{
		bus: bus,
		SP:  0x00,
		P:   Unused | Interrupt,
	}
}

// Reset runs the RESET sequence. The stack pointer is decremented by 3 as if 3
// bytes were pushed, but nothing is written to memory.
func (c *CPU) Reset() {
	c.SP -= 3
	c.P.setI(true)
	c.PC = hwio.Read16(c.bus, ResetVector)
	c.cycles = interruptCycles
	c.nmiPending = false
	c.suspended = false

	log.ModCPU.InfoZ("Reset").Hex16("PC", c.PC).Hex8("SP", c.SP).End()
}

// Step runs one CPU cycle. A new instruction, or an interrupt sequence, only
// starts once the current one has consumed all its cycles.
func (c *CPU) Step() {
	if c.cycles == 0 {
		switch {
		case c.nmiPending:
			c.nmiPending = false
			c.NMI()
		case c.irqLine && !c.P.I():
			c.IRQ()
		default:
			c.execute()
		}
	}

	c.cycles--
	c.Cycles++
}

// StepInstruction runs the CPU until the end of the next instruction (or
// interrupt sequence) and returns the number of cycles it took.
func (c *CPU) StepInstruction() int {
	start := c.Cycles
	c.Step()
	for c.cycles > 0 {
		c.Step()
	}
	return int(c.Cycles - start)
}

// Idle reports whether the CPU is between 2 instructions.
func (c *CPU) Idle() bool { return c.cycles == 0 }

// Suspend stops instruction processing, the CPU cycles are then spent by
// another bus master (OAM DMA).
func (c *CPU) Suspend()        { c.suspended = true }
func (c *CPU) Resume()         { c.suspended = false }
func (c *CPU) Suspended() bool { return c.suspended }

// Stall accounts for a CPU cycle during which the CPU didn't process anything.
func (c *CPU) Stall() { c.Cycles++ }

// TriggerNMI latches an NMI, serviced at the next instruction boundary.
func (c *CPU) TriggerNMI() { c.nmiPending = true }

// SetIRQLine sets the level of the IRQ line.
func (c *CPU) SetIRQLine(on bool) { c.irqLine = on }

func (c *CPU) execute() {
	c.traceOp()

	code := c.bus.Read8(c.PC)
	c.PC++

	op := &opcodes[code]
	c.cycles += int(op.Cycles)

	oper, crossed := c.resolve(op.Mode)
	if crossed && op.PageCycle {
		c.cycles++
	}
	if op.Name == ILL {
		log.ModCPU.DebugZ("illegal opcode").
			Hex8("opcode", code).
			Hex16("PC", c.PC-1).
			End()
	}

	ops[op.Name](c, oper)
}

func (c *CPU) traceOp() {
	if c.tracer != nil {
		c.tracer.write(cpuState{
			A:     c.A,
			X:     c.X,
			Y:     c.Y,
			P:     c.P,
			SP:    c.SP,
			PC:    c.PC,
			Clock: c.Cycles,
		})
	}
}

/* bus access */

func (c *CPU) fetch8() uint8 {
	val := c.bus.Read8(c.PC)
	c.PC++
	return val
}

func (c *CPU) fetch16() uint16 {
	val := hwio.Read16(c.bus, c.PC)
	c.PC += 2
	return val
}

// read16zp reads a pointer in zero page, wrapping within the page.
func (c *CPU) read16zp(addr uint8) uint16 {
	lo := c.bus.Read8(uint16(addr))
	hi := c.bus.Read8(uint16(addr + 1))
	return uint16(hi)<<8 | uint16(lo)
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	top := uint16(c.SP) + 0x0100
	c.bus.Write8(top, val)
	c.SP -= 1
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val & 0xff))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	top := uint16(c.SP) + 0x0100
	return c.bus.Read8(top)
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

/* interrupt handling */

// NMI runs the non-maskable interrupt sequence.
func (c *CPU) NMI() {
	c.interrupt(NMIVector)
	log.ModCPU.DebugZ("NMI").Hex16("PC", c.PC).End()
}

// IRQ runs the interrupt request sequence, unless interrupts are disabled.
func (c *CPU) IRQ() {
	if c.P.I() {
		return
	}
	c.interrupt(IRQVector)
	log.ModCPU.DebugZ("IRQ").Hex16("PC", c.PC).End()
}

func (c *CPU) interrupt(vector uint16) {
	c.push16(c.PC)
	c.push8(c.P.pushed(false))
	c.P.setI(true)
	c.PC = hwio.Read16(c.bus, vector)
	c.cycles += interruptCycles
}

/* tracing */

// SetTraceOutput enables execution tracing to w, a nil writer disables it.
func (c *CPU) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, bus: c.bus}
}
