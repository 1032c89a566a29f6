// Package hw emulates the NES hardware: 2A03 CPU, 2C02 PPU, OAM DMA and
// controller ports, wired together by NES.
package hw

// Event is a signal raised by a component for another one. Events are
// latched into sticky flags, never delivered by direct calls, so their effect
// lands at the next cycle boundary of the receiving component.
type Event uint8

const (
	// EventNMI asserts the CPU NMI line (PPU vblank).
	EventNMI Event = iota + 1
	// EventDMA requests the CPU to suspend itself for an OAM DMA transfer.
	EventDMA
	// EventIRQ asserts the CPU IRQ line. The line stays asserted, and the IRQ
	// is taken again after each RTI, until the source raises EventIRQAck.
	EventIRQ
	// EventIRQAck releases the CPU IRQ line.
	EventIRQAck
)

func (ev Event) String() string {
	switch ev {
	case EventNMI:
		return "NMI"
	case EventDMA:
		return "DMA"
	case EventIRQ:
		return "IRQ"
	case EventIRQAck:
		return "IRQAck"
	}
	return "Event(?)"
}

// Bus is the CPU address space, plus the signaling channel between the
// components sharing it.
type Bus interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
	Raise(ev Event)
}

// A peeker provides side-effect free reads, for tracing.
type peeker interface {
	Peek8(addr uint16) uint8
}
