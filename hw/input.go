package hw

import (
	"fmt"
	"strings"

	"nescore/emu/log"
	"nescore/hw/hwio"
)

// A PaddleButton identifies a button of a standard NES controller/paddle.
type PaddleButton byte

const (
	PadA PaddleButton = iota
	PadB
	PadSelect
	PadStart
	PadUp
	PadDown
	PadLeft
	PadRight

	PadButtonCount
)

var buttonNames = [PadButtonCount]string{
	"A", "B",
	"Select", "Start",
	"Up", "Down", "Left", "Right",
}

func (pd PaddleButton) String() string {
	if pd >= PadButtonCount {
		return fmt.Sprintf("PaddleButton(%d)", uint8(pd))
	}
	return buttonNames[pd]
}

// Buttons is the state of all the buttons of a paddle, one bit per button, in
// the order they're reported serially (bit 0 is A).
type Buttons uint8

func (b Buttons) Pressed(btn PaddleButton) bool { return b&(1<<btn) != 0 }

func (b *Buttons) Set(btn PaddleButton, pressed bool) {
	if pressed {
		*b |= 1 << btn
	} else {
		*b &^= 1 << btn
	}
}

func (b Buttons) String() string {
	var names []string
	for btn := range PadButtonCount {
		if b.Pressed(btn) {
			names = append(names, btn.String())
		}
	}
	return strings.Join(names, "|")
}

// ParseButtons parses a list of button names (case insensitive).
func ParseButtons(names []string) (Buttons, error) {
	var b Buttons
outer:
	for _, name := range names {
		for btn := range PadButtonCount {
			if strings.EqualFold(name, btn.String()) {
				b.Set(btn, true)
				continue outer
			}
		}
		return 0, fmt.Errorf("unknown button %q", name)
	}
	return b, nil
}

// InputPorts handles I/O with the 2 controller ports ($4016/$4017).
type InputPorts struct {
	In  hwio.Reg8 `hwio:"offset=0x16,rcb,pcb,wcb"`
	Out hwio.Reg8 `hwio:"offset=0x17,rcb,pcb"`

	buttons [2]Buttons // current state, set by the input provider

	prevStrobe, strobe bool     // to observe strobe falling edge.
	state              [2]uint8 // state shift registers.
}

func (ip *InputPorts) initBus() {
	hwio.MustInitRegs(ip)
}

// SetButtons sets the state of the paddle plugged into port (0 or 1). Other
// ports are ignored.
func (ip *InputPorts) SetButtons(port int, b Buttons) {
	if port < 0 || port >= len(ip.buttons) {
		log.ModInput.WarnZ("no such controller port").Int("port", port).End()
		return
	}
	ip.buttons[port] = b
}

// capture state of all connected input devices.
func (ip *InputPorts) loadstate() {
	ip.state[0] = uint8(ip.buttons[0])
	ip.state[1] = uint8(ip.buttons[1])
	log.ModInput.DebugZ("latch buttons").
		Stringer("port1", ip.buttons[0]).
		Stringer("port2", ip.buttons[1]).
		End()
}

func (ip *InputPorts) regval(port uint8) uint8 {
	if ip.strobe {
		ip.loadstate()
	}

	ret := ip.state[port] & 1
	ip.state[port] >>= 1

	// After 8 bits are read, all subsequent bits will report 1 on a standard
	// NES controller.
	ip.state[port] |= 0x80

	// Emulate open bus behavior.
	return 0x40 | ret
}

// In: $4016
func (ip *InputPorts) WriteIN(_, val uint8) {
	ip.prevStrobe = ip.strobe
	ip.strobe = val&1 == 1
	log.ModInput.DebugZ("strobe").Bool("on", ip.strobe).End()
	if ip.prevStrobe && !ip.strobe {
		ip.loadstate()
	}
}

// In: $4016, port 1
func (ip *InputPorts) ReadIN(_ uint8) uint8 {
	val := ip.regval(0)
	log.ModInput.DebugZ("read port").Int("port", 0).Hex8("val", val).End()
	return val
}

func (ip *InputPorts) PeekIN(_ uint8) uint8 { return 0x40 | ip.state[0]&1 }

// Out: $4017, port 2
func (ip *InputPorts) ReadOUT(_ uint8) uint8 {
	val := ip.regval(1)
	log.ModInput.DebugZ("read port").Int("port", 1).Hex8("val", val).End()
	return val
}

func (ip *InputPorts) PeekOUT(_ uint8) uint8 { return 0x40 | ip.state[1]&1 }

func (ip *InputPorts) reset() {
	ip.prevStrobe, ip.strobe = false, false
	ip.state = [2]uint8{}
}
