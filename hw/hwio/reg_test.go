package hwio

import "testing"

func TestReg8(t *testing.T) {
	r := Reg8{Name: "PPUSTATUS", Value: 0x11}

	r.SetBit(7)
	if r.Value != 0x91 {
		t.Errorf("SetBit(7): got %02x", r.Value)
	}
	if !r.GetBit(4) || r.GetBiti(4) != 1 {
		t.Errorf("GetBit(4) should be set")
	}
	r.ClearBit(0)
	if r.Value != 0x90 {
		t.Errorf("ClearBit(0): got %02x", r.Value)
	}
	r.ClearBits(0xF0)
	if r.Value != 0 {
		t.Errorf("ClearBits(F0): got %02x", r.Value)
	}
	r.WriteBit(5, true)
	if r.String() != "PPUSTATUS{20}" {
		t.Errorf("String() = %s", r.String())
	}
}

func TestReg8Callbacks(t *testing.T) {
	var wold, wval uint8
	r := Reg8{
		Name:    "REG",
		Value:   0x0F,
		RoMask:  0x0F,
		ReadCb:  func(val uint8) uint8 { return val + 1 },
		WriteCb: func(old, val uint8) { wold, wval = old, val },
	}
	if s := r.String(); s != "REG{0f,r!,w!}" {
		t.Errorf("String() = %s", s)
	}

	r.Write8(0, 0xA0)
	if r.Value != 0xAF {
		t.Errorf("Value = %02X, want AF (low bits are read-only)", r.Value)
	}
	if wold != 0x0F || wval != 0xA0 {
		t.Errorf("WriteCb(%02X, %02X), want (0F, A0)", wold, wval)
	}
	if got := r.Read8(0); got != 0xB0 {
		t.Errorf("Read8 = %02X, want B0", got)
	}
	// Without PeekCb, peeking returns the stored value.
	if got := r.Peek8(0); got != 0xAF {
		t.Errorf("Peek8 = %02X, want AF", got)
	}
}

func TestReg8Flags(t *testing.T) {
	ro := Reg8{Name: "RO", Value: 0x12, Flags: ReadOnlyFlag}
	ro.Write8(0, 0xFF)
	if ro.Value != 0x12 {
		t.Errorf("readonly reg was written: %02X", ro.Value)
	}

	wo := Reg8{Name: "WO", Flags: WriteOnlyFlag}
	wo.Write8(0, 0x34)
	if got := wo.Read8(0); got != 0 {
		t.Errorf("Read8 from writeonly reg = %02X, want 0", got)
	}
	if got := wo.Peek8(0); got != 0 {
		t.Errorf("Peek8 from writeonly reg = %02X, want 0", got)
	}
}

func TestReverse8(t *testing.T) {
	tests := []struct{ in, want uint8 }{
		{0x00, 0x00},
		{0x01, 0x80},
		{0xF0, 0x0F},
		{0b1100_1010, 0b0101_0011},
	}
	for _, tt := range tests {
		if got := Reverse8(tt.in); got != tt.want {
			t.Errorf("Reverse8(%08b) = %08b, want %08b", tt.in, got, tt.want)
		}
	}
}

func TestSamePage(t *testing.T) {
	if !SamePage(0x12FF, 0x1200) {
		t.Errorf("12FF and 1200 share a page")
	}
	if SamePage(0x12FF, 0x1300) {
		t.Errorf("12FF and 1300 don't share a page")
	}
}
