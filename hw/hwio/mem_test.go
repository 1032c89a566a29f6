package hwio

import "testing"

func TestMemMirroring(t *testing.T) {
	m := NewMem("ram", 0x800, 0x2000)
	if m.VSize != 0x2000 {
		t.Errorf("VSize = %#x, want 0x2000", m.VSize)
	}

	m.Write8(0x0012, 0x34)
	for _, addr := range []uint16{0x0012, 0x0812, 0x1012, 0x1812} {
		if got := m.Read8(addr); got != 0x34 {
			t.Errorf("Read8(%04X) = %02X, want 34", addr, got)
		}
	}

	m.Write8(0x1FFF, 0x99)
	if got := m.Peek8(0x07FF); got != 0x99 {
		t.Errorf("Peek8(07FF) = %02X, want 99", got)
	}
}

func TestNewMemPanicsOnNonPow2(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewMem should panic with non power of 2 size")
		}
	}()
	NewMem("bad", 0x600, 0)
}

func TestRead16(t *testing.T) {
	m := NewMem("ram", 0x100, 0)
	m.Data[0xFF] = 0xEF
	m.Data[0x00] = 0xBE
	if got := Read16(&m, 0xFF); got != 0xBEEF {
		t.Errorf("Read16 = %04X, want BEEF", got)
	}
}
