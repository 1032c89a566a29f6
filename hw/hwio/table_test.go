package hwio_test

import (
	"strings"
	"testing"

	"nescore/hw/hwio"
)

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	// mapped to $0000-$07FF, mirrored up to $1FFF
	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x800,vsize=0x2000"`

	// $2000
	Reg0 hwio.Reg8 `hwio:"bank=1,offset=0x0,reset=0x77"`
	// $2001
	Reg1 hwio.Reg8 `hwio:"bank=1,offset=0x1,rwmask=0xF0,rcb,reset=0x99"`
	// $2002
	Reg2 hwio.Reg8 `hwio:"bank=1,offset=0x2,rwmask=0xF0,readonly,pcb=PeekReg2"`
	// $2003
	Reg3 hwio.Reg8 `hwio:"bank=1,offset=0x3,writeonly,wcb"`

	// $4000-$40FF
	DefaultDev hwio.Device `hwio:"bank=2,offset=0x0,size=0x100"`
	// $4100-$41FF
	DEV hwio.Device `hwio:"bank=2,offset=0x100,size=0x100,rcb,wcb"` // no peek-callback
	// $4200-$42FF
	RoDEV hwio.Device `hwio:"bank=2,offset=0x200,size=0x100,rcb,pcb,readonly"`

	// not part of any bank
	Latch hwio.Reg8 `hwio:"reset=0x42"`

	devval uint8
	reg3   [2]uint8
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	hwio.MustInitRegs(tbl)

	tbl.Bus = hwio.NewTable("bus")
	tbl.Bus.MapBank(0x0000, tbl, 0)
	tbl.Bus.MapBank(0x2000, tbl, 1)
	tbl.Bus.MapBank(0x4000, tbl, 2)
	return tbl
}

// $2001
func (tbl *testTable) ReadREG1(val uint8) uint8 { return tbl.Reg1.Value + 1 }

// $2002
func (tbl *testTable) PeekReg2(val uint8) uint8 { return 0x12 }

// $2003
func (tbl *testTable) WriteREG3(old, val uint8) { tbl.reg3 = [2]uint8{old, val} }

// $4100-41FF
func (tbl *testTable) ReadDEV(addr uint16) uint8       { return 0xE1 }
func (tbl *testTable) WriteDEV(addr uint16, val uint8) { tbl.devval = uint8(addr) & val }

// $4200-42FF
func (tbl *testTable) ReadRODEV(addr uint16) uint8 { return 0xC5 }
func (tbl *testTable) PeekRODEV(addr uint16) uint8 { return 0xC8 }

func (tbl *testTable) wantRead8(addr uint16, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Read8(addr); got != want {
		tbl.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func (tbl *testTable) Write8(addr uint16, val uint8) {
	tbl.Bus.Write8(addr, val)
}

func (tbl *testTable) wantPeek8(addr uint16, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Peek8(addr); got != want {
		tbl.t.Errorf("Peek8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableMem(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x00, 0)
	tbl.Write8(0x00, 0x12)
	tbl.wantRead8(0x00, 0x12)
	tbl.wantRead8(0x800, 0x12)
	tbl.wantPeek8(0x1800, 0x12)

	tbl.Write8(0x1FFF, 0x34)
	tbl.wantRead8(0x07FF, 0x34)
}

func TestTableRegs(t *testing.T) {
	tbl := newTestTable(t)

	// Reg0
	tbl.wantRead8(0x2000, 0x77)
	tbl.Write8(0x2000, 0x55)
	tbl.wantPeek8(0x2000, 0x55)

	// Reg1
	tbl.wantRead8(0x2001, 0x9a)
	tbl.Write8(0x2001, 0xff)
	tbl.wantRead8(0x2001, 0xfa)
	tbl.Write8(0x2001, 0xF0)
	tbl.wantRead8(0x2001, 0xfa)
	tbl.Write8(0x2001, 0x0F)
	tbl.wantRead8(0x2001, 0x0A)

	// Reg2
	tbl.wantRead8(0x2002, 0x00)
	tbl.wantPeek8(0x2002, 0x12)
	tbl.Write8(0x2002, 0x9b)
	tbl.wantRead8(0x2002, 0x00)
	tbl.wantPeek8(0x2002, 0x12)

	// Reg3
	tbl.Write8(0x2003, 0x3C)
	tbl.Write8(0x2003, 0x4D)
	if tbl.reg3 != [2]uint8{0x3C, 0x4D} {
		t.Errorf("WriteREG3(%02X, %02X), want (3C, 4D)", tbl.reg3[0], tbl.reg3[1])
	}
	tbl.wantRead8(0x2003, 0x00)
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x2020, 0x00)
	tbl.wantPeek8(0x2020, 0x00)
	tbl.Write8(0x2020, 0xFF)
	tbl.wantRead8(0x2020, 0x00)

	if tbl.Latch.Value != 0x42 {
		t.Errorf("Latch = %02X, want 42", tbl.Latch.Value)
	}
}

func TestTableMapDevice(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x4000, 0xff)
	tbl.wantRead8(0x4000, 0x00)
	tbl.wantPeek8(0x4000, 0x00)

	tbl.wantRead8(0x4100, 0xe1)
	tbl.wantPeek8(0x4100, 0x00)
	tbl.Write8(0x4120, 0x27)
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead8(0x4200, 0xc5)
	tbl.wantPeek8(0x4200, 0xc8)
	tbl.Write8(0x4200, 0xff) // readonly
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}
}

func TestTableMirroredBank(t *testing.T) {
	tbl := &testTable{t: t}
	hwio.MustInitRegs(tbl)
	tbl.Bus = hwio.NewTable("bus")
	for off := 0x2000; off < 0x4000; off += 8 {
		tbl.Bus.MapBank(uint16(off), tbl, 1)
	}

	tbl.Write8(0x3FF8, 0x66)
	tbl.wantRead8(0x2000, 0x66)
	tbl.wantRead8(0x2008, 0x66)
	tbl.wantRead8(0x2004, 0x00) // hole in the bank
}

func TestTableOverlap(t *testing.T) {
	tbl := newTestTable(t)

	defer func() {
		err := recover()
		if err == nil {
			t.Fatal("mapping over a mapped address should panic")
		}
		if !strings.Contains(err.(error).Error(), "already mapped") {
			t.Errorf("unexpected panic: %v", err)
		}
	}()
	tbl.Bus.MapReg8(0x2001, &hwio.Reg8{Name: "dup"})
}

func TestMustInitRegsErrors(t *testing.T) {
	tests := []struct {
		name string
		bank any
		want string
	}{
		{
			name: "missing method",
			bank: &struct {
				R hwio.Reg8 `hwio:"offset=0,rcb"`
			}{},
			want: "missing method ReadR",
		},
		{
			name: "bad option",
			bank: &struct {
				R hwio.Reg8 `hwio:"offset=0,nope"`
			}{},
			want: `unknown option "nope"`,
		},
		{
			name: "mem size",
			bank: &struct {
				M hwio.Mem `hwio:"offset=0,size=0x300"`
			}{},
			want: "not a power of 2",
		},
		{
			name: "unsupported type",
			bank: &struct {
				X uint8 `hwio:"offset=0"`
			}{},
			want: "unsupported type",
		},
		{
			name: "not a pointer",
			bank: testTable{},
			want: "not a pointer to struct",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				err := recover()
				if err == nil {
					t.Fatal("MustInitRegs should panic")
				}
				if !strings.Contains(err.(error).Error(), tt.want) {
					t.Errorf("panic %q does not contain %q", err, tt.want)
				}
			}()
			hwio.MustInitRegs(tt.bank)
		})
	}
}
