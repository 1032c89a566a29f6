package hw

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

/* general testing helpers */

func tcheck(tb testing.TB, err error) {
	if err == nil {
		return
	}

	tb.Helper()
	tb.Fatalf("fatal error:\n\n%s\n", err)
}

// testBus is a flat 64KB address space, recording raised events.
type testBus struct {
	mem    [0x10000]uint8
	events []Event
}

func (b *testBus) Read8(addr uint16) uint8         { return b.mem[addr] }
func (b *testBus) Write8(addr uint16, val uint8)   { b.mem[addr] = val }
func (b *testBus) Raise(ev Event)                  { b.events = append(b.events, ev) }
func (b *testBus) load(addr uint16, data ...uint8) { copy(b.mem[addr:], data) }

/* cpu specific testing helpers */

func wantMem8(t *testing.T, cpu *CPU, addr uint16, want uint8) {
	t.Helper()

	if got := cpu.bus.Read8(addr); got != want {
		t.Errorf("$%04X = %02X want %02X", addr, got, want)
	}
}

func wantMem(t *testing.T, cpu *CPU, dl dumpline) {
	t.Helper()

	want := dl.bytes[:dl.len]
	mem := []byte{}
	for i := range want {
		mem = append(mem, cpu.bus.Read8(dl.off+uint16(i)))
	}

	if !bytes.Equal(mem, want) {
		t.Errorf("mem mismatch at 0x%04x.\ngot:  % x\nwant: % x", dl.off, mem, want)
	}
}

func asInt(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	}
	panic(fmt.Sprintf("unexpected state value type %T", v))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// runAndCheckState runs whole instructions for at least ncycles and then
// checks the CPU state. states are pairs of name and wanted value.
func runAndCheckState(t *testing.T, cpu *CPU, ncycles int64, states ...any) {
	t.Helper()

	if len(states)%2 != 0 {
		panic("odd number of states")
	}

	checkbit := func(name string, got, want int) {
		t.Helper()
		if got != want {
			t.Errorf("got %s=%d, want %d", name, got, want)
		}
	}
	checkuint8 := func(name string, got uint8, want int) {
		t.Helper()
		if got != uint8(want) {
			t.Errorf("got %s=$%02X, want $%02X", name, got, want)
		}
	}
	checkuint16 := func(name string, got uint16, want int) {
		t.Helper()
		if got != uint16(want) {
			t.Errorf("got %s=$%04X, want $%04X", name, got, want)
		}
	}

	if testing.Verbose() {
		cpu.SetTraceOutput(tbwriter{t})
		defer cpu.SetTraceOutput(nil)
	}

	until := cpu.Cycles + ncycles
	for cpu.Cycles < until {
		cpu.StepInstruction()
	}

	for i := 0; i < len(states); i += 2 {
		s := states[i].(string)
		switch {
		case s == "A":
			checkuint8("A", cpu.A, asInt(states[i+1]))
		case s == "X":
			checkuint8("X", cpu.X, asInt(states[i+1]))
		case s == "Y":
			checkuint8("Y", cpu.Y, asInt(states[i+1]))
		case s == "PC":
			checkuint16("PC", cpu.PC, asInt(states[i+1]))
		case s == "SP":
			checkuint8("SP", cpu.SP, asInt(states[i+1]))
		case s == "P":
			if got, want := uint8(cpu.P), uint8(asInt(states[i+1])); got != want {
				t.Errorf("got P=$%02X(%s), want $%02X(%s)", got, P(got), want, P(want))
			}
		case len(s) > 1 && s[0] == 'P':
			for j := 1; j < len(s); j++ {
				bit := asInt(states[i+1])
				switch s[j] {
				case 'n':
					checkbit("Pn", b2i(cpu.P.N()), bit)
				case 'v':
					checkbit("Pv", b2i(cpu.P.V()), bit)
				case 'b':
					checkbit("Pb", b2i(cpu.P.B()), bit)
				case 'd':
					checkbit("Pd", b2i(cpu.P.D()), bit)
				case 'i':
					checkbit("Pi", b2i(cpu.P.I()), bit)
				case 'z':
					checkbit("Pz", b2i(cpu.P.Z()), bit)
				case 'c':
					checkbit("Pc", b2i(cpu.P.C()), bit)
				default:
					panic("unknown P bit: " + string(s[j]))
				}
			}
		case s == "mem":
			lines := loadDump(t, states[i+1].(string))
			for _, line := range lines {
				wantMem(t, cpu, line)
			}

		default:
			panic("unknown state: " + s)
		}
	}

	if t.Failed() {
		t.FailNow()
	}
}

type dumpline struct {
	off   uint16
	len   uint16 // actual length
	bytes []byte // pow2 sized (padded with 0)
}

func loadDump(tb testing.TB, dump string) []dumpline {
	tb.Helper()

	var lines []dumpline
	scan := bufio.NewScanner(strings.NewReader(dump))
	for scan.Scan() {
		line := scan.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		off, octets, ok := strings.Cut(line, ":")
		if !ok {
			tb.Fatalf("malformed line: %s", line)
		}

		ioff, err := strconv.ParseUint(off, 16, 16)
		if err != nil {
			tb.Fatalf("malformed offset %s: %s", off, err)
		}
		var buf []byte
		for _, c := range octets {
			if c != ' ' {
				buf = append(buf, byte(c))
			}
		}
		n, err := hex.Decode(buf, buf)
		if err != nil {
			tb.Fatalf("hex decode: %s", err)
		}
		// clear the rest of the buffer
		nbytes := nextpow2(uint64(n))
		for i := uint64(n); i < nbytes; i++ {
			buf[i] = 0
		}
		lines = append(lines, dumpline{off: uint16(ioff), len: uint16(n), bytes: buf[:nbytes]})
	}
	if scan.Err() != nil {
		tb.Fatalf("scan error: %s", scan.Err())
	}

	return lines
}

func nextpow2(v uint64) uint64 {
	v--
	v |= v>>1 | v>>2 | v>>4 | v>>8 | v>>16 | v>>32
	return v + 1
}

// loadCPUWith loads a CPU with a memory dump, resets it and lets the reset
// sequence complete.
func loadCPUWith(tb testing.TB, dump string) *CPU {
	tb.Helper()

	bus := &testBus{}
	for _, line := range loadDump(tb, dump) {
		bus.load(line.off, line.bytes[:line.len]...)
	}

	cpu := NewCPU(bus)
	cpu.Reset()
	for !cpu.Idle() {
		cpu.Step()
	}
	cpu.Cycles = 0
	return cpu
}

type tbwriter struct {
	testing.TB
}

func (t tbwriter) Write(p []byte) (int, error) {
	t.TB.Helper()
	t.TB.Log(string(bytes.TrimSpace((p))))
	return len(p), nil
}

func TestLoadDump(t *testing.T) {
	tests := []struct {
		dump string
		want []dumpline
	}{
		{
			dump: `01f0: 0f 0e 0d`,
			want: []dumpline{
				{0x01f0, 3, []byte{0x0f, 0x0e, 0x0d, 0x00}},
			},
		},
		{
			dump: `
# comment
01f0: 0f 0e 0d 0c 0b 0a 09 08 07 06 05 04 03 02 01 00
0210: 0f 0e 0d 0c 0b 0a 09 08 07 06 05 04 03 02 01 00
`,
			want: []dumpline{
				{0x01f0, 16, []byte{0x0f, 0x0e, 0x0d, 0x0c, 0x0b, 0x0a, 0x09, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0x00}},
				{0x0210, 16, []byte{0x0f, 0x0e, 0x0d, 0x0c, 0x0b, 0x0a, 0x09, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0x00}},
			},
		},
		{
			dump: `01f0: 0f 0e 0d 0c 0b 0a 09 08 07 06 05 04 03 02 01`,
			want: []dumpline{
				{0x01f0, 15, []byte{0x0f, 0x0e, 0x0d, 0x0c, 0x0b, 0x0a, 0x09, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0x00}},
			},
		},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := loadDump(t, tt.dump)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].off != tt.want[i].off || got[i].len != tt.want[i].len {
					t.Errorf("got offset/len %04X/%d, want %04X/%d", got[i].off, got[i].len, tt.want[i].off, tt.want[i].len)
				}
				if diff := cmp.Diff(tt.want[i].bytes, got[i].bytes); diff != "" {
					t.Fatalf("bytes mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
