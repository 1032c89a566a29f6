package hw

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/emu/log"
	"nescore/ines"
	"nescore/tests"
)

// lineWriter collects trace lines, the tracer emits each line with one Write.
type lineWriter struct {
	lines []string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.lines = append(w.lines, string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// traceLine holds the fields of a nestest.log line that don't depend on the
// disassembler flavor.
type traceLine struct {
	PC       string
	Bytes    string
	Mnemonic string
	Regs     string
	Timing   string
}

func parseTraceLine(line string, timing bool) traceLine {
	tl := traceLine{
		PC:       line[0:4],
		Bytes:    strings.TrimSpace(line[6:15]),
		Mnemonic: line[16:19],
	}
	if i := strings.Index(line, " A:"); i >= 0 && len(line) >= i+26 {
		tl.Regs = line[i+1 : i+26]
	}
	if i := strings.Index(line, "PPU:"); i >= 0 && timing {
		tl.Timing = line[i:]
	}
	return tl
}

func TestNestest(t *testing.T) {
	log.SetOutput(io.Discard)

	dir := filepath.Join(tests.RomsPath(t), "other")
	rom, err := ines.ReadRom(filepath.Join(dir, "nestest.nes"))
	tcheck(t, err)

	golden, err := os.ReadFile(filepath.Join(dir, "nestest.log"))
	tcheck(t, err)

	var want []string
	for _, line := range strings.Split(string(golden), "\n") {
		line = strings.TrimRight(line, "\r")
		// Stop at the first unofficial opcode, marked with '*'.
		if len(line) < 48 || line[15] == '*' {
			break
		}
		want = append(want, line)
	}

	nes, err := New(rom)
	tcheck(t, err)

	// In automation mode execution starts at $C000 instead of $C004.
	nes.CPU.PC = 0xC000

	var out lineWriter
	nes.SetTraceOutput(&out)

	const maxTicks = 10_000_000
	for i := 0; len(out.lines) <= len(want); i++ {
		if i == maxTicks {
			t.Fatalf("nestest didn't reach line %d, stuck at $%04X", len(want), nes.CPU.PC)
		}
		nes.Tick()
	}

	// The newer nestest.log layout carries the PPU position and cycle count.
	timing := strings.Contains(want[0], "PPU:")
	for i := range want {
		w := parseTraceLine(want[i], timing)
		g := parseTraceLine(out.lines[i], timing)
		if diff := cmp.Diff(w, g); diff != "" {
			t.Fatalf("nestest.log line %d mismatch (-want +got):\n%s\ngot:  %s\nwant: %s",
				i+1, diff, out.lines[i], want[i])
		}
	}

	// nestest reports failures of the official opcodes tests in $02.
	if res := nes.Read8(0x02); res != 0 {
		t.Errorf("nestest failed with code 0x%02X", res)
	}
}
