package emu

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"nescore/ines"
)

// writeTestRom writes an NROM image whose program enables the background, with
// backdrop color bg, and loops forever. It returns the rom path.
func writeTestRom(t testing.TB, dir string, bg uint8) string {
	t.Helper()

	prog := []uint8{
		0xA9, 0x3F, //       LDA #$3F
		0x8D, 0x06, 0x20, // STA $2006
		0xA9, 0x00, //       LDA #$00
		0x8D, 0x06, 0x20, // STA $2006
		0xA9, bg, //         LDA #bg
		0x8D, 0x07, 0x20, // STA $2007
		0xA9, 0x0A, //       LDA #$0A
		0x8D, 0x01, 0x20, // STA $2001
		0x4C, 0x14, 0x80, // JMP $8014
	}

	prg := make([]uint8, 0x4000)
	copy(prg, prog)
	copy(prg[0x3FFA:], []uint8{0x14, 0x80, 0x00, 0x80, 0x14, 0x80})

	buf := []byte(ines.Magic)
	buf = append(buf, 1, 0, 0x01, 0x00)
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, prg...)

	path := filepath.Join(dir, fmt.Sprintf("test-%02x.nes", bg))
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
