package ines

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// build returns an iNES image with the given header flags. PRG bytes are
// filled with 0xA0+bank and CHR bytes with 0xC0+bank.
func build(prg, chr, flags6, flags7 byte) []byte {
	buf := []byte(Magic)
	buf = append(buf, prg, chr, flags6, flags7)
	buf = append(buf, make([]byte, 8)...)
	if flags6&0x04 != 0 {
		buf = append(buf, bytes.Repeat([]byte{0x77}, trainerSize)...)
	}
	for i := range int(prg) {
		buf = append(buf, bytes.Repeat([]byte{0xA0 + byte(i)}, prgUnit)...)
	}
	for i := range int(chr) {
		buf = append(buf, bytes.Repeat([]byte{0xC0 + byte(i)}, chrUnit)...)
	}
	return buf
}

func TestDecode(t *testing.T) {
	rom, err := Decode(build(2, 1, 0x01, 0x00))
	if err != nil {
		t.Fatal(err)
	}
	if len(rom.PRGROM) != 2*prgUnit {
		t.Errorf("len(PRGROM) = %d, want %d", len(rom.PRGROM), 2*prgUnit)
	}
	if len(rom.CHRROM) != chrUnit {
		t.Errorf("len(CHRROM) = %d, want %d", len(rom.CHRROM), chrUnit)
	}
	if rom.PRGROM[0] != 0xA0 || rom.PRGROM[prgUnit] != 0xA1 {
		t.Errorf("PRG banks not in order")
	}
	if rom.Mirroring() != VertMirroring {
		t.Errorf("Mirroring() = %s, want vertical", rom.Mirroring())
	}
	if rom.Mapper() != 0 {
		t.Errorf("Mapper() = %d, want 0", rom.Mapper())
	}
}

func TestDecodeTrainer(t *testing.T) {
	rom, err := Decode(build(1, 1, 0x04, 0x00))
	if err != nil {
		t.Fatal(err)
	}
	if len(rom.Trainer) != trainerSize || rom.Trainer[0] != 0x77 {
		t.Fatalf("trainer not decoded")
	}
	// PRG must start right after the trainer.
	if rom.PRGROM[0] != 0xA0 {
		t.Errorf("PRGROM[0] = %02X, want A0", rom.PRGROM[0])
	}
}

func TestHeaderFlags(t *testing.T) {
	rom, err := Decode(build(1, 0, 0x3A, 0x4B))
	if err != nil {
		t.Fatal(err)
	}
	if got := rom.Mapper(); got != 0x43 {
		t.Errorf("Mapper() = %d, want %d", got, 0x43)
	}
	if rom.Mirroring() != FourScreen {
		t.Errorf("Mirroring() = %s, want four-screen", rom.Mirroring())
	}
	if !rom.HasPersistent() {
		t.Errorf("HasPersistent() = false")
	}
	if !rom.IsVSUnisystem() || !rom.IsPlayChoice() {
		t.Errorf("VS/PlayChoice bits not decoded")
	}
	if !rom.IsNES20() {
		t.Errorf("IsNES20() = false")
	}
	if rom.CHRROM != nil {
		t.Errorf("CHRROM should be empty for CHR RAM carts")
	}
}

func TestDecodeErrors(t *testing.T) {
	full := build(2, 1, 0, 0)
	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"short header", full[:10], ErrShortHeader},
		{"bad magic", append([]byte("NES\x00"), full[4:]...), ErrBadMagic},
		{"truncated prg", full[:headerSize+prgUnit], ErrTruncated},
		{"truncated chr", full[:len(full)-1], ErrTruncated},
		{"truncated trainer", build(1, 1, 0x04, 0)[:headerSize+100], ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPrintInfos(t *testing.T) {
	rom, err := Decode(build(1, 1, 0x00, 0x00))
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	rom.PrintInfos(&sb)
	for _, want := range []string{
		"PRGROM:     1x16KB (16384 bytes)",
		"CHRROM:     1x8KB (8192 bytes)",
		"Mirroring:  horizontal",
	} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("infos don't contain %q:\n%s", want, sb.String())
		}
	}

	rom, err = Decode(build(2, 0, 0x01, 0x00))
	if err != nil {
		t.Fatal(err)
	}
	sb.Reset()
	rom.PrintInfos(&sb)
	for _, want := range []string{
		"PRGROM:     2x16KB (32768 bytes)",
		"CHRROM:     none (8KB CHR RAM)",
		"Mirroring:  vertical",
	} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("infos don't contain %q:\n%s", want, sb.String())
		}
	}
}
