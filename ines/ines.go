// Package ines implements a decoder for roms in the iNES file format, used for
// the distribution of NES binary programs.
package ines

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

const Magic = "NES\x1a"

const (
	headerSize  = 16
	trainerSize = 512
	prgUnit     = 16 * 1024
	chrUnit     = 8 * 1024
)

var (
	ErrShortHeader = errors.New("header too short, needs 16 bytes")
	ErrBadMagic    = errors.New("invalid magic number")
	ErrTruncated   = errors.New("rom data truncated")
)

type Rom struct {
	header
	Trainer []byte // Trainer, 512 bytes if present, or empty.
	PRGROM  []byte // PRG ROM data (length is a multiple of 16k)
	CHRROM  []byte // CHR ROM data (length is a multiple of 8k, empty means CHR RAM)
}

// ReadRom loads a rom from file.
func ReadRom(path string) (*Rom, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(buf)
}

// Decode decodes an in-memory iNES image. The returned Rom owns copies of the
// PRG and CHR sections.
func Decode(buf []byte) (*Rom, error) {
	rom := new(Rom)
	if _, err := rom.ReadFrom(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if err := rom.decode(buf); err != nil {
		return 0, fmt.Errorf("failed to decode header: %w", err)
	}
	off := headerSize

	if rom.HasTrainer() {
		if len(buf) < off+trainerSize {
			return 0, fmt.Errorf("incomplete TRAINER section: %w", ErrTruncated)
		}
		rom.Trainer = bytes.Clone(buf[off : off+trainerSize])
		off += trainerSize
	}

	if len(buf) < off+rom.prgsz {
		return 0, fmt.Errorf("incomplete PRG section (want %d bytes, have %d): %w",
			rom.prgsz, len(buf)-off, ErrTruncated)
	}
	rom.PRGROM = bytes.Clone(buf[off : off+rom.prgsz])
	off += rom.prgsz

	if len(buf) < off+rom.chrsz {
		return 0, fmt.Errorf("incomplete CHR section (want %d bytes, have %d): %w",
			rom.chrsz, len(buf)-off, ErrTruncated)
	}
	if rom.chrsz != 0 {
		rom.CHRROM = bytes.Clone(buf[off : off+rom.chrsz])
	}
	off += rom.chrsz

	return int64(off), nil
}

func (hdr *header) decode(p []byte) error {
	if len(p) < headerSize {
		return ErrShortHeader
	}
	if string(p[:4]) != Magic {
		return ErrBadMagic
	}
	copy(hdr.raw[:], p[:headerSize])

	hdr.prgsz = int(hdr.raw[4]) * prgUnit
	hdr.chrsz = int(hdr.raw[5]) * chrUnit
	return nil
}

type header struct {
	raw   [headerSize]byte
	prgsz int
	chrsz int
}

// NTMirroring is the nametable mirroring arrangement hardwired on the cartridge.
type NTMirroring uint8

const (
	HorzMirroring NTMirroring = iota
	VertMirroring
	FourScreen
)

func (m NTMirroring) String() string {
	switch m {
	case HorzMirroring:
		return "horizontal"
	case VertMirroring:
		return "vertical"
	case FourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("NTMirroring(%d)", uint8(m))
}

// Mirroring returns the nametable arrangement.
func (hdr *header) Mirroring() NTMirroring {
	if hdr.raw[6]&0x08 != 0 {
		return FourScreen
	}
	return NTMirroring(hdr.raw[6] & 0x01)
}

// HasPersistent indicates the presence of battery-backed memory in the rom.
func (hdr *header) HasPersistent() bool {
	return hdr.raw[6]&0x02 != 0
}

// HasTrainer indicates the presence of a trainer section in the rom.
func (hdr *header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// IsVSUnisystem reports whether the rom targets the VS Unisystem arcade.
func (hdr *header) IsVSUnisystem() bool {
	return hdr.raw[7]&0x01 != 0
}

// IsPlayChoice reports whether the rom targets the PlayChoice-10 arcade.
func (hdr *header) IsPlayChoice() bool {
	return hdr.raw[7]&0x02 != 0
}

// IsNES20 reports whether the header uses the NES 2.0 extension.
func (hdr *header) IsNES20() bool {
	return hdr.raw[7]&0x0C == 0x08
}

// Mapper returns the mapper number, built from both mapper nibbles.
func (hdr *header) Mapper() uint16 {
	return uint16(hdr.raw[7]&0xF0) | uint16(hdr.raw[6]>>4)
}

// PRGSize returns the declared PRG ROM size in bytes.
func (hdr *header) PRGSize() int { return hdr.prgsz }

// CHRSize returns the declared CHR ROM size in bytes, 0 meaning CHR RAM.
func (hdr *header) CHRSize() int { return hdr.chrsz }

// PrintInfos writes a human readable summary of the rom header.
func (rom *Rom) PrintInfos(w io.Writer) {
	fmt.Fprintf(w, "PRGROM:     %dx16KB (%d bytes)\n", rom.PRGSize()/prgUnit, rom.PRGSize())
	if rom.CHRSize() == 0 {
		fmt.Fprintln(w, "CHRROM:     none (8KB CHR RAM)")
	} else {
		fmt.Fprintf(w, "CHRROM:     %dx8KB (%d bytes)\n", rom.CHRSize()/chrUnit, rom.CHRSize())
	}
	fmt.Fprintf(w, "Mapper:     %d\n", rom.Mapper())
	fmt.Fprintf(w, "Mirroring:  %s\n", rom.Mirroring())
	fmt.Fprintf(w, "Persistent: %t\n", rom.HasPersistent())
	fmt.Fprintf(w, "Trainer:    %t\n", rom.HasTrainer())
	fmt.Fprintf(w, "VS:         %t\n", rom.IsVSUnisystem())
	fmt.Fprintf(w, "PlayChoice: %t\n", rom.IsPlayChoice())
	fmt.Fprintf(w, "NES 2.0:    %t\n", rom.IsNES20())
}
