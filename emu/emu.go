// Package emu runs headless emulation sessions: it loads ROMs, configures the
// console and runs it frame after frame.
package emu

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
)

// A Session is a console with a cartridge inserted. Sessions share nothing,
// any number of them can run concurrently.
type Session struct {
	NES *hw.NES
}

// NewSession powers up a console with rom and applies cfg input settings.
func NewSession(rom *ines.Rom, cfg Config) (*Session, error) {
	nes, err := hw.New(rom)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}

	btns, err := cfg.Input.Buttons()
	if err != nil {
		return nil, fmt.Errorf("invalid input config: %w", err)
	}
	for port, b := range btns {
		nes.SetButtons(port, b)
	}

	return &Session{NES: nes}, nil
}

// Open loads the ROM at path and starts a session with it.
func Open(path string, cfg Config) (*Session, error) {
	rom, err := ines.ReadRom(path)
	if err != nil {
		return nil, fmt.Errorf("error reading ROM: %w", err)
	}
	if rom.IsNES20() {
		log.ModEmu.WarnZ("NES 2.0 header, extended fields are ignored").String("rom", path).End()
	}
	return NewSession(rom, cfg)
}

// SetTraceOutput enables CPU execution tracing, nil disables it.
func (s *Session) SetTraceOutput(w io.Writer) {
	s.NES.SetTraceOutput(w)
}

// Run emulates nframes frames and returns the last one. It stops early, with
// ctx error, if ctx gets cancelled. Cancellation is checked between frames.
func (s *Session) Run(ctx context.Context, nframes int) (hw.Frame, error) {
	start := time.Now()
	for i := 0; i < nframes; i++ {
		if err := ctx.Err(); err != nil {
			log.ModEmu.InfoZ("emulation interrupted").Int("frame", i).End()
			return s.NES.Frame(), err
		}
		s.NES.RunFrame()
	}

	log.ModEmu.InfoZ("emulation done").
		Int("frames", nframes).
		Int64("cycles", s.NES.CPU.Cycles).
		Duration("elapsed", time.Since(start)).
		End()
	return s.NES.Frame(), nil
}

// Result is the outcome of a session run by RunAll.
type Result struct {
	Path   string
	Frame  hw.Frame
	Cycles int64 // CPU cycles
}

// RunAll runs one session per ROM, at most limit at the same time (no limit if
// limit <= 0). Each session runs cfg.Run.Frames frames. The first error stops
// all sessions. Results are in paths order.
func RunAll(ctx context.Context, paths []string, cfg Config, limit int) ([]Result, error) {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, path := range paths {
		g.Go(func() error {
			s, err := Open(path, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			frame, err := s.Run(ctx, cfg.Run.Frames)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			results[i] = Result{
				Path:   path,
				Frame:  frame,
				Cycles: s.NES.CPU.Cycles,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
