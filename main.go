// Command nescore runs NES ROMs headlessly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/ines"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case romInfosMode:
		rom, err := ines.ReadRom(cli.RomInfos.RomPath)
		checkf(err, "failed to open rom")
		rom.PrintInfos(os.Stdout)
	case versionMode:
		printVersion()
	case runMode:
		runMain(cli.Run)
	}
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("nescore", version)
}

// loadConfig loads the configuration file, if any, and applies command line
// overrides.
func loadConfig(args Run) emu.Config {
	cfg := emu.DefaultConfig()
	if args.Config != "" {
		var err error
		cfg, err = emu.LoadConfig(args.Config)
		checkf(err, "invalid configuration")
	}

	if args.Frames >= 0 {
		cfg.Run.Frames = args.Frames
	}
	if args.Screenshot != "" {
		cfg.Run.Screenshot = args.Screenshot
	}
	if args.Trace != nil {
		cfg.Run.Trace = args.Trace.name
	}

	mask, err := cfg.Log.Mask()
	checkf(err, "invalid log configuration")
	log.EnableDebugModules(mask)
	return cfg
}

func runMain(args Run) {
	cfg := loadConfig(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(args.RomPaths) == 1 {
		runOne(ctx, args, cfg)
		return
	}

	if cfg.Run.Trace != "" {
		fatalf("tracing is only supported when running a single ROM")
	}

	results, err := emu.RunAll(ctx, args.RomPaths, cfg, args.Jobs)
	checkf(err, "emulation failed")

	for _, res := range results {
		fmt.Printf("%s: %d frames, %d CPU cycles\n", filepath.Base(res.Path), cfg.Run.Frames, res.Cycles)
		if cfg.Run.Screenshot != "" {
			path := screenshotPath(cfg.Run.Screenshot, res.Path)
			checkf(emu.SaveAsPNG(&res.Frame, path), "failed to save screenshot")
		}
	}
}

func runOne(ctx context.Context, args Run, cfg emu.Config) {
	s, err := emu.Open(args.RomPaths[0], cfg)
	checkf(err, "failed to start emulator")

	log.AddContext(s.NES.PPU)
	defer log.RemoveContext(s.NES.PPU)

	trace := args.Trace
	if trace == nil && cfg.Run.Trace != "" {
		trace = &outfile{}
		checkf(trace.open(cfg.Run.Trace), "failed to open trace output")
	}
	if trace != nil {
		defer trace.Close()
		s.SetTraceOutput(trace)
	}

	frame, err := s.Run(ctx, cfg.Run.Frames)
	checkf(err, "emulation failed")

	if cfg.Run.Screenshot != "" {
		checkf(emu.SaveAsPNG(&frame, cfg.Run.Screenshot), "failed to save screenshot")
	}
}

// screenshotPath derives the screenshot path for the given rom: out.png
// becomes out-rom.png.
func screenshotPath(path, rom string) string {
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(rom), filepath.Ext(rom))
	return strings.TrimSuffix(path, ext) + "-" + name + ext
}
