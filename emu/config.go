package emu

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"nescore/emu/log"
	"nescore/hw"
)

// Config is the configuration of a headless emulation session, decoded from a
// TOML file.
type Config struct {
	Run   RunConfig   `toml:"run"`
	Input InputConfig `toml:"input"`
	Log   LogConfig   `toml:"log"`
}

type RunConfig struct {
	Frames     int    `toml:"frames"`     // number of frames to emulate
	Trace      string `toml:"trace"`      // CPU trace output (file, stdout or stderr)
	Screenshot string `toml:"screenshot"` // PNG file receiving the last frame
}

// InputConfig lists the buttons held down on each controller port, for the
// whole session.
type InputConfig struct {
	Port1 []string `toml:"port1"`
	Port2 []string `toml:"port2"`
}

// Buttons returns the button state of both ports.
func (icfg InputConfig) Buttons() ([2]hw.Buttons, error) {
	var btns [2]hw.Buttons
	for i, names := range [2][]string{icfg.Port1, icfg.Port2} {
		b, err := hw.ParseButtons(names)
		if err != nil {
			return btns, fmt.Errorf("port %d: %w", i+1, err)
		}
		btns[i] = b
	}
	return btns, nil
}

type LogConfig struct {
	Modules []string `toml:"modules"` // modules with debug logging enabled
}

// Mask returns the mask of the configured modules. "all" enables them all.
func (lcfg LogConfig) Mask() (log.ModuleMask, error) {
	var mask log.ModuleMask
	for _, name := range lcfg.Modules {
		if name == "all" {
			mask |= log.ModuleMaskAll
			continue
		}
		mod, ok := log.ModuleByName(name)
		if !ok {
			return 0, fmt.Errorf("unknown log module %q (valid: %s)", name, strings.Join(log.ModuleNames(), ","))
		}
		mask |= mod.Mask()
	}
	return mask, nil
}

const defaultFrames = 60

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() Config {
	return Config{
		Run: RunConfig{Frames: defaultFrames},
	}
}

// LoadConfig loads the configuration at path. Missing values keep their
// default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.WarnZ("unknown config key").String("key", key.String()).String("file", path).End()
	}
	if cfg.Run.Frames < 0 {
		return Config{}, fmt.Errorf("invalid frame count %d", cfg.Run.Frames)
	}
	return cfg, nil
}

// SaveConfig writes cfg at path.
func SaveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}
