package main

import "testing"

func TestScreenshotPath(t *testing.T) {
	tests := []struct {
		path, rom string
		want      string
	}{
		{"out.png", "roms/smb.nes", "out-smb.png"},
		{"shots/out.png", "/tmp/nestest.nes", "shots/out-nestest.png"},
		{"out", "game.nes", "out-game"},
	}
	for _, tt := range tests {
		if got := screenshotPath(tt.path, tt.rom); got != tt.want {
			t.Errorf("screenshotPath(%q, %q) = %q, want %q", tt.path, tt.rom, got, tt.want)
		}
	}
}

func TestParseArgs(t *testing.T) {
	cli := parseArgs([]string{"version"})
	if cli.mode != versionMode {
		t.Errorf("mode = %d, want versionMode", cli.mode)
	}
}
