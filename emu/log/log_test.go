package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestModuleByName(t *testing.T) {
	mod, ok := ModuleByName("ppu")
	if !ok || mod != ModPPU {
		t.Fatalf("ModuleByName(ppu) = %v, %v", mod, ok)
	}
	if _, ok := ModuleByName("<error>"); ok {
		t.Errorf("placeholder module name should not resolve")
	}
	if _, ok := ModuleByName("nope"); ok {
		t.Errorf("unknown module resolved")
	}
}

func TestDisabledModuleReturnsNilEntry(t *testing.T) {
	DisableDebugModules(ModuleMaskAll)
	z := ModCPU.DebugZ("hidden")
	if z != nil {
		t.Fatalf("DebugZ on disabled module returned non-nil entry")
	}
	// All methods must be callable on a nil entry.
	z.Hex8("a", 1).Hex16("b", 2).Bool("c", true).String("d", "e").End()
}

func TestEntryZOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nopWriter{})

	EnableDebugModules(ModPPU.Mask())
	defer DisableDebugModules(ModPPU.Mask())

	ModPPU.DebugZ("write reg").
		Hex8("val", 0x1f).
		Hex16("addr", 0x2001).
		Error("err", errors.New("boom")).
		End()

	out := buf.String()
	for _, want := range []string{"write reg", "_mod=ppu", `val="$1F"`, `addr="$2001"`, "err=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestZFieldValue(t *testing.T) {
	tests := []struct {
		f    ZField
		want string
	}{
		{ZField{Type: FieldTypeBool, Boolean: true}, "true"},
		{ZField{Type: FieldTypeHex8, Integer: 0xA}, "$0A"},
		{ZField{Type: FieldTypeHex16, Integer: 0xC000}, "$C000"},
		{ZField{Type: FieldTypeInt, Integer: uint64(0xFFFFFFFFFFFFFFFF)}, "-1"},
		{ZField{Type: FieldTypeUint, Integer: 42}, "42"},
		{ZField{Type: FieldTypeError}, "<nil>"},
	}
	for _, tt := range tests {
		if got := tt.f.Value(); got != tt.want {
			t.Errorf("Value() = %q, want %q", got, tt.want)
		}
	}
}
