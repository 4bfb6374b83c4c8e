package bsp_test

import (
	"testing"

	"arena3/internal/bsp"
	"arena3/internal/bsp/bsptest"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	world := bsptest.World(bsptest.Box{
		Mins: [3]float32{0, 0, 0},
		Maxs: [3]float32{64, 64, 8},
	})
	data := bsp.Encode(world)

	parsed, err := bsp.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed.Brushes) != 1 || parsed.Brushes[0].NumSides != 6 {
		t.Fatalf("brushes = %+v", parsed.Brushes)
	}
	if len(parsed.Planes) != 6 {
		t.Fatalf("planes = %d, want 6", len(parsed.Planes))
	}
	if parsed.Planes[1].Dist != 64 {
		t.Fatalf("+x plane dist = %v", parsed.Planes[1].Dist)
	}
	if parsed.Shaders[0].ContentFlags != bsptest.ContentsSolid {
		t.Fatalf("shader contents = %#x", parsed.Shaders[0].ContentFlags)
	}
	if parsed.EntityString == "" || parsed.EntityString[0] != '{' {
		t.Fatalf("entity string %q", parsed.EntityString)
	}
	if len(parsed.Models) != 1 || parsed.Models[0].NumBrushes != 1 {
		t.Fatalf("models = %+v", parsed.Models)
	}
}

func TestParseRejectsCorruptFiles(t *testing.T) {
	good := bsp.Encode(bsptest.World(bsptest.Box{Maxs: [3]float32{1, 1, 1}}))

	tests := []struct {
		name  string
		mutil func([]byte) []byte
	}{
		{"too small", func(b []byte) []byte { return b[:16] }},
		{"bad magic", func(b []byte) []byte {
			out := append([]byte(nil), b...)
			out[0] = 'X'
			return out
		}},
		{"bad version", func(b []byte) []byte {
			out := append([]byte(nil), b...)
			out[4] = 99
			return out
		}},
		{"lump outside file", func(b []byte) []byte {
			out := append([]byte(nil), b...)
			out[8+bsp.LumpPlanes*8+4] = 0xff
			out[8+bsp.LumpPlanes*8+5] = 0xff
			out[8+bsp.LumpPlanes*8+6] = 0xff
			return out
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := bsp.Parse(tt.mutil(good)); err == nil {
				t.Fatal("Parse accepted corrupt data")
			}
		})
	}
}
