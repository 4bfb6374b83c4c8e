package debugview

import (
	"bytes"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderProducesPNG(t *testing.T) {
	s := &Scene{
		Map:      "arena_test",
		WorldMin: [3]float32{-512, -512, -64},
		WorldMax: [3]float32{512, 512, 128},
		Entities: []Box{
			{Num: 1, Min: [3]float32{-8, -8, 0}, Max: [3]float32{8, 8, 16}},
			{Num: 2, Min: [3]float32{100, 100, 0}, Max: [3]float32{132, 132, 64}},
		},
		Player:    [3]float32{50, 50, 64},
		HasPlayer: true,
	}
	png := RenderPNG(s)
	if png == nil {
		t.Fatal("no image produced")
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("not a PNG: % x", png[:8])
	}
}

func TestRenderRejectsDegenerateWorld(t *testing.T) {
	if RenderPNG(nil) != nil {
		t.Fatal("nil scene rendered")
	}
	s := &Scene{WorldMin: [3]float32{10, 10, 0}, WorldMax: [3]float32{10, 10, 0}}
	if RenderPNG(s) != nil {
		t.Fatal("zero-span world rendered")
	}
}
