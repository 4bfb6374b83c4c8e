// Package debugview rasterizes a top-down view of the linked world for
// the debug server: world bounds, entity boxes, and the local player.
// Purely a diagnostic aid; the real renderer is an external collaborator.
package debugview

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
)

const (
	imageSize = 512
	margin    = 16
)

// Box is one entity's footprint.
type Box struct {
	Num      int
	Min, Max [3]float32
}

// Scene is everything one frame of the view needs, copied by value from
// the simulation so rendering never touches live state.
type Scene struct {
	Map        string
	ServerTime int32
	WorldMin   [3]float32
	WorldMax   [3]float32
	Entities   []Box
	Player     [3]float32
	HasPlayer  bool
}

// RenderPNG draws the scene and returns the encoded image. A scene with
// degenerate world bounds returns nil.
func RenderPNG(s *Scene) []byte {
	if s == nil || s.WorldMax[0] <= s.WorldMin[0] || s.WorldMax[1] <= s.WorldMin[1] {
		return nil
	}

	dc := gg.NewContext(imageSize, imageSize)
	dc.SetRGB(0.08, 0.08, 0.10)
	dc.Clear()

	spanX := float64(s.WorldMax[0] - s.WorldMin[0])
	spanY := float64(s.WorldMax[1] - s.WorldMin[1])
	scale := (imageSize - 2*margin) / spanX
	if alt := (imageSize - 2*margin) / spanY; alt < scale {
		scale = alt
	}
	// world +y is up; the image origin is top-left
	px := func(x float32) float64 {
		return margin + (float64(x)-float64(s.WorldMin[0]))*scale
	}
	py := func(y float32) float64 {
		return imageSize - margin - (float64(y)-float64(s.WorldMin[1]))*scale
	}

	// world boundary
	dc.SetRGB(0.35, 0.35, 0.40)
	dc.SetLineWidth(1)
	dc.DrawRectangle(px(s.WorldMin[0]), py(s.WorldMax[1]),
		float64(s.WorldMax[0]-s.WorldMin[0])*scale,
		float64(s.WorldMax[1]-s.WorldMin[1])*scale)
	dc.Stroke()

	// entity footprints
	for _, e := range s.Entities {
		dc.SetRGBA(0.85, 0.55, 0.15, 0.8)
		w := float64(e.Max[0]-e.Min[0]) * scale
		h := float64(e.Max[1]-e.Min[1]) * scale
		if w < 2 {
			w = 2
		}
		if h < 2 {
			h = 2
		}
		dc.DrawRectangle(px(e.Min[0]), py(e.Max[1]), w, h)
		dc.Fill()

		dc.SetRGB(0.9, 0.9, 0.9)
		dc.DrawString(fmt.Sprintf("%d", e.Num), px(e.Max[0])+2, py(e.Max[1])+8)
	}

	// local player
	if s.HasPlayer {
		dc.SetRGB(0.2, 0.8, 0.3)
		dc.DrawCircle(px(s.Player[0]), py(s.Player[1]), 5)
		dc.Fill()
	}

	dc.SetRGB(0.8, 0.8, 0.8)
	dc.DrawString(fmt.Sprintf("%s  t=%dms  ents=%d", s.Map, s.ServerTime, len(s.Entities)), margin, 12)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}
