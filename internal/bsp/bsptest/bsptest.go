// Package bsptest builds tiny synthetic worlds for tests: axial box
// brushes in a one-leaf tree, which is all the collision and linkage
// suites need.
package bsptest

import "arena3/internal/bsp"

// ContentsSolid is the content bit the builder assigns to its brushes.
const ContentsSolid = 1

// Box is one axial solid brush.
type Box struct {
	Mins [3]float32
	Maxs [3]float32
}

// World builds a parsed world containing the given solid boxes inside a
// single leaf. The world model bounds cover all brushes.
func World(boxes ...Box) *bsp.File {
	f := &bsp.File{
		EntityString: `{
"classname" "worldspawn"
}
`,
		Shaders: []bsp.Shader{{Name: "textures/common/caulk", ContentFlags: ContentsSolid}},
	}

	for bi, box := range boxes {
		first := int32(len(f.BrushSides))
		// side order: -x +x -y +y -z +z, axial normals pointing out
		for axis := 0; axis < 3; axis++ {
			var lo, hi [3]float32
			lo[axis] = -1
			hi[axis] = 1
			f.Planes = append(f.Planes,
				bsp.Plane{Normal: lo, Dist: -box.Mins[axis]},
				bsp.Plane{Normal: hi, Dist: box.Maxs[axis]},
			)
			f.BrushSides = append(f.BrushSides,
				bsp.BrushSide{PlaneNum: int32(len(f.Planes)) - 2},
				bsp.BrushSide{PlaneNum: int32(len(f.Planes)) - 1},
			)
		}
		f.Brushes = append(f.Brushes, bsp.Brush{FirstSide: first, NumSides: 6})
		f.LeafBrushes = append(f.LeafBrushes, int32(bi))
	}

	f.Leafs = []bsp.Leaf{{
		Cluster:        0,
		FirstLeafBrush: 0,
		NumLeafBrushes: int32(len(boxes)),
	}}
	// one node whose children both land in leaf 0
	f.Nodes = []bsp.Node{{PlaneNum: 0, Children: [2]int32{-1, -1}}}

	world := bsp.Model{
		Mins:       [3]float32{-4096, -4096, -4096},
		Maxs:       [3]float32{4096, 4096, 4096},
		NumBrushes: int32(len(boxes)),
	}
	f.Models = []bsp.Model{world}
	return f
}
