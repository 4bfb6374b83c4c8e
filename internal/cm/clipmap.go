// Package cm is the collision engine: point and swept-box traces through
// the precompiled spatial partition of convex brushes, and point-in-solid
// classification. Box traces reduce to point traces against expanded
// planes, so one traversal serves both.
package cm

import (
	"arena3/internal/bsp"
)

// Content and mask bits shared with the game modules.
const (
	ContentsSolid      = 0x00000001
	ContentsLava       = 0x00000008
	ContentsSlime      = 0x00000010
	ContentsWater      = 0x00000020
	ContentsFog        = 0x00000040
	ContentsPlayerClip = 0x00010000
	ContentsMonClip    = 0x00020000
	ContentsOrigin     = 0x01000000
	ContentsBody       = 0x02000000
	ContentsCorpse     = 0x04000000
	ContentsTrigger    = 0x40000000

	MaskAll         = ^int32(0)
	MaskSolid       = ContentsSolid
	MaskPlayerSolid = ContentsSolid | ContentsPlayerClip | ContentsBody
	MaskDeadSolid   = ContentsSolid | ContentsPlayerClip
	MaskWater       = ContentsWater | ContentsLava | ContentsSlime
	MaskShot        = ContentsSolid | ContentsBody | ContentsCorpse
)

// Plane classification: 0/1/2 are axial fast paths, 3 is everything else.
const planeNonAxial = 3

// BoxModelHandle is the clip handle of the per-call temp box model.
const BoxModelHandle = 255

const maxWorldCoord = 65536

type cplane struct {
	normal   [3]float32
	dist     float32
	ptype    uint8
	signbits uint8
}

type cbrushSide struct {
	planeNum     int32
	surfaceFlags int32
	shaderNum    int32
}

type cbrush struct {
	firstSide  int32
	numSides   int32
	contents   int32
	bounds     [2][3]float32
	checkcount int
}

// ClipMap is a loaded collision world. The zero value answers every query
// with a clean miss so a missing world never aborts simulation.
type ClipMap struct {
	loaded bool

	shaders     []bsp.Shader
	planes      []cplane
	nodes       []bsp.Node
	leafs       []bsp.Leaf
	leafBrushes []int32
	sides       []cbrushSide
	brushes     []cbrush
	models      []bsp.Model

	entityString string

	checkcount int

	// temp box model, rebuilt per TempBoxModel call
	boxBrush  cbrush
	boxPlanes [6]cplane
}

// Load builds the clip structures from a parsed world file.
func Load(f *bsp.File) *ClipMap {
	m := &ClipMap{
		loaded:       true,
		shaders:      f.Shaders,
		nodes:        f.Nodes,
		leafs:        f.Leafs,
		leafBrushes:  f.LeafBrushes,
		models:       f.Models,
		entityString: f.EntityString,
	}

	m.planes = make([]cplane, len(f.Planes))
	for i, p := range f.Planes {
		m.planes[i] = makePlane(p.Normal, p.Dist)
	}

	sides := make([]cbrushSide, len(f.BrushSides))
	for i, s := range f.BrushSides {
		side := cbrushSide{planeNum: s.PlaneNum, shaderNum: s.ShaderNum}
		if int(s.ShaderNum) < len(f.Shaders) {
			side.surfaceFlags = f.Shaders[s.ShaderNum].SurfaceFlags
		}
		sides[i] = side
	}
	m.sides = sides

	m.brushes = make([]cbrush, len(f.Brushes))
	for i, b := range f.Brushes {
		cb := cbrush{firstSide: b.FirstSide, numSides: b.NumSides}
		if int(b.ShaderNum) < len(f.Shaders) {
			cb.contents = f.Shaders[b.ShaderNum].ContentFlags
		}
		cb.bounds = m.boundBrush(cb)
		m.brushes[i] = cb
	}
	return m
}

// Loaded reports whether a world is present.
func (m *ClipMap) Loaded() bool { return m != nil && m.loaded }

// EntityString returns the raw entities lump text.
func (m *ClipMap) EntityString() string {
	if m == nil {
		return ""
	}
	return m.entityString
}

// NumInlineModels returns the submodel count, world included.
func (m *ClipMap) NumInlineModels() int {
	if m == nil {
		return 0
	}
	return len(m.models)
}

// InlineModelBounds returns the precompiled bounds of submodel idx.
func (m *ClipMap) InlineModelBounds(idx int) (mins, maxs [3]float32) {
	if m == nil || idx < 0 || idx >= len(m.models) {
		return
	}
	return m.models[idx].Mins, m.models[idx].Maxs
}

// TempBoxModel installs the per-call box model and returns its handle.
// The box is used for entity contact tests against non-brush entities.
func (m *ClipMap) TempBoxModel(mins, maxs [3]float32) int {
	if m == nil {
		return 0
	}
	for axis := 0; axis < 3; axis++ {
		var lo, hi [3]float32
		lo[axis] = -1
		hi[axis] = 1
		m.boxPlanes[axis*2] = makePlane(lo, -mins[axis])
		m.boxPlanes[axis*2+1] = makePlane(hi, maxs[axis])
	}
	m.boxBrush = cbrush{
		numSides: 6,
		contents: ContentsBody,
		bounds:   [2][3]float32{mins, maxs},
	}
	return BoxModelHandle
}

// makePlane classifies the plane: only positive-facing axial planes take
// the fast path (signed distance is a plain component read there);
// negative-facing ones go through the full dot product.
func makePlane(normal [3]float32, dist float32) cplane {
	p := cplane{normal: normal, dist: dist, ptype: planeNonAxial}
	for i := 0; i < 3; i++ {
		if normal[i] == 1 {
			p.ptype = uint8(i)
		}
		if normal[i] < 0 {
			p.signbits |= 1 << uint(i)
		}
	}
	return p
}

// boundBrush tightens brush bounds from its axial sides.
func (m *ClipMap) boundBrush(b cbrush) [2][3]float32 {
	bounds := [2][3]float32{
		{-maxWorldCoord, -maxWorldCoord, -maxWorldCoord},
		{maxWorldCoord, maxWorldCoord, maxWorldCoord},
	}
	for i := int32(0); i < b.numSides; i++ {
		si := b.firstSide + i
		if int(si) >= len(m.sides) {
			continue
		}
		pn := m.sides[si].planeNum
		if int(pn) >= len(m.planes) {
			continue
		}
		p := m.planes[pn]
		// ptype marks only positive-facing axial planes, so test the
		// normal itself to pick up the negative-facing sides too
		axis := -1
		for j := 0; j < 3; j++ {
			if p.normal[j] == 1 || p.normal[j] == -1 {
				axis = j
			}
		}
		if axis < 0 {
			continue
		}
		if p.normal[axis] > 0 {
			bounds[1][axis] = p.dist
		} else {
			bounds[0][axis] = -p.dist
		}
	}
	return bounds
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
