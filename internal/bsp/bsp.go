// Package bsp parses the on-disk world format: an "IBSP" header, a 17-lump
// directory, and little-endian fixed-size records. Only the lumps the
// simulation core consumes are decoded; rendering lumps are left in place.
package bsp

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/pkg/errors"
)

const (
	magic   = "IBSP"
	version = 46

	numLumps = 17

	LumpEntities     = 0
	LumpShaders      = 1
	LumpPlanes       = 2
	LumpNodes        = 3
	LumpLeafs        = 4
	LumpLeafSurfaces = 5
	LumpLeafBrushes  = 6
	LumpModels       = 7
	LumpBrushes      = 8
	LumpBrushSides   = 9
	LumpDrawVerts    = 10
	LumpDrawIndexes  = 11
	LumpFogs         = 12
	LumpSurfaces     = 13
	LumpLightmaps    = 14
	LumpLightGrid    = 15
	LumpVisibility   = 16
)

// Record sizes on disk.
const (
	planeBytes     = 16
	nodeBytes      = 36
	leafBytes      = 48
	modelBytes     = 40
	brushBytes     = 12
	brushSideBytes = 8
	shaderBytes    = 72
)

// Plane is one half-space boundary.
type Plane struct {
	Normal [3]float32
	Dist   float32
}

// Node is one internal tree node; negative children index leaves as
// -(leaf+1).
type Node struct {
	PlaneNum int32
	Children [2]int32
	Mins     [3]int32
	Maxs     [3]int32
}

// Leaf holds index ranges into the leaf-surface and leaf-brush tables.
type Leaf struct {
	Cluster          int32
	Area             int32
	Mins             [3]int32
	Maxs             [3]int32
	FirstLeafSurface int32
	NumLeafSurfaces  int32
	FirstLeafBrush   int32
	NumLeafBrushes   int32
}

// Model is one inline model; model 0 is the world.
type Model struct {
	Mins         [3]float32
	Maxs         [3]float32
	FirstSurface int32
	NumSurfaces  int32
	FirstBrush   int32
	NumBrushes   int32
}

// Brush is a convex polytope referencing a side range.
type Brush struct {
	FirstSide int32
	NumSides  int32
	ShaderNum int32
}

// BrushSide references its plane and the shader carrying flag bits.
type BrushSide struct {
	PlaneNum  int32
	ShaderNum int32
}

// Shader carries the content and surface flag bits for brushes and sides.
type Shader struct {
	Name         string
	SurfaceFlags int32
	ContentFlags int32
}

// File is a parsed world, core lumps only.
type File struct {
	EntityString string
	Shaders      []Shader
	Planes       []Plane
	Nodes        []Node
	Leafs        []Leaf
	LeafBrushes  []int32
	LeafSurfaces []int32
	Models       []Model
	Brushes      []Brush
	BrushSides   []BrushSide
}

type lump struct {
	ofs, length int32
}

// Parse decodes the core lumps of a BSP file.
func Parse(data []byte) (*File, error) {
	if len(data) < 8+numLumps*8 {
		return nil, errors.Errorf("file too small: %d bytes", len(data))
	}
	if string(data[0:4]) != magic {
		return nil, errors.Errorf("bad magic %q", data[0:4])
	}
	le := binary.LittleEndian
	if v := int32(le.Uint32(data[4:])); v != version {
		return nil, errors.Errorf("unsupported version %d (want %d)", v, version)
	}

	var lumps [numLumps]lump
	for i := 0; i < numLumps; i++ {
		base := 8 + i*8
		lumps[i] = lump{
			ofs:    int32(le.Uint32(data[base:])),
			length: int32(le.Uint32(data[base+4:])),
		}
		l := lumps[i]
		if l.ofs < 0 || l.length < 0 || int(l.ofs)+int(l.length) > len(data) {
			return nil, errors.Errorf("lump %d range [%d,+%d) outside file", i, l.ofs, l.length)
		}
	}

	f := &File{}
	f.EntityString = entityString(section(data, lumps[LumpEntities]))

	if err := f.parseShaders(section(data, lumps[LumpShaders])); err != nil {
		return nil, err
	}
	if err := f.parsePlanes(section(data, lumps[LumpPlanes])); err != nil {
		return nil, err
	}
	if err := f.parseNodes(section(data, lumps[LumpNodes])); err != nil {
		return nil, err
	}
	if err := f.parseLeafs(section(data, lumps[LumpLeafs])); err != nil {
		return nil, err
	}
	f.LeafBrushes = parseInts(section(data, lumps[LumpLeafBrushes]))
	f.LeafSurfaces = parseInts(section(data, lumps[LumpLeafSurfaces]))
	if err := f.parseModels(section(data, lumps[LumpModels])); err != nil {
		return nil, err
	}
	if err := f.parseBrushes(section(data, lumps[LumpBrushes])); err != nil {
		return nil, err
	}
	if err := f.parseBrushSides(section(data, lumps[LumpBrushSides])); err != nil {
		return nil, err
	}
	if len(f.Models) == 0 {
		return nil, errors.New("world has no models")
	}
	return f, nil
}

func section(data []byte, l lump) []byte {
	return data[l.ofs : l.ofs+l.length]
}

func entityString(b []byte) string {
	s := string(b)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}

func parseInts(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func f32(b []byte, ofs int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[ofs:]))
}

func i32(b []byte, ofs int) int32 {
	return int32(binary.LittleEndian.Uint32(b[ofs:]))
}

func (f *File) parseShaders(b []byte) error {
	if len(b)%shaderBytes != 0 {
		return errors.Errorf("shader lump length %d", len(b))
	}
	f.Shaders = make([]Shader, len(b)/shaderBytes)
	for i := range f.Shaders {
		r := b[i*shaderBytes:]
		name := string(r[:64])
		if j := strings.IndexByte(name, 0); j >= 0 {
			name = name[:j]
		}
		f.Shaders[i] = Shader{
			Name:         name,
			SurfaceFlags: i32(r, 64),
			ContentFlags: i32(r, 68),
		}
	}
	return nil
}

func (f *File) parsePlanes(b []byte) error {
	if len(b)%planeBytes != 0 {
		return errors.Errorf("plane lump length %d", len(b))
	}
	f.Planes = make([]Plane, len(b)/planeBytes)
	for i := range f.Planes {
		r := b[i*planeBytes:]
		f.Planes[i] = Plane{
			Normal: [3]float32{f32(r, 0), f32(r, 4), f32(r, 8)},
			Dist:   f32(r, 12),
		}
	}
	return nil
}

func (f *File) parseNodes(b []byte) error {
	if len(b)%nodeBytes != 0 {
		return errors.Errorf("node lump length %d", len(b))
	}
	f.Nodes = make([]Node, len(b)/nodeBytes)
	for i := range f.Nodes {
		r := b[i*nodeBytes:]
		n := Node{
			PlaneNum: i32(r, 0),
			Children: [2]int32{i32(r, 4), i32(r, 8)},
		}
		for j := 0; j < 3; j++ {
			n.Mins[j] = i32(r, 12+4*j)
			n.Maxs[j] = i32(r, 24+4*j)
		}
		f.Nodes[i] = n
	}
	return nil
}

func (f *File) parseLeafs(b []byte) error {
	if len(b)%leafBytes != 0 {
		return errors.Errorf("leaf lump length %d", len(b))
	}
	f.Leafs = make([]Leaf, len(b)/leafBytes)
	for i := range f.Leafs {
		r := b[i*leafBytes:]
		l := Leaf{
			Cluster: i32(r, 0),
			Area:    i32(r, 4),
		}
		for j := 0; j < 3; j++ {
			l.Mins[j] = i32(r, 8+4*j)
			l.Maxs[j] = i32(r, 20+4*j)
		}
		l.FirstLeafSurface = i32(r, 32)
		l.NumLeafSurfaces = i32(r, 36)
		l.FirstLeafBrush = i32(r, 40)
		l.NumLeafBrushes = i32(r, 44)
		f.Leafs[i] = l
	}
	return nil
}

func (f *File) parseModels(b []byte) error {
	if len(b)%modelBytes != 0 {
		return errors.Errorf("model lump length %d", len(b))
	}
	f.Models = make([]Model, len(b)/modelBytes)
	for i := range f.Models {
		r := b[i*modelBytes:]
		m := Model{}
		for j := 0; j < 3; j++ {
			m.Mins[j] = f32(r, 4*j)
			m.Maxs[j] = f32(r, 12+4*j)
		}
		m.FirstSurface = i32(r, 24)
		m.NumSurfaces = i32(r, 28)
		m.FirstBrush = i32(r, 32)
		m.NumBrushes = i32(r, 36)
		f.Models[i] = m
	}
	return nil
}

func (f *File) parseBrushes(b []byte) error {
	if len(b)%brushBytes != 0 {
		return errors.Errorf("brush lump length %d", len(b))
	}
	f.Brushes = make([]Brush, len(b)/brushBytes)
	for i := range f.Brushes {
		r := b[i*brushBytes:]
		f.Brushes[i] = Brush{
			FirstSide: i32(r, 0),
			NumSides:  i32(r, 4),
			ShaderNum: i32(r, 8),
		}
	}
	return nil
}

func (f *File) parseBrushSides(b []byte) error {
	if len(b)%brushSideBytes != 0 {
		return errors.Errorf("brushside lump length %d", len(b))
	}
	f.BrushSides = make([]BrushSide, len(b)/brushSideBytes)
	for i := range f.BrushSides {
		r := b[i*brushSideBytes:]
		f.BrushSides[i] = BrushSide{
			PlaneNum:  i32(r, 0),
			ShaderNum: i32(r, 4),
		}
	}
	return nil
}
