package bsp

import (
	"encoding/binary"
	"math"
)

// Encode serializes the core lumps back into a loadable file. Rendering
// lumps come out empty. Test fixtures and map tooling build tiny worlds
// through this; the engine itself only parses.
func Encode(f *File) []byte {
	le := binary.LittleEndian

	var lumps [numLumps][]byte
	lumps[LumpEntities] = append([]byte(f.EntityString), 0)

	sh := make([]byte, len(f.Shaders)*shaderBytes)
	for i, s := range f.Shaders {
		r := sh[i*shaderBytes:]
		copy(r[:64], s.Name)
		le.PutUint32(r[64:], uint32(s.SurfaceFlags))
		le.PutUint32(r[68:], uint32(s.ContentFlags))
	}
	lumps[LumpShaders] = sh

	pl := make([]byte, len(f.Planes)*planeBytes)
	for i, p := range f.Planes {
		r := pl[i*planeBytes:]
		for j := 0; j < 3; j++ {
			le.PutUint32(r[4*j:], math.Float32bits(p.Normal[j]))
		}
		le.PutUint32(r[12:], math.Float32bits(p.Dist))
	}
	lumps[LumpPlanes] = pl

	nd := make([]byte, len(f.Nodes)*nodeBytes)
	for i, n := range f.Nodes {
		r := nd[i*nodeBytes:]
		le.PutUint32(r[0:], uint32(n.PlaneNum))
		le.PutUint32(r[4:], uint32(n.Children[0]))
		le.PutUint32(r[8:], uint32(n.Children[1]))
		for j := 0; j < 3; j++ {
			le.PutUint32(r[12+4*j:], uint32(n.Mins[j]))
			le.PutUint32(r[24+4*j:], uint32(n.Maxs[j]))
		}
	}
	lumps[LumpNodes] = nd

	lf := make([]byte, len(f.Leafs)*leafBytes)
	for i, l := range f.Leafs {
		r := lf[i*leafBytes:]
		le.PutUint32(r[0:], uint32(l.Cluster))
		le.PutUint32(r[4:], uint32(l.Area))
		for j := 0; j < 3; j++ {
			le.PutUint32(r[8+4*j:], uint32(l.Mins[j]))
			le.PutUint32(r[20+4*j:], uint32(l.Maxs[j]))
		}
		le.PutUint32(r[32:], uint32(l.FirstLeafSurface))
		le.PutUint32(r[36:], uint32(l.NumLeafSurfaces))
		le.PutUint32(r[40:], uint32(l.FirstLeafBrush))
		le.PutUint32(r[44:], uint32(l.NumLeafBrushes))
	}
	lumps[LumpLeafs] = lf

	lumps[LumpLeafBrushes] = encodeInts(f.LeafBrushes)
	lumps[LumpLeafSurfaces] = encodeInts(f.LeafSurfaces)

	md := make([]byte, len(f.Models)*modelBytes)
	for i, m := range f.Models {
		r := md[i*modelBytes:]
		for j := 0; j < 3; j++ {
			le.PutUint32(r[4*j:], math.Float32bits(m.Mins[j]))
			le.PutUint32(r[12+4*j:], math.Float32bits(m.Maxs[j]))
		}
		le.PutUint32(r[24:], uint32(m.FirstSurface))
		le.PutUint32(r[28:], uint32(m.NumSurfaces))
		le.PutUint32(r[32:], uint32(m.FirstBrush))
		le.PutUint32(r[36:], uint32(m.NumBrushes))
	}
	lumps[LumpModels] = md

	br := make([]byte, len(f.Brushes)*brushBytes)
	for i, b := range f.Brushes {
		r := br[i*brushBytes:]
		le.PutUint32(r[0:], uint32(b.FirstSide))
		le.PutUint32(r[4:], uint32(b.NumSides))
		le.PutUint32(r[8:], uint32(b.ShaderNum))
	}
	lumps[LumpBrushes] = br

	bs := make([]byte, len(f.BrushSides)*brushSideBytes)
	for i, s := range f.BrushSides {
		r := bs[i*brushSideBytes:]
		le.PutUint32(r[0:], uint32(s.PlaneNum))
		le.PutUint32(r[4:], uint32(s.ShaderNum))
	}
	lumps[LumpBrushSides] = bs

	headerLen := 8 + numLumps*8
	out := make([]byte, headerLen)
	copy(out[0:4], magic)
	le.PutUint32(out[4:], uint32(version))
	for i, l := range lumps {
		le.PutUint32(out[8+i*8:], uint32(len(out)))
		le.PutUint32(out[8+i*8+4:], uint32(len(l)))
		out = append(out, l...)
	}
	return out
}

func encodeInts(v []int32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(x))
	}
	return out
}
