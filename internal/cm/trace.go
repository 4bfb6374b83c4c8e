package cm

import (
	"math"

	"arena3/internal/wire"
)

// surfaceClipEpsilon keeps traces a fraction off surfaces so continued
// moves never start exactly in a plane.
const surfaceClipEpsilon = 0.125

// nonAxialSlack is the lateral slack assumed for a box trace crossing a
// non-axial plane. Conservative; recursion into both children stays
// correct for any box that fits in it.
const nonAxialSlack = 2048

// traceWork carries one trace's inputs, expansion offsets, and running
// result through the recursion, keeping the engine re-entrant.
type traceWork struct {
	start, end [3]float32
	size       [2][3]float32
	offsets    [8][3]float32
	extents    [3]float32
	contents   int32
	isPoint    bool
	trace      wire.Trace
}

// BoxTrace sweeps a symmetric box (or a point when mins=maxs=0) from
// start to end through the given clip model. Model 0 is the world;
// positive indices are inline models; BoxModelHandle is the temp box.
func (m *ClipMap) BoxTrace(start, end, mins, maxs [3]float32, model int, brushmask int32) wire.Trace {
	tw := traceWork{contents: brushmask}
	tw.trace.Fraction = 1
	tw.trace.EntityNum = -1

	if m == nil || !m.loaded {
		tw.trace.EndPos = end
		return tw.trace
	}
	m.checkcount++

	// shift to a symmetric box around the trace line
	var offset [3]float32
	for i := 0; i < 3; i++ {
		offset[i] = (mins[i] + maxs[i]) * 0.5
		tw.size[0][i] = mins[i] - offset[i]
		tw.size[1][i] = maxs[i] - offset[i]
		tw.start[i] = start[i] + offset[i]
		tw.end[i] = end[i] + offset[i]
		tw.extents[i] = tw.size[1][i]
	}
	tw.isPoint = tw.size[1] == [3]float32{}

	// leading-corner offsets selected by plane sign bits: the corner most
	// against the plane normal (mins on positive components, maxs on
	// negative ones)
	for i := 0; i < 8; i++ {
		for j := 0; j < 3; j++ {
			if i&(1<<uint(j)) != 0 {
				tw.offsets[i][j] = tw.size[1][j]
			} else {
				tw.offsets[i][j] = tw.size[0][j]
			}
		}
	}

	switch {
	case model == BoxModelHandle:
		m.traceThroughBrush(&tw, &m.boxBrush)
	case model > 0 && model < len(m.models):
		m.traceThroughModel(&tw, model)
	default:
		m.traceThroughTree(&tw, 0, 0, 1, tw.start, tw.end)
	}

	if tw.trace.Fraction == 1 {
		tw.trace.EndPos = end
	} else {
		for i := 0; i < 3; i++ {
			tw.trace.EndPos[i] = start[i] + tw.trace.Fraction*(end[i]-start[i])
		}
	}
	return tw.trace
}

// TransformedBoxTrace traces against a clip model positioned at origin
// with the given yaw-pitch-roll angles, as the presentation module's
// entity clipping needs.
func (m *ClipMap) TransformedBoxTrace(start, end, mins, maxs [3]float32, model int, brushmask int32, origin, angles [3]float32) wire.Trace {
	rotated := model != BoxModelHandle && angles != [3]float32{}

	var axis [3][3]float32
	localStart := sub(start, origin)
	localEnd := sub(end, origin)
	if rotated {
		axis = anglesToAxis(angles)
		localStart = worldToLocal(localStart, axis)
		localEnd = worldToLocal(localEnd, axis)
	}

	tr := m.BoxTrace(localStart, localEnd, mins, maxs, model, brushmask)

	if rotated && tr.Fraction != 1 {
		tr.PlaneNormal = localToWorld(tr.PlaneNormal, axis)
	}
	// endpos back to world space
	for i := 0; i < 3; i++ {
		tr.EndPos[i] = start[i] + tr.Fraction*(end[i]-start[i])
	}
	return tr
}

func (m *ClipMap) traceThroughModel(tw *traceWork, model int) {
	mod := m.models[model]
	for i := int32(0); i < mod.NumBrushes; i++ {
		bi := mod.FirstBrush + i
		if int(bi) >= len(m.brushes) {
			continue
		}
		m.traceThroughBrush(tw, &m.brushes[bi])
		if tw.trace.AllSolid {
			return
		}
	}
}

func (m *ClipMap) traceThroughTree(tw *traceWork, num int32, p1f, p2f float32, p1, p2 [3]float32) {
	if tw.trace.Fraction <= p1f {
		return // already hit something nearer
	}

	if len(m.nodes) == 0 {
		num = -1
	}
	if num < 0 {
		m.traceThroughLeaf(tw, int(-1-num))
		return
	}
	if int(num) >= len(m.nodes) {
		return
	}
	node := m.nodes[num]
	if int(node.PlaneNum) >= len(m.planes) {
		return
	}
	plane := m.planes[node.PlaneNum]

	var t1, t2, offset float32
	if plane.ptype < planeNonAxial {
		t1 = p1[plane.ptype] - plane.dist
		t2 = p2[plane.ptype] - plane.dist
		offset = tw.extents[plane.ptype]
	} else {
		t1 = dot(plane.normal, p1) - plane.dist
		t2 = dot(plane.normal, p2) - plane.dist
		if tw.isPoint {
			offset = 0
		} else {
			offset = nonAxialSlack
		}
	}

	// both endpoints clear of the plane: one child only
	if t1 >= offset+1 && t2 >= offset+1 {
		m.traceThroughTree(tw, node.Children[0], p1f, p2f, p1, p2)
		return
	}
	if t1 < -offset-1 && t2 < -offset-1 {
		m.traceThroughTree(tw, node.Children[1], p1f, p2f, p1, p2)
		return
	}

	// straddling: split the segment and take the near side first
	var side int
	var frac, frac2 float32
	switch {
	case t1 < t2:
		idist := 1 / (t1 - t2)
		side = 1
		frac2 = (t1 + offset + surfaceClipEpsilon) * idist
		frac = (t1 - offset + surfaceClipEpsilon) * idist
	case t1 > t2:
		idist := 1 / (t1 - t2)
		side = 0
		frac2 = (t1 - offset - surfaceClipEpsilon) * idist
		frac = (t1 + offset + surfaceClipEpsilon) * idist
	default:
		side = 0
		frac = 1
		frac2 = 0
	}
	frac = clamp01(frac)
	frac2 = clamp01(frac2)

	midf := p1f + (p2f-p1f)*frac
	mid := lerpVec(p1, p2, frac)
	m.traceThroughTree(tw, node.Children[side], p1f, midf, p1, mid)

	midf = p1f + (p2f-p1f)*frac2
	mid = lerpVec(p1, p2, frac2)
	m.traceThroughTree(tw, node.Children[side^1], midf, p2f, mid, p2)
}

func (m *ClipMap) traceThroughLeaf(tw *traceWork, leafNum int) {
	if leafNum >= len(m.leafs) {
		return
	}
	leaf := m.leafs[leafNum]
	for i := int32(0); i < leaf.NumLeafBrushes; i++ {
		li := leaf.FirstLeafBrush + i
		if int(li) >= len(m.leafBrushes) {
			continue
		}
		bi := m.leafBrushes[li]
		if int(bi) >= len(m.brushes) {
			continue
		}
		b := &m.brushes[bi]
		if b.checkcount == m.checkcount {
			continue // already tested in another leaf
		}
		b.checkcount = m.checkcount
		if b.contents&tw.contents == 0 {
			continue
		}
		m.traceThroughBrush(tw, b)
		if tw.trace.AllSolid {
			return
		}
	}
}

func (m *ClipMap) traceThroughBrush(tw *traceWork, b *cbrush) {
	if b.numSides == 0 {
		return
	}

	enterFrac := float32(-1)
	leaveFrac := float32(1)
	var clipPlane *cplane
	var leadFlags int32
	getout := false
	startout := false

	for i := int32(0); i < b.numSides; i++ {
		plane, surfaceFlags, ok := m.brushSidePlane(b, i)
		if !ok {
			continue
		}

		var dist float32
		if tw.isPoint {
			dist = plane.dist
		} else {
			// expanded plane: shift by the leading box corner
			dist = plane.dist - dot(tw.offsets[plane.signbits], plane.normal)
		}

		d1 := dot(tw.start, plane.normal) - dist
		d2 := dot(tw.end, plane.normal) - dist

		if d2 > 0 {
			getout = true
		}
		if d1 > 0 {
			startout = true
		}
		// completely in front of this face, no intersection with the brush
		if d1 > 0 && (d2 >= surfaceClipEpsilon || d2 >= d1) {
			return
		}
		if d1 <= 0 && d2 <= 0 {
			continue
		}
		if d1 > d2 { // entering
			f := (d1 - surfaceClipEpsilon) / (d1 - d2)
			if f < 0 {
				f = 0
			}
			if f > enterFrac {
				enterFrac = f
				clipPlane = plane
				leadFlags = surfaceFlags
			}
		} else { // leaving
			f := (d1 + surfaceClipEpsilon) / (d1 - d2)
			if f > 1 {
				f = 1
			}
			if f < leaveFrac {
				leaveFrac = f
			}
		}
	}

	if !startout {
		tw.trace.StartSolid = true
		if !getout {
			tw.trace.AllSolid = true
			tw.trace.Fraction = 0
			tw.trace.Contents = b.contents
		}
		return
	}
	if enterFrac < leaveFrac && enterFrac > -1 && enterFrac < tw.trace.Fraction {
		if enterFrac < 0 {
			enterFrac = 0
		}
		tw.trace.Fraction = enterFrac
		tw.trace.PlaneNormal = clipPlane.normal
		tw.trace.PlaneDist = clipPlane.dist
		tw.trace.PlaneType = clipPlane.ptype
		tw.trace.PlaneSign = clipPlane.signbits
		tw.trace.SurfaceFlags = leadFlags
		tw.trace.Contents = b.contents
	}
}

// brushSidePlane resolves side i of a brush, honoring the temp box model
// whose sides live outside the global tables.
func (m *ClipMap) brushSidePlane(b *cbrush, i int32) (*cplane, int32, bool) {
	if b == &m.boxBrush {
		return &m.boxPlanes[i], 0, true
	}
	si := b.firstSide + i
	if int(si) >= len(m.sides) {
		return nil, 0, false
	}
	side := m.sides[si]
	if int(side.planeNum) >= len(m.planes) {
		return nil, 0, false
	}
	return &m.planes[side.planeNum], side.surfaceFlags, true
}

// PointContents ORs the content bits of every brush containing p.
func (m *ClipMap) PointContents(p [3]float32, model int) int32 {
	if m == nil || !m.loaded {
		return 0
	}

	var contents int32
	testBrush := func(b *cbrush) {
		inside := true
		for i := int32(0); i < b.numSides; i++ {
			plane, _, ok := m.brushSidePlane(b, i)
			if !ok {
				continue
			}
			if dot(p, plane.normal)-plane.dist > 0 {
				inside = false
				break
			}
		}
		if inside {
			contents |= b.contents
		}
	}

	switch {
	case model == BoxModelHandle:
		testBrush(&m.boxBrush)
	case model > 0 && model < len(m.models):
		mod := m.models[model]
		for i := int32(0); i < mod.NumBrushes; i++ {
			bi := mod.FirstBrush + i
			if int(bi) < len(m.brushes) {
				testBrush(&m.brushes[bi])
			}
		}
	default:
		leafNum := m.pointLeaf(p)
		if leafNum < 0 || leafNum >= len(m.leafs) {
			return 0
		}
		leaf := m.leafs[leafNum]
		for i := int32(0); i < leaf.NumLeafBrushes; i++ {
			li := leaf.FirstLeafBrush + i
			if int(li) >= len(m.leafBrushes) {
				continue
			}
			bi := m.leafBrushes[li]
			if int(bi) < len(m.brushes) {
				testBrush(&m.brushes[bi])
			}
		}
	}
	return contents
}

// pointLeaf descends the tree to the leaf containing p.
func (m *ClipMap) pointLeaf(p [3]float32) int {
	if len(m.nodes) == 0 {
		return 0
	}
	num := int32(0)
	for num >= 0 {
		node := m.nodes[num]
		if int(node.PlaneNum) >= len(m.planes) {
			return -1
		}
		plane := m.planes[node.PlaneNum]
		var d float32
		if plane.ptype < planeNonAxial {
			d = p[plane.ptype] - plane.dist
		} else {
			d = dot(plane.normal, p) - plane.dist
		}
		if d < 0 {
			num = node.Children[1]
		} else {
			num = node.Children[0]
		}
	}
	return int(-1 - num)
}

func clamp01(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func lerpVec(a, b [3]float32, f float32) [3]float32 {
	return [3]float32{
		a[0] + f*(b[0]-a[0]),
		a[1] + f*(b[1]-a[1]),
		a[2] + f*(b[2]-a[2]),
	}
}

// anglesToAxis builds a rotation basis from pitch/yaw/roll degrees.
func anglesToAxis(angles [3]float32) [3][3]float32 {
	const degToRad = math.Pi / 180

	sp, cp := sincos(float64(angles[0]) * degToRad)
	sy, cy := sincos(float64(angles[1]) * degToRad)
	sr, cr := sincos(float64(angles[2]) * degToRad)

	var axis [3][3]float32
	axis[0] = [3]float32{cp * cy, cp * sy, -sp}
	axis[1] = [3]float32{sr*sp*cy + cr*-sy, sr*sp*sy + cr*cy, sr * cp}
	axis[2] = [3]float32{cr*sp*cy + -sr*-sy, cr*sp*sy + -sr*cy, cr * cp}
	return axis
}

func sincos(rad float64) (float32, float32) {
	s, c := math.Sincos(rad)
	return float32(s), float32(c)
}

func worldToLocal(v [3]float32, axis [3][3]float32) [3]float32 {
	return [3]float32{dot(v, axis[0]), dot(v, axis[1]), dot(v, axis[2])}
}

func localToWorld(v [3]float32, axis [3][3]float32) [3]float32 {
	var out [3]float32
	for i := 0; i < 3; i++ {
		out[i] = v[0]*axis[0][i] + v[1]*axis[1][i] + v[2]*axis[2][i]
	}
	return out
}
