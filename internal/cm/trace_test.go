package cm

import (
	"math"
	"math/rand"
	"testing"

	"arena3/internal/bsp/bsptest"
)

func unitCubeMap() *ClipMap {
	return Load(bsptest.World(bsptest.Box{
		Mins: [3]float32{0, 0, 0},
		Maxs: [3]float32{1, 1, 1},
	}))
}

// TestPointTraceUnitCube is the canonical scenario: a point trace entering
// a unit cube a third of the way along the segment.
func TestPointTraceUnitCube(t *testing.T) {
	m := unitCubeMap()
	tr := m.BoxTrace(
		[3]float32{-1, 0.5, 0.5},
		[3]float32{2, 0.5, 0.5},
		[3]float32{}, [3]float32{}, 0, MaskSolid)

	if math.Abs(float64(tr.Fraction)-1.0/3.0) > 0.05 {
		t.Fatalf("fraction = %v, want about 1/3", tr.Fraction)
	}
	if tr.PlaneNormal != [3]float32{-1, 0, 0} {
		t.Fatalf("plane normal = %v", tr.PlaneNormal)
	}
	if tr.StartSolid || tr.AllSolid {
		t.Fatal("open start misreported as solid")
	}
	wantX := -1 + tr.Fraction*3
	if math.Abs(float64(tr.EndPos[0]-wantX)) > 1e-5 {
		t.Fatalf("endpos.x = %v, want %v", tr.EndPos[0], wantX)
	}
}

func TestTraceMiss(t *testing.T) {
	m := unitCubeMap()
	end := [3]float32{2, 5, 0.5}
	tr := m.BoxTrace([3]float32{-1, 5, 0.5}, end, [3]float32{}, [3]float32{}, 0, MaskSolid)

	if tr.Fraction != 1 || tr.StartSolid || tr.AllSolid {
		t.Fatalf("miss = %+v", tr)
	}
	if tr.EndPos != end {
		t.Fatalf("endpos = %v, want %v", tr.EndPos, end)
	}
}

func TestTraceNoWorldLoaded(t *testing.T) {
	var m *ClipMap
	end := [3]float32{10, 0, 0}
	tr := m.BoxTrace([3]float32{}, end, [3]float32{}, [3]float32{}, 0, MaskAll)
	if tr.Fraction != 1 || tr.EndPos != end {
		t.Fatalf("nil world trace = %+v", tr)
	}
	if m.PointContents([3]float32{}, 0) != 0 {
		t.Fatal("nil world has contents")
	}
}

func TestBoxTraceExpandsPlanes(t *testing.T) {
	m := unitCubeMap()
	mins := [3]float32{-0.25, -0.25, -0.25}
	maxs := [3]float32{0.25, 0.25, 0.25}
	tr := m.BoxTrace(
		[3]float32{-2, 0.5, 0.5},
		[3]float32{2, 0.5, 0.5},
		mins, maxs, 0, MaskSolid)

	// the box's leading face hits 0.25 units sooner than a point would
	pt := m.BoxTrace([3]float32{-2, 0.5, 0.5}, [3]float32{2, 0.5, 0.5},
		[3]float32{}, [3]float32{}, 0, MaskSolid)
	if tr.Fraction >= pt.Fraction {
		t.Fatalf("box fraction %v not shorter than point %v", tr.Fraction, pt.Fraction)
	}
	boxX := -2 + tr.Fraction*4
	if math.Abs(float64(boxX-(-0.25))) > 0.15 {
		t.Fatalf("box stops at x=%v, want near -0.25", boxX)
	}
}

func TestTraceStartSolid(t *testing.T) {
	m := unitCubeMap()
	tr := m.BoxTrace(
		[3]float32{0.5, 0.5, 0.5},
		[3]float32{0.6, 0.5, 0.5},
		[3]float32{}, [3]float32{}, 0, MaskSolid)
	if !tr.StartSolid || !tr.AllSolid || tr.Fraction != 0 {
		t.Fatalf("inside-cube trace = %+v", tr)
	}
}

// TestTraceProperties checks fraction range, endpos interpolation, and
// idempotence over randomized segments.
func TestTraceProperties(t *testing.T) {
	m := Load(bsptest.World(
		bsptest.Box{Mins: [3]float32{-64, -64, -16}, Maxs: [3]float32{64, 64, 0}},
		bsptest.Box{Mins: [3]float32{16, 16, 0}, Maxs: [3]float32{32, 32, 64}},
	))

	rng := rand.New(rand.NewSource(7))
	randVec := func() [3]float32 {
		return [3]float32{
			rng.Float32()*256 - 128,
			rng.Float32()*256 - 128,
			rng.Float32()*128 - 32,
		}
	}

	for i := 0; i < 500; i++ {
		start, end := randVec(), randVec()
		tr1 := m.BoxTrace(start, end, [3]float32{-8, -8, -8}, [3]float32{8, 8, 8}, 0, MaskSolid)
		tr2 := m.BoxTrace(start, end, [3]float32{-8, -8, -8}, [3]float32{8, 8, 8}, 0, MaskSolid)

		if tr1 != tr2 {
			t.Fatalf("trace not idempotent: %+v vs %+v", tr1, tr2)
		}
		if tr1.Fraction < 0 || tr1.Fraction > 1 {
			t.Fatalf("fraction %v out of range", tr1.Fraction)
		}
		if tr1.Fraction == 1 && (tr1.StartSolid || tr1.AllSolid) == false && tr1.EndPos != end {
			t.Fatalf("clean miss endpos %v != %v", tr1.EndPos, end)
		}
		for j := 0; j < 3; j++ {
			want := start[j] + tr1.Fraction*(end[j]-start[j])
			if math.Abs(float64(tr1.EndPos[j]-want)) > 1e-4 {
				t.Fatalf("endpos not on segment: %v vs %v", tr1.EndPos, want)
			}
		}
	}
}

func TestPointContents(t *testing.T) {
	m := unitCubeMap()
	if c := m.PointContents([3]float32{0.5, 0.5, 0.5}, 0); c&ContentsSolid == 0 {
		t.Fatalf("inside cube contents = %#x", c)
	}
	if c := m.PointContents([3]float32{5, 5, 5}, 0); c != 0 {
		t.Fatalf("open space contents = %#x", c)
	}
}

func TestTempBoxModel(t *testing.T) {
	m := unitCubeMap()
	h := m.TempBoxModel([3]float32{-16, -16, -24}, [3]float32{16, 16, 32})
	if h != BoxModelHandle {
		t.Fatalf("handle = %d", h)
	}

	tr := m.BoxTrace(
		[3]float32{-64, 0, 0},
		[3]float32{64, 0, 0},
		[3]float32{}, [3]float32{}, h, MaskAll)
	if tr.Fraction == 1 {
		t.Fatal("trace through temp box missed")
	}
	if tr.PlaneNormal != [3]float32{-1, 0, 0} {
		t.Fatalf("plane normal = %v", tr.PlaneNormal)
	}

	if c := m.PointContents([3]float32{0, 0, 0}, h); c&ContentsBody == 0 {
		t.Fatalf("temp box contents = %#x", c)
	}
}

func TestTransformedBoxTrace(t *testing.T) {
	m := unitCubeMap()
	h := m.TempBoxModel([3]float32{-8, -8, -8}, [3]float32{8, 8, 8})

	// box moved to (100, 0, 0): a trace there must hit, a trace at the
	// origin must miss
	tr := m.TransformedBoxTrace(
		[3]float32{60, 0, 0}, [3]float32{140, 0, 0},
		[3]float32{}, [3]float32{}, h, MaskAll,
		[3]float32{100, 0, 0}, [3]float32{})
	if tr.Fraction == 1 {
		t.Fatal("transformed trace missed the moved box")
	}
	if math.Abs(float64(tr.EndPos[0]-92)) > 1 {
		t.Fatalf("stopped at %v, want near x=92", tr.EndPos)
	}

	tr = m.TransformedBoxTrace(
		[3]float32{-60, 40, 0}, [3]float32{60, 40, 0},
		[3]float32{}, [3]float32{}, h, MaskAll,
		[3]float32{100, 0, 0}, [3]float32{})
	if tr.Fraction != 1 {
		t.Fatal("offset trace should miss the moved box")
	}
}
