package pmove

import (
	"math"
	"testing"

	"arena3/internal/bsp/bsptest"
	"arena3/internal/cm"
	"arena3/internal/wire"
)

// floorTrace builds a trace func over a large floor whose top surface sits
// a quarter unit under the player's feet at origin (0,0,64) — the resting
// separation the clip epsilon maintains in live play.
func floorTrace() TraceFunc {
	m := cm.Load(bsptest.World(bsptest.Box{
		Mins: [3]float32{-2048, -2048, -64},
		Maxs: [3]float32{2048, 2048, 39.75},
	}))
	return func(start, end, mins, maxs [3]float32) wire.Trace {
		return m.BoxTrace(start, end, mins, maxs, 0, cm.MaskPlayerSolid)
	}
}

func standingState() *wire.PlayerState {
	ps := &wire.PlayerState{}
	ps.SetOrigin([3]float32{0, 0, 64})
	ps.SetCommandTime(1000)
	return ps
}

func TestJumpSetsImpulse(t *testing.T) {
	ps := standingState()
	m := &Move{
		PS:    ps,
		Cmd:   wire.UserCmd{ServerTime: 1050, Up: 20},
		Trace: floorTrace(),
	}
	Run(m)

	if got := ps.Velocity()[2]; got != JumpVelocity {
		t.Fatalf("velocity.z = %v, want %v", got, float32(JumpVelocity))
	}
	if ps.GroundEntityNum() != EntityNumNone {
		t.Fatal("ground bit still set after jump")
	}
}

func TestIdleStaysPut(t *testing.T) {
	ps := standingState()
	tr := floorTrace()

	// a full second of 50 ms ticks with no input
	for tick := 1; tick <= 20; tick++ {
		Run(&Move{
			PS:    ps,
			Cmd:   wire.UserCmd{ServerTime: 1000 + int32(tick)*50},
			Trace: tr,
		})
	}

	org := ps.Origin()
	if math.Abs(float64(org[0])) > 0.01 || math.Abs(float64(org[1])) > 0.01 ||
		math.Abs(float64(org[2]-64)) > 0.26 {
		t.Fatalf("origin drifted to %v", org)
	}
	if ps.Velocity() != ([3]float32{}) {
		t.Fatalf("velocity = %v, want zero", ps.Velocity())
	}
	if ps.GroundEntityNum() != EntityNumWorld {
		t.Fatalf("ground entity = %d", ps.GroundEntityNum())
	}
}

func TestRunAcceleratesAlongYaw(t *testing.T) {
	ps := standingState()
	tr := floorTrace()

	for tick := 1; tick <= 10; tick++ {
		Run(&Move{
			PS:    ps,
			Cmd:   wire.UserCmd{ServerTime: 1000 + int32(tick)*50, Forward: 127},
			Trace: tr,
		})
	}

	org := ps.Origin()
	if org[0] <= 10 {
		t.Fatalf("no forward progress: %v", org)
	}
	if math.Abs(float64(org[1])) > 0.01 {
		t.Fatalf("sideways drift: %v", org)
	}
	vel := ps.Velocity()
	if vel[0] <= 0 || vlen(vel) > DefaultSpeed+1 {
		t.Fatalf("velocity = %v", vel)
	}
}

func TestGravityPullsAirborne(t *testing.T) {
	ps := &wire.PlayerState{}
	ps.SetOrigin([3]float32{0, 0, 500})
	ps.SetCommandTime(1000)

	Run(&Move{
		PS:    ps,
		Cmd:   wire.UserCmd{ServerTime: 1050},
		Trace: floorTrace(),
	})

	if vz := ps.Velocity()[2]; vz >= 0 {
		t.Fatalf("airborne velocity.z = %v, want negative", vz)
	}
	if ps.GroundEntityNum() != EntityNumNone {
		t.Fatal("airborne player marked grounded")
	}
}

func TestRefusesBadTimeDelta(t *testing.T) {
	for _, dt := range []int32{0, -50, 201, 10000} {
		ps := standingState()
		before := ps.B
		Run(&Move{
			PS:    ps,
			Cmd:   wire.UserCmd{ServerTime: 1000 + dt, Forward: 127},
			Trace: floorTrace(),
		})
		if dt > 0 && dt <= MaxMoveMsec {
			t.Fatalf("test bug: delta %d is valid", dt)
		}
		if ps.B != before {
			t.Fatalf("state changed for refused delta %d", dt)
		}
	}
}

// TestDeterminism runs the same command stream twice and requires
// bit-identical player state.
func TestDeterminism(t *testing.T) {
	runOnce := func() [wire.PlayerStateBytes]byte {
		ps := standingState()
		tr := floorTrace()
		cmds := []wire.UserCmd{
			{ServerTime: 1050, Forward: 127},
			{ServerTime: 1100, Forward: 127, Right: -64},
			{ServerTime: 1150, Up: 20},
			{ServerTime: 1200, Forward: 50, Angles: [3]int32{0, 8192, 0}},
			{ServerTime: 1250},
			{ServerTime: 1300, Forward: -127},
		}
		for _, c := range cmds {
			Run(&Move{PS: ps, Cmd: c, Trace: tr})
		}
		return ps.B
	}

	a, b := runOnce(), runOnce()
	if a != b {
		t.Fatal("identical inputs produced different player states")
	}
}

func TestClipVelocitySlidesAlongWall(t *testing.T) {
	in := [3]float32{100, 50, 0}
	out := clipVelocity(in, [3]float32{-1, 0, 0}, Overclip)
	if out[0] > 0.2 {
		t.Fatalf("still moving into the wall: %v", out)
	}
	if math.Abs(float64(out[1]-50)) > 0.01 {
		t.Fatalf("lateral component lost: %v", out)
	}
}
