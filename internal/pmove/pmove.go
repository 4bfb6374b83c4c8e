// Package pmove advances a player state by one input command:
// deterministic acceleration, friction and gravity with an iterated
// slide-and-clip against the collision engine. The constants here are
// simulation contracts; changing any of them changes player feel.
package pmove

import (
	"math"

	"arena3/internal/wire"
)

// Movement constants.
const (
	StopSpeed      = 100.0
	Friction       = 6.0
	Accelerate     = 10.0
	AirAccelerate  = 1.0
	AirWishCap     = 30.0
	DefaultGravity = 800
	DefaultSpeed   = 320
	JumpVelocity   = 270.0
	Overclip       = 1.001
	WalkableNormal = 0.7
	GroundProbe    = 0.25
	MaxClipPlanes  = 5
	MaxSlideBumps  = 4
	JumpThreshold  = 10
	MaxMoveMsec    = 200
)

// Entity number sentinels shared with the game modules.
const (
	EntityNumWorld = 1022
	EntityNumNone  = 1023
)

// Player bounding box.
var (
	PlayerMins = [3]float32{-15, -15, -24}
	PlayerMaxs = [3]float32{15, 15, 32}
)

// TraceFunc sweeps the player box through the world.
type TraceFunc func(start, end, mins, maxs [3]float32) wire.Trace

// Move carries one movement request. Trace must be set; the player state
// is updated in place.
type Move struct {
	PS    *wire.PlayerState
	Cmd   wire.UserCmd
	Trace TraceFunc
}

// Run executes the move. Commands with a time delta outside (0, 200] ms
// are refused without touching the state.
func Run(m *Move) {
	ps := m.PS
	msec := m.Cmd.ServerTime - ps.CommandTime()
	if msec <= 0 || msec > MaxMoveMsec {
		return
	}
	dt := float32(msec) * 0.001

	// decode command angles; pitch stays in the playable range
	var angles [3]float32
	for i := 0; i < 3; i++ {
		angles[i] = wire.ShortToAngle((m.Cmd.Angles[i] + ps.DeltaAngle(i)) & 65535)
	}
	angles[0] = normAngle(angles[0])
	if angles[0] > 89 && angles[0] < 271 {
		// keep the shorter side of the clamp
		if angles[0] < 180 {
			angles[0] = 89
		} else {
			angles[0] = 271
		}
	}
	ps.SetViewAngles(angles)

	speed := float32(ps.Speed())
	if speed <= 0 {
		speed = DefaultSpeed
	}
	gravity := float32(ps.Gravity())
	if gravity <= 0 {
		gravity = DefaultGravity
	}

	origin := ps.Origin()
	velocity := ps.Velocity()

	// ground test: a quarter-unit probe straight down
	probe := origin
	probe[2] -= GroundProbe
	gtr := m.Trace(origin, probe, PlayerMins, PlayerMaxs)
	grounded := gtr.Fraction < 1 && gtr.PlaneNormal[2] > WalkableNormal

	wishdir, wishspeed := wishMove(angles[1], m.Cmd, speed)

	if grounded {
		velocity = applyFriction(velocity, dt, true)
		velocity = accelerate(velocity, wishdir, wishspeed, Accelerate, dt)
		if int(m.Cmd.Up) >= JumpThreshold {
			velocity[2] = JumpVelocity
			grounded = false
		} else {
			velocity[2] = 0
		}
	} else {
		velocity[2] -= gravity * dt
		airWish := wishspeed
		if airWish > AirWishCap {
			airWish = AirWishCap
		}
		velocity = accelerate(velocity, wishdir, airWish, AirAccelerate, dt)
	}

	origin, velocity = slideMove(m.Trace, origin, velocity, dt)

	ps.SetOrigin(origin)
	ps.SetVelocity(velocity)
	ps.SetCommandTime(m.Cmd.ServerTime)
	ps.SetPmoveFramecount(ps.PmoveFramecount() + 1)
	if grounded {
		ground := gtr.EntityNum
		if ground < 0 {
			ground = EntityNumWorld
		}
		ps.SetGroundEntityNum(ground)
	} else {
		ps.SetGroundEntityNum(EntityNumNone)
	}
}

// wishMove projects the command's forward/right intent onto the ground
// plane and scales it so diagonal input is no faster than straight.
func wishMove(yaw float32, cmd wire.UserCmd, speed float32) ([3]float32, float32) {
	fm := float32(cmd.Forward)
	rm := float32(cmd.Right)
	um := float32(cmd.Up)

	maxMag := maxf(absf(fm), maxf(absf(rm), absf(um)))
	if maxMag == 0 {
		return [3]float32{}, 0
	}
	total := float32(math.Sqrt(float64(fm*fm + rm*rm + um*um)))
	scale := speed * maxMag / (127 * total)

	yawRad := float64(yaw) * math.Pi / 180
	sy, cy := math.Sincos(yawRad)
	forward := [3]float32{float32(cy), float32(sy), 0}
	right := [3]float32{float32(sy), -float32(cy), 0}

	var wishvel [3]float32
	for i := 0; i < 2; i++ {
		wishvel[i] = forward[i]*fm + right[i]*rm
	}
	mag := vlen(wishvel)
	if mag > 0 {
		inv := 1 / mag
		wishvel[0] *= inv
		wishvel[1] *= inv
	}
	return wishvel, mag * scale
}

func applyFriction(vel [3]float32, dt float32, onGround bool) [3]float32 {
	v := vel
	if onGround {
		v[2] = 0
	}
	speed := vlen(v)
	if speed < 1 {
		vel[0], vel[1] = 0, 0
		return vel
	}
	control := speed
	if control < StopSpeed {
		control = StopSpeed
	}
	drop := control * Friction * dt
	newspeed := speed - drop
	if newspeed < 0 {
		newspeed = 0
	}
	scale := newspeed / speed
	vel[0] *= scale
	vel[1] *= scale
	vel[2] *= scale
	return vel
}

func accelerate(vel, wishdir [3]float32, wishspeed, accel, dt float32) [3]float32 {
	current := vel[0]*wishdir[0] + vel[1]*wishdir[1] + vel[2]*wishdir[2]
	add := wishspeed - current
	if add <= 0 {
		return vel
	}
	aspeed := accel * dt * wishspeed
	if aspeed > add {
		aspeed = add
	}
	for i := 0; i < 3; i++ {
		vel[i] += aspeed * wishdir[i]
	}
	return vel
}

// slideMove advances the origin through up to MaxSlideBumps impacts,
// clipping velocity against each plane hit.
func slideMove(trace TraceFunc, origin, velocity [3]float32, dt float32) ([3]float32, [3]float32) {
	timeLeft := dt
	var planes [MaxClipPlanes][3]float32
	numPlanes := 0

	for bump := 0; bump < MaxSlideBumps; bump++ {
		var end [3]float32
		for i := 0; i < 3; i++ {
			end[i] = origin[i] + velocity[i]*timeLeft
		}

		tr := trace(origin, end, PlayerMins, PlayerMaxs)
		if tr.AllSolid {
			// wedged; keep horizontal motion possible next frame
			velocity[2] = 0
			return origin, velocity
		}
		if tr.Fraction > 0 {
			origin = tr.EndPos
		}
		if tr.Fraction == 1 {
			break
		}

		timeLeft -= timeLeft * tr.Fraction

		if numPlanes >= MaxClipPlanes {
			return origin, [3]float32{}
		}
		planes[numPlanes] = tr.PlaneNormal
		numPlanes++

		velocity = clipVelocity(velocity, tr.PlaneNormal, Overclip)

		// a velocity pushed back into an earlier plane means a crease or
		// corner: stop dead rather than jitter
		for i := 0; i < numPlanes-1; i++ {
			if dotv(velocity, planes[i]) < 0 {
				return origin, [3]float32{}
			}
		}
	}
	return origin, velocity
}

// clipVelocity slides a velocity along a plane with a touch of overbounce.
func clipVelocity(in, normal [3]float32, overbounce float32) [3]float32 {
	backoff := dotv(in, normal)
	if backoff < 0 {
		backoff *= overbounce
	} else {
		backoff /= overbounce
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		out[i] = in[i] - normal[i]*backoff
	}
	return out
}

func dotv(a, b [3]float32) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func vlen(v [3]float32) float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func normAngle(a float32) float32 {
	for a < 0 {
		a += 360
	}
	for a >= 360 {
		a -= 360
	}
	return a
}
