package wire

// PlayerState is one 468-byte player record in its exact wire layout.
// Typed accessors cover the fields the host itself computes with; the VM
// sees the raw bytes.
type PlayerState struct {
	B [PlayerStateBytes]byte
}

func (ps *PlayerState) CommandTime() int32     { return I32(ps.B[:], PSCommandTime) }
func (ps *PlayerState) SetCommandTime(v int32) { PutI32(ps.B[:], PSCommandTime, v) }

func (ps *PlayerState) PMType() int32     { return I32(ps.B[:], PSPMType) }
func (ps *PlayerState) SetPMType(v int32) { PutI32(ps.B[:], PSPMType, v) }

func (ps *PlayerState) PMFlags() int32     { return I32(ps.B[:], PSPMFlags) }
func (ps *PlayerState) SetPMFlags(v int32) { PutI32(ps.B[:], PSPMFlags, v) }

func (ps *PlayerState) PMTime() int32     { return I32(ps.B[:], PSPMTime) }
func (ps *PlayerState) SetPMTime(v int32) { PutI32(ps.B[:], PSPMTime, v) }

func (ps *PlayerState) Origin() [3]float32     { return Vec3(ps.B[:], PSOrigin) }
func (ps *PlayerState) SetOrigin(v [3]float32) { PutVec3(ps.B[:], PSOrigin, v) }

func (ps *PlayerState) Velocity() [3]float32     { return Vec3(ps.B[:], PSVelocity) }
func (ps *PlayerState) SetVelocity(v [3]float32) { PutVec3(ps.B[:], PSVelocity, v) }

func (ps *PlayerState) Gravity() int32     { return I32(ps.B[:], PSGravity) }
func (ps *PlayerState) SetGravity(v int32) { PutI32(ps.B[:], PSGravity, v) }

func (ps *PlayerState) Speed() int32     { return I32(ps.B[:], PSSpeed) }
func (ps *PlayerState) SetSpeed(v int32) { PutI32(ps.B[:], PSSpeed, v) }

func (ps *PlayerState) DeltaAngle(i int) int32 { return I32(ps.B[:], PSDeltaAngles+4*i) }
func (ps *PlayerState) SetDeltaAngle(i int, v int32) {
	PutI32(ps.B[:], PSDeltaAngles+4*i, v)
}

func (ps *PlayerState) GroundEntityNum() int32     { return I32(ps.B[:], PSGroundEntity) }
func (ps *PlayerState) SetGroundEntityNum(v int32) { PutI32(ps.B[:], PSGroundEntity, v) }

func (ps *PlayerState) ClientNum() int32     { return I32(ps.B[:], PSClientNum) }
func (ps *PlayerState) SetClientNum(v int32) { PutI32(ps.B[:], PSClientNum, v) }

func (ps *PlayerState) ViewAngles() [3]float32     { return Vec3(ps.B[:], PSViewAngles) }
func (ps *PlayerState) SetViewAngles(v [3]float32) { PutVec3(ps.B[:], PSViewAngles, v) }

func (ps *PlayerState) ViewHeight() int32     { return I32(ps.B[:], PSViewHeight) }
func (ps *PlayerState) SetViewHeight(v int32) { PutI32(ps.B[:], PSViewHeight, v) }

func (ps *PlayerState) Stat(i int) int32       { return I32(ps.B[:], PSStats+4*i) }
func (ps *PlayerState) SetStat(i int, v int32) { PutI32(ps.B[:], PSStats+4*i, v) }
func (ps *PlayerState) Ping() int32            { return I32(ps.B[:], PSPing) }
func (ps *PlayerState) SetPing(v int32)        { PutI32(ps.B[:], PSPing, v) }
func (ps *PlayerState) EFlags() int32          { return I32(ps.B[:], PSEFlags) }
func (ps *PlayerState) SetEFlags(v int32)      { PutI32(ps.B[:], PSEFlags, v) }
func (ps *PlayerState) Weapon() int32          { return I32(ps.B[:], PSWeapon) }
func (ps *PlayerState) SetWeapon(v int32)      { PutI32(ps.B[:], PSWeapon, v) }
func (ps *PlayerState) EventSequence() int32   { return I32(ps.B[:], PSEventSequence) }
func (ps *PlayerState) PmoveFramecount() int32 { return I32(ps.B[:], PSPmoveFramecnt) }
func (ps *PlayerState) SetPmoveFramecount(v int32) {
	PutI32(ps.B[:], PSPmoveFramecnt, v)
}

// EntityState is one 208-byte entity record in its exact wire layout.
type EntityState struct {
	B [EntityStateBytes]byte
}

func (es *EntityState) Number() int32          { return I32(es.B[:], ESNumber) }
func (es *EntityState) SetNumber(v int32)      { PutI32(es.B[:], ESNumber, v) }
func (es *EntityState) EType() int32           { return I32(es.B[:], ESEType) }
func (es *EntityState) SetEType(v int32)       { PutI32(es.B[:], ESEType, v) }
func (es *EntityState) EFlags() int32          { return I32(es.B[:], ESEFlags) }
func (es *EntityState) SetEFlags(v int32)      { PutI32(es.B[:], ESEFlags, v) }
func (es *EntityState) Origin() [3]float32     { return Vec3(es.B[:], ESOrigin) }
func (es *EntityState) SetOrigin(v [3]float32) { PutVec3(es.B[:], ESOrigin, v) }
func (es *EntityState) Angles() [3]float32     { return Vec3(es.B[:], ESAngles) }
func (es *EntityState) SetAngles(v [3]float32) { PutVec3(es.B[:], ESAngles, v) }
func (es *EntityState) ModelIndex() int32      { return I32(es.B[:], ESModelIndex) }
func (es *EntityState) SetModelIndex(v int32)  { PutI32(es.B[:], ESModelIndex, v) }
func (es *EntityState) ClientNum() int32       { return I32(es.B[:], ESClientNum) }
func (es *EntityState) SetClientNum(v int32)   { PutI32(es.B[:], ESClientNum, v) }
func (es *EntityState) Solid() int32           { return I32(es.B[:], ESSolid) }
func (es *EntityState) SetSolid(v int32)       { PutI32(es.B[:], ESSolid, v) }
func (es *EntityState) Event() int32           { return I32(es.B[:], ESEvent) }
func (es *EntityState) SetEvent(v int32)       { PutI32(es.B[:], ESEvent, v) }
func (es *EntityState) EventParm() int32       { return I32(es.B[:], ESEventParm) }
func (es *EntityState) GroundEntityNum() int32 { return I32(es.B[:], ESGroundEntity) }

// PosTrajectoryBase returns trBase of the position trajectory.
func (es *EntityState) PosTrajectoryBase() [3]float32 {
	return Vec3(es.B[:], ESPos+TrajectoryBase)
}

// SetPosTrajectory fills the position trajectory as a stationary one.
func (es *EntityState) SetPosTrajectory(base [3]float32) {
	PutI32(es.B[:], ESPos+TrajectoryType, 0) // TR_STATIONARY
	PutVec3(es.B[:], ESPos+TrajectoryBase, base)
}

// UserCmd is one 24-byte client input frame.
type UserCmd struct {
	ServerTime int32
	Angles     [3]int32
	Buttons    int32
	Weapon     byte
	Forward    int8
	Right      int8
	Up         int8
}

// Encode packs the command into its wire layout.
func (c *UserCmd) Encode(b []byte) {
	PutI32(b, 0, c.ServerTime)
	PutI32(b, 4, c.Angles[0])
	PutI32(b, 8, c.Angles[1])
	PutI32(b, 12, c.Angles[2])
	PutI32(b, 16, c.Buttons)
	b[20] = c.Weapon
	b[21] = byte(c.Forward)
	b[22] = byte(c.Right)
	b[23] = byte(c.Up)
}

// Decode unpacks the command from its wire layout.
func (c *UserCmd) Decode(b []byte) {
	c.ServerTime = I32(b, 0)
	c.Angles[0] = I32(b, 4)
	c.Angles[1] = I32(b, 8)
	c.Angles[2] = I32(b, 12)
	c.Buttons = I32(b, 16)
	c.Weapon = b[20]
	c.Forward = int8(b[21])
	c.Right = int8(b[22])
	c.Up = int8(b[23])
}

// Trace is a collision query result. Marshal writes the exact trace_t
// layout at a VM address.
type Trace struct {
	AllSolid     bool
	StartSolid   bool
	Fraction     float32
	EndPos       [3]float32
	PlaneNormal  [3]float32
	PlaneDist    float32
	PlaneType    uint8
	PlaneSign    uint8
	SurfaceFlags int32
	Contents     int32
	EntityNum    int32
}

// Marshal writes the trace into VM memory at addr.
func (tr *Trace) Marshal(mem Mem, addr int32) {
	var b [TraceBytes]byte
	PutI32(b[:], TrAllSolid, boolWord(tr.AllSolid))
	PutI32(b[:], TrStartSolid, boolWord(tr.StartSolid))
	PutF32(b[:], TrFraction, tr.Fraction)
	PutVec3(b[:], TrEndPos, tr.EndPos)
	PutVec3(b[:], TrPlaneNormal, tr.PlaneNormal)
	PutF32(b[:], TrPlaneDist, tr.PlaneDist)
	b[TrPlaneType] = tr.PlaneType
	b[TrPlaneSign] = tr.PlaneSign
	PutI32(b[:], TrSurfaceFlags, tr.SurfaceFlags)
	PutI32(b[:], TrContents, tr.Contents)
	PutI32(b[:], TrEntityNum, tr.EntityNum)
	mem.WriteBytes(addr, b[:])
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
