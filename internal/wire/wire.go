// Package wire is the single source of truth for the byte layouts shared
// with the compiled game modules: player state, entity state, user
// commands, trace results, snapshots, game state, and the vmCvar record.
// Every offset here is part of the binary contract with the bytecode
// images; fields are always accessed through these tables, never
// reinterpreted through native structs.
package wire

import (
	"encoding/binary"
	"math"
)

// Mem is the masked VM memory surface the marshalling helpers write
// through. qvm.VM satisfies it.
type Mem interface {
	ReadBytes(addr int32, p []byte)
	WriteBytes(addr int32, p []byte)
}

// Record sizes.
const (
	PlayerStateBytes = 468
	EntityStateBytes = 208
	UserCmdBytes     = 24
	TraceBytes       = 56
	VMCvarBytes      = 272
	OrientationBytes = 48

	MaxStats     = 16
	MaxPersist   = 16
	MaxPowerups  = 16
	MaxWeapons   = 16
	MaxAreaBytes = 32

	MaxConfigStrings  = 1024
	MaxGameStateChars = 16000

	// snapshot_t as the presentation module sees it
	SnapEntities       = 256
	SnapFlagsOfs       = 0
	SnapPingOfs        = 4
	SnapServerTimeOfs  = 8
	SnapAreaMaskOfs    = 12
	SnapPlayerStateOfs = 44
	SnapNumEntitiesOfs = SnapPlayerStateOfs + PlayerStateBytes
	SnapEntitiesOfs    = SnapNumEntitiesOfs + 4
	SnapshotBytes      = SnapEntitiesOfs + SnapEntities*EntityStateBytes + 8

	// gameState_t
	GameStateBytes = 4*MaxConfigStrings + MaxGameStateChars + 4

	// glconfig_t: only the tail fields carry real data in this core
	GLConfigBytes        = 11332
	GLConfigVidWidthOfs  = 11304
	GLConfigVidHeightOfs = 11308
	GLConfigAspectOfs    = 11312
)

// playerState_t field offsets.
const (
	PSCommandTime    = 0
	PSPMType         = 4
	PSBobCycle       = 8
	PSPMFlags        = 12
	PSPMTime         = 16
	PSOrigin         = 20
	PSVelocity       = 32
	PSWeaponTime     = 44
	PSGravity        = 48
	PSSpeed          = 52
	PSDeltaAngles    = 56
	PSGroundEntity   = 68
	PSLegsTimer      = 72
	PSLegsAnim       = 76
	PSTorsoTimer     = 80
	PSTorsoAnim      = 84
	PSMovementDir    = 88
	PSGrapplePoint   = 92
	PSEFlags         = 104
	PSEventSequence  = 108
	PSEvents         = 112
	PSEventParms     = 120
	PSExternalEvent  = 128
	PSClientNum      = 140
	PSWeapon         = 144
	PSWeaponState    = 148
	PSViewAngles     = 152
	PSViewHeight     = 164
	PSDamageEvent    = 168
	PSStats          = 184
	PSPersistant     = 248
	PSPowerups       = 312
	PSAmmo           = 376
	PSGeneric1       = 440
	PSLoopSound      = 444
	PSJumpPadEnt     = 448
	PSPing           = 452
	PSPmoveFramecnt  = 456
	PSJumpPadFrame   = 460
	PSEntityEventSeq = 464
)

// entityState_t field offsets. A trajectory is {trType, trTime, trDuration,
// trBase vec3, trDelta vec3} = 36 bytes.
const (
	ESNumber        = 0
	ESEType         = 4
	ESEFlags        = 8
	ESPos           = 12
	ESAPos          = 48
	ESTime          = 84
	ESTime2         = 88
	ESOrigin        = 92
	ESOrigin2       = 104
	ESAngles        = 116
	ESAngles2       = 128
	ESOtherEntity   = 140
	ESOtherEntity2  = 144
	ESGroundEntity  = 148
	ESConstantLight = 152
	ESLoopSound     = 156
	ESModelIndex    = 160
	ESModelIndex2   = 164
	ESClientNum     = 168
	ESFrame         = 172
	ESSolid         = 176
	ESEvent         = 180
	ESEventParm     = 184
	ESPowerups      = 188
	ESWeapon        = 192
	ESLegsAnim      = 196
	ESTorsoAnim     = 200
	ESGeneric1      = 204
	TrajectoryType  = 0
	TrajectoryTime  = 4
	TrajectoryDur   = 8
	TrajectoryBase  = 12
	TrajectoryDelta = 24
	TrajectoryBytes = 36
)

// entityShared_t offsets inside a sharedEntity (entity state first).
const (
	ShLinked        = EntityStateBytes + 0
	ShLinkCount     = EntityStateBytes + 4
	ShSvFlags       = EntityStateBytes + 8
	ShSingleClient  = EntityStateBytes + 12
	ShBModel        = EntityStateBytes + 16
	ShMins          = EntityStateBytes + 20
	ShMaxs          = EntityStateBytes + 32
	ShContents      = EntityStateBytes + 44
	ShAbsMin        = EntityStateBytes + 48
	ShAbsMax        = EntityStateBytes + 60
	ShCurrentOrigin = EntityStateBytes + 72
	ShCurrentAngles = EntityStateBytes + 84
	ShOwnerNum      = EntityStateBytes + 96
	SharedEntBytes  = EntityStateBytes + 100
)

// trace_t field offsets.
const (
	TrAllSolid     = 0
	TrStartSolid   = 4
	TrFraction     = 8
	TrEndPos       = 12
	TrPlaneNormal  = 24
	TrPlaneDist    = 36
	TrPlaneType    = 40
	TrPlaneSign    = 41
	TrSurfaceFlags = 44
	TrContents     = 48
	TrEntityNum    = 52
)

// vmCvar_t field offsets.
const (
	VCHandle   = 0
	VCModCount = 4
	VCValue    = 8
	VCInteger  = 12
	VCString   = 16
	VCStrLen   = 256
)

var le = binary.LittleEndian

// I32 reads a word from a raw record.
func I32(b []byte, ofs int) int32 { return int32(le.Uint32(b[ofs:])) }

// PutI32 writes a word into a raw record.
func PutI32(b []byte, ofs int, v int32) { le.PutUint32(b[ofs:], uint32(v)) }

// F32 reads a float from a raw record.
func F32(b []byte, ofs int) float32 { return math.Float32frombits(le.Uint32(b[ofs:])) }

// PutF32 writes a float into a raw record.
func PutF32(b []byte, ofs int, v float32) { le.PutUint32(b[ofs:], math.Float32bits(v)) }

// Vec3 reads three packed floats.
func Vec3(b []byte, ofs int) [3]float32 {
	return [3]float32{F32(b, ofs), F32(b, ofs+4), F32(b, ofs+8)}
}

// PutVec3 writes three packed floats.
func PutVec3(b []byte, ofs int, v [3]float32) {
	PutF32(b, ofs, v[0])
	PutF32(b, ofs+4, v[1])
	PutF32(b, ofs+8, v[2])
}

// AngleToShort packs a degree angle into 16-bit wire fixed point.
func AngleToShort(a float32) int32 {
	return int32(a*65536/360) & 65535
}

// ShortToAngle unpacks 16-bit wire fixed point into degrees.
func ShortToAngle(s int32) float32 {
	return float32(s) * (360.0 / 65536)
}

// SnapVector rounds a vec3 to integers the way the SNAPVECTOR trap does,
// so trajectories delta-compress cleanly.
func SnapVector(v *[3]float32) {
	for i := range v {
		v[i] = float32(int(v[i] + copysignHalf(v[i])))
	}
}

func copysignHalf(f float32) float32 {
	if f < 0 {
		return -0.5
	}
	return 0.5
}
