package server

import (
	"math"

	"arena3/internal/wire"
)

func f32(w int32) float32 { return math.Float32frombits(uint32(w)) }

// trace services the game module's TRACE trap: a sweep through the world
// followed by clips against every linked entity the moved box could
// touch. The nearest hit wins; its slot number rides in the result.
func (sv *Server) trace(args []int32) {
	resultAddr := args[1]
	start := sv.readVec3(args[2])
	mins := sv.readVec3(args[3])
	maxs := sv.readVec3(args[4])
	end := sv.readVec3(args[5])
	passEnt := args[6]
	mask := args[7]

	tr := sv.clipToWorldAndEntities(start, end, mins, maxs, passEnt, mask)
	tr.Marshal(sv.gvm, resultAddr)
}

func (sv *Server) clipToWorldAndEntities(start, end, mins, maxs [3]float32, passEnt, mask int32) wire.Trace {
	tr := sv.clip.BoxTrace(start, end, mins, maxs, 0, mask)
	if tr.Fraction < 1 {
		tr.EntityNum = entityNumWorld
	} else {
		tr.EntityNum = entityNumNone
	}
	if sv.world == nil || tr.AllSolid {
		return tr
	}

	// bounds of the whole move, padded by the box
	var qmins, qmaxs [3]float32
	for i := 0; i < 3; i++ {
		lo, hi := start[i], end[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		qmins[i] = lo + mins[i] - 1
		qmaxs[i] = hi + maxs[i] + 1
	}

	touch := make([]int, 128)
	n := sv.world.EntitiesInBox(qmins, qmaxs, touch)
	for i := 0; i < n; i++ {
		num := int32(touch[i])
		if num == passEnt {
			continue
		}
		entAddr := sv.gentBase + num*sv.gentSize
		if owner := sv.gvm.ReadI32(entAddr + wire.ShOwnerNum); owner == passEnt {
			continue // missiles and the like never clip their owner
		}
		contents := sv.gvm.ReadI32(entAddr + wire.ShContents)
		if contents&mask == 0 {
			continue
		}

		emins := sv.readVec3(entAddr + wire.ShMins)
		emaxs := sv.readVec3(entAddr + wire.ShMaxs)
		origin := sv.readVec3(entAddr + wire.ShCurrentOrigin)
		handle := sv.clip.TempBoxModel(emins, emaxs)

		etr := sv.clip.TransformedBoxTrace(start, end, mins, maxs, handle, mask, origin, [3]float32{})
		if etr.AllSolid || etr.StartSolid {
			tr.StartSolid = true
			if etr.AllSolid {
				tr.AllSolid = true
			}
		}
		if etr.Fraction < tr.Fraction {
			etr.EntityNum = num
			etr.StartSolid = etr.StartSolid || tr.StartSolid
			etr.AllSolid = etr.AllSolid || tr.AllSolid
			tr = etr
		}
	}
	return tr
}

// pointContents ORs the world's brush contents at a point with the
// contents of every linked entity whose bounds hold it.
func (sv *Server) pointContents(args []int32) int32 {
	p := sv.readVec3(args[1])
	passEnt := args[2]

	contents := sv.clip.PointContents(p, 0)
	if sv.world == nil {
		return contents
	}

	touch := make([]int, 128)
	n := sv.world.EntitiesInBox(p, p, touch)
	for i := 0; i < n; i++ {
		num := int32(touch[i])
		if num == passEnt {
			continue
		}
		entAddr := sv.gentBase + num*sv.gentSize
		contents |= sv.gvm.ReadI32(entAddr + wire.ShContents)
	}
	return contents
}
