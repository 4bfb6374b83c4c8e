// Package snap captures the authoritative world into per-client snapshots:
// a 32-slot ring of snapshot headers over a 2048-slot circular buffer of
// entity states. The ring is written only from the authoritative tick and
// read only by presentation queries, so the single-threaded engine needs
// no locking around it.
package snap

import "arena3/internal/wire"

const (
	// RingSize snapshots are retained per client; older sequences age out.
	RingSize = 32

	// EntityRingSize entity states back the snapshots; reads wrap.
	EntityRingSize = 2048

	// MaxSnapshotEntities caps one snapshot's entity view.
	MaxSnapshotEntities = wire.SnapEntities
)

// Snapshot is one atomic per-client view of a completed tick. Entities are
// stored as (first, count) into the shared entity ring.
type Snapshot struct {
	Valid      bool
	Sequence   int
	ServerTime int32
	Ping       int32
	SnapFlags  int32
	AreaMask   [wire.MaxAreaBytes]byte
	PS         wire.PlayerState

	First int
	Count int
}

// Ring is the per-client snapshot store.
type Ring struct {
	snaps    [RingSize]Snapshot
	entities [EntityRingSize]wire.EntityState
	nextEnt  int
	sequence int
}

// Current returns the most recent snapshot sequence number; zero before
// the first capture.
func (r *Ring) Current() int { return r.sequence }

// Capture appends a snapshot of the given player state and entity views.
// The player state crosses by value; entities beyond the per-snapshot cap
// are dropped. Returns the new sequence number.
func (r *Ring) Capture(serverTime int32, ping int32, ps *wire.PlayerState, ents []*wire.EntityState) int {
	if len(ents) > MaxSnapshotEntities {
		ents = ents[:MaxSnapshotEntities]
	}

	r.sequence++
	snap := &r.snaps[r.sequence&(RingSize-1)]
	*snap = Snapshot{
		Valid:      true,
		Sequence:   r.sequence,
		ServerTime: serverTime,
		Ping:       ping,
		First:      r.nextEnt,
		Count:      len(ents),
	}
	if ps != nil {
		snap.PS = *ps
	}
	for _, es := range ents {
		r.entities[r.nextEnt&(EntityRingSize-1)] = *es
		r.nextEnt++
	}
	return r.sequence
}

// Get returns the snapshot with the given sequence, or nil when it was
// never captured or has aged out of the ring.
func (r *Ring) Get(seq int) *Snapshot {
	if seq <= 0 || seq > r.sequence || seq <= r.sequence-RingSize {
		return nil
	}
	snap := &r.snaps[seq&(RingSize-1)]
	if !snap.Valid || snap.Sequence != seq {
		return nil
	}
	// entities overwritten by later captures invalidate the view too
	if r.nextEnt-snap.First > EntityRingSize-MaxSnapshotEntities {
		return nil
	}
	return snap
}

// Entity returns the i'th entity of a snapshot, wrapping the ring.
func (r *Ring) Entity(snap *Snapshot, i int) *wire.EntityState {
	return &r.entities[(snap.First+i)&(EntityRingSize-1)]
}

// Marshal writes the snapshot into VM memory at addr using the exact
// snapshot_t layout: flags, ping, server time, zeroed area mask, player
// state, then the entity states.
func (r *Ring) Marshal(snap *Snapshot, mem wire.Mem, addr int32) {
	var head [wire.SnapPlayerStateOfs]byte
	wire.PutI32(head[:], wire.SnapFlagsOfs, snap.SnapFlags)
	wire.PutI32(head[:], wire.SnapPingOfs, snap.Ping)
	wire.PutI32(head[:], wire.SnapServerTimeOfs, snap.ServerTime)
	copy(head[wire.SnapAreaMaskOfs:], snap.AreaMask[:])
	mem.WriteBytes(addr, head[:])
	mem.WriteBytes(addr+wire.SnapPlayerStateOfs, snap.PS.B[:])

	var count [4]byte
	wire.PutI32(count[:], 0, int32(snap.Count))
	mem.WriteBytes(addr+wire.SnapNumEntitiesOfs, count[:])
	for i := 0; i < snap.Count; i++ {
		es := r.Entity(snap, i)
		mem.WriteBytes(addr+wire.SnapEntitiesOfs+int32(i)*wire.EntityStateBytes, es.B[:])
	}
}
