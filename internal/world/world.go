// Package world tracks which entities occupy which spatial cells. A small
// fixed-depth kd-tree of sectors holds intrusive chains of linked
// entities; broadphase box queries and contact tests walk it. Storage is
// preallocated and index-free of the Go heap once constructed.
package world

// MaxGentities bounds entity slot numbers.
const MaxGentities = 1024

// sectorDepth 4 gives 16 leaf sectors over the world bounds.
const sectorDepth = 4

// Entity is the linkage view of one entity slot. The owning layer fills
// the bounds and contents before calling Link.
type Entity struct {
	Num      int
	AbsMin   [3]float32
	AbsMax   [3]float32
	Contents int32
	Linked   bool

	sector     int
	prev, next *Entity
}

type sector struct {
	axis     int // -1 for leaf
	dist     float32
	children [2]int
	head     *Entity // chain of entities resting at this sector
}

// World is the sector tree plus the entity slot table.
type World struct {
	sectors []sector
	ents    [MaxGentities]Entity
}

// New builds the sector tree over the given world bounds. Splits alternate
// between the wider of the two horizontal axes, the way the reference
// partitioning does.
func New(mins, maxs [3]float32) *World {
	w := &World{}
	for i := range w.ents {
		w.ents[i].Num = i
		w.ents[i].sector = -1
	}
	w.build(0, mins, maxs)
	return w
}

func (w *World) build(depth int, mins, maxs [3]float32) int {
	idx := len(w.sectors)
	w.sectors = append(w.sectors, sector{axis: -1})

	if depth == sectorDepth {
		return idx
	}

	axis := 0
	if maxs[1]-mins[1] > maxs[0]-mins[0] {
		axis = 1
	}
	dist := 0.5 * (maxs[axis] + mins[axis])

	mins1, maxs1 := mins, maxs
	mins2, maxs2 := mins, maxs
	maxs1[axis] = dist
	mins2[axis] = dist

	c0 := w.build(depth+1, mins2, maxs2)
	c1 := w.build(depth+1, mins1, maxs1)

	w.sectors[idx].axis = axis
	w.sectors[idx].dist = dist
	w.sectors[idx].children = [2]int{c0, c1}
	return idx
}

// Ent returns the linkage record for a slot.
func (w *World) Ent(num int) *Entity {
	if num < 0 || num >= MaxGentities {
		return nil
	}
	return &w.ents[num]
}

// Link inserts the entity into the smallest sector fully containing its
// absolute bounds. A linked entity is relinked in place.
func (w *World) Link(e *Entity) {
	if e.Linked {
		w.Unlink(e)
	}

	node := 0
	for {
		s := &w.sectors[node]
		if s.axis == -1 {
			break
		}
		if e.AbsMin[s.axis] > s.dist {
			node = s.children[0]
		} else if e.AbsMax[s.axis] < s.dist {
			node = s.children[1]
		} else {
			break // crosses the split plane, rest here
		}
	}

	s := &w.sectors[node]
	e.sector = node
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	e.Linked = true
}

// Unlink removes the entity from its chain. Safe to call when unlinked.
func (w *World) Unlink(e *Entity) {
	if !e.Linked {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		w.sectors[e.sector].head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	e.prev, e.next = nil, nil
	e.sector = -1
	e.Linked = false
}

// EntitiesInBox collects the slot numbers of linked entities whose bounds
// touch the query box, up to len(out) entries, and returns the count.
func (w *World) EntitiesInBox(mins, maxs [3]float32, out []int) int {
	n := 0
	w.boxEntities(0, mins, maxs, out, &n)
	return n
}

func (w *World) boxEntities(node int, mins, maxs [3]float32, out []int, n *int) {
	s := &w.sectors[node]
	for e := s.head; e != nil; e = e.next {
		if *n >= len(out) {
			return
		}
		if !overlaps(mins, maxs, e.AbsMin, e.AbsMax) {
			continue
		}
		out[*n] = e.Num
		*n++
	}
	if s.axis == -1 {
		return
	}
	if maxs[s.axis] > s.dist {
		w.boxEntities(s.children[0], mins, maxs, out, n)
	}
	if mins[s.axis] < s.dist {
		w.boxEntities(s.children[1], mins, maxs, out, n)
	}
}

// Contact reports whether a world-space box overlaps the entity's bounds.
func Contact(mins, maxs [3]float32, e *Entity) bool {
	if e == nil || !e.Linked {
		return false
	}
	return overlaps(mins, maxs, e.AbsMin, e.AbsMax)
}

func overlaps(aMin, aMax, bMin, bMax [3]float32) bool {
	for i := 0; i < 3; i++ {
		if aMin[i] > bMax[i] || aMax[i] < bMin[i] {
			return false
		}
	}
	return true
}
