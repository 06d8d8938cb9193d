package algo

import (
	"math"
	"slices"

	"github.com/elektrokombinacija/pickplan/internal/core"
)

// Constraint forbids a vehicle from occupying a cell, or traversing a directed
// edge, at a timestep.
type Constraint struct {
	Vehicle core.VehicleCode
	Pos     core.Pos // Occupied cell, or the edge target
	T       int      // Arrival time
	IsEdge  bool
	From    core.Pos // Edge source
}

// Constraints is what the time-expanded search consults when generating
// successors. Blocker methods report the vehicle whose entry blocks the move.
type Constraints interface {
	VertexBlocked(v core.VehicleCode, p core.Pos, t int) (core.VehicleCode, bool)
	EdgeBlocked(v core.VehicleCode, from, to core.Pos, t int) (core.VehicleCode, bool)
	// LastVertexTime returns the latest t at which v may not occupy p, or -1.
	LastVertexTime(v core.VehicleCode, p core.Pos) int
	// Horizon returns the latest constrained timestep, or -1.
	Horizon() int
}

type noConstraints struct{}

func (noConstraints) VertexBlocked(core.VehicleCode, core.Pos, int) (core.VehicleCode, bool) {
	return "", false
}
func (noConstraints) EdgeBlocked(core.VehicleCode, core.Pos, core.Pos, int) (core.VehicleCode, bool) {
	return "", false
}
func (noConstraints) LastVertexTime(core.VehicleCode, core.Pos) int { return -1 }
func (noConstraints) Horizon() int                                  { return -1 }

type spaceTime struct {
	P core.Pos
	T int
}

type edgeTime struct {
	From, To core.Pos
	T        int
}

type reservation struct {
	t     int
	owner core.VehicleCode
}

// ReservationTable is the cooperative planner's shared table. An entry is
// owned by the vehicle that committed it and blocks every other vehicle.
// It only grows.
type ReservationTable struct {
	vertex  map[spaceTime][]core.VehicleCode
	edge    map[edgeTime][]core.VehicleCode
	cells   map[core.Pos][]reservation
	parked  map[core.Pos]reservation // cell held from t onwards
	log     []Constraint
	horizon int
}

// NewReservationTable creates an empty table.
func NewReservationTable() *ReservationTable {
	return &ReservationTable{
		vertex:  make(map[spaceTime][]core.VehicleCode),
		edge:    make(map[edgeTime][]core.VehicleCode),
		cells:   make(map[core.Pos][]reservation),
		parked:  make(map[core.Pos]reservation),
		horizon: -1,
	}
}

// Add commits a reservation. Vehicle is the owner.
func (rt *ReservationTable) Add(c Constraint) {
	if c.IsEdge {
		k := edgeTime{From: c.From, To: c.Pos, T: c.T}
		rt.edge[k] = append(rt.edge[k], c.Vehicle)
	} else {
		k := spaceTime{P: c.Pos, T: c.T}
		rt.vertex[k] = append(rt.vertex[k], c.Vehicle)
		rt.cells[c.Pos] = append(rt.cells[c.Pos], reservation{t: c.T, owner: c.Vehicle})
	}
	if c.T > rt.horizon {
		rt.horizon = c.T
	}
	rt.log = append(rt.log, c)
}

// ReserveSteps commits a vertex reservation for every step.
func (rt *ReservationTable) ReserveSteps(v core.VehicleCode, steps []core.Step) {
	for _, s := range steps {
		rt.Add(Constraint{Vehicle: v, Pos: s.Pos, T: s.T})
	}
}

// ReserveLeg commits a leg. seg[0] is the step the leg departed from and is
// already reserved. Every move a->b arriving at t also reserves b->a at t,
// the swap another vehicle would need to collide head-on.
func (rt *ReservationTable) ReserveLeg(v core.VehicleCode, seg []core.Step) {
	for i := 1; i < len(seg); i++ {
		prev, cur := seg[i-1], seg[i]
		rt.Add(Constraint{Vehicle: v, Pos: cur.Pos, T: cur.T})
		if prev.Pos != cur.Pos {
			rt.Add(Constraint{Vehicle: v, Pos: prev.Pos, From: cur.Pos, T: cur.T, IsEdge: true})
		}
	}
	if n := len(seg); n > 0 && seg[n-1].Action == core.ActionPick {
		last := seg[n-1]
		rt.Add(Constraint{Vehicle: v, Pos: last.Pos, T: last.T + 1})
	}
}

// Park holds the cell of a finished vehicle's last step for every t from
// that step on. A cell keeps its first parked owner.
func (rt *ReservationTable) Park(v core.VehicleCode, last core.Step) {
	if _, ok := rt.parked[last.Pos]; ok {
		return
	}
	rt.parked[last.Pos] = reservation{t: last.T, owner: v}
	if last.T > rt.horizon {
		rt.horizon = last.T
	}
}

// VertexBlocked implements Constraints.
func (rt *ReservationTable) VertexBlocked(v core.VehicleCode, p core.Pos, t int) (core.VehicleCode, bool) {
	if owner, ok := otherOwner(rt.vertex[spaceTime{P: p, T: t}], v); ok {
		return owner, true
	}
	if r, ok := rt.parked[p]; ok && r.owner != v && t >= r.t {
		return r.owner, true
	}
	return "", false
}

// EdgeBlocked implements Constraints.
func (rt *ReservationTable) EdgeBlocked(v core.VehicleCode, from, to core.Pos, t int) (core.VehicleCode, bool) {
	return otherOwner(rt.edge[edgeTime{From: from, To: to, T: t}], v)
}

// LastVertexTime implements Constraints. A cell parked by another vehicle
// is blocked forever.
func (rt *ReservationTable) LastVertexTime(v core.VehicleCode, p core.Pos) int {
	if r, ok := rt.parked[p]; ok && r.owner != v {
		return math.MaxInt
	}
	last := -1
	for _, r := range rt.cells[p] {
		if r.owner != v && r.t > last {
			last = r.t
		}
	}
	return last
}

// Horizon implements Constraints.
func (rt *ReservationTable) Horizon() int { return rt.horizon }

// Len returns the number of committed reservations.
func (rt *ReservationTable) Len() int { return len(rt.log) }

// Entries returns the committed reservations in commit order.
func (rt *ReservationTable) Entries() []Constraint {
	return slices.Clone(rt.log)
}

func otherOwner(owners []core.VehicleCode, v core.VehicleCode) (core.VehicleCode, bool) {
	for _, o := range owners {
		if o != v {
			return o, true
		}
	}
	return "", false
}

// ConstraintSet is an immutable, sorted CBS constraint set. An entry blocks
// only the vehicle it names. With returns a new set and never mutates the
// receiver, so sets may be shared across goroutines.
type ConstraintSet struct {
	items []Constraint
	key   uint64
}

// EmptyConstraintSet is the root set.
var EmptyConstraintSet = &ConstraintSet{}

// With returns the set extended by c. Adding an existing constraint returns
// the receiver.
func (cs *ConstraintSet) With(c Constraint) *ConstraintSet {
	i, found := slices.BinarySearchFunc(cs.items, c, compareConstraint)
	if found {
		return cs
	}
	items := make([]Constraint, 0, len(cs.items)+1)
	items = append(items, cs.items[:i]...)
	items = append(items, c)
	items = append(items, cs.items[i:]...)
	return &ConstraintSet{items: items, key: cs.key + hashConstraint(c)}
}

// Len returns the number of constraints.
func (cs *ConstraintSet) Len() int { return len(cs.items) }

// Key is an order-independent hash of the set's content.
func (cs *ConstraintSet) Key() uint64 { return cs.key }

// Equal reports whether both sets hold the same constraints.
func (cs *ConstraintSet) Equal(o *ConstraintSet) bool {
	return cs.key == o.key && slices.Equal(cs.items, o.items)
}

// Items returns the constraints in canonical order.
func (cs *ConstraintSet) Items() []Constraint {
	return slices.Clone(cs.items)
}

// Contains reports whether c is in the set.
func (cs *ConstraintSet) Contains(c Constraint) bool {
	_, found := slices.BinarySearchFunc(cs.items, c, compareConstraint)
	return found
}

// at returns the constraints with timestep t.
func (cs *ConstraintSet) at(t int) []Constraint {
	lo, _ := slices.BinarySearchFunc(cs.items, t, func(c Constraint, t int) int { return c.T - t })
	hi := lo
	for hi < len(cs.items) && cs.items[hi].T == t {
		hi++
	}
	return cs.items[lo:hi]
}

// VertexBlocked implements Constraints.
func (cs *ConstraintSet) VertexBlocked(v core.VehicleCode, p core.Pos, t int) (core.VehicleCode, bool) {
	for _, c := range cs.at(t) {
		if !c.IsEdge && c.Vehicle == v && c.Pos == p {
			return v, true
		}
	}
	return "", false
}

// EdgeBlocked implements Constraints.
func (cs *ConstraintSet) EdgeBlocked(v core.VehicleCode, from, to core.Pos, t int) (core.VehicleCode, bool) {
	for _, c := range cs.at(t) {
		if c.IsEdge && c.Vehicle == v && c.From == from && c.Pos == to {
			return v, true
		}
	}
	return "", false
}

// LastVertexTime implements Constraints.
func (cs *ConstraintSet) LastVertexTime(v core.VehicleCode, p core.Pos) int {
	for i := len(cs.items) - 1; i >= 0; i-- {
		if c := cs.items[i]; !c.IsEdge && c.Vehicle == v && c.Pos == p {
			return c.T
		}
	}
	return -1
}

// Horizon implements Constraints.
func (cs *ConstraintSet) Horizon() int {
	if len(cs.items) == 0 {
		return -1
	}
	return cs.items[len(cs.items)-1].T
}

func compareConstraint(a, b Constraint) int {
	switch {
	case a.T != b.T:
		return a.T - b.T
	case a.Vehicle != b.Vehicle:
		if a.Vehicle < b.Vehicle {
			return -1
		}
		return 1
	case a.IsEdge != b.IsEdge:
		if !a.IsEdge {
			return -1
		}
		return 1
	case a.Pos.X != b.Pos.X:
		return a.Pos.X - b.Pos.X
	case a.Pos.Y != b.Pos.Y:
		return a.Pos.Y - b.Pos.Y
	case a.From.X != b.From.X:
		return a.From.X - b.From.X
	default:
		return a.From.Y - b.From.Y
	}
}

// hashConstraint mixes a constraint into 64 bits (FNV-1a over the fields,
// SplitMix64 finalizer). Set keys are sums, so insertion order is irrelevant.
func hashConstraint(c Constraint) uint64 {
	const prime = 1099511628211
	h := uint64(14695981039346656037)
	mix := func(v uint64) {
		h ^= v
		h *= prime
	}
	for i := 0; i < len(c.Vehicle); i++ {
		mix(uint64(c.Vehicle[i]))
	}
	mix(uint64(int64(c.T)))
	mix(uint64(int64(c.Pos.X)))
	mix(uint64(int64(c.Pos.Y)))
	if c.IsEdge {
		mix(1)
		mix(uint64(int64(c.From.X)))
		mix(uint64(int64(c.From.Y)))
	}
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}
