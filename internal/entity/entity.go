// Package entity implements Entity and EntityManager: the dense entity
// store with stable, never-reused ids and insertion-order iteration,
// which is the sole source of deterministic script-execution ordering.
package entity

import (
	"fmt"

	"github.com/hexforge/sim/internal/hexcoord"
)

// ID is a stable, strictly monotonically increasing identifier. 0 is
// reserved and never assigned to a spawned entity.
type ID uint64

// Role is the closed set of entity roles. Its max energy is fixed by
// role and immutable after spawn.
type Role int

const (
	Worker Role = iota
	Combat
	Scout
	Engineer
)

func (r Role) String() string {
	switch r {
	case Worker:
		return "worker"
	case Combat:
		return "combat"
	case Scout:
		return "scout"
	case Engineer:
		return "engineer"
	default:
		return "unknown"
	}
}

// MaxEnergy returns the role-dependent, immutable max_energy constant.
func (r Role) MaxEnergy() float64 {
	switch r {
	case Worker:
		return 100
	case Combat:
		return 150
	case Scout:
		return 80
	case Engineer:
		return 120
	default:
		return 100
	}
}

// Entity is one simulated actor. Script is the owned script source
// attached at spawn or seed time; it may be empty, meaning the entity
// is unscripted and skipped by the TickRunner.
type Entity struct {
	ID        ID
	Position  hexcoord.Coord
	Role      Role
	Energy    float64
	MaxEnergy float64
	Alive     bool
	Script    string

	memHandle int
	hasMemory bool
}

// Manager owns all Entity records and the id generator. Storage is a
// dense slice in insertion order plus an id->slot index, so iteration
// order (the sole source of deterministic script ordering) is
// preserved across spawns, destroys, and compaction.
type Manager struct {
	nextID ID
	slots  []Entity
	index  map[ID]int
}

func NewManager() *Manager {
	return &Manager{
		nextID: 1,
		slots:  make([]Entity, 0, 64),
		index:  make(map[ID]int, 64),
	}
}

// Spawn inserts a live entity at position with energy = role.MaxEnergy().
// It fails only on allocation exhaustion, which cannot occur in normal
// operation of Go's slice/map primitives and is therefore modeled as
// always succeeding here; the signature keeps the error return so
// callers follow the same failure-handling shape as the rest of the
// core's allocating operations.
func (m *Manager) Spawn(pos hexcoord.Coord, role Role) (ID, error) {
	id := m.nextID
	m.nextID++
	e := Entity{
		ID:        id,
		Position:  pos,
		Role:      role,
		Energy:    role.MaxEnergy(),
		MaxEnergy: role.MaxEnergy(),
		Alive:     true,
	}
	m.slots = append(m.slots, e)
	m.index[id] = len(m.slots) - 1
	return id, nil
}

// Destroy soft-deletes id: alive is cleared and energy zeroed. It is
// idempotent and reports whether the entity was alive beforehand.
func (m *Manager) Destroy(id ID) bool {
	slot, ok := m.index[id]
	if !ok {
		return false
	}
	e := &m.slots[slot]
	wasAlive := e.Alive
	e.Alive = false
	e.Energy = 0
	return wasAlive
}

func (m *Manager) Get(id ID) (*Entity, bool) {
	slot, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return &m.slots[slot], true
}

// Each iterates alive entities in insertion order, stopping early if
// fn returns false. This is the deterministic ordering the TickRunner
// relies on.
func (m *Manager) Each(fn func(*Entity) bool) {
	for i := range m.slots {
		e := &m.slots[i]
		if !e.Alive {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// EntitiesAt writes ids of alive entities at c into out, returning the
// count written. It never allocates; truncation is reported as
// returned count == len(out).
func (m *Manager) EntitiesAt(c hexcoord.Coord, out []ID) int {
	n := 0
	for i := range m.slots {
		if n >= len(out) {
			break
		}
		e := &m.slots[i]
		if !e.Alive || e.Position != c {
			continue
		}
		out[n] = e.ID
		n++
	}
	return n
}

// Nearby writes ids of alive entities within hex distance <= rng of c,
// in insertion order, optionally filtered by role, truncating at
// len(out).
func (m *Manager) Nearby(c hexcoord.Coord, rng int, roleFilter *Role, out []ID) int {
	n := 0
	for i := range m.slots {
		if n >= len(out) {
			break
		}
		e := &m.slots[i]
		if !e.Alive {
			continue
		}
		if roleFilter != nil && e.Role != *roleFilter {
			continue
		}
		if hexcoord.Distance(c, e.Position) > rng {
			continue
		}
		out[n] = e.ID
		n++
	}
	return n
}

// Compact removes dead entries, preserving id stability and insertion
// order of surviving entities. It never recycles ids.
func (m *Manager) Compact() {
	survivors := m.slots[:0:0]
	newIndex := make(map[ID]int, len(m.index))
	for _, e := range m.slots {
		if !e.Alive {
			continue
		}
		survivors = append(survivors, e)
		newIndex[e.ID] = len(survivors) - 1
	}
	m.slots = survivors
	m.index = newIndex
}

// ReleaseMemory clears the entity's remembered VM registry handle on
// destroy, matching the spec's required release hook so memory
// tables don't accumulate linearly in spawn count.
func (m *Manager) ReleaseMemory(id ID) {
	if e, ok := m.Get(id); ok {
		e.memHandle = 0
		e.hasMemory = false
	}
}

// MemoryHandle returns the entity's persistent memory-table handle,
// and whether one has already been assigned.
func (m *Manager) MemoryHandle(id ID) (int, bool) {
	e, ok := m.Get(id)
	if !ok {
		return 0, false
	}
	return e.memHandle, e.hasMemory
}

// SetMemoryHandle assigns the entity's memory-table handle, created
// lazily on first script invocation for that entity.
func (m *Manager) SetMemoryHandle(id ID, handle int) {
	if e, ok := m.Get(id); ok {
		e.memHandle = handle
		e.hasMemory = true
	}
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity{id=%d pos=%v role=%s energy=%.1f/%.1f alive=%v}",
		e.ID, e.Position, e.Role, e.Energy, e.MaxEnergy, e.Alive)
}
