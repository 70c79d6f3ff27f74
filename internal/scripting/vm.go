// Package scripting wraps gopher-lua into the script VM the TickRunner
// drives: lifecycle, compiled-chunk caching, the entity/world API
// surfaces, and per-entity memory-table persistence.
//
// The VM registry described by the spec — current entity, current
// action queue, grid, manager, and per-entity memory tables — is kept
// on the Go side of the FFI boundary rather than inside Lua's own
// registry: an *invocationContext struct installed before each script
// runs and cleared after, and a handle-indexed map of retained
// *lua.LTable memory tables. Native functions are Go closures over the
// Engine and read whatever context is currently installed, which is
// the natural translation of "registry-keyed context passing" into a
// systems language (see design notes).
package scripting

import (
	"github.com/cespare/xxhash/v2"
	lua "github.com/yuin/gopher-lua"

	"github.com/hexforge/sim/internal/action"
	"github.com/hexforge/sim/internal/entity"
	"github.com/hexforge/sim/internal/hexgrid"
	"github.com/hexforge/sim/internal/logsink"
	"github.com/hexforge/sim/internal/simerr"
)

// invocationContext is installed before each script invocation and
// cleared after. Its pointers are guaranteed to outlive the
// invocation because the invocation is scoped within Invoke, which
// holds them for its whole body.
type invocationContext struct {
	entity  *entity.Entity
	queue   *action.Queue
	grid    *hexgrid.Grid
	manager *entity.Manager
}

// Engine is the script VM wrapper. It is single-threaded: the
// *lua.LState is never accessed concurrently.
type Engine struct {
	L    *lua.LState
	sink logsink.Sink

	ctx *invocationContext

	chunks map[uint64]*lua.LFunction

	memTables   map[int]*lua.LTable
	nextMemSlot int
}

// New constructs a VM loaded with only the safe standard-library
// subset: base, table, string, and math. Filesystem, process,
// debug, and module-loading facilities are never opened.
func New(sink logsink.Sink) *Engine {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	// The base library also defines dofile and loadfile, which read
	// files from disk; they are removed so no filesystem access remains.
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	e := &Engine{
		L:         L,
		sink:      sink,
		chunks:    make(map[uint64]*lua.LFunction),
		memTables: make(map[int]*lua.LTable),
	}
	e.installEntityAPI()
	e.installWorldAPI()
	return e
}

func (e *Engine) Close() {
	e.L.Close()
}

// compile loads src, reusing a cached *lua.LFunction when the source
// hash matches a previous invocation so unchanged scripts are not
// re-parsed every tick.
func (e *Engine) compile(src string) (*lua.LFunction, error) {
	h := xxhash.Sum64String(src)
	if fn, ok := e.chunks[h]; ok {
		return fn, nil
	}
	fn, err := e.L.LoadString(src)
	if err != nil {
		return nil, err
	}
	e.chunks[h] = fn
	return fn, nil
}

// Invoke runs ent's script to completion or error. It installs the
// invocation context, rebuilds the self snapshot, restores and
// re-persists the entity's memory table, and returns the ActionQueue
// the script filled. On failure the returned error is classified per
// the error taxonomy and the queue reflects only what was enqueued
// before the failure; callers must discard it rather than apply it.
func (e *Engine) Invoke(ent *entity.Entity, mgr *entity.Manager, grid *hexgrid.Grid) (*action.Queue, error) {
	if ent.Script == "" {
		return nil, nil
	}

	q := action.NewQueue()
	e.ctx = &invocationContext{entity: ent, queue: q, grid: grid, manager: mgr}
	defer func() { e.ctx = nil }()

	e.L.SetGlobal("self", e.buildSelf(ent))
	e.L.SetGlobal("memory", e.loadMemory(mgr, ent.ID))

	fn, err := e.compile(ent.Script)
	if err != nil {
		return q, simerr.New(simerr.VmLoadError, uint64(ent.ID), err.Error())
	}

	if err := e.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return q, simerr.New(simerr.VmRuntimeError, uint64(ent.ID), err.Error())
	}

	e.saveMemory(mgr, ent.ID)
	return q, nil
}

// buildSelf constructs a fresh, immutable snapshot table from the
// current entity. It is rebuilt at the top of every invocation, never
// mutated, to avoid staleness between the snapshot and live state.
func (e *Engine) buildSelf(ent *entity.Entity) *lua.LTable {
	t := e.L.NewTable()
	t.RawSetString("id", lua.LNumber(ent.ID))
	pos := e.L.NewTable()
	pos.RawSetString("q", lua.LNumber(ent.Position.Q))
	pos.RawSetString("r", lua.LNumber(ent.Position.R))
	t.RawSetString("position", pos)
	t.RawSetString("role", lua.LString(ent.Role.String()))
	t.RawSetString("energy", lua.LNumber(ent.Energy))
	t.RawSetString("max_energy", lua.LNumber(ent.MaxEnergy))
	return t
}

// loadMemory returns a deep copy of the entity's persistent memory
// table, creating an empty one and assigning it a fresh handle on first
// invocation. The script works on the copy, so the retained table only
// changes when saveMemory stores the copy back after a successful run.
func (e *Engine) loadMemory(mgr *entity.Manager, id entity.ID) *lua.LTable {
	handle, ok := mgr.MemoryHandle(id)
	if !ok {
		handle = e.nextMemSlot
		e.nextMemSlot++
		e.memTables[handle] = e.L.NewTable()
		mgr.SetMemoryHandle(id, handle)
	}
	seen := map[*lua.LTable]*lua.LTable{}
	var cp func(src *lua.LTable) *lua.LTable
	cp = func(src *lua.LTable) *lua.LTable {
		dst := e.L.NewTable()
		seen[src] = dst
		src.ForEach(func(k, v lua.LValue) {
			if t, ok := v.(*lua.LTable); ok && seen[t] != nil {
				v = seen[t]
			} else if ok {
				v = cp(t)
			}
			dst.RawSet(k, v)
		})
		return dst
	}
	return cp(e.memTables[handle])
}

// saveMemory re-reads the (possibly mutated or replaced) memory
// global and stores it back under the entity's handle so mutations
// persist across ticks. Only called on successful script completion:
// on failure the memory table is left exactly as it stood before the
// failing invocation.
func (e *Engine) saveMemory(mgr *entity.Manager, id entity.ID) {
	handle, ok := mgr.MemoryHandle(id)
	if !ok {
		return
	}
	if t, ok := e.L.GetGlobal("memory").(*lua.LTable); ok {
		e.memTables[handle] = t
	}
}

// DebugReadMemory reads a single field out of the memory table
// identified by handle, for test and tooling use outside the script
// invocation path.
func (e *Engine) DebugReadMemory(handle int, key string) string {
	t, ok := e.memTables[handle]
	if !ok {
		return ""
	}
	return t.RawGetString(key).String()
}

// ReleaseMemory drops the retained memory table for handle. The
// TickRunner's Destroy calls it alongside the entity manager's own
// ReleaseMemory so memory does not accumulate linearly in spawn count.
func (e *Engine) ReleaseMemory(handle int) {
	delete(e.memTables, handle)
}

func (e *Engine) currentCtx() *invocationContext {
	return e.ctx
}
