package scripting

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/hexforge/sim/internal/action"
	"github.com/hexforge/sim/internal/hexcoord"
)

// installEntityAPI installs the global `entity` table of functions.
// Re-installing it on every invocation would be idempotent (the table
// contents never change), so it is installed once at Engine
// construction; the invocation context the functions read is threaded
// through e.ctx, refreshed by Invoke on every call.
func (e *Engine) installEntityAPI() {
	t := e.L.NewTable()
	e.L.SetFuncs(t, map[string]lua.LGFunction{
		"getId":        e.entityGetID,
		"getPosition":  e.entityGetPosition,
		"getEnergy":    e.entityGetEnergy,
		"getMaxEnergy": e.entityGetMaxEnergy,
		"getRole":      e.entityGetRole,
		"isAlive":      e.entityIsAlive,
		"isActive":     e.entityIsActive,
		"moveTo":       e.entityMoveTo,
		"harvest":      e.entityHarvest,
		"consume":      e.entityConsume,
	})
	e.L.SetGlobal("entity", t)
}

func (e *Engine) entityGetID(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(ctx.entity.ID))
	return 1
}

func (e *Engine) entityGetPosition(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(L.NewTable())
		return 1
	}
	pos := L.NewTable()
	pos.RawSetString("q", lua.LNumber(ctx.entity.Position.Q))
	pos.RawSetString("r", lua.LNumber(ctx.entity.Position.R))
	L.Push(pos)
	return 1
}

func (e *Engine) entityGetEnergy(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(ctx.entity.Energy))
	return 1
}

func (e *Engine) entityGetMaxEnergy(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(ctx.entity.MaxEnergy))
	return 1
}

func (e *Engine) entityGetRole(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(ctx.entity.Role.String()))
	return 1
}

func (e *Engine) entityIsAlive(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(ctx.entity.Alive))
	return 1
}

func (e *Engine) entityIsActive(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(ctx.entity.Alive && ctx.entity.Energy > 0))
	return 1
}

// entityMoveTo enqueues a move action if the context is installed and
// the single {q,r} table argument validates; otherwise it returns
// false and enqueues nothing.
func (e *Engine) entityMoveTo(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LFalse)
		return 1
	}
	target, ok := coordArg(L, 1)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	ctx.queue.Add(action.NewMove(target))
	L.Push(lua.LTrue)
	return 1
}

// entityHarvest validates identically to moveTo.
func (e *Engine) entityHarvest(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LFalse)
		return 1
	}
	target, ok := coordArg(L, 1)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	ctx.queue.Add(action.NewHarvest(target))
	L.Push(lua.LTrue)
	return 1
}

// entityConsume validates (string, integer) arguments and enqueues a
// consume action. The reserved shape is fixed by the spec so later
// resource-subsystem extensions don't break the action vocabulary;
// this core always has the allocator needed to own the string, so the
// "lacks allocator" failure path never triggers in practice but the
// boolean return remains so scripts can't distinguish the two causes.
func (e *Engine) entityConsume(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LFalse)
		return 1
	}
	resType, ok1 := L.Get(1).(lua.LString)
	amount, ok2 := L.Get(2).(lua.LNumber)
	if !ok1 || !ok2 || !isInteger(amount) {
		L.Push(lua.LFalse)
		return 1
	}
	ctx.queue.Add(action.NewConsume(string(resType), uint32(amount)))
	L.Push(lua.LTrue)
	return 1
}

// coordArg reads argument n as a {q, r} table with integer fields.
func coordArg(L *lua.LState, n int) (hexcoord.Coord, bool) {
	t, isTable := L.Get(n).(*lua.LTable)
	if !isTable {
		return hexcoord.Coord{}, false
	}
	qv, qOk := t.RawGetString("q").(lua.LNumber)
	rv, rOk := t.RawGetString("r").(lua.LNumber)
	if !qOk || !rOk || !isInteger(qv) || !isInteger(rv) {
		return hexcoord.Coord{}, false
	}
	return hexcoord.Coord{Q: int(qv), R: int(rv)}, true
}

// isInteger reports whether a Lua number has no fractional part.
func isInteger(n lua.LNumber) bool {
	return float64(n) == math.Trunc(float64(n))
}
