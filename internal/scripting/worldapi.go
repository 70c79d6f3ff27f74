package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/hexforge/sim/internal/entity"
	"github.com/hexforge/sim/internal/hexcoord"
)

// spatialQueryCapacity is the fixed-capacity stack buffer size for
// spatial query results; results beyond this are silently truncated,
// a documented contract of the core.
const spatialQueryCapacity = 100

func (e *Engine) installWorldAPI() {
	t := e.L.NewTable()
	e.L.SetFuncs(t, map[string]lua.LGFunction{
		"getTileAt":          e.worldGetTileAt,
		"distance":           e.worldDistance,
		"neighbors":          e.worldNeighbors,
		"findEntitiesAt":     e.worldFindEntitiesAt,
		"findNearbyEntities": e.worldFindNearbyEntities,
	})
	e.L.SetGlobal("world", t)
}

func (e *Engine) worldGetTileAt(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(lua.LNil)
		return 1
	}
	c, ok := coordArgOrPair(L)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	tile, present := ctx.grid.TileAt(c)
	if !present {
		L.Push(lua.LNil)
		return 1
	}
	out := L.NewTable()
	out.RawSetString("q", lua.LNumber(tile.Coord.Q))
	out.RawSetString("r", lua.LNumber(tile.Coord.R))
	L.Push(out)
	return 1
}

func (e *Engine) worldDistance(L *lua.LState) int {
	a, okA := coordArg(L, 1)
	b, okB := coordArg(L, 2)
	if !okA || !okB {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(hexcoord.Distance(a, b)))
	return 1
}

func (e *Engine) worldNeighbors(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(L.NewTable())
		return 1
	}
	c, ok := coordArg(L, 1)
	if !ok {
		L.Push(L.NewTable())
		return 1
	}
	ns := ctx.grid.Neighbors(c)
	out := L.NewTable()
	for i, n := range ns {
		nt := L.NewTable()
		nt.RawSetString("q", lua.LNumber(n.Q))
		nt.RawSetString("r", lua.LNumber(n.R))
		out.RawSetInt(i+1, nt)
	}
	L.Push(out)
	return 1
}

func (e *Engine) worldFindEntitiesAt(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(L.NewTable())
		return 1
	}
	c, ok := coordArg(L, 1)
	if !ok {
		L.Push(L.NewTable())
		return 1
	}
	buf := make([]entity.ID, spatialQueryCapacity)
	n := ctx.manager.EntitiesAt(c, buf)
	L.Push(idSequence(L, buf[:n]))
	return 1
}

func (e *Engine) worldFindNearbyEntities(L *lua.LState) int {
	ctx := e.currentCtx()
	if ctx == nil {
		L.Push(L.NewTable())
		return 1
	}
	c, ok := coordArg(L, 1)
	if !ok {
		L.Push(L.NewTable())
		return 1
	}
	rangeVal, ok := L.Get(2).(lua.LNumber)
	if !ok {
		L.Push(L.NewTable())
		return 1
	}

	var roleFilter *entity.Role
	if roleArg, isStr := L.Get(3).(lua.LString); isStr {
		if r, ok := parseRole(string(roleArg)); ok {
			roleFilter = &r
		}
	}

	buf := make([]entity.ID, spatialQueryCapacity)
	n := ctx.manager.Nearby(c, int(rangeVal), roleFilter, buf)
	L.Push(idSequence(L, buf[:n]))
	return 1
}

// coordArgOrPair accepts either a single {q,r} table argument or two
// bare integer arguments, matching the world.getTileAt calling
// convention described in the spec.
func coordArgOrPair(L *lua.LState) (hexcoord.Coord, bool) {
	if c, ok := coordArg(L, 1); ok {
		return c, true
	}
	qv, qOk := L.Get(1).(lua.LNumber)
	rv, rOk := L.Get(2).(lua.LNumber)
	if !qOk || !rOk {
		return hexcoord.Coord{}, false
	}
	return hexcoord.Coord{Q: int(qv), R: int(rv)}, true
}

func idSequence(L *lua.LState, ids []entity.ID) *lua.LTable {
	out := L.NewTable()
	for i, id := range ids {
		out.RawSetInt(i+1, lua.LNumber(id))
	}
	return out
}

func parseRole(s string) (entity.Role, bool) {
	switch s {
	case "worker":
		return entity.Worker, true
	case "combat":
		return entity.Combat, true
	case "scout":
		return entity.Scout, true
	case "engineer":
		return entity.Engineer, true
	default:
		return 0, false
	}
}
