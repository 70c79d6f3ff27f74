package scripting

import (
	"testing"

	"github.com/hexforge/sim/internal/entity"
	"github.com/hexforge/sim/internal/hexcoord"
	"github.com/hexforge/sim/internal/hexgrid"
	"github.com/hexforge/sim/internal/logsink"
	"github.com/hexforge/sim/internal/simerr"
)

func TestInvokeMemoryPersistsAcrossCalls(t *testing.T) {
	e := New(logsink.Nop{})
	defer e.Close()
	mgr := entity.NewManager()
	grid := hexgrid.New(hexcoord.PointyTop)

	id, _ := mgr.Spawn(hexcoord.Coord{}, entity.Worker)
	ent, _ := mgr.Get(id)
	ent.Script = `if memory.n == nil then memory.n = 0 end; memory.n = memory.n + 1`

	for i := 0; i < 3; i++ {
		if _, err := e.Invoke(ent, mgr, grid); err != nil {
			t.Fatalf("invoke %d failed: %v", i, err)
		}
	}

	handle, ok := mgr.MemoryHandle(id)
	if !ok {
		t.Fatalf("expected memory handle assigned")
	}
	n := e.memTables[handle].RawGetString("n")
	if n.String() != "3" {
		t.Fatalf("expected memory.n == 3, got %v", n)
	}
}

func TestInvokeMoveEnqueuesAction(t *testing.T) {
	e := New(logsink.Nop{})
	defer e.Close()
	mgr := entity.NewManager()
	grid := hexgrid.New(hexcoord.PointyTop)

	id, _ := mgr.Spawn(hexcoord.Coord{}, entity.Combat)
	ent, _ := mgr.Get(id)
	ent.Script = `entity.moveTo({q=7, r=7})`

	q, err := e.Invoke(ent, mgr, grid)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if q.Count() != 1 {
		t.Fatalf("expected 1 queued action, got %d", q.Count())
	}
	a := q.Actions()[0]
	if a.Target != (hexcoord.Coord{Q: 7, R: 7}) {
		t.Fatalf("expected move target (7,7), got %v", a.Target)
	}
}

func TestInvokeRuntimeErrorReturnsVmRuntimeError(t *testing.T) {
	e := New(logsink.Nop{})
	defer e.Close()
	mgr := entity.NewManager()
	grid := hexgrid.New(hexcoord.PointyTop)

	id, _ := mgr.Spawn(hexcoord.Coord{}, entity.Worker)
	ent, _ := mgr.Get(id)
	ent.Script = `error("boom")`

	_, err := e.Invoke(ent, mgr, grid)
	if err == nil {
		t.Fatalf("expected error from failing script")
	}
	se, ok := err.(*simerr.Error)
	if !ok || se.Kind != simerr.VmRuntimeError {
		t.Fatalf("expected a VmRuntimeError, got %v", err)
	}
}

func TestInvalidMoveToArgumentReturnsFalseAndEnqueuesNothing(t *testing.T) {
	e := New(logsink.Nop{})
	defer e.Close()
	mgr := entity.NewManager()
	grid := hexgrid.New(hexcoord.PointyTop)

	id, _ := mgr.Spawn(hexcoord.Coord{}, entity.Worker)
	ent, _ := mgr.Get(id)
	ent.Script = `ok = entity.moveTo(123)`

	q, err := e.Invoke(ent, mgr, grid)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !q.IsEmpty() {
		t.Fatalf("expected no action enqueued for invalid argument")
	}
	okVal := e.L.GetGlobal("ok")
	if okVal.String() != "false" {
		t.Fatalf("expected ok==false, got %v", okVal)
	}
}

func TestFindNearbyEntitiesMatchesSpecScenario(t *testing.T) {
	e := New(logsink.Nop{})
	defer e.Close()
	mgr := entity.NewManager()
	grid := hexgrid.New(hexcoord.PointyTop)

	id, _ := mgr.Spawn(hexcoord.Coord{Q: 0, R: 0}, entity.Worker)
	mgr.Spawn(hexcoord.Coord{Q: 1, R: 0}, entity.Worker)
	mgr.Spawn(hexcoord.Coord{Q: 5, R: 0}, entity.Worker)

	ent, _ := mgr.Get(id)
	ent.Script = `result = #world.findNearbyEntities({q=0,r=0}, 2, "worker")`

	if _, err := e.Invoke(ent, mgr, grid); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	result := e.L.GetGlobal("result")
	if result.String() != "2" {
		t.Fatalf("expected result==2 (self plus neighbor), got %v", result)
	}
}
