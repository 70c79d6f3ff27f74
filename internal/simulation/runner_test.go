package simulation

import (
	"testing"

	"github.com/hexforge/sim/internal/entity"
	"github.com/hexforge/sim/internal/hexcoord"
	"github.com/hexforge/sim/internal/hexgrid"
	"github.com/hexforge/sim/internal/logsink"
)

type recordingSink struct {
	messages []string
}

func (s *recordingSink) Log(kind logsink.Kind, msg string) {
	s.messages = append(s.messages, msg)
}

func newRunner(t *testing.T, sink logsink.Sink) *Runner {
	t.Helper()
	grid := hexgrid.New(hexcoord.PointyTop)
	mgr := entity.NewManager()
	return New(10, grid, mgr, sink)
}

// Scenario 1: Memory persistence.
func TestScenarioMemoryPersistence(t *testing.T) {
	r := newRunner(t, logsink.Nop{})
	id, _ := r.Manager.Spawn(hexcoord.Coord{}, entity.Worker)
	ent, _ := r.Manager.Get(id)
	ent.Script = `if memory.n == nil then memory.n = 0 end; memory.n = memory.n + 1`

	for i := 0; i < 3; i++ {
		r.runOneTick()
	}

	handle, ok := r.Manager.MemoryHandle(id)
	if !ok {
		t.Fatalf("expected memory handle")
	}
	n := r.Engine.DebugReadMemory(handle, "n")
	if n != "3" {
		t.Fatalf("expected memory.n == 3, got %v", n)
	}
}

// Scenario 2: Move & energy.
func TestScenarioMoveAndEnergy(t *testing.T) {
	r := newRunner(t, logsink.Nop{})
	id, _ := r.Manager.Spawn(hexcoord.Coord{}, entity.Combat)
	ent, _ := r.Manager.Get(id)
	ent.Energy = 150
	ent.Script = `entity.moveTo({q=7, r=7})`

	r.runOneTick()

	got, _ := r.Manager.Get(id)
	if got.Position != (hexcoord.Coord{Q: 7, R: 7}) {
		t.Fatalf("expected position (7,7), got %v", got.Position)
	}
	if got.Energy != 145 {
		t.Fatalf("expected energy 145, got %v", got.Energy)
	}
}

// Scenario 3: Error isolation.
func TestScenarioErrorIsolation(t *testing.T) {
	sink := &recordingSink{}
	r := newRunner(t, sink)

	id1, _ := r.Manager.Spawn(hexcoord.Coord{Q: 0, R: 0}, entity.Worker)
	ent1, _ := r.Manager.Get(id1)
	ent1.Script = `error("boom")`

	id2, _ := r.Manager.Spawn(hexcoord.Coord{Q: 1, R: 0}, entity.Worker)
	ent2, _ := r.Manager.Get(id2)
	ent2.Script = `entity.moveTo({q=2, r=0})`
	startEnergy := ent2.Energy

	r.runOneTick()

	got1, _ := r.Manager.Get(id1)
	if got1.Position != (hexcoord.Coord{Q: 0, R: 0}) || got1.Energy != entity.Worker.MaxEnergy() {
		t.Fatalf("expected first entity unchanged, got %+v", got1)
	}
	got2, _ := r.Manager.Get(id2)
	if got2.Position != (hexcoord.Coord{Q: 2, R: 0}) {
		t.Fatalf("expected second entity moved to (2,0), got %v", got2.Position)
	}
	if got2.Energy != startEnergy-MoveCost {
		t.Fatalf("expected second entity energy reduced by move cost")
	}
	if len(sink.messages) != 1 {
		t.Fatalf("expected exactly one error record emitted, got %d", len(sink.messages))
	}
}

// Scenario 4: Spatial query.
func TestScenarioSpatialQuery(t *testing.T) {
	r := newRunner(t, logsink.Nop{})
	r.Manager.Spawn(hexcoord.Coord{Q: 1, R: 0}, entity.Worker)
	r.Manager.Spawn(hexcoord.Coord{Q: 5, R: 0}, entity.Worker)

	id, _ := r.Manager.Spawn(hexcoord.Coord{Q: 0, R: 0}, entity.Worker)
	ent, _ := r.Manager.Get(id)
	ent.Script = `result = #world.findNearbyEntities({q=0,r=0}, 2, "worker")`

	r.runOneTick()

	result := r.Engine.L.GetGlobal("result")
	if result.String() != "2" {
		t.Fatalf("expected result == 2, got %v", result)
	}
}

// Scenario 5: Scheduler clamp.
func TestScenarioSchedulerClamp(t *testing.T) {
	r := newRunner(t, logsink.Nop{})
	n := r.RunTicks(1.0)
	if n != 5 {
		t.Fatalf("expected 5 ticks (MAX_TICKS_PER_FRAME), got %d", n)
	}
	if r.Scheduler.Alpha() != 0 {
		t.Fatalf("expected accumulator reset to 0, got %v", r.Scheduler.Alpha())
	}
}

// Scenario 6: Invalid argument.
func TestScenarioInvalidArgument(t *testing.T) {
	sink := &recordingSink{}
	r := newRunner(t, sink)
	id, _ := r.Manager.Spawn(hexcoord.Coord{Q: 3, R: 3}, entity.Worker)
	ent, _ := r.Manager.Get(id)
	ent.Script = `ok = entity.moveTo(123)`

	r.runOneTick()

	got, _ := r.Manager.Get(id)
	if got.Position != (hexcoord.Coord{Q: 3, R: 3}) {
		t.Fatalf("expected entity unchanged, got %v", got.Position)
	}
	if len(sink.messages) != 0 {
		t.Fatalf("expected no log entry for invalid argument, got %v", sink.messages)
	}
	okVal := r.Engine.L.GetGlobal("ok")
	if okVal.String() != "false" {
		t.Fatalf("expected ok == false, got %v", okVal)
	}
}

func TestEmptyScriptTickAdvancesTickOnly(t *testing.T) {
	r := newRunner(t, logsink.Nop{})
	id, _ := r.Manager.Spawn(hexcoord.Coord{Q: 0, R: 0}, entity.Worker)
	ent, _ := r.Manager.Get(id)
	ent.Script = ""
	before := *ent

	n := r.RunTicks(0.1)
	if n != 1 {
		t.Fatalf("expected 1 tick, got %d", n)
	}
	after, _ := r.Manager.Get(id)
	if after.Position != before.Position || after.Energy != before.Energy {
		t.Fatalf("expected no state change for an unscripted entity")
	}
	if r.Scheduler.CurrentTick() != 1 {
		t.Fatalf("expected current_tick advanced by exactly one")
	}
}

func TestDestroyReleasesMemoryHandle(t *testing.T) {
	r := newRunner(t, logsink.Nop{})
	id, _ := r.Manager.Spawn(hexcoord.Coord{}, entity.Worker)
	ent, _ := r.Manager.Get(id)
	ent.Script = `memory.x = 1`
	r.runOneTick()

	r.Destroy(id)
	_, ok := r.Manager.MemoryHandle(id)
	if ok {
		t.Fatalf("expected memory handle released on destroy")
	}
}
