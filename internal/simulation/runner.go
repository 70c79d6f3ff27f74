// Package simulation implements the script host / TickRunner: the
// per-tick algorithm that drives the scheduler, invokes each alive
// entity's script in insertion order, and applies the resulting
// actions against entity and grid state.
package simulation

import (
	"math"

	"github.com/hexforge/sim/internal/action"
	"github.com/hexforge/sim/internal/entity"
	"github.com/hexforge/sim/internal/hexgrid"
	"github.com/hexforge/sim/internal/logsink"
	"github.com/hexforge/sim/internal/scheduler"
	"github.com/hexforge/sim/internal/scripting"
	"github.com/hexforge/sim/internal/simerr"
)

const (
	MoveCost    = 5.0
	HarvestCost = 10.0
)

// Runner owns the scheduler, the script engine, the entity manager,
// and the grid for one simulation. It is single-threaded: scripts
// cannot spawn parallelism and there are no suspension points inside
// a tick from the host's perspective.
type Runner struct {
	Scheduler *scheduler.Scheduler
	Engine    *scripting.Engine
	Manager   *entity.Manager
	Grid      *hexgrid.Grid
	sink      logsink.Sink

	// OnScriptError, if set, is called with every script failure in
	// addition to the synchronous log sink — used to mirror failures
	// into durable storage without coupling the core to persistence.
	OnScriptError func(id entity.ID, err *simerr.Error)
}

func New(tickRate float64, grid *hexgrid.Grid, mgr *entity.Manager, sink logsink.Sink) *Runner {
	return &Runner{
		Scheduler: scheduler.New(tickRate),
		Engine:    scripting.New(sink),
		Manager:   mgr,
		Grid:      grid,
		sink:      sink,
	}
}

// RunTicks determines how many logical ticks to advance given elapsed
// real time and runs each of them to completion, returning the number
// executed.
func (r *Runner) RunTicks(elapsedSeconds float64) int {
	n := r.Scheduler.Update(elapsedSeconds)
	for i := 0; i < n; i++ {
		r.runOneTick()
	}
	return n
}

// runOneTick iterates alive entities in insertion order. For each
// scripted entity it invokes the script, then immediately applies the
// queued actions before moving to the next entity — observationally
// equivalent to an all-decide-then-all-apply barrier because each
// ActionQueue is private to one entity.
func (r *Runner) runOneTick() {
	r.Manager.Each(func(e *entity.Entity) bool {
		if e.Script == "" {
			return true
		}

		q, err := r.Engine.Invoke(e, r.Manager, r.Grid)
		if err != nil {
			if se, ok := err.(*simerr.Error); ok {
				if se.Kind.Loggable() {
					r.sink.Log(logsink.Error, se.Error())
				}
				if r.OnScriptError != nil {
					r.OnScriptError(e.ID, se)
				}
			}
			// Queued actions up to the point of failure are discarded;
			// memory was already left untouched by Invoke on error.
			return true
		}
		if q == nil {
			return true
		}

		r.applyActions(e, q)
		return true
	})
}

// applyActions drains q in enqueue order against the acting entity's
// state, then discards the queue.
func (r *Runner) applyActions(e *entity.Entity, q *action.Queue) {
	for _, a := range q.Actions() {
		r.applyOne(e, a)
	}
	q.Clear()
}

func (r *Runner) applyOne(e *entity.Entity, a action.Action) {
	if !e.Alive {
		return
	}
	switch a.Kind {
	case action.Move:
		if e.Energy >= MoveCost {
			e.Position = a.Target
			e.Energy -= MoveCost
		}
	case action.Harvest:
		if e.Energy >= HarvestCost {
			e.Energy -= HarvestCost
		}
		// Resource collection is deferred to the resource subsystem;
		// this core only pays the energy cost.
	case action.Consume:
		// Reserved for the resource subsystem; a no-op in this core.
	}
	e.Energy = clamp(e.Energy, 0, e.MaxEnergy)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Destroy soft-deletes id and releases its script-VM memory handle,
// matching the spec's required release hook.
func (r *Runner) Destroy(id entity.ID) bool {
	handle, hasHandle := r.Manager.MemoryHandle(id)
	wasAlive := r.Manager.Destroy(id)
	if hasHandle {
		r.Engine.ReleaseMemory(handle)
		r.Manager.ReleaseMemory(id)
	}
	return wasAlive
}
