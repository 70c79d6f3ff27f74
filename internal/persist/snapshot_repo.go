package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hexforge/sim/internal/entity"
)

// SnapshotRow is one entity's recorded state at a tick, written for
// crash recovery and operator inspection. This lives entirely outside
// the core's tick loop and never feeds back into simulation state.
type SnapshotRow struct {
	Tick     uint64
	EntityID entity.ID
	Q, R     int
	Role     string
	Energy   float64
	Alive    bool
}

// SnapshotRepo persists periodic world snapshots, modeled on the
// teacher's write-ahead-log transactional batch-insert pattern.
type SnapshotRepo struct {
	db    *DB
	runID uuid.UUID
}

func NewSnapshotRepo(db *DB, runID uuid.UUID) *SnapshotRepo {
	return &SnapshotRepo{db: db, runID: runID}
}

// WriteSnapshot atomically writes a batch of entity snapshot rows for
// one tick in a single transaction.
func (r *SnapshotRepo) WriteSnapshot(ctx context.Context, rows []SnapshotRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO entity_snapshots (run_id, tick, entity_id, q, r, role, energy, alive)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.runID, row.Tick, row.EntityID, row.Q, row.R, row.Role, row.Energy, row.Alive,
		); err != nil {
			return fmt.Errorf("snapshot insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
