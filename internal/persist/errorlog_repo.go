package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ErrorLogEntry is one script load/runtime failure, recorded for ops
// visibility beyond the synchronous logging sink.
type ErrorLogEntry struct {
	Tick     uint64
	EntityID uint64
	Kind     string
	Message  string
}

type ErrorLogRepo struct {
	db    *DB
	runID uuid.UUID
}

func NewErrorLogRepo(db *DB, runID uuid.UUID) *ErrorLogRepo {
	return &ErrorLogRepo{db: db, runID: runID}
}

func (r *ErrorLogRepo) WriteError(ctx context.Context, entry ErrorLogEntry) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO script_error_log (run_id, tick, entity_id, kind, message)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.runID, entry.Tick, entry.EntityID, entry.Kind, entry.Message,
	)
	if err != nil {
		return fmt.Errorf("error log insert: %w", err)
	}
	return nil
}
