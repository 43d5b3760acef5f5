package orchestrator

import (
	"context"
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/store"
)

// Enqueue transitions an instance's status to Provisioning or Destroying,
// the sole act of "enqueuing" work (spec.md §4.5: there is no dedicated
// queue table).
func Enqueue(ctx context.Context, st *store.Store, instanceID int64, kind PipelineKind) error {
	target := store.StatusProvisioning
	if kind == PipelineDestruction {
		target = store.StatusDestroying
	}
	if err := store.SetStatus(ctx, st.Pool(), instanceID, target); err != nil {
		return fmt.Errorf("enqueuing instance %d as %s: %w", instanceID, kind, err)
	}
	return nil
}

// Dequeue returns at most one instance ID currently in the given status, in
// FIFO order by creation time (spec.md §4.5), using SKIP LOCKED so
// concurrent worker loops don't pick the same row. At-least-once delivery
// across worker crashes is safe because the executor's own resume logic
// makes re-processing idempotent.
func Dequeue(ctx context.Context, st *store.Store, status store.InstanceStatus) (int64, bool, error) {
	id, err := store.ClaimNextByStatus(ctx, st.Pool(), status)
	if err == store.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("dequeuing instance with status %s: %w", status, err)
	}
	return id, true, nil
}
