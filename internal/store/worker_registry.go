package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xcord-net/xcord-hub/internal/snowflake"
)

// workerIDAllocationLockKey is an arbitrary, fixed advisory lock key scoping
// worker ID allocation to one allocator at a time.
const workerIDAllocationLockKey = 872364

// AllocateWorkerID claims the lowest free, non-tombstoned worker ID in
// [snowflake.MinAllocated, snowflake.MaxAllocated] for an instance. Must be
// called inside a transaction so the allocation and the row-lock it implies
// are atomic with the rest of the AllocateWorkerId step (spec.md §4.3).
func AllocateWorkerID(ctx context.Context, tx pgx.Tx, instanceID int64) (int64, error) {
	// Serialize concurrent allocators on a single advisory lock key rather
	// than trying to row-lock a generate_series result set, which Postgres
	// can't do directly.
	const lock = `SELECT pg_advisory_xact_lock($1)`
	if _, err := tx.Exec(ctx, lock, workerIDAllocationLockKey); err != nil {
		return 0, fmt.Errorf("acquiring worker id allocation lock: %w", err)
	}

	const findFree = `
		SELECT s.id FROM generate_series($1::bigint, $2::bigint) AS s(id)
		WHERE NOT EXISTS (SELECT 1 FROM worker_id_registry r WHERE r.worker_id = s.id)
		ORDER BY s.id
		LIMIT 1`
	var workerID int64
	err := tx.QueryRow(ctx, findFree, snowflake.MinAllocated, snowflake.MaxAllocated).Scan(&workerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("no free worker IDs in range [%d, %d]", snowflake.MinAllocated, snowflake.MaxAllocated)
	}
	if err != nil {
		return 0, fmt.Errorf("finding free worker id: %w", err)
	}

	const insert = `
		INSERT INTO worker_id_registry (worker_id, instance_id, is_tombstoned, allocated_at)
		VALUES ($1, $2, false, now())`
	if _, err := tx.Exec(ctx, insert, workerID, instanceID); err != nil {
		return 0, fmt.Errorf("reserving worker id %d: %w", workerID, err)
	}
	return workerID, nil
}

// TombstoneWorkerID marks a worker ID as permanently retired once its owning
// instance is destroyed, so it is never reallocated (spec.md §3's worker-ID
// monotonicity guarantee).
func TombstoneWorkerID(ctx context.Context, db Querier, workerID int64) error {
	const q = `UPDATE worker_id_registry SET is_tombstoned = true, released_at = now() WHERE worker_id = $1`
	return execExpectingRow(ctx, db, q, workerID)
}

// GetWorkerRegistryEntry fetches the registry row for a worker ID; the
// AllocateWorkerId step's Verify phase uses it.
func GetWorkerRegistryEntry(ctx context.Context, db Querier, workerID int64) (*WorkerIDRegistry, error) {
	const q = `
		SELECT worker_id, instance_id, is_tombstoned, allocated_at, released_at
		FROM worker_id_registry
		WHERE worker_id = $1`
	var e WorkerIDRegistry
	err := db.QueryRow(ctx, q, workerID).Scan(&e.WorkerID, &e.InstanceID, &e.IsTombstoned, &e.AllocatedAt, &e.ReleasedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching worker registry entry %d: %w", workerID, err)
	}
	return &e, nil
}
