package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned by single-row lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// CreateManagedInstance inserts a new instance in StatusPending and returns
// its allocated ID.
func CreateManagedInstance(ctx context.Context, db Querier, ownerID int64, domain, displayName string) (int64, error) {
	const q = `
		INSERT INTO managed_instances (owner_id, domain, display_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id int64
	if err := db.QueryRow(ctx, q, ownerID, domain, displayName, StatusPending).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting managed instance: %w", err)
	}
	return id, nil
}

// GetManagedInstance fetches one instance by ID.
func GetManagedInstance(ctx context.Context, db Querier, id int64) (*ManagedInstance, error) {
	const q = `
		SELECT id, owner_id, domain, display_name, status, worker_id, created_at, deleted_at
		FROM managed_instances
		WHERE id = $1`
	var mi ManagedInstance
	err := db.QueryRow(ctx, q, id).Scan(
		&mi.ID, &mi.OwnerID, &mi.Domain, &mi.DisplayName, &mi.Status, &mi.WorkerID, &mi.CreatedAt, &mi.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching managed instance %d: %w", id, err)
	}
	return &mi, nil
}

// ExistsByDomain reports whether any non-deleted instance already claims
// the given subdomain (spec.md §4.3 ValidateSubdomain step).
func ExistsByDomain(ctx context.Context, db Querier, domain string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM managed_instances WHERE domain = $1 AND deleted_at IS NULL)`
	var exists bool
	if err := db.QueryRow(ctx, q, domain).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking domain %s: %w", domain, err)
	}
	return exists, nil
}

// CountByDomain counts non-deleted instances currently claiming domain.
// Used by ValidateSubdomain to tell "this instance's own row" apart from a
// genuine collision.
func CountByDomain(ctx context.Context, db Querier, domain string) (int, error) {
	const q = `SELECT COUNT(*) FROM managed_instances WHERE domain = $1 AND deleted_at IS NULL`
	var count int
	if err := db.QueryRow(ctx, q, domain).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting instances for domain %s: %w", domain, err)
	}
	return count, nil
}

// CountActiveByOwner counts an owner's non-destroyed, non-deleted instances,
// used to enforce per-tier instance limits (spec.md §4.3 EnforceTierLimits).
func CountActiveByOwner(ctx context.Context, db Querier, ownerID int64) (int, error) {
	const q = `
		SELECT COUNT(*) FROM managed_instances
		WHERE owner_id = $1 AND deleted_at IS NULL AND status NOT IN ($2, $3)`
	var count int
	if err := db.QueryRow(ctx, q, ownerID, StatusDestroyed, StatusFailed).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting active instances for owner %d: %w", ownerID, err)
	}
	return count, nil
}

// SetStatus transitions an instance to a new status.
func SetStatus(ctx context.Context, db Querier, instanceID int64, status InstanceStatus) error {
	const q = `UPDATE managed_instances SET status = $2 WHERE id = $1`
	tag, err := db.Exec(ctx, q, instanceID, status)
	if err != nil {
		return fmt.Errorf("setting status for instance %d: %w", instanceID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetWorkerID records the snowflake worker ID allocated to an instance.
func SetWorkerID(ctx context.Context, db Querier, instanceID, workerID int64) error {
	const q = `UPDATE managed_instances SET worker_id = $2 WHERE id = $1`
	tag, err := db.Exec(ctx, q, instanceID, workerID)
	if err != nil {
		return fmt.Errorf("setting worker id for instance %d: %w", instanceID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDeleted soft-deletes an instance once destruction has finished.
func MarkDeleted(ctx context.Context, db Querier, instanceID int64) error {
	const q = `UPDATE managed_instances SET deleted_at = now(), status = $2 WHERE id = $1`
	tag, err := db.Exec(ctx, q, instanceID, StatusDestroyed)
	if err != nil {
		return fmt.Errorf("marking instance %d deleted: %w", instanceID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus returns instance IDs currently in the given status; the
// Reconciler uses it to pick the instances it checks. The Work Queue claims
// through ClaimNextByStatus instead.
func ListByStatus(ctx context.Context, db Querier, status InstanceStatus, limit int) ([]int64, error) {
	const q = `
		SELECT id FROM managed_instances
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`
	rows, err := db.Query(ctx, q, status, limit)
	if err != nil {
		return nil, fmt.Errorf("listing instances by status %s: %w", status, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning instance id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClaimNextByStatus picks the oldest instance in the given status and
// touches it, using FOR UPDATE SKIP LOCKED so that two worker loops polling
// concurrently never pick the same row out from under each other (spec.md
// §5: "a simple SKIP LOCKED-style probe ... is acceptable"). Returns
// ErrNotFound if no candidate row is available right now.
func ClaimNextByStatus(ctx context.Context, db Querier, status InstanceStatus) (int64, error) {
	const q = `
		UPDATE managed_instances
		SET status = status
		WHERE id = (
			SELECT id FROM managed_instances
			WHERE status = $1 AND deleted_at IS NULL
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id`
	var id int64
	err := db.QueryRow(ctx, q, status).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("claiming next instance with status %s: %w", status, err)
	}
	return id, nil
}
