package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RecordEventStart appends an in-progress event row when a step phase
// begins; this is the resume oracle the Pipeline Executor consults to decide
// whether a step's execute/verify already ran (spec.md §4.2).
func RecordEventStart(ctx context.Context, db Querier, instanceID int64, stepName string, phase EventPhase) (int64, error) {
	const q = `
		INSERT INTO provisioning_events (instance_id, step_name, phase, status, started_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id`
	var id int64
	if err := db.QueryRow(ctx, q, instanceID, stepName, phase, EventInProgress).Scan(&id); err != nil {
		return 0, fmt.Errorf("recording event start for instance %d step %s: %w", instanceID, stepName, err)
	}
	return id, nil
}

// RecordEventCompleted marks an event row as completed.
func RecordEventCompleted(ctx context.Context, db Querier, eventID int64) error {
	const q = `UPDATE provisioning_events SET status = $2, completed_at = now() WHERE id = $1`
	return execExpectingRow(ctx, db, q, eventID, EventCompleted)
}

// RecordEventFailed marks an event row as failed with an error message.
func RecordEventFailed(ctx context.Context, db Querier, eventID int64, errMsg string) error {
	const q = `UPDATE provisioning_events SET status = $2, error_message = $3, completed_at = now() WHERE id = $1`
	return execExpectingRow(ctx, db, q, eventID, EventFailed, errMsg)
}

// LatestEvent returns the most recent event row for a given instance and
// step, or ErrNotFound if the step has never been attempted.
func LatestEvent(ctx context.Context, db Querier, instanceID int64, stepName string) (*ProvisioningEvent, error) {
	const q = `
		SELECT id, instance_id, step_name, phase, status, error_message, started_at, completed_at
		FROM provisioning_events
		WHERE instance_id = $1 AND step_name = $2
		ORDER BY started_at DESC
		LIMIT 1`
	var e ProvisioningEvent
	err := db.QueryRow(ctx, q, instanceID, stepName).Scan(
		&e.ID, &e.InstanceID, &e.StepName, &e.Phase, &e.Status, &e.ErrorMessage, &e.StartedAt, &e.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching latest event for instance %d step %s: %w", instanceID, stepName, err)
	}
	return &e, nil
}

// EventsForInstance returns the full ordered event history for an instance,
// used by the Pipeline Executor to compute where a run resumes.
func EventsForInstance(ctx context.Context, db Querier, instanceID int64) ([]ProvisioningEvent, error) {
	const q = `
		SELECT id, instance_id, step_name, phase, status, error_message, started_at, completed_at
		FROM provisioning_events
		WHERE instance_id = $1
		ORDER BY started_at ASC`
	rows, err := db.Query(ctx, q, instanceID)
	if err != nil {
		return nil, fmt.Errorf("listing events for instance %d: %w", instanceID, err)
	}
	defer rows.Close()

	var events []ProvisioningEvent
	for rows.Next() {
		var e ProvisioningEvent
		if err := rows.Scan(&e.ID, &e.InstanceID, &e.StepName, &e.Phase, &e.Status, &e.ErrorMessage, &e.StartedAt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
