package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertConfig writes (or overwrites) the rendered config document for an
// instance, bumping its version counter. Pipeline steps call this once the
// final config shape for a fresh instance is known; it is also how a later
// reconfiguration would land a new version.
func UpsertConfig(ctx context.Context, db Querier, instanceID int64, cfg, limits, flags json.RawMessage) error {
	const q = `
		INSERT INTO instance_configs (instance_id, config_json, resource_limits_json, feature_flags_json, version, updated_at)
		VALUES ($1, $2, $3, $4, 1, now())
		ON CONFLICT (instance_id) DO UPDATE SET
			config_json = EXCLUDED.config_json,
			resource_limits_json = EXCLUDED.resource_limits_json,
			feature_flags_json = EXCLUDED.feature_flags_json,
			version = instance_configs.version + 1,
			updated_at = now()`
	_, err := db.Exec(ctx, q, instanceID, cfg, limits, flags)
	if err != nil {
		return fmt.Errorf("upserting config for instance %d: %w", instanceID, err)
	}
	return nil
}

// GetConfig fetches the current config document for an instance.
func GetConfig(ctx context.Context, db Querier, instanceID int64) (*InstanceConfig, error) {
	const q = `
		SELECT id, instance_id, config_json, resource_limits_json, feature_flags_json, version, updated_at
		FROM instance_configs
		WHERE instance_id = $1`
	var c InstanceConfig
	err := db.QueryRow(ctx, q, instanceID).Scan(
		&c.ID, &c.InstanceID, &c.ConfigJSON, &c.ResourceLimitsJSON, &c.FeatureFlagsJSON, &c.Version, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching config for instance %d: %w", instanceID, err)
	}
	return &c, nil
}
