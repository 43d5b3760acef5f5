package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateInfrastructure inserts the empty infrastructure row for a new
// instance; later steps fill it in column by column as resources are
// provisioned.
func CreateInfrastructure(ctx context.Context, db Querier, instanceID int64, dbName, dbPassword string, redisDB int, storageAccessKey, storageSecretKey, mediaAPIKey, mediaSecretKey, instanceKEK string) (int64, error) {
	const q = `
		INSERT INTO instance_infrastructure
			(instance_id, db_name, db_password, redis_db, storage_access_key, storage_secret_key, media_api_key, media_secret_key, instance_kek)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	var id int64
	err := db.QueryRow(ctx, q, instanceID, dbName, dbPassword, redisDB, storageAccessKey, storageSecretKey, mediaAPIKey, mediaSecretKey, instanceKEK).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting infrastructure for instance %d: %w", instanceID, err)
	}
	return id, nil
}

// GetInfrastructure fetches the infrastructure row for an instance.
func GetInfrastructure(ctx context.Context, db Querier, instanceID int64) (*InstanceInfrastructure, error) {
	const q = `
		SELECT id, instance_id, container_id, network_id, secret_id, proxy_route_id,
		       db_name, db_password, redis_db, storage_access_key, storage_secret_key,
		       media_api_key, media_secret_key, bootstrap_token_hash, bootstrap_token_wrapped, instance_kek
		FROM instance_infrastructure
		WHERE instance_id = $1`
	var inf InstanceInfrastructure
	err := db.QueryRow(ctx, q, instanceID).Scan(
		&inf.ID, &inf.InstanceID, &inf.ContainerID, &inf.NetworkID, &inf.SecretID, &inf.ProxyRouteID,
		&inf.DBName, &inf.DBPassword, &inf.RedisDB, &inf.StorageAccessKey, &inf.StorageSecretKey,
		&inf.MediaAPIKey, &inf.MediaSecretKey, &inf.BootstrapTokenHash, &inf.BootstrapTokenWrapped, &inf.InstanceKEK,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching infrastructure for instance %d: %w", instanceID, err)
	}
	return &inf, nil
}

// SetContainerID records the container engine's handle for an instance's
// API container.
func SetContainerID(ctx context.Context, db Querier, instanceID int64, containerID string) error {
	const q = `UPDATE instance_infrastructure SET container_id = $2 WHERE instance_id = $1`
	return execExpectingRow(ctx, db, q, instanceID, containerID)
}

// SetNetworkID records the container engine's handle for an instance's
// private network.
func SetNetworkID(ctx context.Context, db Querier, instanceID int64, networkID string) error {
	const q = `UPDATE instance_infrastructure SET network_id = $2 WHERE instance_id = $1`
	return execExpectingRow(ctx, db, q, instanceID, networkID)
}

// SetSecretID records the container engine's handle for an instance's
// mounted config secret.
func SetSecretID(ctx context.Context, db Querier, instanceID int64, secretID string) error {
	const q = `UPDATE instance_infrastructure SET secret_id = $2 WHERE instance_id = $1`
	return execExpectingRow(ctx, db, q, instanceID, secretID)
}

// SetProxyRouteID records the reverse proxy's handle for an instance's route.
func SetProxyRouteID(ctx context.Context, db Querier, instanceID int64, routeID string) error {
	const q = `UPDATE instance_infrastructure SET proxy_route_id = $2 WHERE instance_id = $1`
	return execExpectingRow(ctx, db, q, instanceID, routeID)
}

// SetBootstrapTokenHash stores the sha256 hash of the one-time bootstrap
// token issued to an instance container, checked on exchange.
func SetBootstrapTokenHash(ctx context.Context, db Querier, instanceID int64, hash string) error {
	const q = `UPDATE instance_infrastructure SET bootstrap_token_hash = $2 WHERE instance_id = $1`
	return execExpectingRow(ctx, db, q, instanceID, hash)
}

// SetBootstrapTokenWrapped stores the KEK-wrapped raw bootstrap token, so a
// later step (StartApiContainer) can recover and deliver it without
// re-running GenerateSecrets; the raw token itself is never persisted.
func SetBootstrapTokenWrapped(ctx context.Context, db Querier, instanceID int64, wrapped string) error {
	const q = `UPDATE instance_infrastructure SET bootstrap_token_wrapped = $2 WHERE instance_id = $1`
	return execExpectingRow(ctx, db, q, instanceID, wrapped)
}

// ClearBootstrapTokenHash is called on a successful bootstrap exchange so
// the one-time token cannot be replayed.
func ClearBootstrapTokenHash(ctx context.Context, db Querier, instanceID int64) error {
	const q = `UPDATE instance_infrastructure SET bootstrap_token_hash = NULL WHERE instance_id = $1`
	tag, err := db.Exec(ctx, q, instanceID)
	if err != nil {
		return fmt.Errorf("clearing bootstrap token hash for instance %d: %w", instanceID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStorageCredentials overwrites an instance's storage access/secret key
// pair, used by ProvisionObjectStore's root-credential fallback.
func SetStorageCredentials(ctx context.Context, db Querier, instanceID int64, accessKey, secretKey string) error {
	const q = `UPDATE instance_infrastructure SET storage_access_key = $2, storage_secret_key = $3 WHERE instance_id = $1`
	return execExpectingRow(ctx, db, q, instanceID, accessKey, secretKey)
}

func execExpectingRow(ctx context.Context, db Querier, q string, args ...any) error {
	tag, err := db.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("executing update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
