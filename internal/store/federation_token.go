package store

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrInvalidBootstrapToken is returned when the raw token presented to
// ExchangeBootstrapToken does not match the instance's stored hash.
var ErrInvalidBootstrapToken = errors.New("store: invalid bootstrap token")

// ErrBootstrapTokenAlreadyExchanged is returned when an instance's
// bootstrap token has already been exchanged (or was never issued); the
// hash column is cleared on first successful exchange so it cannot be
// replayed.
var ErrBootstrapTokenAlreadyExchanged = errors.New("store: bootstrap token already exchanged")

// CreateFederationToken persists a newly-issued federation token's hash,
// keyed by a fresh UUID rather than the instance's sequential ID so tokens
// can't be enumerated.
func CreateFederationToken(ctx context.Context, db Querier, instanceID int64, tokenHash string) (string, error) {
	id := uuid.NewString()
	const q = `
		INSERT INTO federation_tokens (id, instance_id, token_hash, created_at)
		VALUES ($1, $2, $3, now())`
	if _, err := db.Exec(ctx, q, id, instanceID, tokenHash); err != nil {
		return "", fmt.Errorf("inserting federation token for instance %d: %w", instanceID, err)
	}
	return id, nil
}

// GetActiveFederationTokenByInstance returns the current, unrevoked
// federation token for an instance, if any.
func GetActiveFederationTokenByInstance(ctx context.Context, db Querier, instanceID int64) (*FederationToken, error) {
	const q = `
		SELECT id, instance_id, token_hash, created_at, revoked_at
		FROM federation_tokens
		WHERE instance_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`
	var t FederationToken
	err := db.QueryRow(ctx, q, instanceID).Scan(&t.ID, &t.InstanceID, &t.TokenHash, &t.CreatedAt, &t.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching federation token for instance %d: %w", instanceID, err)
	}
	return &t, nil
}

// RevokeFederationToken invalidates a federation token, e.g. when an
// instance is destroyed.
func RevokeFederationToken(ctx context.Context, db Querier, id string) error {
	const q = `UPDATE federation_tokens SET revoked_at = now() WHERE id = $1`
	return execExpectingRow(ctx, db, q, id)
}

// ExchangeBootstrapToken completes an instance's one-time bootstrap
// handshake: the raw token an instance container presents when it first
// registers back to the hub is hashed and compared against the stored
// bootstrap_token_hash. On the first successful match, that same hash is
// promoted into a long-lived FederationToken row and bootstrap_token_hash
// is cleared so the raw token cannot be exchanged again. A second
// presentation of the same (or any) token for this instance fails with
// ErrBootstrapTokenAlreadyExchanged once the hash is cleared.
func ExchangeBootstrapToken(ctx context.Context, st *Store, instanceID int64, rawToken string) (*FederationToken, error) {
	var token *FederationToken
	err := st.WithTx(ctx, func(tx pgx.Tx) error {
		inf, err := GetInfrastructure(ctx, tx, instanceID)
		if err != nil {
			return err
		}
		if inf.BootstrapTokenHash == nil {
			return ErrBootstrapTokenAlreadyExchanged
		}
		if !bootstrapTokenMatches(rawToken, *inf.BootstrapTokenHash) {
			return ErrInvalidBootstrapToken
		}
		if _, err := CreateFederationToken(ctx, tx, instanceID, *inf.BootstrapTokenHash); err != nil {
			return err
		}
		if err := ClearBootstrapTokenHash(ctx, tx, instanceID); err != nil {
			return err
		}
		token, err = GetActiveFederationTokenByInstance(ctx, tx, instanceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// bootstrapTokenMatches hashes rawToken the same way GenerateSecrets does
// and compares it to the stored hash in constant time, split out so it can
// be unit-tested without a database.
func bootstrapTokenMatches(rawToken, storedHash string) bool {
	sum := sha256.Sum256([]byte(rawToken))
	computed := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
