package provisioning

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/kek"
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// GenerateSecrets creates the instance's InstanceInfrastructure row with
// CSPRNG-derived database password, storage keys, media keys, a one-time
// bootstrap token (stored as its sha256 hash plus a KEK-wrapped copy), and a
// per-instance KEK.
// Idempotent: if the row already exists, this is a no-op.
type GenerateSecrets struct{}

func (s *GenerateSecrets) Name() string { return "GenerateSecrets" }

func (s *GenerateSecrets) Execute(sc orchestrator.StepContext) orchestrator.Result {
	if _, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID); err == nil {
		return orchestrator.OK()
	} else if err != store.ErrNotFound {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}

	dbPassword, err := randomToken(24)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}
	storageAccessKey, _ := randomToken(16)
	storageSecretKey, _ := randomToken(32)
	mediaAPIKey, _ := randomToken(16)
	mediaSecretKey, _ := randomToken(32)
	bootstrapToken, err := randomToken(32)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}

	dek, err := kek.GenerateDEK()
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}
	wrappedKEK, err := sc.KEK.Wrap(sc.InstanceID, dek)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}

	dbName := fmt.Sprintf("xcordhub_instance_%d", sc.InstanceID)

	_, err = store.CreateInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID,
		dbName, dbPassword, redisDBFor(sc.InstanceID),
		storageAccessKey, storageSecretKey, mediaAPIKey, mediaSecretKey, wrappedKEK)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}

	hash := sha256.Sum256([]byte(bootstrapToken))
	if err := store.SetBootstrapTokenHash(sc.Ctx, sc.Store.Pool(), sc.InstanceID, hex.EncodeToString(hash[:])); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}

	wrappedToken, err := sc.KEK.Wrap(sc.InstanceID, []byte(bootstrapToken))
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}
	if err := store.SetBootstrapTokenWrapped(sc.Ctx, sc.Store.Pool(), sc.InstanceID, wrappedToken); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}

	return orchestrator.OK()
}

func (s *GenerateSecrets) Verify(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}
	if inf.DBPassword == "" || inf.StorageAccessKey == "" || inf.StorageSecretKey == "" {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsIncomplete, "infrastructure row missing required secrets"))
	}
	return orchestrator.OK()
}

// randomToken returns a hex-encoded CSPRNG token of n random bytes.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// redisDBFor derives a stable shared-cache logical DB index for an
// instance. The cache cluster is shared; instances are separated by
// channel prefix and this numeric DB slot.
func redisDBFor(instanceID int64) int {
	const redisLogicalDBCount = 16
	return int(instanceID % redisLogicalDBCount)
}
