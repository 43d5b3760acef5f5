package provisioning

import (
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// ProvisionObjectStore creates a bucket named "<prefix>-<subdomain>" and a
// dedicated per-instance principal scoped to it. If principal creation
// fails, it falls back to the object store's root credentials so
// provisioning can still proceed, but the fallback is loud: a warning log
// line and a metric increment, since any instance running on root
// credentials needs follow-up before it can be considered fully isolated.
type ProvisionObjectStore struct{}

func (s *ProvisionObjectStore) Name() string { return "ProvisionObjectStore" }

func bucketName(cfg orchestrator.Config, domain string) string {
	return fmt.Sprintf("%s-%s", cfg.BucketPrefix, domain)
}

func (s *ProvisionObjectStore) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}

	name := bucketName(sc.Config, inst.Domain)

	if err := sc.Drivers.ObjectStoreManager.ProvisionBucket(sc.Ctx, name, inf.StorageAccessKey, inf.StorageSecretKey); err != nil {
		sc.Logger.Warn("per-instance object store principal failed, falling back to root credentials",
			"instance_id", sc.InstanceID, "bucket", name, "error", err)
		orchestrator.ObjectStoreFallbackTotal.Inc()

		// Fallback path: record the root credentials directly so the
		// instance can still reach its bucket, trading per-instance
		// isolation for availability.
		if err := store.SetStorageCredentials(sc.Ctx, sc.Store.Pool(), sc.InstanceID, sc.Config.RootStorageAccessKey, sc.Config.RootStorageSecretKey); err != nil {
			return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeObjectStoreProvisionFailed, err.Error()))
		}
		return orchestrator.OK()
	}
	return orchestrator.OK()
}

func (s *ProvisionObjectStore) Verify(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}

	name := bucketName(sc.Config, inst.Domain)
	ok, err := sc.Drivers.ObjectStoreManager.VerifyBucket(sc.Ctx, name, inf.StorageAccessKey, inf.StorageSecretKey)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeObjectStoreVerifyFailed, err.Error()))
	}
	if !ok {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeObjectStoreVerifyFailed, fmt.Sprintf("bucket %s did not pass read-permission probe", name)))
	}
	return orchestrator.OK()
}
