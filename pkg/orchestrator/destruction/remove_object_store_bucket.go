package destruction

import (
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// RemoveObjectStoreBucket removes the instance's dedicated principal, then
// deletes its bucket with the admin API's force flag. No separate drain pass
// and no policy deletion is issued; each driver call runs under the driver's
// 30s HTTP client timeout. A bucket or principal that no longer exists is
// not an error.
type RemoveObjectStoreBucket struct{}

func (s *RemoveObjectStoreBucket) Name() string { return "RemoveObjectStoreBucket" }

func (s *RemoveObjectStoreBucket) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		if err == store.ErrNotFound {
			return orchestrator.OK()
		}
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveObjectStoreFailed, err.Error()))
	}
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		if err == store.ErrNotFound {
			return orchestrator.OK()
		}
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveObjectStoreFailed, err.Error()))
	}

	name := fmt.Sprintf("%s-%s", sc.Config.BucketPrefix, inst.Domain)
	if err := sc.Drivers.ObjectStoreManager.DeprovisionBucket(sc.Ctx, name, inf.StorageAccessKey); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveObjectStoreFailed, err.Error()))
	}
	return orchestrator.OK()
}

func (s *RemoveObjectStoreBucket) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
