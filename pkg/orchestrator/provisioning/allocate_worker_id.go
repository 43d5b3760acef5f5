package provisioning

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// AllocateWorkerId scans WorkerIdRegistry for the lowest unused ID in
// [11, 1023], reserves it, and writes it onto the instance. Idempotent: if
// the instance already has a worker ID, this is a no-op.
type AllocateWorkerId struct{}

func (s *AllocateWorkerId) Name() string { return "AllocateWorkerId" }

func (s *AllocateWorkerId) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	if inst.WorkerID != nil {
		return orchestrator.OK()
	}

	err = sc.Store.WithTx(sc.Ctx, func(tx pgx.Tx) error {
		workerID, err := store.AllocateWorkerID(sc.Ctx, tx, sc.InstanceID)
		if err != nil {
			return err
		}
		return store.SetWorkerID(sc.Ctx, tx, sc.InstanceID, workerID)
	})
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNoWorkerIDsAvailable, fmt.Sprintf("allocating worker id for instance %d: %v", sc.InstanceID, err)))
	}
	return orchestrator.OK()
}

func (s *AllocateWorkerId) Verify(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	if inst.WorkerID == nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNoWorkerIDsAvailable, "worker id was not persisted"))
	}

	entry, err := store.GetWorkerRegistryEntry(sc.Ctx, sc.Store.Pool(), *inst.WorkerID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNoWorkerIDsAvailable, err.Error()))
	}
	if entry.InstanceID != sc.InstanceID {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNoWorkerIDsAvailable, "registry entry belongs to a different instance"))
	}
	return orchestrator.OK()
}
