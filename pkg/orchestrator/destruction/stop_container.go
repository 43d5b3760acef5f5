package destruction

import (
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// StopContainer stops the instance's API container with the engine's own
// 10s grace period. A missing container_id (never provisioned, or already
// removed) is treated as already-stopped.
type StopContainer struct{}

func (s *StopContainer) Name() string { return "StopContainer" }

func (s *StopContainer) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		if err == store.ErrNotFound {
			return orchestrator.OK()
		}
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeStopContainerFailed, err.Error()))
	}
	if inf.ContainerID == nil {
		return orchestrator.OK()
	}
	if err := sc.Drivers.ContainerEngine.StopContainer(sc.Ctx, *inf.ContainerID); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeStopContainerFailed, err.Error()))
	}
	return orchestrator.OK()
}

func (s *StopContainer) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
