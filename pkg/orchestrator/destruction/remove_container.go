package destruction

import (
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// RemoveContainer force-removes the instance's container and its mounted
// config secret. Both calls are idempotent at the driver boundary: a
// missing target is success.
type RemoveContainer struct{}

func (s *RemoveContainer) Name() string { return "RemoveContainer" }

func (s *RemoveContainer) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		if err == store.ErrNotFound {
			return orchestrator.OK()
		}
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveContainerFailed, err.Error()))
	}
	if inf.ContainerID != nil {
		if err := sc.Drivers.ContainerEngine.RemoveContainer(sc.Ctx, *inf.ContainerID); err != nil {
			return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveContainerFailed, err.Error()))
		}
	}
	if inf.SecretID != nil {
		if err := sc.Drivers.ContainerEngine.RemoveSecret(sc.Ctx, *inf.SecretID); err != nil {
			return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveContainerFailed, err.Error()))
		}
	}
	return orchestrator.OK()
}

func (s *RemoveContainer) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
