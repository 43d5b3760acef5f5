package destruction

import (
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// RemoveNetwork deletes the instance's private network by its stored ID.
type RemoveNetwork struct{}

func (s *RemoveNetwork) Name() string { return "RemoveNetwork" }

func (s *RemoveNetwork) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		if err == store.ErrNotFound {
			return orchestrator.OK()
		}
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveNetworkFailed, err.Error()))
	}
	if inf.NetworkID == nil {
		return orchestrator.OK()
	}
	if err := sc.Drivers.ContainerEngine.RemoveNetwork(sc.Ctx, *inf.NetworkID); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveNetworkFailed, err.Error()))
	}
	return orchestrator.OK()
}

func (s *RemoveNetwork) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
