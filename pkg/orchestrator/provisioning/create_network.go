package provisioning

import (
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// CreateNetwork asks the container engine for a private network labeled
// with the instance domain and stores its ID. The engine API is idempotent
// via a check_duplicate flag, so re-running this step for an instance that
// already has a network_id simply confirms it still resolves.
type CreateNetwork struct{}

func (s *CreateNetwork) Name() string { return "CreateNetwork" }

func (s *CreateNetwork) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}
	if inf.NetworkID != nil {
		return orchestrator.OK()
	}

	networkID, err := sc.Drivers.ContainerEngine.CreateNetwork(sc.Ctx, inst.Domain)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNetworkCreationFailed, fmt.Sprintf("creating network for %s: %v", inst.Domain, err)))
	}
	if err := store.SetNetworkID(sc.Ctx, sc.Store.Pool(), sc.InstanceID, networkID); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNetworkCreationFailed, err.Error()))
	}
	return orchestrator.OK()
}

func (s *CreateNetwork) Verify(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}
	if inf.NetworkID == nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNetworkVerifyFailed, "network id was not persisted"))
	}
	ok, err := sc.Drivers.ContainerEngine.NetworkExists(sc.Ctx, *inf.NetworkID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNetworkVerifyFailed, err.Error()))
	}
	if !ok {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeNetworkVerifyFailed, fmt.Sprintf("network %s does not resolve", *inf.NetworkID)))
	}
	return orchestrator.OK()
}
