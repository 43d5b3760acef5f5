package provisioning

import (
	"fmt"
	"time"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

// StartApiContainer renders the instance's config document, stores it as an
// engine secret, and creates + starts the API container attached to both
// the instance's private network and the shared infra network, with
// resource limits derived from the billing tier. Idempotent: if a
// container already exists for this domain, this step only confirms it is
// running.
type StartApiContainer struct{}

func (s *StartApiContainer) Name() string { return "StartApiContainer" }

func (s *StartApiContainer) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}
	billing, err := store.GetBilling(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerStartFailed, err.Error()))
	}

	if inf.ContainerID != nil {
		return orchestrator.OK()
	}

	if inf.BootstrapTokenWrapped == nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, "bootstrap token was never generated"))
	}
	rawToken, err := sc.KEK.Unwrap(sc.InstanceID, *inf.BootstrapTokenWrapped)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeSecretsMissing, err.Error()))
	}

	payload, limits, err := renderConfigDocument(sc, inst, inf, billing, string(rawToken))
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerStartFailed, err.Error()))
	}

	secretID, err := sc.Drivers.ContainerEngine.CreateSecret(sc.Ctx, inst.Domain, payload)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerStartFailed, fmt.Sprintf("creating config secret for %s: %v", inst.Domain, err)))
	}
	if err := store.SetSecretID(sc.Ctx, sc.Store.Pool(), sc.InstanceID, secretID); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerStartFailed, err.Error()))
	}

	if inf.NetworkID == nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerStartFailed, "instance network was not provisioned"))
	}

	resourceLimits := drivers.ResourceLimits{
		MemoryBytes: int64(limits.MaxMemoryMB) << 20,
		CPUPercent:  limits.MaxCPUPercent,
	}
	// Attach to both the instance's private network and the shared infra
	// network (spec.md §4.3 step 9).
	networks := []string{*inf.NetworkID, sc.Config.InfraNetworkName}
	containerID, err := sc.Drivers.ContainerEngine.StartContainer(sc.Ctx, inst.Domain, secretID, networks, resourceLimits)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerStartFailed, fmt.Sprintf("starting container for %s: %v", inst.Domain, err)))
	}
	if err := store.SetContainerID(sc.Ctx, sc.Store.Pool(), sc.InstanceID, containerID); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerStartFailed, err.Error()))
	}
	return orchestrator.OK()
}

// readinessPollBudget bounds how long Verify polls the engine's inspect
// endpoint for a Running state (spec.md §5's "60s polling budget for
// container readiness").
const readinessPollBudget = 60 * time.Second
const readinessPollInterval = 2 * time.Second

func (s *StartApiContainer) Verify(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}
	if inf.ContainerID == nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerNotRunning, "container id was not persisted"))
	}

	deadline := time.Now().Add(readinessPollBudget)
	for {
		running, err := sc.Drivers.ContainerEngine.ContainerRunning(sc.Ctx, *inf.ContainerID)
		if err != nil {
			return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerNotRunning, err.Error()))
		}
		if running {
			return orchestrator.OK()
		}
		if time.Now().After(deadline) {
			return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerNotRunning, fmt.Sprintf("container %s not running after %s", *inf.ContainerID, readinessPollBudget)))
		}
		select {
		case <-sc.Ctx.Done():
			return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeContainerNotRunning, sc.Ctx.Err().Error()))
		case <-time.After(readinessPollInterval):
		}
	}
}
