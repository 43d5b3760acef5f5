package destruction

import (
	"time"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

// gracePeriod gives the instance's own process a moment to react to the
// shutdown notice before StopContainer runs (spec.md §4.4 step 1).
const gracePeriod = 3 * time.Second

// NotifyShuttingDown tells the instance container it is about to be torn
// down. The notification is advisory only: failures are swallowed here, not
// just by the executor's best-effort continuation, since a notify failure
// is never itself a reason to retry.
type NotifyShuttingDown struct{}

func (s *NotifyShuttingDown) Name() string { return "NotifyShuttingDown" }

func (s *NotifyShuttingDown) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	// Dial the container's own network hostname, not the public domain: the
	// public domain only resolves via the gateway/proxy, which the
	// destruction pipeline is actively tearing down.
	hostname := drivers.ContainerHostname(inst.Domain)
	if err := sc.Drivers.InstanceNotifier.NotifyShuttingDown(sc.Ctx, hostname, "instance destruction"); err != nil {
		sc.Logger.Debug("shutdown notice failed, proceeding anyway", "hostname", hostname, "error", err)
	}
	select {
	case <-sc.Ctx.Done():
	case <-time.After(gracePeriod):
	}
	return orchestrator.OK()
}

func (s *NotifyShuttingDown) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
