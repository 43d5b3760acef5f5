package destruction

import (
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// RemoveProxyRoute deletes the instance's reverse-proxy route by its stored
// ID. Drivers treat a 404 as success, so a route removed by a prior,
// interrupted run of this same step is not an error.
type RemoveProxyRoute struct{}

func (s *RemoveProxyRoute) Name() string { return "RemoveProxyRoute" }

func (s *RemoveProxyRoute) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		if err == store.ErrNotFound {
			return orchestrator.OK()
		}
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveProxyFailed, err.Error()))
	}
	if inf.ProxyRouteID == nil {
		return orchestrator.OK()
	}
	if err := sc.Drivers.ReverseProxyManager.DeleteRoute(sc.Ctx, *inf.ProxyRouteID); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveProxyFailed, err.Error()))
	}
	return orchestrator.OK()
}

func (s *RemoveProxyRoute) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
