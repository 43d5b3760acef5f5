package provisioning

import (
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

// ConfigureDnsAndProxy points the instance's subdomain at the gateway and
// registers a reverse-proxy route that forwards the host header to the
// instance's own container. This is the last provisioning step: once it
// verifies, the instance is reachable at its domain.
type ConfigureDnsAndProxy struct{}

func (s *ConfigureDnsAndProxy) Name() string { return "ConfigureDnsAndProxy" }

func (s *ConfigureDnsAndProxy) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}

	if err := sc.Drivers.DNSProvider.CreateARecord(sc.Ctx, inst.Domain, sc.Config.GatewayIP); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDNSProxyFailed, fmt.Sprintf("creating A record for %s: %v", inst.Domain, err)))
	}

	if inf.ProxyRouteID == nil {
		// Forward to the container's own network hostname, not the public
		// domain (which only resolves to the gateway, not the container).
		routeID, err := sc.Drivers.ReverseProxyManager.CreateRoute(sc.Ctx, inst.Domain, drivers.ContainerHostname(inst.Domain))
		if err != nil {
			return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDNSProxyFailed, fmt.Sprintf("creating proxy route for %s: %v", inst.Domain, err)))
		}
		if err := store.SetProxyRouteID(sc.Ctx, sc.Store.Pool(), sc.InstanceID, routeID); err != nil {
			return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDNSProxyFailed, err.Error()))
		}
	}
	return orchestrator.OK()
}

func (s *ConfigureDnsAndProxy) Verify(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}

	dnsOK, err := sc.Drivers.DNSProvider.VerifyARecord(sc.Ctx, inst.Domain)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDNSProxyVerifyFailed, err.Error()))
	}
	if !dnsOK {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDNSProxyVerifyFailed, fmt.Sprintf("A record for %s did not resolve", inst.Domain)))
	}

	if inf.ProxyRouteID == nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDNSProxyVerifyFailed, "proxy route id was not persisted"))
	}
	routeOK, err := sc.Drivers.ReverseProxyManager.VerifyRoute(sc.Ctx, *inf.ProxyRouteID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDNSProxyVerifyFailed, err.Error()))
	}
	if !routeOK {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDNSProxyVerifyFailed, fmt.Sprintf("proxy route %s did not verify", *inf.ProxyRouteID)))
	}
	return orchestrator.OK()
}
