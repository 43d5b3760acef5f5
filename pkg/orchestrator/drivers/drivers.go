// Package drivers defines the orchestrator's resource driver capability
// interfaces (spec.md §4.8). Real implementations call the external
// container engine, DNS, reverse-proxy, and object-store admin APIs over
// HTTP; stub implementations (package stub) back the orchestrator's own
// tests.
package drivers

import "context"

// ResourceLimits bounds a container's memory and CPU, derived from a
// billing tier.
type ResourceLimits struct {
	MemoryBytes  int64
	CPUPercent   int
}

// ContainerEngine manages the per-instance private network, config secret,
// and API container. All Remove* calls must treat a missing target as
// success, since destruction is best-effort and steps are idempotent.
type ContainerEngine interface {
	CreateNetwork(ctx context.Context, instanceDomain string) (id string, err error)
	NetworkExists(ctx context.Context, id string) (bool, error)
	RemoveNetwork(ctx context.Context, id string) error

	CreateSecret(ctx context.Context, domain string, payload []byte) (id string, err error)
	RemoveSecret(ctx context.Context, id string) error

	StartContainer(ctx context.Context, domain, secretID string, networks []string, limits ResourceLimits) (id string, err error)
	ContainerRunning(ctx context.Context, id string) (bool, error)
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
}

// DnsProvider manages zone-scoped A records for instance subdomains.
type DnsProvider interface {
	CreateARecord(ctx context.Context, subdomain, ip string) error
	VerifyARecord(ctx context.Context, subdomain string) (bool, error)
	DeleteARecord(ctx context.Context, subdomain string) error
}

// ReverseProxyManager manages the routes that forward a host header to an
// instance container.
type ReverseProxyManager interface {
	CreateRoute(ctx context.Context, instanceDomain, upstreamHostname string) (routeID string, err error)
	VerifyRoute(ctx context.Context, routeID string) (bool, error)
	DeleteRoute(ctx context.Context, routeID string) error
}

// ObjectStoreManager manages an instance's storage bucket and its
// dedicated access principal.
type ObjectStoreManager interface {
	ProvisionBucket(ctx context.Context, name, accessKey, secretKey string) error
	DeprovisionBucket(ctx context.Context, name, accessKey string) error
	VerifyBucket(ctx context.Context, name, accessKey, secretKey string) (bool, error)
}

// InstanceNotifier tells an instance's own container it is about to be
// shut down. Failures are swallowed by the caller; this is advisory only.
// hostname must be the container's network hostname (ContainerHostname),
// not the instance's public domain — the proxy/DNS path may already be
// gone by the time this is called.
type InstanceNotifier interface {
	NotifyShuttingDown(ctx context.Context, hostname, reason string) error
}

// ContainerHostname returns the network-resolvable hostname of an instance's
// API container, matching the name the container engine driver creates it
// under (HTTPContainerEngine.StartContainer). Callers that need to reach the
// container directly — the reverse-proxy upstream, the shutdown
// notification — must dial this, not the instance's public domain, which
// only resolves to the gateway.
func ContainerHostname(domain string) string {
	return "instance-" + domain
}

// Set bundles one implementation of each capability, the unit steps take a
// dependency on.
type Set struct {
	ContainerEngine     ContainerEngine
	DNSProvider         DnsProvider
	ReverseProxyManager ReverseProxyManager
	ObjectStoreManager  ObjectStoreManager
	InstanceNotifier    InstanceNotifier
}
