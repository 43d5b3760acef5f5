package stub

import (
	"context"
	"sync"
)

// ReverseProxyManager is an in-memory drivers.ReverseProxyManager.
type ReverseProxyManager struct {
	parent *Set

	mu     sync.Mutex
	routes map[string]string // routeID -> upstream hostname
}

func (p *ReverseProxyManager) CreateRoute(ctx context.Context, instanceDomain, upstreamHostname string) (string, error) {
	routeID := "route-" + instanceDomain
	if err := p.parent.record("CreateRoute", instanceDomain, upstreamHostname); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.routes == nil {
		p.routes = map[string]string{}
	}
	p.routes[routeID] = upstreamHostname
	return routeID, nil
}

func (p *ReverseProxyManager) VerifyRoute(ctx context.Context, routeID string) (bool, error) {
	if err := p.parent.record("VerifyRoute", routeID); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.routes[routeID]
	return ok, nil
}

func (p *ReverseProxyManager) DeleteRoute(ctx context.Context, routeID string) error {
	if err := p.parent.record("DeleteRoute", routeID); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.routes, routeID)
	return nil
}
