package drivers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPReverseProxyManager manages host-routed forwarding rules via the
// reverse proxy's admin config API (spec.md §6), addressed the way a
// Caddy-style config API shapes routes under a fixed server name.
type HTTPReverseProxyManager struct {
	http       httpClient
	serverName string
}

// NewHTTPReverseProxyManager builds a ReverseProxyManager for the given
// admin endpoint and server block name.
func NewHTTPReverseProxyManager(endpoint, serverName string) *HTTPReverseProxyManager {
	return &HTTPReverseProxyManager{
		http:       newHTTPClient(endpoint, "", &http.Client{Timeout: 15 * time.Second}),
		serverName: serverName,
	}
}

type createRouteRequest struct {
	ID     string   `json:"@id"`
	Match  []matcher `json:"match"`
	Handle []handler `json:"handle"`
}

type matcher struct {
	Host []string `json:"host"`
}

type handler struct {
	Handler   string     `json:"handler"`
	Upstreams []upstream `json:"upstreams"`
}

type upstream struct {
	Dial string `json:"dial"`
}

func (p *HTTPReverseProxyManager) CreateRoute(ctx context.Context, instanceDomain, upstreamHostname string) (string, error) {
	routeID := "route-" + instanceDomain
	req := createRouteRequest{
		ID:    routeID,
		Match: []matcher{{Host: []string{instanceDomain}}},
		Handle: []handler{{
			Handler:   "reverse_proxy",
			Upstreams: []upstream{{Dial: upstreamHostname + ":80"}},
		}},
	}
	path := fmt.Sprintf("/config/apps/http/servers/%s/routes", p.serverName)
	if err := p.http.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return "", fmt.Errorf("creating proxy route for %s: %w", instanceDomain, err)
	}
	return routeID, nil
}

func (p *HTTPReverseProxyManager) VerifyRoute(ctx context.Context, routeID string) (bool, error) {
	err := p.http.do(ctx, http.MethodGet, "/id/"+routeID, nil, nil)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verifying proxy route %s: %w", routeID, err)
	}
	return true, nil
}

func (p *HTTPReverseProxyManager) DeleteRoute(ctx context.Context, routeID string) error {
	err := p.http.do(ctx, http.MethodDelete, "/id/"+routeID, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}
