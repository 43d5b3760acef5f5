package drivers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPContainerEngine talks to the container engine's HTTP API (spec.md §6):
// networks, secrets, and containers, addressed the way the Docker Engine
// API shapes these resources.
type HTTPContainerEngine struct {
	http httpClient
}

// NewHTTPContainerEngine builds a ContainerEngine backed by the given
// endpoint.
func NewHTTPContainerEngine(endpoint string) *HTTPContainerEngine {
	return &HTTPContainerEngine{http: newHTTPClient(endpoint, "", &http.Client{Timeout: 30 * time.Second})}
}

type createNetworkRequest struct {
	Name           string `json:"name"`
	CheckDuplicate bool   `json:"checkDuplicate"`
}

type createNetworkResponse struct {
	ID string `json:"id"`
}

func (e *HTTPContainerEngine) CreateNetwork(ctx context.Context, instanceDomain string) (string, error) {
	var resp createNetworkResponse
	req := createNetworkRequest{Name: "net-" + instanceDomain, CheckDuplicate: true}
	if err := e.http.do(ctx, http.MethodPost, "/networks/create", req, &resp); err != nil {
		return "", fmt.Errorf("creating network for %s: %w", instanceDomain, err)
	}
	return resp.ID, nil
}

func (e *HTTPContainerEngine) NetworkExists(ctx context.Context, id string) (bool, error) {
	err := e.http.do(ctx, http.MethodGet, "/networks/"+id, nil, nil)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking network %s: %w", id, err)
	}
	return true, nil
}

func (e *HTTPContainerEngine) RemoveNetwork(ctx context.Context, id string) error {
	err := e.http.do(ctx, http.MethodDelete, "/networks/"+id, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

type createSecretRequest struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type createSecretResponse struct {
	ID string `json:"id"`
}

func (e *HTTPContainerEngine) CreateSecret(ctx context.Context, domain string, payload []byte) (string, error) {
	var resp createSecretResponse
	req := createSecretRequest{Name: "cfg-" + domain, Data: payload}
	if err := e.http.do(ctx, http.MethodPost, "/secrets/create", req, &resp); err != nil {
		return "", fmt.Errorf("creating secret for %s: %w", domain, err)
	}
	return resp.ID, nil
}

func (e *HTTPContainerEngine) RemoveSecret(ctx context.Context, id string) error {
	err := e.http.do(ctx, http.MethodDelete, "/secrets/"+id, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

type createContainerRequest struct {
	Name          string   `json:"name"`
	Image         string   `json:"image"`
	SecretID      string   `json:"secretId"`
	MemoryBytes   int64    `json:"memoryBytes"`
	CPUPercent    int      `json:"cpuPercent"`
	RestartPolicy string   `json:"restartPolicy"`
	Networks      []string `json:"networks"`
}

type createContainerResponse struct {
	ID string `json:"id"`
}

// instanceImage is the fixed image every instance container runs. In a real
// deployment this would be configurable; the orchestrator pins a single
// known-good tag.
const instanceImage = "xcordhub/instance-api:latest"

func (e *HTTPContainerEngine) StartContainer(ctx context.Context, domain, secretID string, networks []string, limits ResourceLimits) (string, error) {
	var created createContainerResponse
	req := createContainerRequest{
		Name:          ContainerHostname(domain),
		Image:         instanceImage,
		SecretID:      secretID,
		MemoryBytes:   limits.MemoryBytes,
		CPUPercent:    limits.CPUPercent,
		RestartPolicy: "unless-stopped",
		Networks:      networks,
	}
	if err := e.http.do(ctx, http.MethodPost, "/containers/create?name="+ContainerHostname(domain), req, &created); err != nil {
		return "", fmt.Errorf("creating container for %s: %w", domain, err)
	}
	if err := e.http.do(ctx, http.MethodPost, "/containers/"+created.ID+"/start", nil, nil); err != nil {
		return "", fmt.Errorf("starting container for %s: %w", domain, err)
	}
	return created.ID, nil
}

type inspectResponse struct {
	State struct {
		Status string `json:"status"`
	} `json:"state"`
}

func (e *HTTPContainerEngine) ContainerRunning(ctx context.Context, id string) (bool, error) {
	var resp inspectResponse
	if err := e.http.do(ctx, http.MethodGet, "/containers/"+id+"/json", nil, &resp); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("inspecting container %s: %w", id, err)
	}
	return resp.State.Status == "running", nil
}

func (e *HTTPContainerEngine) StopContainer(ctx context.Context, id string) error {
	err := e.http.do(ctx, http.MethodPost, "/containers/"+id+"/stop?t=10", nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

func (e *HTTPContainerEngine) RemoveContainer(ctx context.Context, id string) error {
	err := e.http.do(ctx, http.MethodDelete, "/containers/"+id+"?force=true", nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}
