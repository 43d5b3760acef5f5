package stub

import (
	"context"
	"sync"

	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

// ContainerEngine is an in-memory drivers.ContainerEngine. Network, secret,
// and container IDs are deterministic per distinct name so that re-running
// a create call with the same domain returns the same ID (the idempotence
// the engine API itself provides via check_duplicate/lookup-by-name).
type ContainerEngine struct {
	parent *Set

	mu         sync.Mutex
	networks   map[string]string // domain -> id
	networkUp  map[string]bool
	secrets    map[string]string // domain -> id
	containers map[string]string // domain -> id
	running    map[string]bool
	nextSeq    int
}

func (c *ContainerEngine) CreateNetwork(ctx context.Context, instanceDomain string) (string, error) {
	if err := c.parent.record("CreateNetwork", instanceDomain); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.networks == nil {
		c.networks, c.networkUp = map[string]string{}, map[string]bool{}
	}
	if id, ok := c.networks[instanceDomain]; ok {
		return id, nil
	}
	c.nextSeq++
	id := idFor("net", c.nextSeq)
	c.networks[instanceDomain] = id
	c.networkUp[id] = true
	return id, nil
}

func (c *ContainerEngine) NetworkExists(ctx context.Context, id string) (bool, error) {
	if err := c.parent.record("NetworkExists", id); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.networkUp[id], nil
}

func (c *ContainerEngine) RemoveNetwork(ctx context.Context, id string) error {
	if err := c.parent.record("RemoveNetwork", id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.networkUp, id)
	return nil
}

func (c *ContainerEngine) CreateSecret(ctx context.Context, domain string, payload []byte) (string, error) {
	if err := c.parent.record("CreateSecret", domain); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.secrets == nil {
		c.secrets = map[string]string{}
	}
	if id, ok := c.secrets[domain]; ok {
		return id, nil
	}
	c.nextSeq++
	id := idFor("secret", c.nextSeq)
	c.secrets[domain] = id
	return id, nil
}

func (c *ContainerEngine) RemoveSecret(ctx context.Context, id string) error {
	return c.parent.record("RemoveSecret", id)
}

func (c *ContainerEngine) StartContainer(ctx context.Context, domain, secretID string, networks []string, limits drivers.ResourceLimits) (string, error) {
	if err := c.parent.record("StartContainer", append([]string{domain}, networks...)...); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.containers == nil {
		c.containers, c.running = map[string]string{}, map[string]bool{}
	}
	if id, ok := c.containers[domain]; ok {
		c.running[id] = true
		return id, nil
	}
	c.nextSeq++
	id := idFor("container", c.nextSeq)
	c.containers[domain] = id
	c.running[id] = true
	return id, nil
}

func (c *ContainerEngine) ContainerRunning(ctx context.Context, id string) (bool, error) {
	if err := c.parent.record("ContainerRunning", id); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running[id], nil
}

func (c *ContainerEngine) StopContainer(ctx context.Context, id string) error {
	if err := c.parent.record("StopContainer", id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running[id] = false
	return nil
}

func (c *ContainerEngine) RemoveContainer(ctx context.Context, id string) error {
	return c.parent.record("RemoveContainer", id)
}
