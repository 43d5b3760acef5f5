package stub

import (
	"context"
	"errors"
	"testing"

	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

func TestContainerEngineCreateNetworkIsIdempotentByDomain(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.ContainerEngine.CreateNetwork(ctx, "acme.xcordhub.app")
	if err != nil {
		t.Fatalf("CreateNetwork() error = %v", err)
	}
	id2, err := s.ContainerEngine.CreateNetwork(ctx, "acme.xcordhub.app")
	if err != nil {
		t.Fatalf("CreateNetwork() error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("re-running CreateNetwork for the same domain returned a different id: %s vs %s", id1, id2)
	}

	other, err := s.ContainerEngine.CreateNetwork(ctx, "other.xcordhub.app")
	if err != nil {
		t.Fatalf("CreateNetwork() error = %v", err)
	}
	if other == id1 {
		t.Error("two distinct domains must not collide on the same network id")
	}

	if s.CallCount("CreateNetwork") != 3 {
		t.Errorf("CallCount(CreateNetwork) = %d, want 3", s.CallCount("CreateNetwork"))
	}
}

func TestContainerEngineStartContainerIsRunningAfterStart(t *testing.T) {
	s := New()
	ctx := context.Background()

	networks := []string{"net-1", "xcordhub-infra"}
	id, err := s.ContainerEngine.StartContainer(ctx, "acme.xcordhub.app", "secret-1", networks, drivers.ResourceLimits{MemoryBytes: 512 << 20, CPUPercent: 50})
	if err != nil {
		t.Fatalf("StartContainer() error = %v", err)
	}
	running, err := s.ContainerEngine.ContainerRunning(ctx, id)
	if err != nil {
		t.Fatalf("ContainerRunning() error = %v", err)
	}
	if !running {
		t.Error("container should report running immediately after StartContainer")
	}

	if err := s.ContainerEngine.StopContainer(ctx, id); err != nil {
		t.Fatalf("StopContainer() error = %v", err)
	}
	running, err = s.ContainerEngine.ContainerRunning(ctx, id)
	if err != nil {
		t.Fatalf("ContainerRunning() error = %v", err)
	}
	if running {
		t.Error("container should not report running after StopContainer")
	}
}

func TestSetForcedFailurePropagates(t *testing.T) {
	s := New()
	wantErr := errors.New("simulated engine outage")
	s.Fail["CreateNetwork"] = wantErr

	_, err := s.ContainerEngine.CreateNetwork(context.Background(), "acme.xcordhub.app")
	if !errors.Is(err, wantErr) {
		t.Errorf("CreateNetwork() error = %v, want %v", err, wantErr)
	}
}

func TestObjectStoreVerifyBucketRequiresMatchingCredentials(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.ObjectStoreManager.ProvisionBucket(ctx, "xcord-acme", "access", "secret"); err != nil {
		t.Fatalf("ProvisionBucket() error = %v", err)
	}

	ok, err := s.ObjectStoreManager.VerifyBucket(ctx, "xcord-acme", "access", "secret")
	if err != nil || !ok {
		t.Errorf("VerifyBucket() with correct credentials = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = s.ObjectStoreManager.VerifyBucket(ctx, "xcord-acme", "access", "wrong-secret")
	if err != nil || ok {
		t.Errorf("VerifyBucket() with wrong credentials = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestAsDriverSetSatisfiesDriversSet(t *testing.T) {
	s := New()
	set := s.AsDriverSet()
	if set.ContainerEngine == nil || set.DNSProvider == nil || set.ReverseProxyManager == nil ||
		set.ObjectStoreManager == nil || set.InstanceNotifier == nil {
		t.Fatal("AsDriverSet() left a capability nil")
	}
}
