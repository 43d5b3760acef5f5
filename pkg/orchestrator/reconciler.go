package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

// reconcilerLeaseKey is the shared Redis key whichever orchestrator replica
// holds the reconciler lease sets. This is NOT a consensus mechanism: it
// only prevents redundant verify scans when multiple orchestrator processes
// happen to run side by side; spec.md's non-goals explicitly exclude HA or
// consensus across replicas, and losing the lease never blocks the worker
// loop's own pipeline processing.
const reconcilerLeaseKey = "xcordhub:reconciler:lease"

// Step names duplicated from pkg/orchestrator/provisioning, which already
// imports this package for the Step interface — importing it back here would
// cycle. Keep these in sync with provisioning.StartApiContainer{}.Name() and
// provisioning.ConfigureDnsAndProxy{}.Name().
const (
	stepStartApiContainer    = "StartApiContainer"
	stepConfigureDnsAndProxy = "ConfigureDnsAndProxy"
)

// Reconciler periodically re-runs a subset of verify phases against running
// instances and re-enqueues the owning pipeline on divergence (spec.md
// §4.7). It shares the Step interface and Executor with the main
// provisioning/destruction pipelines but only ever touches already-Running
// instances.
type Reconciler struct {
	Store    *store.Store
	Drivers  *drivers.Set
	Redis    *redis.Client
	Logger   *slog.Logger
	Interval time.Duration
	LeaseTTL time.Duration
	Config   Config
}

// Run blocks until ctx is cancelled, attempting the lease and ticking on
// the configured interval (grounded on the same ticker-loop shape the
// worker and escalation-style engines use).
func (r *Reconciler) Run(ctx context.Context) error {
	r.Logger.Info("reconciler started", "interval", r.Interval)
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("reconciler stopped")
			return nil
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				r.Logger.Error("reconciler tick", "error", err)
			}
		}
	}
}

// tick acquires the lease (no-op if another replica already holds it) and,
// if successful, scans Running instances for divergence.
func (r *Reconciler) tick(ctx context.Context) error {
	acquired, err := r.Redis.SetNX(ctx, reconcilerLeaseKey, "1", r.LeaseTTL).Result()
	if err != nil {
		return err
	}
	if !acquired {
		r.Logger.Debug("reconciler lease held by another replica, skipping tick")
		return nil
	}

	instanceIDs, err := store.ListByStatus(ctx, r.Store.Pool(), store.StatusRunning, 100)
	if err != nil {
		return err
	}

	for _, id := range instanceIDs {
		r.reconcileOne(ctx, id)
	}
	return nil
}

// reconcileOne re-runs verify-only checks for a single instance and
// re-enqueues provisioning (resuming from the divergent step) if any check
// fails.
func (r *Reconciler) reconcileOne(ctx context.Context, instanceID int64) {
	inf, err := store.GetInfrastructure(ctx, r.Store.Pool(), instanceID)
	if err != nil {
		r.Logger.Warn("reconciler: loading infrastructure", "instance_id", instanceID, "error", err)
		return
	}

	var divergedSteps []string
	if inf.ContainerID != nil {
		if running, err := r.Drivers.ContainerEngine.ContainerRunning(ctx, *inf.ContainerID); err != nil || !running {
			divergedSteps = append(divergedSteps, stepStartApiContainer)
		}
	}
	if inf.ProxyRouteID != nil {
		if ok, err := r.Drivers.ReverseProxyManager.VerifyRoute(ctx, *inf.ProxyRouteID); err != nil || !ok {
			divergedSteps = append(divergedSteps, stepConfigureDnsAndProxy)
		}
	}

	if len(divergedSteps) == 0 {
		return
	}

	r.Logger.Warn("reconciler: divergence detected, re-enqueuing", "instance_id", instanceID, "steps", divergedSteps)

	// Enqueue alone only flips status back to Provisioning: the executor's resume
	// algorithm would see the divergent step's last event pair still marked
	// Completed and skip straight past it, re-running nothing. Invalidate
	// each divergent step first so the next Run actually repairs it.
	exec := NewExecutor(r.Store, PipelineProvisioning, nil)
	sc := StepContext{Ctx: ctx, InstanceID: instanceID, Store: r.Store}
	for _, step := range divergedSteps {
		if err := exec.InvalidateStep(sc, step); err != nil {
			r.Logger.Error("reconciler: invalidating step", "instance_id", instanceID, "step", step, "error", err)
			return
		}
	}

	if err := Enqueue(ctx, r.Store, instanceID, PipelineProvisioning); err != nil {
		r.Logger.Error("reconciler: re-enqueuing instance", "instance_id", instanceID, "error", err)
	}
}
