package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/xcord-net/xcord-hub/internal/kek"
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

// Worker is the long-lived loop that dequeues one instance at a time,
// dispatches it to the right pipeline, and runs it to completion before
// looking for more work (spec.md §4.6). One Worker per host is typical;
// running several is safe because dequeue is SKIP LOCKED and each
// instance's own status field is the only lock that matters.
type Worker struct {
	Store             *store.Store
	Drivers           *drivers.Set
	KEK               *kek.KEK
	Logger            *slog.Logger
	Config            Config
	PollInterval      time.Duration
	ProvisioningSteps []Step
	DestructionSteps  []Step
}

// Run blocks until ctx is cancelled, repeatedly dequeuing and processing
// instances.
func (w *Worker) Run(ctx context.Context) error {
	w.Logger.Info("worker loop started", "poll_interval", w.PollInterval)
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("worker loop stopped")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick processes at most one provisioning and one destroying instance per
// cycle, so both queues make forward progress even under sustained load.
func (w *Worker) tick(ctx context.Context) {
	w.processOne(ctx, store.StatusProvisioning, PipelineProvisioning, w.ProvisioningSteps)
	w.processOne(ctx, store.StatusDestroying, PipelineDestruction, w.DestructionSteps)
}

func (w *Worker) processOne(ctx context.Context, status store.InstanceStatus, kind PipelineKind, steps []Step) {
	instanceID, ok, err := Dequeue(ctx, w.Store, status)
	if err != nil {
		w.Logger.Error("dequeuing instance", "status", status, "error", err)
		return
	}
	if !ok {
		return
	}

	sc := StepContext{
		Ctx:        ctx,
		InstanceID: instanceID,
		Store:      w.Store,
		Drivers:    w.Drivers,
		KEK:        w.KEK,
		Logger:     w.Logger,
		Config:     w.Config,
	}

	executor := NewExecutor(w.Store, kind, steps)
	if err := executor.Run(sc); err != nil {
		w.Logger.Error("pipeline run failed", "instance_id", instanceID, "pipeline", kind, "error", err)
		return
	}
	w.Logger.Info("pipeline run completed", "instance_id", instanceID, "pipeline", kind)
}
