package orchestrator

import (
	"fmt"
	"time"

	"github.com/xcord-net/xcord-hub/internal/store"
)

// MaxRetries bounds execute/verify attempts per phase before the executor
// gives up on a step.
const MaxRetries = 3

// backoff is the fixed, unjittered delay schedule between retry attempts
// (spec.md §4.2). Index i is the sleep after attempt i+1 fails.
var backoff = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}

// sleepFunc is indirected so tests can run the retry loop without actually
// waiting out the real backoff schedule.
var sleepFunc = time.Sleep

// PipelineKind distinguishes the two step lists the executor can drive, and
// what terminal status each leaves behind on success.
type PipelineKind string

const (
	PipelineProvisioning PipelineKind = "provisioning"
	PipelineDestruction  PipelineKind = "destruction"
)

// Executor drives a fixed ordered step list for one instance: resuming from
// the last completed step, retrying each phase with backoff, and recording
// every attempt in the event log (spec.md §4.2).
type Executor struct {
	Store *store.Store
	Kind  PipelineKind
	Steps []Step
}

// NewExecutor builds an Executor for the given pipeline kind and step list.
func NewExecutor(st *store.Store, kind PipelineKind, steps []Step) *Executor {
	return &Executor{Store: st, Kind: kind, Steps: steps}
}

// Run executes the pipeline for instanceID, resuming from the resume index
// computed from the event log, and returns the first terminal failure (if
// any). On full success it transitions the instance to its terminal status,
// except for destruction where best-effort semantics always reach that
// status regardless of individual step failures.
func (e *Executor) Run(sc StepContext) error {
	if _, err := store.GetManagedInstance(sc.Ctx, e.Store.Pool(), sc.InstanceID); err != nil {
		if err == store.ErrNotFound {
			return NewError(CodeInstanceNotFound, fmt.Sprintf("instance %d not found", sc.InstanceID))
		}
		return err
	}

	startIdx, err := e.resumeIndex(sc)
	if err != nil {
		return err
	}

	start := time.Now()

	for i := startIdx; i < len(e.Steps); i++ {
		step := e.Steps[i]

		execErr := e.runPhase(sc, step, store.PhaseExecute, step.Execute)
		if execErr != nil {
			if e.Kind == PipelineDestruction {
				sc.Logger.Warn("destruction step failed, continuing best-effort",
					"step", step.Name(), "instance_id", sc.InstanceID, "error", execErr)
				continue
			}
			_ = store.SetStatus(sc.Ctx, e.Store.Pool(), sc.InstanceID, store.StatusFailed)
			return execErr
		}

		verifyErr := e.runPhase(sc, step, store.PhaseVerify, step.Verify)
		if verifyErr != nil {
			if e.Kind == PipelineDestruction {
				sc.Logger.Warn("destruction step verify failed, continuing best-effort",
					"step", step.Name(), "instance_id", sc.InstanceID, "error", verifyErr)
				continue
			}
			_ = store.SetStatus(sc.Ctx, e.Store.Pool(), sc.InstanceID, store.StatusFailed)
			return verifyErr
		}
	}

	if e.Kind == PipelineProvisioning {
		if err := store.SetStatus(sc.Ctx, e.Store.Pool(), sc.InstanceID, store.StatusRunning); err != nil {
			return err
		}
	} else {
		if err := e.finalizeDestruction(sc); err != nil {
			return err
		}
	}

	PipelineDurationSeconds.WithLabelValues(string(e.Kind)).Observe(time.Since(start).Seconds())
	return nil
}

// finalizeDestruction tombstones the worker ID (if one was allocated),
// revokes any still-active federation token, and marks the instance
// destroyed, regardless of how many individual steps failed along the way
// (spec.md §4.4's finalization).
func (e *Executor) finalizeDestruction(sc StepContext) error {
	inst, err := store.GetManagedInstance(sc.Ctx, e.Store.Pool(), sc.InstanceID)
	if err != nil {
		return err
	}
	if inst.WorkerID != nil {
		if err := store.TombstoneWorkerID(sc.Ctx, e.Store.Pool(), *inst.WorkerID); err != nil {
			sc.Logger.Warn("tombstoning worker id failed", "worker_id", *inst.WorkerID, "error", err)
		}
	}
	if tok, err := store.GetActiveFederationTokenByInstance(sc.Ctx, e.Store.Pool(), sc.InstanceID); err == nil {
		if err := store.RevokeFederationToken(sc.Ctx, e.Store.Pool(), tok.ID); err != nil {
			sc.Logger.Warn("revoking federation token failed", "token_id", tok.ID, "error", err)
		}
	} else if err != store.ErrNotFound {
		sc.Logger.Warn("loading federation token for revocation failed", "instance_id", sc.InstanceID, "error", err)
	}
	return store.MarkDeleted(sc.Ctx, e.Store.Pool(), sc.InstanceID)
}

// resumeIndex implements spec.md §4.2's resume algorithm: find the latest
// step (in pipeline order) with Completed events for both Execute and
// Verify, and resume immediately after it.
func (e *Executor) resumeIndex(sc StepContext) (int, error) {
	events, err := store.EventsForInstance(sc.Ctx, e.Store.Pool(), sc.InstanceID)
	if err != nil {
		return 0, fmt.Errorf("loading event history for instance %d: %w", sc.InstanceID, err)
	}
	return resumeIndexFromEvents(e.Steps, events), nil
}

// resumeIndexFromEvents is the pure core of the resume algorithm, split out
// from resumeIndex so it can be unit-tested without a database.
func resumeIndexFromEvents(steps []Step, events []store.ProvisioningEvent) int {
	completed := make(map[string]map[store.EventPhase]bool)
	for _, ev := range events {
		if completed[ev.StepName] == nil {
			completed[ev.StepName] = map[store.EventPhase]bool{}
		}
		// Last-write-wins by started_at (events must be supplied in
		// ascending order), so a later Completed pair always overrides an
		// earlier Failed one for the same (step, phase).
		completed[ev.StepName][ev.Phase] = ev.Status == store.EventCompleted
	}

	resumeAt := 0
	for i, step := range steps {
		phases := completed[step.Name()]
		if phases[store.PhaseExecute] && phases[store.PhaseVerify] {
			resumeAt = i + 1
		}
	}
	return resumeAt
}

// InvalidateStep forces the next Run to resume at-or-before the named step,
// by appending a synthetic failed Execute event for it. resumeIndexFromEvents
// only counts a step as done once its latest Execute and Verify events are
// both Completed, and last-write-wins by started_at, so this is enough to
// undo an earlier completed pair without touching or replaying any event
// already recorded. Used by the reconciler to repair detected divergence on
// an otherwise-Running instance without re-running steps that never drifted.
func (e *Executor) InvalidateStep(sc StepContext, stepName string) error {
	eventID, err := store.RecordEventStart(sc.Ctx, e.Store.Pool(), sc.InstanceID, stepName, store.PhaseExecute)
	if err != nil {
		return fmt.Errorf("recording invalidation start for step %s: %w", stepName, err)
	}
	if err := store.RecordEventFailed(sc.Ctx, e.Store.Pool(), eventID, "invalidated by reconciler: divergence detected"); err != nil {
		return fmt.Errorf("recording invalidation failure for step %s: %w", stepName, err)
	}
	return nil
}

// phaseFunc is the shape shared by Step.Execute and Step.Verify.
type phaseFunc func(StepContext) Result

// runPhase drives the attempt/backoff loop for one (step, phase) pair,
// recording an event for every attempt.
func (e *Executor) runPhase(sc StepContext, step Step, phase store.EventPhase, fn phaseFunc) error {
	var lastErr *Error

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		eventID, err := store.RecordEventStart(sc.Ctx, e.Store.Pool(), sc.InstanceID, step.Name(), phase)
		if err != nil {
			return fmt.Errorf("recording event start for step %s: %w", step.Name(), err)
		}

		result := e.invokeSafely(sc, fn)

		if result.Success() {
			if err := store.RecordEventCompleted(sc.Ctx, e.Store.Pool(), eventID); err != nil {
				return fmt.Errorf("recording event completion for step %s: %w", step.Name(), err)
			}
			StepTotal.WithLabelValues(step.Name(), string(phase), "true").Inc()
			return nil
		}

		lastErr = result.Err
		if err := store.RecordEventFailed(sc.Ctx, e.Store.Pool(), eventID, lastErr.Error()); err != nil {
			return fmt.Errorf("recording event failure for step %s: %w", step.Name(), err)
		}
		StepTotal.WithLabelValues(step.Name(), string(phase), "false").Inc()

		if !lastErr.Retryable {
			return lastErr
		}
		if attempt == MaxRetries {
			break
		}
		sleepFunc(backoff[attempt-1])
	}

	return NewError(CodeMaxRetriesExceeded, fmt.Sprintf("step %s %s failed after %d attempts: %s", step.Name(), phase, MaxRetries, lastErr))
}

// invokeSafely recovers a panic from a step body and converts it to a
// STEP_EXCEPTION result, since no step may throw across its boundary
// (spec.md §4.1, §7).
func (e *Executor) invokeSafely(sc StepContext, fn phaseFunc) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Failed(NewError(CodeStepException, fmt.Sprintf("panic: %v", r)))
		}
	}()
	return fn(sc)
}
