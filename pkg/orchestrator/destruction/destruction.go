// Package destruction implements the 7 concrete steps of the destruction
// pipeline (spec.md §4.4), one file per step. Every step is best-effort: a
// failure is logged by the executor and the pipeline continues regardless,
// so that partially-provisioned or partially-destroyed instances still
// converge to Destroyed. Finalization (worker-ID tombstone, instance
// status) is the executor's own responsibility; see
// orchestrator.Executor.finalizeDestruction.
package destruction

import "github.com/xcord-net/xcord-hub/pkg/orchestrator"

// Steps returns the destruction pipeline's fixed, ordered step list.
func Steps() []orchestrator.Step {
	return []orchestrator.Step{
		&NotifyShuttingDown{},
		&StopContainer{},
		&RemoveProxyRoute{},
		&RemoveDnsRecord{},
		&RemoveContainer{},
		&RemoveNetwork{},
		&RemoveObjectStoreBucket{},
	}
}
