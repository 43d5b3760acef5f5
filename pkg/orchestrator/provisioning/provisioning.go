// Package provisioning implements the 10 concrete steps of the
// provisioning pipeline (spec.md §4.3), one file per step.
package provisioning

import "github.com/xcord-net/xcord-hub/pkg/orchestrator"

// Steps returns the provisioning pipeline's fixed, ordered step list.
// Step 11 (ActivateInstance) is the executor's own finalization and is not
// a concrete Step here; see orchestrator.Executor.Run.
func Steps() []orchestrator.Step {
	return []orchestrator.Step{
		&ValidateSubdomain{},
		&EnforceTierLimits{},
		&AllocateWorkerId{},
		&GenerateSecrets{},
		&ProvisionDatabase{},
		&ProvisionObjectStore{},
		&CreateNetwork{},
		&RunMigrations{},
		&StartApiContainer{},
		&ConfigureDnsAndProxy{},
	}
}
