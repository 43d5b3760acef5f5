package provisioning

import (
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// ValidateSubdomain re-checks domain uniqueness among non-deleted
// instances. This is defensive: the API handler that enqueued this
// instance already checked once, but another instance could have claimed
// the domain in the interim.
type ValidateSubdomain struct{}

func (s *ValidateSubdomain) Name() string { return "ValidateSubdomain" }

func (s *ValidateSubdomain) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}

	// The instance being validated is itself a row matching this domain;
	// more than one match means a genuine collision.
	count, err := store.CountByDomain(sc.Ctx, sc.Store.Pool(), inst.Domain)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeValidationFailed, err.Error()))
	}
	if count > 1 {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDomainTaken, fmt.Sprintf("domain %s already claimed", inst.Domain)))
	}
	return orchestrator.OK()
}

func (s *ValidateSubdomain) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
