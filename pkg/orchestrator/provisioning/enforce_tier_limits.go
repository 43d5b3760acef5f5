package provisioning

import (
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// EnforceTierLimits counts the owner's live instances and rejects
// provisioning if it exceeds the tier's instance cap. A cap of
// store.UnlimitedUserCountTier (-1) means no limit.
type EnforceTierLimits struct{}

func (s *EnforceTierLimits) Name() string { return "EnforceTierLimits" }

func (s *EnforceTierLimits) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInstanceNotFound, err.Error()))
	}

	billing, err := store.GetBilling(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeValidationFailed, fmt.Sprintf("loading billing for instance %d: %v", sc.InstanceID, err)))
	}

	limits, ok := sc.Config.Tiers[string(billing.FeatureTier)]
	if !ok || limits.MaxInstances == store.UnlimitedUserCountTier {
		return orchestrator.OK()
	}

	count, err := store.CountActiveByOwner(sc.Ctx, sc.Store.Pool(), inst.OwnerID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeValidationFailed, err.Error()))
	}

	if count > limits.MaxInstances {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeTierLimitExceeded,
			fmt.Sprintf("owner %d has %d instances, tier limit is %d", inst.OwnerID, count, limits.MaxInstances)))
	}
	return orchestrator.OK()
}

func (s *EnforceTierLimits) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
