package destruction

import (
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// RemoveDnsRecord deletes the instance's A record by subdomain. Looked up
// by subdomain rather than a stored ID, since the DNS provider API is
// zone-scoped record CRUD keyed by name, not a handle we persist.
type RemoveDnsRecord struct{}

func (s *RemoveDnsRecord) Name() string { return "RemoveDnsRecord" }

func (s *RemoveDnsRecord) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inst, err := store.GetManagedInstance(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		if err == store.ErrNotFound {
			return orchestrator.OK()
		}
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveDNSFailed, err.Error()))
	}
	if err := sc.Drivers.DNSProvider.DeleteARecord(sc.Ctx, inst.Domain); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeRemoveDNSFailed, err.Error()))
	}
	return orchestrator.OK()
}

func (s *RemoveDnsRecord) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
