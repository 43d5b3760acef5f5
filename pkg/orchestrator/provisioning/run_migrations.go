package provisioning

import "github.com/xcord-net/xcord-hub/pkg/orchestrator"

// RunMigrations is a no-op by contract: the application container applies
// its own schema migrations on start, against the database this pipeline
// already provisioned. This step still occupies an event-log slot so the
// resume algorithm and step ordering stay uniform across the pipeline.
type RunMigrations struct{}

func (s *RunMigrations) Name() string { return "RunMigrations" }

func (s *RunMigrations) Execute(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}

func (s *RunMigrations) Verify(sc orchestrator.StepContext) orchestrator.Result {
	return orchestrator.OK()
}
