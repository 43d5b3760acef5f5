package provisioning

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// ProvisionDatabase uses the hub's own connection pool to check the
// cluster-wide pg_database catalog for the instance's logical database, and
// issues CREATE DATABASE if it is absent. CREATE DATABASE cannot run inside
// a transaction, so this step uses the pool directly rather than
// Store.WithTx.
type ProvisionDatabase struct{}

func (s *ProvisionDatabase) Name() string { return "ProvisionDatabase" }

func (s *ProvisionDatabase) databaseExists(sc orchestrator.StepContext, dbName string) (bool, error) {
	const q = `SELECT 1 FROM pg_database WHERE datname = $1`
	var dummy int
	err := sc.Store.Pool().QueryRow(sc.Ctx, q, dbName).Scan(&dummy)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

func (s *ProvisionDatabase) Execute(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}

	exists, err := s.databaseExists(sc, inf.DBName)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDBProvisionFailed, err.Error()))
	}
	if exists {
		return orchestrator.OK()
	}

	// Identifiers can't be parameterized; dbName is generated by
	// GenerateSecrets from a fixed template, never from user input.
	createSQL := fmt.Sprintf(`CREATE DATABASE %q`, inf.DBName)
	if _, err := sc.Store.Pool().Exec(sc.Ctx, createSQL); err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDBProvisionFailed, fmt.Sprintf("creating database %s: %v", inf.DBName, err)))
	}
	return orchestrator.OK()
}

func (s *ProvisionDatabase) Verify(sc orchestrator.StepContext) orchestrator.Result {
	inf, err := store.GetInfrastructure(sc.Ctx, sc.Store.Pool(), sc.InstanceID)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeInfrastructureNotFound, err.Error()))
	}
	exists, err := s.databaseExists(sc, inf.DBName)
	if err != nil {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDBNotFound, err.Error()))
	}
	if !exists {
		return orchestrator.Failed(orchestrator.NewError(orchestrator.CodeDBNotFound, fmt.Sprintf("database %s not found", inf.DBName)))
	}
	return orchestrator.OK()
}
