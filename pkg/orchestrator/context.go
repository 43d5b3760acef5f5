package orchestrator

import (
	"context"
	"log/slog"

	"github.com/xcord-net/xcord-hub/internal/kek"
	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator/drivers"
)

// StepContext is everything a Step needs to do its work: the underlying
// context for cancellation, the instance it operates on, a handle to
// storage, the resource drivers, and process-wide config a step needs to
// render its effects (e.g. base domain suffix, tier limits).
type StepContext struct {
	Ctx        context.Context
	InstanceID int64
	Store      *store.Store
	Drivers    *drivers.Set
	KEK        *kek.KEK
	Logger     *slog.Logger
	Config     Config
}

// Config is the subset of process configuration steps consult while
// rendering driver calls and the instance config document.
type Config struct {
	BaseDomainSuffix     string
	GatewayIP            string
	BucketPrefix         string
	InfraNetworkName     string
	ProxyServerName      string
	RootStorageAccessKey string
	RootStorageSecretKey string
	Tiers                map[string]TierLimits

	// SMTP relay rendered into every instance's config document as `email.*`.
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFromAddress string

	// Rendered into `rateLimiting.*`.
	RateLimitWindowSeconds int
	RateLimitMaxRequests   int

	// Rendered into `outbox.*`.
	OutboxPollIntervalSeconds int
	OutboxBatchSize           int
}

// TierLimits describes the resource ceiling and instance cap for a billing
// feature tier, keyed by store.FeatureTier.
type TierLimits struct {
	MaxInstances   int // -1 = unlimited
	MaxMemoryMB    int
	MaxCPUPercent  int
}
