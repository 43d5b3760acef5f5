// Package store is the persistence layer (spec.md §3/§4's "Persistence
// Store"): a relational mapping of the orchestrator's entity set over
// pgx, with a small unit-of-work wrapper so steps can commit atomically
// at their boundaries.
package store

import (
	"encoding/json"
	"time"
)

// InstanceStatus is the ManagedInstance lifecycle state.
type InstanceStatus string

const (
	StatusPending      InstanceStatus = "pending"
	StatusProvisioning InstanceStatus = "provisioning"
	StatusRunning      InstanceStatus = "running"
	StatusSuspended    InstanceStatus = "suspended"
	StatusDestroying   InstanceStatus = "destroying"
	StatusDestroyed    InstanceStatus = "destroyed"
	StatusFailed       InstanceStatus = "failed"
)

// ManagedInstance is a tenant-scoped hosted communication-platform instance.
type ManagedInstance struct {
	ID          int64
	OwnerID     int64
	Domain      string
	DisplayName string
	Status      InstanceStatus
	WorkerID    *int64
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// InstanceInfrastructure holds the 1:1 infrastructure record for an instance.
type InstanceInfrastructure struct {
	ID                int64
	InstanceID        int64
	ContainerID       *string
	NetworkID         *string
	SecretID          *string
	ProxyRouteID      *string
	DBName            string
	DBPassword        string
	RedisDB           int
	StorageAccessKey  string
	StorageSecretKey  string
	MediaAPIKey       string
	MediaSecretKey    string
	BootstrapTokenHash    *string
	BootstrapTokenWrapped *string // KEK-wrapped raw token, so a later step can deliver it
	InstanceKEK           string // wrapped DEK, hex-encoded
}

// FeatureTier is the chat/audio/video product tier.
type FeatureTier string

const (
	FeatureTierChat  FeatureTier = "chat"
	FeatureTierAudio FeatureTier = "audio"
	FeatureTierVideo FeatureTier = "video"
)

// BillingStatus is the subscription state driving InstanceBilling.
type BillingStatus string

const (
	BillingActive    BillingStatus = "active"
	BillingPastDue   BillingStatus = "past_due"
	BillingCancelled BillingStatus = "cancelled"
)

// InstanceBilling holds the 1:1 billing/tier record for an instance.
type InstanceBilling struct {
	ID             int64
	InstanceID     int64
	FeatureTier    FeatureTier
	UserCountTier  int // 10, 50, 100, 500
	HDUpgrade      bool
	Status         BillingStatus
	PeriodEnd      *time.Time
	SubscriptionRef *string
	PriceRef       *string
}

// UnlimitedUserCountTier is the sentinel for an uncapped instance count on a tier.
const UnlimitedUserCountTier = -1

// InstanceConfig holds the 1:1 rendered config document for an instance.
type InstanceConfig struct {
	ID                int64
	InstanceID        int64
	ConfigJSON        json.RawMessage
	ResourceLimitsJSON json.RawMessage
	FeatureFlagsJSON  json.RawMessage
	Version           int
	UpdatedAt         time.Time
}

// WorkerIDRegistry is a backref tracking snowflake worker-ID allocation.
type WorkerIDRegistry struct {
	WorkerID     int64
	InstanceID   int64
	IsTombstoned bool
	AllocatedAt  time.Time
	ReleasedAt   *time.Time
}

// EventPhase is which half of a step's contract an event records.
type EventPhase string

const (
	PhaseExecute EventPhase = "execute"
	PhaseVerify  EventPhase = "verify"
)

// EventStatus is the lifecycle of a single ProvisioningEvent row.
type EventStatus string

const (
	EventInProgress EventStatus = "in_progress"
	EventCompleted  EventStatus = "completed"
	EventFailed     EventStatus = "failed"
)

// ProvisioningEvent is one append-only row in the step-event audit log —
// the resume oracle described in spec.md §1/§4.2.
type ProvisioningEvent struct {
	ID           int64
	InstanceID   int64
	StepName     string
	Phase        EventPhase
	Status       EventStatus
	ErrorMessage *string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// FederationToken is the long-lived token an instance receives the first
// time it exchanges its one-time bootstrap token with the hub.
type FederationToken struct {
	ID         string // uuid
	InstanceID int64
	TokenHash  string
	CreatedAt  time.Time
	RevokedAt  *time.Time
}
