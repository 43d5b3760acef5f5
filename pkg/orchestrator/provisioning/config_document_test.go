package provisioning

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

func TestRenderConfigDocument(t *testing.T) {
	workerID := int64(42)
	inst := &store.ManagedInstance{
		ID:          7,
		Domain:      "acme.xcordhub.app",
		DisplayName: "Acme Corp",
		WorkerID:    &workerID,
	}
	inf := &store.InstanceInfrastructure{
		DBName:           "xcordhub_instance_7",
		DBPassword:       "db-secret",
		RedisDB:          3,
		StorageAccessKey: "access-key",
		StorageSecretKey: "secret-key",
		MediaAPIKey:      "media-key",
		MediaSecretKey:   "media-secret",
		InstanceKEK:      "deadbeef",
	}
	billing := &store.InstanceBilling{
		FeatureTier:   store.FeatureTierAudio,
		UserCountTier: 50,
		HDUpgrade:     true,
	}
	sc := orchestrator.StepContext{
		Ctx: context.Background(),
		Config: orchestrator.Config{
			BaseDomainSuffix: "xcordhub.app",
			BucketPrefix:     "xcord",
			Tiers: map[string]orchestrator.TierLimits{
				string(store.FeatureTierAudio): {MaxInstances: 10, MaxMemoryMB: 1024, MaxCPUPercent: 100},
			},
			SMTPHost:                  "smtp.xcordhub.app",
			SMTPPort:                  587,
			SMTPFromAddress:           "no-reply@xcordhub.app",
			RateLimitWindowSeconds:    60,
			RateLimitMaxRequests:      600,
			OutboxPollIntervalSeconds: 5,
			OutboxBatchSize:           100,
		},
	}

	raw, limits, err := renderConfigDocument(sc, inst, inf, billing, "bootstrap-token-raw")
	if err != nil {
		t.Fatalf("renderConfigDocument() error = %v", err)
	}
	if limits.MaxMemoryMB != 1024 || limits.MaxCPUPercent != 100 {
		t.Errorf("limits = %+v, want MaxMemoryMB=1024 MaxCPUPercent=100", limits)
	}

	var doc configDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshalling rendered document: %v", err)
	}

	if doc.Instance.Domain != "acme.xcordhub.app" {
		t.Errorf("Instance.Domain = %q, want acme.xcordhub.app", doc.Instance.Domain)
	}
	if doc.Instance.Name != "Acme Corp" {
		t.Errorf("Instance.Name = %q, want Acme Corp", doc.Instance.Name)
	}
	if doc.Snowflake.WorkerID != 42 {
		t.Errorf("Snowflake.WorkerID = %d, want 42", doc.Snowflake.WorkerID)
	}
	if doc.Storage.Bucket != "xcord-acme.xcordhub.app" {
		t.Errorf("Storage.Bucket = %q, want xcord-acme.xcordhub.app", doc.Storage.Bucket)
	}
	if doc.Bootstrap.Token != "bootstrap-token-raw" {
		t.Errorf("Bootstrap.Token = %q, want bootstrap-token-raw", doc.Bootstrap.Token)
	}
	if doc.Encryption.KEK != "deadbeef" {
		t.Errorf("Encryption.KEK = %q, want deadbeef", doc.Encryption.KEK)
	}
	if doc.Tier.MaxMemoryMB != 1024 {
		t.Errorf("Tier.MaxMemoryMB = %d, want 1024", doc.Tier.MaxMemoryMB)
	}
	if doc.Email.SMTPHost != "smtp.xcordhub.app" || doc.Email.SMTPPort != 587 {
		t.Errorf("Email = %+v, want smtp.xcordhub.app:587", doc.Email)
	}
	if doc.RateLimiting.WindowSeconds != 60 || doc.RateLimiting.MaxRequests != 600 {
		t.Errorf("RateLimiting = %+v, want 60/600", doc.RateLimiting)
	}
	if doc.Outbox.PollIntervalSeconds != 5 || doc.Outbox.BatchSize != 100 {
		t.Errorf("Outbox = %+v, want 5/100", doc.Outbox)
	}
}

func TestRenderConfigDocumentFallsBackForUnknownTier(t *testing.T) {
	inst := &store.ManagedInstance{ID: 1, Domain: "new.xcordhub.app", DisplayName: "New"}
	inf := &store.InstanceInfrastructure{}
	billing := &store.InstanceBilling{FeatureTier: store.FeatureTierChat}
	sc := orchestrator.StepContext{
		Ctx:    context.Background(),
		Config: orchestrator.Config{Tiers: map[string]orchestrator.TierLimits{}},
	}

	_, limits, err := renderConfigDocument(sc, inst, inf, billing, "token")
	if err != nil {
		t.Fatalf("renderConfigDocument() error = %v", err)
	}
	if limits.MaxMemoryMB != 512 || limits.MaxCPUPercent != 50 {
		t.Errorf("fallback limits = %+v, want the documented 512/50 default", limits)
	}
}

func TestBucketName(t *testing.T) {
	cfg := orchestrator.Config{BucketPrefix: "xcord"}
	got := bucketName(cfg, "acme.xcordhub.app")
	want := "xcord-acme.xcordhub.app"
	if got != want {
		t.Errorf("bucketName() = %q, want %q", got, want)
	}
}
