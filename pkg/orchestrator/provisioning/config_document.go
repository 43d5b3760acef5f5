package provisioning

import (
	"encoding/json"
	"fmt"

	"github.com/xcord-net/xcord-hub/internal/store"
	"github.com/xcord-net/xcord-hub/pkg/orchestrator"
)

// configDocument is the JSON artifact StartApiContainer delivers via an
// engine secret (spec.md §6). Field names mirror the recognized top-level
// keys the instance container reads at boot.
type configDocument struct {
	Database struct {
		ConnectionString string `json:"connectionString"`
	} `json:"database"`
	Redis struct {
		ConnectionString string `json:"connectionString"`
		ChannelPrefix    string `json:"channelPrefix"`
	} `json:"redis"`
	JWT struct {
		Issuer   string `json:"issuer"`
		Audience string `json:"audience"`
	} `json:"jwt"`
	Storage struct {
		Endpoint  string `json:"endpoint"`
		AccessKey string `json:"accessKey"`
		SecretKey string `json:"secretKey"`
		Bucket    string `json:"bucket"`
		UseSSL    bool   `json:"useSsl"`
	} `json:"storage"`
	LiveKit struct {
		Host      string `json:"host"`
		APIKey    string `json:"apiKey"`
		APISecret string `json:"apiSecret"`
	} `json:"livekit"`
	CORS struct {
		AllowedOrigins []string `json:"allowedOrigins"`
	} `json:"cors"`
	Instance struct {
		Domain string `json:"domain"`
		Name   string `json:"name"`
	} `json:"instance"`
	Snowflake struct {
		WorkerID int64 `json:"workerId"`
	} `json:"snowflake"`
	Auth struct {
		BcryptWorkFactor int `json:"bcryptWorkFactor"`
	} `json:"auth"`
	Encryption struct {
		KEK string `json:"kek"`
	} `json:"encryption"`
	Tier struct {
		FeatureTier   string `json:"featureTier"`
		UserCountTier int    `json:"userCountTier"`
		HDUpgrade     bool   `json:"hdUpgrade"`
		MaxMemoryMB   int    `json:"maxMemoryMb"`
		MaxCPUPercent int    `json:"maxCpuPercent"`
	} `json:"tier"`
	Bootstrap struct {
		Token string `json:"token"`
	} `json:"bootstrap"`
	Email struct {
		SMTPHost     string `json:"smtpHost"`
		SMTPPort     int    `json:"smtpPort"`
		SMTPUsername string `json:"smtpUsername"`
		SMTPPassword string `json:"smtpPassword"`
		FromAddress  string `json:"fromAddress"`
	} `json:"email"`
	RateLimiting struct {
		WindowSeconds int `json:"windowSeconds"`
		MaxRequests   int `json:"maxRequests"`
	} `json:"rateLimiting"`
	Outbox struct {
		PollIntervalSeconds int `json:"pollIntervalSeconds"`
		BatchSize           int `json:"batchSize"`
	} `json:"outbox"`
}

// defaultBcryptWorkFactor matches the cost the hub itself uses for
// password hashing; instances inherit it unless a future tier overrides it.
const defaultBcryptWorkFactor = 12

// renderConfigDocument assembles the full config document for an instance
// from its infrastructure, billing, and process-wide configuration.
func renderConfigDocument(sc orchestrator.StepContext, inst *store.ManagedInstance, inf *store.InstanceInfrastructure, billing *store.InstanceBilling, bootstrapToken string) ([]byte, orchestrator.TierLimits, error) {
	limits, ok := sc.Config.Tiers[string(billing.FeatureTier)]
	if !ok {
		limits = orchestrator.TierLimits{MaxMemoryMB: 512, MaxCPUPercent: 50}
	}

	var doc configDocument
	doc.Database.ConnectionString = fmt.Sprintf("postgres://xcordhub_instance:%s@127.0.0.1:5432/%s", inf.DBPassword, inf.DBName)
	doc.Redis.ConnectionString = "redis://127.0.0.1:6379/" + fmt.Sprint(inf.RedisDB)
	doc.Redis.ChannelPrefix = fmt.Sprintf("instance:%d", inst.ID)
	doc.JWT.Issuer = "https://" + inst.Domain
	doc.JWT.Audience = inst.Domain
	doc.Storage.Endpoint = sc.Config.BaseDomainSuffix
	doc.Storage.AccessKey = inf.StorageAccessKey
	doc.Storage.SecretKey = inf.StorageSecretKey
	doc.Storage.Bucket = bucketName(sc.Config, inst.Domain)
	doc.Storage.UseSSL = true
	doc.LiveKit.Host = "https://media." + sc.Config.BaseDomainSuffix
	doc.LiveKit.APIKey = inf.MediaAPIKey
	doc.LiveKit.APISecret = inf.MediaSecretKey
	doc.CORS.AllowedOrigins = []string{"https://" + inst.Domain}
	doc.Instance.Domain = inst.Domain
	doc.Instance.Name = inst.DisplayName
	doc.Snowflake.WorkerID = 0
	if inst.WorkerID != nil {
		doc.Snowflake.WorkerID = *inst.WorkerID
	}
	doc.Auth.BcryptWorkFactor = defaultBcryptWorkFactor
	doc.Encryption.KEK = inf.InstanceKEK
	doc.Tier.FeatureTier = string(billing.FeatureTier)
	doc.Tier.UserCountTier = billing.UserCountTier
	doc.Tier.HDUpgrade = billing.HDUpgrade
	doc.Tier.MaxMemoryMB = limits.MaxMemoryMB
	doc.Tier.MaxCPUPercent = limits.MaxCPUPercent
	doc.Bootstrap.Token = bootstrapToken
	doc.Email.SMTPHost = sc.Config.SMTPHost
	doc.Email.SMTPPort = sc.Config.SMTPPort
	doc.Email.SMTPUsername = sc.Config.SMTPUsername
	doc.Email.SMTPPassword = sc.Config.SMTPPassword
	doc.Email.FromAddress = sc.Config.SMTPFromAddress
	doc.RateLimiting.WindowSeconds = sc.Config.RateLimitWindowSeconds
	doc.RateLimiting.MaxRequests = sc.Config.RateLimitMaxRequests
	doc.Outbox.PollIntervalSeconds = sc.Config.OutboxPollIntervalSeconds
	doc.Outbox.BatchSize = sc.Config.OutboxBatchSize

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, limits, fmt.Errorf("rendering config document: %w", err)
	}
	return raw, limits, nil
}
