package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateBilling inserts the billing/tier record for a new instance.
func CreateBilling(ctx context.Context, db Querier, instanceID int64, tier FeatureTier, userCountTier int, hdUpgrade bool) (int64, error) {
	const q = `
		INSERT INTO instance_billing (instance_id, feature_tier, user_count_tier, hd_upgrade, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err := db.QueryRow(ctx, q, instanceID, tier, userCountTier, hdUpgrade, BillingActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting billing for instance %d: %w", instanceID, err)
	}
	return id, nil
}

// GetBilling fetches the billing row for an instance.
func GetBilling(ctx context.Context, db Querier, instanceID int64) (*InstanceBilling, error) {
	const q = `
		SELECT id, instance_id, feature_tier, user_count_tier, hd_upgrade, status, period_end, subscription_ref, price_ref
		FROM instance_billing
		WHERE instance_id = $1`
	var b InstanceBilling
	err := db.QueryRow(ctx, q, instanceID).Scan(
		&b.ID, &b.InstanceID, &b.FeatureTier, &b.UserCountTier, &b.HDUpgrade, &b.Status, &b.PeriodEnd, &b.SubscriptionRef, &b.PriceRef,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching billing for instance %d: %w", instanceID, err)
	}
	return &b, nil
}

// SetBillingStatus transitions billing status, e.g. on payment failure or
// cancellation.
func SetBillingStatus(ctx context.Context, db Querier, instanceID int64, status BillingStatus) error {
	const q = `UPDATE instance_billing SET status = $2 WHERE instance_id = $1`
	return execExpectingRow(ctx, db, q, instanceID, status)
}
