package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	deliveryKeyPrefix = "notify:delivered:"

	claimInFlight = "in-flight"
	claimDone     = "delivered"
)

// DeliveryLedger remembers which notification ids were already delivered so
// that redelivered queue messages are not sent twice. A claim is held only
// for hold until Confirm marks it delivered for ttl, so an attempt that dies
// mid-delivery frees the id for a retry.
type DeliveryLedger struct {
	client redis.Cmdable
	ttl    time.Duration
	hold   time.Duration
}

// NewDeliveryLedger builds a ledger whose delivered marks expire after ttl
// and whose in-flight claims expire after hold.
func NewDeliveryLedger(client redis.Cmdable, ttl, hold time.Duration) *DeliveryLedger {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	if hold <= 0 {
		hold = 5 * time.Minute
	}
	return &DeliveryLedger{client: client, ttl: ttl, hold: hold}
}

// Claim takes an in-flight hold on id. It returns false when id was already
// delivered and an error when another attempt still holds it.
func (l *DeliveryLedger) Claim(ctx context.Context, id string) (bool, error) {
	key := deliveryKeyPrefix + id
	ok, err := l.client.SetNX(ctx, key, claimInFlight, l.hold).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", id, err)
	}
	if ok {
		return true, nil
	}

	state, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("claim %s expired while checking", id)
	}
	if err != nil {
		return false, fmt.Errorf("redis claim state %s: %w", id, err)
	}
	if state == claimInFlight {
		return false, fmt.Errorf("notification %s is already being delivered", id)
	}
	return false, nil
}

// Confirm marks id delivered for the ledger ttl.
func (l *DeliveryLedger) Confirm(ctx context.Context, id string) error {
	if err := l.client.Set(ctx, deliveryKeyPrefix+id, claimDone, l.ttl).Err(); err != nil {
		return fmt.Errorf("redis confirm %s: %w", id, err)
	}
	return nil
}

// Release forgets id so a failed delivery can be retried.
func (l *DeliveryLedger) Release(ctx context.Context, id string) error {
	if err := l.client.Del(ctx, deliveryKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", id, err)
	}
	return nil
}
