// Package dedupe drops webhook re-deliveries before they reach the inbound
// syncer. The idempotent upsert already absorbs duplicates; this just saves
// the work for near-simultaneous retries from the sender.
package dedupe

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const deliveryKeyPrefix = "webhook-delivery:"

type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

// FirstDelivery records the delivery id and reports whether it was unseen.
// Without redis, or on redis failure, every delivery counts as new: letting
// a duplicate through is safe, dropping a first delivery is not.
func (d *Deduper) FirstDelivery(ctx context.Context, deliveryId string) bool {
	if d == nil || d.client == nil || deliveryId == "" {
		return true
	}
	added, err := d.client.SetNX(ctx, deliveryKeyPrefix+deliveryId, 1, d.ttl).Result()
	if err != nil {
		log.Warnf("delivery dedupe check: %v", err)
		return true
	}
	return added
}
