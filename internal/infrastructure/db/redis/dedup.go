package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

const dedupTTL = 24 * time.Hour

// AlertDeduper suppresses duplicate one-shot alerts across engine instances.
// The per-stop alert-sent set in TripState is authoritative on a single
// node; this guard covers horizontally scaled deployments sharing a store.
// Key format: alert:<trip_id>:<kind>:<stop_sequence>
type AlertDeduper struct {
	client *redis.Client
}

// NewAlertDeduper creates an AlertDeduper wrapping the given Redis client.
func NewAlertDeduper(client *redis.Client) *AlertDeduper {
	return &AlertDeduper{client: client}
}

// IsDuplicate reports whether this alert has already been dispatched.
func (d *AlertDeduper) IsDuplicate(ctx context.Context, alert domain.AlertTrigger) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(alert)).Result()
	if err != nil {
		return false, fmt.Errorf("alert dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this alert has been dispatched (expires after dedupTTL).
func (d *AlertDeduper) Mark(ctx context.Context, alert domain.AlertTrigger) error {
	return d.client.Set(ctx, d.key(alert), "1", dedupTTL).Err()
}

func (d *AlertDeduper) key(alert domain.AlertTrigger) string {
	return fmt.Sprintf("alert:%s:%s:%d", alert.TripID, alert.Kind, alert.StopSequence)
}
