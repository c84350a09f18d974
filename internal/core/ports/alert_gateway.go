package ports

import (
	"context"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

// AlertGateway consumes alert triggers and performs actual delivery
// (SMS/push). The engine dispatches fire-and-forget: it never blocks on or
// retries failed delivery, that responsibility stays with the gateway.
type AlertGateway interface {
	Notify(ctx context.Context, alert domain.AlertTrigger) error
}
