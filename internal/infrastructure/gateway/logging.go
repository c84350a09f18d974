// Package gateway holds AlertGateway implementations. The engine only
// produces AlertTrigger events; rendering SMS or push payloads belongs to
// whichever gateway is wired in.
package gateway

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

// LoggingGateway writes every alert trigger to the structured log. It is
// the default sink when no SMS/push integration is configured and doubles
// as a development aid.
type LoggingGateway struct {
	log zerolog.Logger
}

func NewLoggingGateway(log zerolog.Logger) *LoggingGateway {
	return &LoggingGateway{log: log}
}

func (g *LoggingGateway) Notify(_ context.Context, alert domain.AlertTrigger) error {
	g.log.Info().
		Str("trip_id", alert.TripID).
		Str("kind", string(alert.Kind)).
		Str("recipient", alert.Recipient).
		Str("message", alert.Message).
		Int("eta_minutes", alert.EtaMinutes).
		Int("delay_minutes", alert.DelayMinutes).
		Msg("alert trigger")
	return nil
}
