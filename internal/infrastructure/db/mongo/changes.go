package mongo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/api/metrics"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// publishChange emits one row-level change event after a confirmed write.
// Publishing is best-effort: a feed outage must never fail the mutation
// that already committed, so failures are logged and dropped.
func publishChange(ctx context.Context, pub ports.ChangePublisher, log zerolog.Logger, table string, typ ports.EventType, principalID string, row any) {
	if pub == nil {
		return
	}

	var payload json.RawMessage
	if row != nil {
		b, err := json.Marshal(row)
		if err != nil {
			log.Warn().Err(err).Str("table", table).Msg("change event payload marshal failed")
		} else {
			payload = b
		}
	}

	ev := ports.ChangeEvent{
		ID:          uuid.NewString(),
		Table:       table,
		Type:        typ,
		PrincipalID: principalID,
		Row:         payload,
		OccurredAt:  time.Now().UTC(),
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("table", table).Str("type", string(typ)).Msg("change event publish failed")
		return
	}
	metrics.ChangeEventsPublishedTotal.WithLabelValues(table, string(typ)).Inc()
}
