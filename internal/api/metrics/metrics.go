// Package metrics defines all custom Prometheus metrics for the marketplace
// system. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry at package load;
// the HTTP layer exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// FavoriteTogglesTotal counts favorite toggle attempts.
// Labels:
//   - action: "add" or "remove"
//   - result: "ok" or "error"
var FavoriteTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorite_toggles_total",
		Help:      "Total number of favorite toggle attempts, by action and result.",
	},
	[]string{"action", "result"},
)

// RoleResolutionsTotal counts role resolution queries.
// Label:
//   - result: "ok" (rows found), "default" (zero rows, implicit user role),
//     or "error" (query failed, caller fails open)
var RoleResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_resolutions_total",
		Help:      "Total number of role resolution queries, by result.",
	},
	[]string{"result"},
)

// NotificationFetchesTotal counts full notification read-model reloads,
// both user-initiated and realtime-triggered.
var NotificationFetchesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_fetches_total",
		Help:      "Total number of full notification list fetches.",
	},
)

// ChangeEventsPublishedTotal counts change events emitted to the realtime
// feed after confirmed writes.
// Labels:
//   - table: the watched table name
//   - type: "insert", "update", or "delete"
var ChangeEventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "change_events_published_total",
		Help:      "Total number of change events published to the realtime feed.",
	},
	[]string{"table", "type"},
)

// ChangeEventsDeliveredTotal counts change events that passed a
// subscription's filters and reached a handler.
// Label:
//   - table: the watched table name
var ChangeEventsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "change_events_delivered_total",
		Help:      "Total number of change events delivered to subscribers.",
	},
	[]string{"table"},
)

// MediaUploadsTotal counts media uploads by bucket and result.
var MediaUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Total number of media uploads, by bucket and result.",
	},
	[]string{"bucket", "result"},
)
