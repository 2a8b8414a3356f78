// Package metrics defines and registers the custom Prometheus metrics of the
// clinic portal. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry on package init via promauto;
// the echoprometheus handler mounted at /metrics exposes them.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/medicore/clinic-portal/internal/core/domain"
)

const namespace = "clinic_portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts committed session changes.
// Label:
//   - event: login, register, logout, verified, rejected, expired, profile_updated
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of committed session changes, by event.",
	},
	[]string{"event"},
)

// ActiveSessions tracks the number of visitor stores held in memory.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of visitor session stores currently held in memory.",
	},
)

// GuardDecisionsTotal counts route guard outcomes.
// Label:
//   - outcome: resolving, unauthenticated, denied, granted
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"outcome"},
)

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestDuration measures clinic backend round trips.
// Labels:
//   - method: HTTP method
//   - status: response status code, or "error" when no response arrived
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of clinic backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)

// UpstreamUnauthorizedTotal counts 401 answers from the backend.
var UpstreamUnauthorizedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_unauthorized_total",
		Help:      "Total number of 401 responses received from the clinic backend.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of session events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// AuditErrorsTotal counts session events the audit trail failed to store.
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of session events that failed to persist, by event.",
	},
	[]string{"event"},
)

// ── Hooks ─────────────────────────────────────────────────────────────────────

// ObserveSessionEvent is a session store subscriber.
func ObserveSessionEvent(ev domain.SessionEvent) {
	SessionTransitionsTotal.WithLabelValues(string(ev.Type)).Inc()
}

// ObserveUpstream matches clinicapi.Observer.
func ObserveUpstream(method, _ string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestDuration.WithLabelValues(method, label).Observe(elapsed.Seconds())
	if status == 401 {
		UpstreamUnauthorizedTotal.Inc()
	}
}

// ObserveAuditDepth matches queue.Dispatcher.OnDepth.
func ObserveAuditDepth(workerID, depth int) {
	AuditQueueDepth.WithLabelValues(strconv.Itoa(workerID)).Set(float64(depth))
}

// ObserveAuditError matches queue.Dispatcher.OnError.
func ObserveAuditError(ev domain.SessionEvent, _ error) {
	AuditErrorsTotal.WithLabelValues(string(ev.Type)).Inc()
}
