// Package metrics defines and registers all custom Prometheus metrics for the
// ledger API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bank"

// Result label values shared by the counters below.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// LedgerOperationsTotal counts ledger operations by outcome.
// Labels:
//   - operation: "deposit", "withdraw" or "transfer"
//   - result: "success" or the domain error code (e.g. "insufficient_balance")
var LedgerOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Total number of ledger operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// WriteQueueDepth tracks read-modify-write cycles waiting for the serializer.
var WriteQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "write_queue_depth",
		Help:      "Current number of store write cycles waiting in the serializer queue.",
	},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success" or the domain error code
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Storage metrics ───────────────────────────────────────────────────────────

// StoreMalformedLinesTotal counts lines skipped while loading flat-file stores.
// Label:
//   - store: "users" or "transactions"
var StoreMalformedLinesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_malformed_lines_total",
		Help:      "Total number of malformed lines skipped while loading a store file.",
	},
	[]string{"store"},
)

// EventsPublishedTotal counts transaction events handed to the event bus.
// Label:
//   - result: "success" or "failure"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of transaction events published, by result.",
	},
	[]string{"result"},
)
