// Package observability provides the Prometheus counters, gauges, and health snapshot that make up
// C9. Every component takes a *Metrics by constructor injection (the teacher's own DI pattern,
// see NewRunner(RunnerOptions) in the original tree). New registers its collectors on the default
// Prometheus registry through promauto, so it is called once per process; components accept a nil
// *Metrics, which is what the tests pass.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter and gauge named in SPEC_FULL.md §4.8.
type Metrics struct {
	EventsDecoded      prometheus.Counter
	EventsPersisted    prometheus.Counter
	DecodeErrors       *prometheus.CounterVec // labels: reason
	WriteRetries       prometheus.Counter
	Reconnects         *prometheus.CounterVec // labels: program
	GapScansCompleted  prometheus.Counter
	ReferralConflicts  prometheus.Counter

	BufferDepth        prometheus.Gauge
	CheckpointLagSlots *prometheus.GaugeVec // labels: program
	TimeSinceLastEvent prometheus.Gauge

	RPCCallLatency   *prometheus.HistogramVec // labels: method
	WSMessageLatency prometheus.Histogram
}

// New constructs and registers the listener's metrics under namespace (defaults to
// "solana_event_listener" when empty).
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_event_listener"
	}

	return &Metrics{
		EventsDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "events_decoded_total",
			Help: "Total number of events successfully Borsh-decoded.",
		}),
		EventsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "events_persisted_total",
			Help: "Total number of event rows accepted by the batch writer (may exceed distinct rows under retry).",
		}),
		DecodeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "decode_errors_total",
			Help: "Total number of events dropped for malformed payloads, by reason.",
		}, []string{"reason"}),
		WriteRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "write_retries_total",
			Help: "Total number of batch-writer flush retries.",
		}),
		Reconnects: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "reconnects_total",
			Help: "Total number of subscription reconnects, by program.",
		}, []string{"program"}),
		GapScansCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "gap_scans_completed_total",
			Help: "Total number of completed backfill scans.",
		}),
		ReferralConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "listener", Name: "referral_conflicts_total",
			Help: "Total number of NftClaim events that tried to rebind an already-bound referral edge.",
		}),
		BufferDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "listener", Name: "buffer_depth",
			Help: "Current number of events queued in the batch writer.",
		}),
		CheckpointLagSlots: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "listener", Name: "checkpoint_lag_slots",
			Help: "Slots between the chain head and the last-advanced checkpoint, by program.",
		}, []string{"program"}),
		TimeSinceLastEvent: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "listener", Name: "time_since_last_event_seconds",
			Help: "Seconds since the last event was decoded from any subscription.",
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "solana", Name: "rpc_call_latency_seconds",
			Help: "Solana RPC call latency in seconds.", Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "solana", Name: "ws_message_latency_seconds",
			Help: "WebSocket message processing latency in seconds.", Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ProgramHealth is one program's contribution to the health snapshot.
type ProgramHealth struct {
	Program  string `json:"program"`
	State    string `json:"state"` // Connecting, Subscribed, Reconnecting, GapScanning, Stopped
	LastSlot int64  `json:"last_slot"`
	Lag      int64  `json:"lag"`
}

// Snapshot is the synchronous health object described in SPEC_FULL.md §6.
type Snapshot struct {
	Healthy      bool
	PerProgram   []ProgramHealth
	BufferDepth  int
	LastFlushAt  time.Time
	LastError    string
}

// Health aggregates the inputs needed to compute a Snapshot: last flush outcome, per-program FSM
// state, and the configured lag threshold. Safe for concurrent use.
type Health struct {
	mu            sync.Mutex
	lastFlushOK   bool
	lastFlushAt   time.Time
	lastError     string
	healthyLag    int64
	programStates map[string]ProgramHealth
}

// NewHealth constructs a Health aggregator. healthyLagSlots is HEALTHY_LAG_SLOTS (default 300).
func NewHealth(healthyLagSlots int64) *Health {
	return &Health{
		healthyLag:    healthyLagSlots,
		programStates: make(map[string]ProgramHealth),
	}
}

// RecordFlush records the outcome of the most recent writer flush.
func (h *Health) RecordFlush(ok bool, at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastFlushOK = ok
	h.lastFlushAt = at
	if err != nil {
		h.lastError = err.Error()
	}
}

// SetProgramState records a program's current subscription FSM state and checkpoint lag.
func (h *Health) SetProgramState(program, state string, lastSlot, lag int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.programStates[program] = ProgramHealth{Program: program, State: state, LastSlot: lastSlot, Lag: lag}
}

// Snapshot computes the current health object. Per SPEC_FULL.md §7, a non-zero decode_errors count
// never flips healthy to false; only a failed last flush, a program stuck outside
// {Subscribed, GapScanning}, or a checkpoint lag beyond the threshold does.
func (h *Health) Snapshot(bufferDepth int) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	healthy := h.lastFlushOK || h.lastFlushAt.IsZero()
	perProgram := make([]ProgramHealth, 0, len(h.programStates))
	for _, ps := range h.programStates {
		perProgram = append(perProgram, ps)
		if ps.State != "Subscribed" && ps.State != "GapScanning" {
			healthy = false
		}
		if ps.Lag > h.healthyLag {
			healthy = false
		}
	}

	return Snapshot{
		Healthy:     healthy,
		PerProgram:  perProgram,
		BufferDepth: bufferDepth,
		LastFlushAt: h.lastFlushAt,
		LastError:   h.lastError,
	}
}
