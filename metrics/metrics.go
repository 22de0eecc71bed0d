package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the gateway's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	cartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodcart",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations applied, by operation.",
		},
		[]string{"op"},
	)

	remoteSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodcart",
			Subsystem: "cart",
			Name:      "remote_syncs_total",
			Help:      "Best-effort remote cart upserts, by result.",
		},
		[]string{"result"},
	)

	orderSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodcart",
			Subsystem: "orders",
			Name:      "submissions_total",
			Help:      "Per-restaurant order submissions, by result.",
		},
		[]string{"result"},
	)

	reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodcart",
			Subsystem: "cart",
			Name:      "reconciliations_total",
			Help:      "Cart reconciliations at session start, by winning source.",
		},
		[]string{"source"},
	)

	prunedItems = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "foodcart",
			Subsystem: "cart",
			Name:      "pruned_items_total",
			Help:      "Line items dropped during reconciliation because their restaurant or dish no longer resolves.",
		},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "foodcart",
			Subsystem: "cart",
			Name:      "active_sessions",
			Help:      "Cart stores currently held by the session registry.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodcart",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foodcart",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		cartMutations,
		remoteSyncs,
		orderSubmissions,
		reconciliations,
		prunedItems,
		activeSessions,
		httpRequests,
		httpDuration,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordMutation(op string) { cartMutations.WithLabelValues(op).Inc() }

func RecordRemoteSync(ok bool) { remoteSyncs.WithLabelValues(result(ok)).Inc() }

func RecordOrderSubmission(ok bool) { orderSubmissions.WithLabelValues(result(ok)).Inc() }

func RecordReconciliation(source string, pruned int) {
	reconciliations.WithLabelValues(source).Inc()
	if pruned > 0 {
		prunedItems.Add(float64(pruned))
	}
}

func SetActiveSessions(n int) { activeSessions.Set(float64(n)) }

// InstrumentHandler records request counts and latency.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
