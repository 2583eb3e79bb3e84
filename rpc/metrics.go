package rpc

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is an optional Prometheus instrumentation hook for a Client.
// Nil-safe: a nil *Metrics receiver records nothing, so wiring it in costs
// callers nothing when they don't register a registry. A non-nil Metrics
// comes from NewMetrics; a zero Metrics value has no collectors to record to.
type Metrics struct {
	calls         *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	reconnects    prometheus.Counter
	subscriptions prometheus.Gauge
}

// NewMetrics registers the rpc package's collectors on reg and returns a
// Metrics ready to pass to Instrument. reg must not be nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethkit",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "JSON-RPC calls by method and outcome.",
		}, []string{"method", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ethkit",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "JSON-RPC call latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ethkit",
			Subsystem: "rpc",
			Name:      "session_resumptions_total",
			Help:      "WebSocket session resumptions performed.",
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ethkit",
			Subsystem: "rpc",
			Name:      "subscriptions_active",
			Help:      "Currently active eth_subscribe subscriptions.",
		}),
	}
	reg.MustRegister(m.calls, m.callDuration, m.reconnects, m.subscriptions)
	return m
}

func (m *Metrics) observeCall(method string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(method, outcome).Inc()
	m.callDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeResumption() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) setSubscriptions(n int) {
	if m == nil {
		return
	}
	m.subscriptions.Set(float64(n))
}

// InstrumentedClient wraps a Client, recording call metrics around each
// invocation. Close is passed through unmodified.
type InstrumentedClient struct {
	Client
	metrics *Metrics
}

// Instrument wraps c so every Call is timed and counted against m.
func Instrument(c Client, m *Metrics) *InstrumentedClient {
	return &InstrumentedClient{Client: c, metrics: m}
}

func (c *InstrumentedClient) Call(ctx context.Context, method string, params []any) (jsoniter.RawMessage, error) {
	start := time.Now()
	raw, err := c.Client.Call(ctx, method, params)
	c.metrics.observeCall(method, start, err)
	return raw, err
}
