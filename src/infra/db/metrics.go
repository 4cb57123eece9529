package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dbaccess/src/core/domain"
)

const (
	opQuery       = "query"
	opTransaction = "transaction"
)

// Metrics records query and transaction outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	operations *prometheus.CounterVec
	retries    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "operations_total",
			Help:      "Queries and transactions by outcome.",
		}, []string{"operation", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "retries_total",
			Help:      "Attempts retried after a transient failure.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "operation_duration_seconds",
			Help:      "Wall-clock duration of queries and transactions, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.operations, m.retries, m.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) retried(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

// StatsSource is anything that reports pool statistics.
type StatsSource interface {
	Stats() domain.PoolStatistics
	DirectStats() (domain.PoolStatistics, bool)
}

// PoolCollector exports pool occupancy as gauges, read at scrape time.
type PoolCollector struct {
	source      StatsSource
	connections *prometheus.Desc
}

// NewPoolCollector creates a collector for source's pools.
func NewPoolCollector(namespace string, source StatsSource) *PoolCollector {
	return &PoolCollector{
		source: source,
		connections: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "pool_connections"),
			"Connections per pool by state; waiting counts callers blocked in checkout.",
			[]string{"pool", "state"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	c.emit(ch, primaryPool, c.source.Stats())
	if s, ok := c.source.DirectStats(); ok {
		c.emit(ch, directPool, s)
	}
}

func (c *PoolCollector) emit(ch chan<- prometheus.Metric, pool string, s domain.PoolStatistics) {
	for state, v := range map[string]float64{
		"total":   float64(s.TotalConnections),
		"idle":    float64(s.IdleConnections),
		"active":  float64(s.ActiveConnections),
		"waiting": float64(s.WaitingRequests),
		"max":     float64(s.MaxConnections),
	} {
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, v, pool, state)
	}
}
