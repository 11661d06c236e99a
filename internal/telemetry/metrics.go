package telemetry

import (
	"sync/atomic"
)

// MetricsCollector tracks connection counts across both the status hijack
// handler and the transparent proxy, and the byte totals forwarded by the
// transparent proxy.
type MetricsCollector struct {
	activeConnections atomic.Int64
	totalConnections  atomic.Int64
	bytesIngress      atomic.Int64
	bytesEgress       atomic.Int64
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

func (m *MetricsCollector) IncActive() {
	m.activeConnections.Add(1)
	m.totalConnections.Add(1)
}

func (m *MetricsCollector) DecActive() {
	m.activeConnections.Add(-1)
}

func (m *MetricsCollector) AddIngress(n int64) {
	m.bytesIngress.Add(n)
}

func (m *MetricsCollector) AddEgress(n int64) {
	m.bytesEgress.Add(n)
}

type MetricsSnapshot struct {
	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections_handled"`
	BytesIngress      int64 `json:"bytes_ingress"`
	BytesEgress       int64 `json:"bytes_egress"`
}

func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ActiveConnections: m.activeConnections.Load(),
		TotalConnections:  m.totalConnections.Load(),
		BytesIngress:      m.bytesIngress.Load(),
		BytesEgress:       m.bytesEgress.Load(),
	}
}
