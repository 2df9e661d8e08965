package observable

import "sync/atomic"

// MetricsSnapshot is a point-in-time copy of registry counters.
type MetricsSnapshot struct {
	// Subscriptions is the number of live (non-tombstoned) subscriptions.
	Subscriptions int64
	// Passes counts completed Notify calls.
	Passes int64
	// Deliveries counts OnChange invocations across all passes.
	Deliveries int64
	// Compacted counts tombstoned entries physically removed.
	Compacted int64
}

type Metrics struct {
	subscriptions atomic.Int64
	passes        atomic.Int64
	deliveries    atomic.Int64
	compacted     atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordSubscription(delta int) {
	m.subscriptions.Add(int64(delta))
}

func (m *Metrics) RecordPass(delivered int) {
	m.passes.Add(1)
	m.deliveries.Add(int64(delivered))
}

func (m *Metrics) RecordCompacted(delta int) {
	m.compacted.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Subscriptions: m.subscriptions.Load(),
		Passes:        m.passes.Load(),
		Deliveries:    m.deliveries.Load(),
		Compacted:     m.compacted.Load(),
	}
}
