package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/plugeval/internal/eval"
)

// Metrics tracks evaluation runs over the life of the application.
type Metrics struct {
	runCount   atomic.Uint64
	runTotalNs atomic.Int64
	runMinNs   atomic.Int64
	runMaxNs   atomic.Int64
	lastRunNs  atomic.Int64
	failedRuns atomic.Uint64

	mu     sync.Mutex
	states map[eval.State]uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		states:    make(map[eval.State]uint64),
		startTime: time.Now(),
	}
	// Initialize min to max int64 so the first run will be smaller
	m.runMinNs.Store(1<<63 - 1)
	return m
}

// RecordRun records one finished run.
func (m *Metrics) RecordRun(duration time.Duration, result *eval.Result) {
	ns := duration.Nanoseconds()

	m.runCount.Add(1)
	m.runTotalNs.Add(ns)
	m.lastRunNs.Store(ns)

	for {
		old := m.runMinNs.Load()
		if ns >= old || m.runMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.runMaxNs.Load()
		if ns <= old || m.runMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}

	if result == nil {
		return
	}
	if !result.OK() {
		m.failedRuns.Add(1)
	}

	m.mu.Lock()
	for _, o := range result.Plugins {
		m.states[o.State]++
	}
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		RunCount:   m.runCount.Load(),
		FailedRuns: m.failedRuns.Load(),
		LastRun:    time.Duration(m.lastRunNs.Load()),
		MaxRun:     time.Duration(m.runMaxNs.Load()),
		Uptime:     time.Since(m.startTime),
	}
	if s.RunCount > 0 {
		s.MinRun = time.Duration(m.runMinNs.Load())
		s.AvgRun = time.Duration(m.runTotalNs.Load() / int64(s.RunCount))
	}

	m.mu.Lock()
	s.States = make(map[eval.State]uint64, len(m.states))
	for st, n := range m.states {
		s.States[st] = n
	}
	m.mu.Unlock()
	return s
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	RunCount   uint64
	FailedRuns uint64
	LastRun    time.Duration
	MinRun     time.Duration
	MaxRun     time.Duration
	AvgRun     time.Duration
	Uptime     time.Duration

	// States counts terminal plugin states over all runs.
	States map[eval.State]uint64
}

// FailureRate returns the fraction of runs that were not clean.
func (s MetricsSnapshot) FailureRate() float64 {
	if s.RunCount == 0 {
		return 0
	}
	return float64(s.FailedRuns) / float64(s.RunCount)
}
