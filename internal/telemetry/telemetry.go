// Package telemetry collects in-process metrics for the local agent.
//
// Nothing ever leaves the machine: counters and timings live in memory
// and are exposed only through the local status API. There is no
// external transmission path in this package, and any future remote
// reporting must be explicit opt-in.
package telemetry

import (
	"sync"
	"time"
)

// TimingSummary aggregates recorded durations for one named operation.
type TimingSummary struct {
	Count   int64         `json:"count"`
	Total   time.Duration `json:"total"`
	Max     time.Duration `json:"max"`
	Average time.Duration `json:"average"`
}

// Metrics is a point-in-time copy of everything collected so far.
type Metrics struct {
	Counters map[string]int64         `json:"counters"`
	Timings  map[string]TimingSummary `json:"timings"`
}

// Collector accumulates counters and timings. Safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	enabled  bool
	counters map[string]int64
	timings  map[string]TimingSummary
}

// NewCollector returns an enabled collector with no recorded data.
func NewCollector() *Collector {
	return &Collector{
		enabled:  true,
		counters: make(map[string]int64),
		timings:  make(map[string]TimingSummary),
	}
}

// Enable turns collection on.
func (c *Collector) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// Disable turns collection off. Already-recorded data is kept.
func (c *Collector) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

// IsEnabled reports whether the collector is recording.
func (c *Collector) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// RecordCount adds delta to the named counter.
func (c *Collector) RecordCount(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.counters[name] += delta
}

// RecordTiming folds a duration into the named timing summary.
func (c *Collector) RecordTiming(name string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	s := c.timings[name]
	s.Count++
	s.Total += d
	if d > s.Max {
		s.Max = d
	}
	s.Average = s.Total / time.Duration(s.Count)
	c.timings[name] = s
}

// Snapshot returns a copy of the collected metrics. Mutating the
// returned maps does not affect the collector.
func (c *Collector) Snapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := Metrics{
		Counters: make(map[string]int64, len(c.counters)),
		Timings:  make(map[string]TimingSummary, len(c.timings)),
	}
	for k, v := range c.counters {
		m.Counters[k] = v
	}
	for k, v := range c.timings {
		m.Timings[k] = v
	}
	return m
}

// Reset discards all recorded data.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters = make(map[string]int64)
	c.timings = make(map[string]TimingSummary)
}

var (
	defaultMu        sync.RWMutex
	defaultCollector = NewCollector()
)

// Default returns the process-wide collector.
func Default() *Collector {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultCollector
}

// SetDefault replaces the process-wide collector. Intended for tests.
func SetDefault(c *Collector) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCollector = c
}

// RecordCount adds delta to a counter on the default collector.
func RecordCount(name string, delta int64) {
	Default().RecordCount(name, delta)
}

// RecordTiming records a duration on the default collector.
func RecordTiming(name string, d time.Duration) {
	Default().RecordTiming(name, d)
}

// Snapshot copies the default collector's metrics.
func Snapshot() Metrics {
	return Default().Snapshot()
}
