package metrics

import (
	"sync/atomic"
	"time"
)

// CopyResult enumerates copy-if-needed decisions.
type CopyResult string

const (
	CopyCopied    CopyResult = "copied"
	CopyUnchanged CopyResult = "unchanged"
	CopyFailed    CopyResult = "failed"
)

// PageOutcome enumerates per-page transform results.
type PageOutcome string

const (
	PageProcessed PageOutcome = "processed"
	PageSkipped   PageOutcome = "skipped"
	PageFailed    PageOutcome = "failed"
)

// Recorder defines observability hooks for the asset pipeline.
type Recorder interface {
	IncAssetCopy(result CopyResult)
	AddAssetsDiscovered(mode string, n int)
	IncPageOutcome(mode string, outcome PageOutcome)
	ObservePageDuration(mode string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncAssetCopy(CopyResult)                   {}
func (NoopRecorder) AddAssetsDiscovered(string, int)           {}
func (NoopRecorder) IncPageOutcome(string, PageOutcome)        {}
func (NoopRecorder) ObservePageDuration(string, time.Duration) {}

// MemoryRecorder counts events in memory. Safe for concurrent use.
type MemoryRecorder struct {
	copies     atomic.Int64
	unchanged  atomic.Int64
	failures   atomic.Int64
	discovered atomic.Int64
	processed  atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
}

func (m *MemoryRecorder) IncAssetCopy(result CopyResult) {
	switch result {
	case CopyCopied:
		m.copies.Add(1)
	case CopyUnchanged:
		m.unchanged.Add(1)
	case CopyFailed:
		m.failures.Add(1)
	}
}

func (m *MemoryRecorder) AddAssetsDiscovered(_ string, n int) {
	m.discovered.Add(int64(n))
}

func (m *MemoryRecorder) IncPageOutcome(_ string, outcome PageOutcome) {
	switch outcome {
	case PageProcessed:
		m.processed.Add(1)
	case PageSkipped:
		m.skipped.Add(1)
	case PageFailed:
		m.failed.Add(1)
	}
}

func (m *MemoryRecorder) ObservePageDuration(string, time.Duration) {}

// Copies returns the number of copies performed.
func (m *MemoryRecorder) Copies() int { return int(m.copies.Load()) }

// Skips returns the number of copies skipped by the metadata check.
func (m *MemoryRecorder) Skips() int { return int(m.unchanged.Load()) }

// CopyFailures returns the number of failed copies.
func (m *MemoryRecorder) CopyFailures() int { return int(m.failures.Load()) }

// Discovered returns the total number of asset references or files discovered.
func (m *MemoryRecorder) Discovered() int { return int(m.discovered.Load()) }

// Pages returns processed, skipped and failed page counts.
func (m *MemoryRecorder) Pages() (processed, skipped, failed int) {
	return int(m.processed.Load()), int(m.skipped.Load()), int(m.failed.Load())
}

// Reset zeroes all counters.
func (m *MemoryRecorder) Reset() {
	for _, c := range []*atomic.Int64{&m.copies, &m.unchanged, &m.failures, &m.discovered, &m.processed, &m.skipped, &m.failed} {
		c.Store(0)
	}
}

// Fanout forwards every event to each recorder in order.
type Fanout []Recorder

func (f Fanout) IncAssetCopy(result CopyResult) {
	for _, r := range f {
		r.IncAssetCopy(result)
	}
}

func (f Fanout) AddAssetsDiscovered(mode string, n int) {
	for _, r := range f {
		r.AddAssetsDiscovered(mode, n)
	}
}

func (f Fanout) IncPageOutcome(mode string, outcome PageOutcome) {
	for _, r := range f {
		r.IncPageOutcome(mode, outcome)
	}
}

func (f Fanout) ObservePageDuration(mode string, d time.Duration) {
	for _, r := range f {
		r.ObservePageDuration(mode, d)
	}
}
