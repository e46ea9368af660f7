// Package metrics exposes observability hooks for the content pipeline.
package metrics

import "time"

// Outcome labels for resolution counters.
const (
	OutcomeFound     = "found"
	OutcomeNotFound  = "not_found"
	OutcomeMalformed = "malformed"
)

// Fallback reasons.
const (
	FallbackUnconfigured = "unconfigured"
	FallbackError        = "error"
	FallbackMiss         = "miss"
)

// Recorder defines observability hooks for resolution and invalidation.
// Implementations must be safe for concurrent use.
type Recorder interface {
	IncResolution(kind, source, outcome string)
	IncFallback(reason string)
	ObserveCompileDuration(d time.Duration)
	IncHighlightFallback()
	IncInvalidation(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncResolution(string, string, string) {}
func (NoopRecorder) IncFallback(string)                   {}
func (NoopRecorder) ObserveCompileDuration(time.Duration) {}
func (NoopRecorder) IncHighlightFallback()                {}
func (NoopRecorder) IncInvalidation(bool)                 {}
