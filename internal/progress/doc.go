// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces the scrape pipeline uses to report its progress. Events
// are fanned out on a background goroutine to pluggable sinks such as
// Prometheus metrics or structured logs; emitters never block on a slow sink.
package progress
