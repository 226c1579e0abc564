// Package monitor runs the continuous monitoring loop: it buffers incoming
// analysis windows, drives the radar pipeline under a wall-clock budget,
// fuses each result with the latest vehicle and environment telemetry, and
// persists the outcome.
package monitor

import (
	"context"

	"github.com/KazeAsh/guardianseat/internal/radar"
)

// WindowQueue is a bounded single-producer/single-consumer buffer of
// analysis windows with drop-oldest backpressure: when acquisition outruns
// processing, the newest complete window replaces the oldest queued one.
// Vital-sign estimates are only meaningful for recent data, so growing the
// queue would just add latency to stale answers.
type WindowQueue struct {
	ch chan *radar.SampleBuffer
}

// NewWindowQueue creates a queue holding at most capacity windows.
// Capacity should be one in-flight window plus a small margin.
func NewWindowQueue(capacity int) *WindowQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &WindowQueue{ch: make(chan *radar.SampleBuffer, capacity)}
}

// Push enqueues a window, evicting the oldest queued window if the buffer is
// full. Returns true when an eviction happened. Push never blocks; it is
// safe for exactly one producer.
func (q *WindowQueue) Push(buf *radar.SampleBuffer) (droppedOldest bool) {
	for {
		select {
		case q.ch <- buf:
			return droppedOldest
		default:
		}
		select {
		case <-q.ch:
			droppedOldest = true
		default:
			// Consumer drained the queue between the two selects; retry.
		}
	}
}

// Pop blocks until a window is available or the context is cancelled.
func (q *WindowQueue) Pop(ctx context.Context) (*radar.SampleBuffer, error) {
	select {
	case buf := <-q.ch:
		return buf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of queued windows.
func (q *WindowQueue) Len() int { return len(q.ch) }
