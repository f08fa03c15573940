package audio

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultLatencyTarget is the queue-wait latency the controller holds
// the stream near.
const DefaultLatencyTarget = 200 * time.Millisecond

// Tuner is what the latency controller adjusts. Satisfied by Sink.
type Tuner interface {
	ChunkSize() int
	SetChunkSize(samples int)
	Stats() Metrics
}

// AdjustChunkSize is one bang-bang control step: latency beyond 1.5x
// the target halves the chunk size so smaller units move through the
// queue faster, latency under 0.5x doubles it to cut per-chunk
// overhead. Inside the hysteresis band the size is left alone.
// Results are clamped to [MinChunkSamples, MaxChunkSamples].
func AdjustChunkSize(current int, latency, target time.Duration) int {
	switch {
	case latency > target*3/2:
		next := current / 2
		if next < MinChunkSamples {
			next = MinChunkSamples
		}
		return next
	case latency < target/2:
		next := current * 2
		if next > MaxChunkSamples {
			next = MaxChunkSamples
		}
		return next
	default:
		return current
	}
}

// LatencyController periodically samples a tuner's latency and
// applies AdjustChunkSize. Zero latency readings are skipped so an
// idle stream does not inflate the chunk size before audio flows.
type LatencyController struct {
	tuner    Tuner
	target   time.Duration
	interval time.Duration
}

// NewLatencyController creates a controller over the given tuner.
// Zero values select the default 200ms target and a 1s sample
// interval.
func NewLatencyController(tuner Tuner, target, interval time.Duration) *LatencyController {
	if target <= 0 {
		target = DefaultLatencyTarget
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &LatencyController{tuner: tuner, target: target, interval: interval}
}

// Step samples once and applies an adjustment if one is warranted.
// Returns the chunk size in effect afterwards.
func (c *LatencyController) Step() int {
	stats := c.tuner.Stats()
	current := c.tuner.ChunkSize()
	if stats.Latency <= 0 {
		return current
	}
	next := AdjustChunkSize(current, stats.Latency, c.target)
	if next != current {
		c.tuner.SetChunkSize(next)
		log.Debug("latency controller adjusted chunk size",
			"latency", stats.Latency,
			"target", c.target,
			"from", current,
			"to", next)
	}
	return next
}

// Run steps on the configured interval until ctx is done.
func (c *LatencyController) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Step()
		}
	}
}
