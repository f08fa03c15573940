// Package audio provides the real-time delivery half of the pipeline:
// a bounded-queue sink drained by the output device at its own cadence,
// with silence substitution on underrun, plus the latency controller
// that retunes chunk size against a target.
package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultQueueCapacity bounds the chunk queue. Producers drop rather
// than block when it fills.
const DefaultQueueCapacity = 100

// Chunk size bounds for latency tuning, in samples.
const (
	MinChunkSamples = 256
	MaxChunkSamples = 4096
)

// ErrDeviceUnavailable is returned by Start when the output device
// cannot be opened. Fatal: device unavailability is an environment
// problem, not a transient one, so there is no retry.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// ErrAlreadyStreaming is returned by Start while a stream is active.
var ErrAlreadyStreaming = errors.New("sink is already streaming")

// State is the sink's lifecycle state.
type State int32

const (
	// StateIdle means no stream is active.
	StateIdle State = iota
	// StateStreaming means the device is pulling audio.
	StateStreaming
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Metrics is a snapshot of stream health. Only the sink writes the
// underlying counters; anyone may read snapshots.
type Metrics struct {
	State      State
	QueueDepth int
	Latency    time.Duration // queue wait of the most recently played chunk
	Underruns  uint64
	Dropped    uint64
	SampleRate int
	Channels   int
	ChunkSize  int // current chunk size in samples
}

// Config holds sink parameters.
type Config struct {
	SampleRate    int
	Channels      int
	ChunkSize     int // samples per chunk
	QueueCapacity int
}

type item struct {
	data     []byte
	enqueued time.Time
}

// Sink owns the bounded queue and the device-driven playback path.
// The producer side calls Enqueue; the device pulls through Read on
// its own schedule. The queue is the only structure shared between
// the two roles.
type Sink struct {
	cfg    Config
	device Device
	queue  chan item

	state atomic.Int32

	// popMu serializes the consumer path (Read) with queue flushing
	// in Stop. The device has a single reader goroutine, so this is
	// uncontended in steady state.
	popMu   sync.Mutex
	pending []byte // unread remainder of the last popped chunk

	mu sync.Mutex // guards Start/Stop transitions

	chunkSamples atomic.Int32

	underruns  atomic.Uint64
	dropped    atomic.Uint64
	latencyUS  atomic.Int64
	lastActive atomic.Int64 // unix micros of the last successful pop
}

// NewSink creates a sink that plays through the given device. The
// queue capacity is fixed at construction.
func NewSink(cfg Config, device Device) *Sink {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}
	s := &Sink{
		cfg:    cfg,
		device: device,
		queue:  make(chan item, cfg.QueueCapacity),
	}
	s.chunkSamples.Store(int32(cfg.ChunkSize))
	return s
}

// Start opens the output device and begins the Idle → Streaming
// transition. A device-open failure is fatal and surfaced immediately.
func (s *Sink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if State(s.state.Load()) == StateStreaming {
		return ErrAlreadyStreaming
	}
	if err := s.device.Start(s); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.state.Store(int32(StateStreaming))
	log.Info("audio sink streaming",
		"sample_rate", s.cfg.SampleRate,
		"channels", s.cfg.Channels,
		"chunk_size", s.ChunkSize(),
		"queue_capacity", s.cfg.QueueCapacity)
	return nil
}

// Enqueue appends a chunk to the bounded queue. When the queue is full
// the chunk is dropped and counted; the producer is never blocked,
// since stalling synthesis is worse than an audible glitch. Returns
// whether the chunk was accepted.
func (s *Sink) Enqueue(data []byte) bool {
	if State(s.state.Load()) != StateStreaming || len(data) == 0 {
		return false
	}
	select {
	case s.queue <- item{data: data, enqueued: time.Now()}:
		if State(s.state.Load()) != StateStreaming {
			// Stop ran between the state check and the send; its drain
			// may have finished already, so take the chunk back out.
			select {
			case <-s.queue:
			default:
			}
			return false
		}
		return true
	default:
		n := s.dropped.Add(1)
		log.Warn("audio queue full, dropping frame", "dropped_total", n)
		return false
	}
}

// Read implements io.Reader for the output device. Each call serves a
// device-sized frame: data from the queue when available, silence
// otherwise. It never blocks on the producer.
func (s *Sink) Read(p []byte) (int, error) {
	if State(s.state.Load()) != StateStreaming {
		return 0, io.EOF
	}

	s.popMu.Lock()
	defer s.popMu.Unlock()

	n := 0
	starved := false
	for n < len(p) {
		if len(s.pending) > 0 {
			c := copy(p[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		select {
		case it := <-s.queue:
			now := time.Now()
			s.latencyUS.Store(now.Sub(it.enqueued).Microseconds())
			s.lastActive.Store(now.UnixMicro())
			s.pending = it.data
		default:
			// Underrun: pad the rest of the frame with silence and
			// keep the device fed.
			starved = true
			for i := n; i < len(p); i++ {
				p[i] = 0
			}
			n = len(p)
		}
	}
	if starved {
		s.underruns.Add(1)
	}
	return n, nil
}

// Stop flushes the queue, closes the device and returns the sink to
// Idle. Safe to call from any state, concurrently with Enqueue, and
// idempotent: a second call is a no-op.
func (s *Sink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.CompareAndSwap(int32(StateStreaming), int32(StateIdle)) {
		return
	}
	if err := s.device.Close(); err != nil {
		log.Warn("closing audio device", "err", err)
	}

	// Drain anything the producer managed to enqueue before it saw
	// the state change.
	s.popMu.Lock()
	s.pending = nil
	for {
		select {
		case <-s.queue:
		default:
			s.popMu.Unlock()
			log.Info("audio sink stopped")
			return
		}
	}
}

// Stats returns a metrics snapshot.
func (s *Sink) Stats() Metrics {
	return Metrics{
		State:      State(s.state.Load()),
		QueueDepth: len(s.queue),
		Latency:    time.Duration(s.latencyUS.Load()) * time.Microsecond,
		Underruns:  s.underruns.Load(),
		Dropped:    s.dropped.Load(),
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
		ChunkSize:  s.ChunkSize(),
	}
}

// ResetStats clears the soft-failure counters and latency reading.
func (s *Sink) ResetStats() {
	s.underruns.Store(0)
	s.dropped.Store(0)
	s.latencyUS.Store(0)
}

// ChunkSize returns the current chunk size in samples.
func (s *Sink) ChunkSize() int {
	return int(s.chunkSamples.Load())
}

// ChunkBytes returns the current chunk size in bytes of PCM16.
func (s *Sink) ChunkBytes() int {
	return s.ChunkSize() * 2 * s.cfg.Channels
}

// SetChunkSize updates the chunk size in samples, clamped to the
// tuning bounds. Used by the latency controller.
func (s *Sink) SetChunkSize(samples int) {
	if samples < MinChunkSamples {
		samples = MinChunkSamples
	}
	if samples > MaxChunkSamples {
		samples = MaxChunkSamples
	}
	s.chunkSamples.Store(int32(samples))
}
