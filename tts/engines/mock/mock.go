// Package mock provides a deterministic in-process synthesis engine
// for tests and demos.
package mock

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/koe-sh/koe/tts"
)

// Engine implements tts.Engine with synthetic audio: a low sine tone
// whose length tracks the estimated speaking duration of the text.
type Engine struct {
	name       string
	caps       tts.Capabilities
	sampleRate int
	chunkBytes int

	delay time.Duration
	wpm   int

	// Failure injection for tests.
	failRate float64
	failErr  error
	rng      *rand.Rand

	mu        sync.Mutex
	loaded    bool
	callCount int
}

// Option configures the mock engine.
type Option func(*Engine)

// WithName overrides the engine identity, letting tests register
// several mocks side by side.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// WithCapabilities overrides the declared capabilities.
func WithCapabilities(caps tts.Capabilities) Option {
	return func(e *Engine) { e.caps = caps }
}

// WithDelay simulates model inference time per call.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithFailure makes every call fail with err.
func WithFailure(err error) Option {
	return func(e *Engine) { e.failRate = 1; e.failErr = err }
}

// WithFailureRate makes a fraction of calls fail with err.
func WithFailureRate(rate float64, err error) Option {
	return func(e *Engine) { e.failRate = rate; e.failErr = err }
}

// New creates a mock engine from configuration.
func New(cfg tts.MockConfig, sampleRate, chunkBytes int, opts ...Option) *Engine {
	e := &Engine{
		name:       "mock",
		caps:       tts.Capabilities{Batch: true, Incremental: true, LowLatency: true},
		sampleRate: sampleRate,
		chunkBytes: chunkBytes,
		delay:      cfg.GenerationDelay,
		wpm:        cfg.WordsPerMinute,
		failRate:   cfg.FailureRate,
		rng:        rand.New(rand.NewSource(1)),
	}
	if e.wpm <= 0 {
		e.wpm = 150
	}
	if e.sampleRate <= 0 {
		e.sampleRate = 22050
	}
	if e.chunkBytes <= 0 {
		e.chunkBytes = tts.DefaultChunkBytes
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine identity.
func (e *Engine) Name() string { return e.name }

// Capabilities reports the configured capability flags.
func (e *Engine) Capabilities() tts.Capabilities { return e.caps }

// Load marks the engine as ready.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = true
	return nil
}

// Unload releases nothing but flips the loaded flag. Idempotent.
func (e *Engine) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	return nil
}

// CallCount reports how many synthesis calls were made.
func (e *Engine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

func (e *Engine) begin() error {
	e.mu.Lock()
	e.callCount++
	loaded := e.loaded
	e.mu.Unlock()
	if !loaded {
		return tts.ErrNotLoaded
	}
	if e.failRate > 0 && e.rng.Float64() < e.failRate {
		if e.failErr != nil {
			return e.failErr
		}
		return tts.ErrEmptyText
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	return nil
}

// Synthesize generates the complete tone buffer for the text.
func (e *Engine) Synthesize(_ context.Context, text string, profile *tts.Profile) (*tts.Audio, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	audio := &tts.Audio{
		Data:       e.tone(text),
		SampleRate: e.sampleRate,
		Channels:   1,
	}
	if profile != nil {
		audio = tts.ShapeAudio(audio, profile.Pitch, profile.Speed)
	}
	return audio, nil
}

// SynthesizeStream generates the tone buffer and emits it chunk by chunk.
func (e *Engine) SynthesizeStream(ctx context.Context, text string, profile *tts.Profile) (<-chan tts.Chunk, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	audio := &tts.Audio{Data: e.tone(text), SampleRate: e.sampleRate, Channels: 1}
	if profile != nil {
		audio = tts.ShapeAudio(audio, profile.Pitch, profile.Speed)
	}
	return tts.NewChunkStream(ctx, audio, e.chunkBytes), nil
}

// tone renders a 220 Hz sine for the estimated speaking duration.
func (e *Engine) tone(text string) []byte {
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	seconds := float64(words) * 60.0 / float64(e.wpm)
	samples := int(seconds * float64(e.sampleRate))
	if samples < 1 {
		samples = 1
	}
	data := make([]byte, samples*2)
	step := 2 * math.Pi * 220.0 / float64(e.sampleRate)
	for i := 0; i < samples; i++ {
		v := int16(8000 * math.Sin(step*float64(i)))
		data[i*2] = byte(v)
		data[i*2+1] = byte(v >> 8)
	}
	return data
}
