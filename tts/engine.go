// Package tts provides the synthesis core of koe: capability-tagged
// engine adapters, a registry with fallback dispatch, voice profiles
// and the batch-to-stream converter.
package tts

import (
	"context"
	"time"
)

// Mode selects how synthesized audio is delivered.
type Mode int

const (
	// ModeBatch returns the complete audio for the input text in one buffer.
	ModeBatch Mode = iota
	// ModeStreaming returns a finite sequence of chunks, converting a
	// batch engine's output when no incremental engine is available.
	ModeStreaming
	// ModeRealtime is streaming with a preference for engines that can
	// begin producing audio with minimal startup delay.
	ModeRealtime
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeBatch:
		return "batch"
	case ModeStreaming:
		return "streaming"
	case ModeRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as used in config files and CLI flags.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "batch":
		return ModeBatch, nil
	case "", "streaming":
		return ModeStreaming, nil
	case "realtime":
		return ModeRealtime, nil
	}
	return ModeBatch, &ParseError{Field: "mode", Value: s}
}

// Capabilities describes what an engine can do. An engine must declare
// at least one synthesis capability to be selectable.
type Capabilities struct {
	Batch       bool // Synthesize returns a complete buffer
	Incremental bool // SynthesizeStream produces chunks progressively
	LowLatency  bool // chunks start arriving fast enough for realtime use
}

// LoadState tracks the lifecycle of a registered engine.
type LoadState int

const (
	// StateUnloaded means the engine has not acquired its backend yet.
	StateUnloaded LoadState = iota
	// StateLoaded means the engine is ready for synthesis.
	StateLoaded
	// StateFailed means loading failed; the engine is excluded from selection.
	StateFailed
)

// String returns the string representation of the load state.
func (s LoadState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Engine is one synthesis backend. Implementations wrap a model or an
// external process and convert its failures into ordinary errors; an
// adapter never panics the process. Engines are not reentrant: the
// Manager serializes calls into a single instance.
type Engine interface {
	// Name returns the engine identity used for registration and switching.
	Name() string

	// Capabilities reports the synthesis modes this engine supports.
	Capabilities() Capabilities

	// Load acquires backend resources (model weights, device memory,
	// subprocess handles). It is called once at registration.
	Load() error

	// Unload releases backend resources deterministically. Idempotent.
	Unload() error

	// Synthesize converts text to one complete audio buffer.
	// Only valid when Capabilities().Batch is true.
	Synthesize(ctx context.Context, text string, profile *Profile) (*Audio, error)

	// SynthesizeStream converts text to a finite sequence of chunks,
	// closed by the producer when synthesis ends. The sequence is
	// single-pass and not restartable.
	// Only valid when Capabilities().Incremental is true.
	SynthesizeStream(ctx context.Context, text string, profile *Profile) (<-chan Chunk, error)
}

// Audio is a complete buffer of 16-bit little-endian PCM.
type Audio struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// Duration returns the playing time of the buffer.
func (a *Audio) Duration() time.Duration {
	if a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	samples := len(a.Data) / (2 * a.Channels)
	return time.Duration(samples) * time.Second / time.Duration(a.SampleRate)
}

// Chunk is one piece of streamed PCM16LE audio. Chunks from a single
// request arrive in production order; chunks from different requests
// are never interleaved on one channel.
type Chunk struct {
	Data     []byte
	Position int  // index within the stream
	Final    bool // true on the last chunk of the stream
}

// Request describes one synthesis call. It is not mutated after creation.
type Request struct {
	ID       string // assigned by the Manager when empty
	Text     string
	Language string // BCP-47 hint or "auto"
	Profile  string // profile name; empty means the current profile
	// Voice, when set, is used directly instead of resolving Profile
	// against the registry. Callers that derive a one-off voice
	// (emotion modulation, ASMR modes) use this.
	Voice *Profile
	Mode  Mode
}

// Result carries the output of a synthesis call: Audio for batch mode,
// Stream for streaming and realtime modes. Exactly one field is set.
type Result struct {
	Engine string // engine that produced the output
	Audio  *Audio
	Stream <-chan Chunk
}
