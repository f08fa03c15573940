// Package piper implements the piper subprocess synthesis engine.
// Piper reads text on stdin and, with --output-raw, writes PCM16LE to
// stdout as soon as frames are ready, which makes it suitable for both
// batch and incremental delivery.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/koe-sh/koe/tts"
)

// readBuffer is the stdout read size for incremental delivery.
const readBuffer = 4096

// Engine runs one piper process per synthesis call. Holding model
// weights inside a short-lived process keeps Unload deterministic: no
// call in flight means no resources held.
type Engine struct {
	cfg        tts.PiperConfig
	chunkBytes int

	mu     sync.Mutex
	loaded bool
}

// New creates a piper engine from configuration.
func New(cfg tts.PiperConfig, chunkBytes int) *Engine {
	if chunkBytes <= 0 {
		chunkBytes = tts.DefaultChunkBytes
	}
	return &Engine{cfg: cfg, chunkBytes: chunkBytes}
}

// Name returns the engine identity.
func (e *Engine) Name() string { return "piper" }

// Capabilities reports batch and incremental support. Piper starts
// emitting frames early enough for realtime use.
func (e *Engine) Capabilities() tts.Capabilities {
	return tts.Capabilities{Batch: true, Incremental: true, LowLatency: true}
}

// Load verifies the binary and model are present.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}
	if e.cfg.Model == "" {
		return errors.New("piper model not configured")
	}
	if _, err := exec.LookPath(e.cfg.Binary); err != nil {
		return fmt.Errorf("piper binary not found: %w", err)
	}
	e.loaded = true
	return nil
}

// Unload marks the engine unusable. Idempotent; running calls own
// their subprocess and finish independently.
func (e *Engine) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	return nil
}

func (e *Engine) args(profile *tts.Profile) []string {
	args := []string{"--model", e.cfg.Model, "--output-raw"}
	if e.cfg.ConfigPath != "" {
		args = append(args, "--config", e.cfg.ConfigPath)
	}
	if e.cfg.SpeakerID > 0 {
		args = append(args, "--speaker", strconv.Itoa(e.cfg.SpeakerID))
	}
	// Speed maps to piper's length scale natively: scale is inverse speed.
	if profile != nil && profile.Speed > 0 && profile.Speed != 1 {
		args = append(args, "--length-scale", strconv.FormatFloat(1/profile.Speed, 'f', 3, 64))
	}
	return args
}

func (e *Engine) start(ctx context.Context, text string, profile *tts.Profile) (*exec.Cmd, io.ReadCloser, error) {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if !loaded {
		return nil, nil, tts.ErrNotLoaded
	}

	cmd := exec.CommandContext(ctx, e.cfg.Binary, e.args(profile)...)
	cmd.Stdin = bytes.NewReader(append([]byte(text), '\n'))
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start piper: %w", err)
	}
	return cmd, stdout, nil
}

// Synthesize runs piper to completion and returns the whole buffer.
func (e *Engine) Synthesize(ctx context.Context, text string, profile *tts.Profile) (*tts.Audio, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd, stdout, err := e.start(ctx, text, profile)
	if err != nil {
		return nil, err
	}
	data, readErr := io.ReadAll(stdout)
	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, fmt.Errorf("read piper output: %w", readErr)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("piper exited: %w", waitErr)
	}
	if len(data) == 0 {
		return nil, errors.New("piper produced no audio")
	}

	audio := &tts.Audio{Data: data, SampleRate: e.cfg.SampleRate, Channels: 1}
	// Speed is handled in-process via length scale; only pitch needs shaping.
	if profile != nil && profile.Pitch > 0 && profile.Pitch != 1 {
		audio = tts.ShapeAudio(audio, profile.Pitch, 1)
	}
	return audio, nil
}

// SynthesizeStream runs piper and forwards stdout reads as chunks while
// the process is still synthesizing the remainder.
func (e *Engine) SynthesizeStream(ctx context.Context, text string, profile *tts.Profile) (<-chan tts.Chunk, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)

	cmd, stdout, err := e.start(ctx, text, profile)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan tts.Chunk)
	go func() {
		defer cancel()
		defer close(out)
		streamChunks(ctx, stdout, e.chunkBytes, out)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Warn("piper exited with error", "err", err)
		}
	}()
	return out, nil
}

// streamChunks cuts r into chunkBytes-sized chunks on out. The last
// chunk of the stream carries Final, so one full chunk is held back
// until the next read shows whether more data follows.
func streamChunks(ctx context.Context, r io.Reader, chunkBytes int, out chan<- tts.Chunk) {
	pos := 0
	pending := make([]byte, 0, chunkBytes)
	buf := make([]byte, readBuffer)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for len(pending) > chunkBytes {
				chunk := tts.Chunk{Data: append([]byte(nil), pending[:chunkBytes]...), Position: pos}
				pending = pending[chunkBytes:]
				pos++
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				log.Warn("piper stream read failed", "err", readErr)
			}
			break
		}
	}
	if len(pending) > 0 {
		select {
		case out <- tts.Chunk{Data: pending, Position: pos, Final: true}:
		case <-ctx.Done():
		}
	}
}
