// Package remote implements a synthesis engine backed by an HTTP TTS
// server speaking an OpenAI-style speech endpoint: POST a JSON request,
// receive PCM16 audio (raw or in a WAV container) in the response body.
package remote

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/koe-sh/koe/tts"
)

// speechRequest is the JSON body sent to the server.
type speechRequest struct {
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Language       string  `json:"language,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
	ResponseFormat string  `json:"response_format"`
	SampleRate     int     `json:"sample_rate,omitempty"`
}

// Engine calls a remote synthesis server. Batch only: the server
// returns complete responses.
type Engine struct {
	cfg    tts.RemoteConfig
	client *http.Client

	mu     sync.Mutex
	loaded bool
}

// New creates a remote engine from configuration.
func New(cfg tts.RemoteConfig) *Engine {
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the engine identity.
func (e *Engine) Name() string { return "remote" }

// Capabilities reports batch-only support.
func (e *Engine) Capabilities() tts.Capabilities {
	return tts.Capabilities{Batch: true}
}

// Load validates the configuration. No connection is held between
// calls, so there is nothing to warm up.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.URL == "" {
		return errors.New("remote TTS url not configured")
	}
	e.loaded = true
	return nil
}

// Unload marks the engine unusable. Idempotent.
func (e *Engine) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	return nil
}

// Synthesize posts the text and decodes the audio response.
func (e *Engine) Synthesize(ctx context.Context, text string, profile *tts.Profile) (*tts.Audio, error) {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if !loaded {
		return nil, tts.ErrNotLoaded
	}

	req := speechRequest{
		Input:          text,
		Voice:          e.cfg.Voice,
		ResponseFormat: "pcm",
		SampleRate:     e.cfg.SampleRate,
	}
	if profile != nil {
		if profile.Language != "" && profile.Language != "auto" {
			req.Language = profile.Language
		}
		if profile.Speed > 0 && profile.Speed != 1 {
			req.Speed = profile.Speed
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote TTS request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remote TTS status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read remote TTS response: %w", err)
	}
	pcm, rate := stripWAV(data)
	if rate == 0 {
		rate = e.cfg.SampleRate
	}
	if len(pcm) == 0 {
		return nil, errors.New("remote TTS returned no audio")
	}

	audio := &tts.Audio{Data: pcm, SampleRate: rate, Channels: 1}
	// The server applies speed; pitch is shaped locally.
	if profile != nil && profile.Pitch > 0 && profile.Pitch != 1 {
		audio = tts.ShapeAudio(audio, profile.Pitch, 1)
	}
	return audio, nil
}

// SynthesizeStream is not supported; the registry never routes
// incremental requests here.
func (e *Engine) SynthesizeStream(context.Context, string, *tts.Profile) (<-chan tts.Chunk, error) {
	return nil, tts.ErrUnsupportedMode
}

// stripWAV unwraps a canonical 44-byte RIFF/WAVE header when present,
// returning the PCM payload and the declared sample rate. Raw PCM
// passes through with rate 0.
func stripWAV(data []byte) ([]byte, int) {
	if len(data) < 44 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return data, 0
	}
	rate := int(binary.LittleEndian.Uint32(data[24:28]))
	return data[44:], rate
}
