package audio

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Device is the output backend a sink plays through. Start begins
// pulling PCM16 from src at the device's own cadence; Close stops
// playback and releases the player.
type Device interface {
	Start(src io.Reader) error
	Close() error
}

var (
	otoCtx     *oto.Context
	otoCtxOnce sync.Once
	otoCtxErr  error
	otoCtxRate int
	otoCtxCh   int
)

// OtoDevice plays through the system audio output via oto. The
// underlying oto context is a process-wide singleton; oto v3 cannot
// create a second context, so every OtoDevice in the process must
// share one sample rate and channel count.
type OtoDevice struct {
	sampleRate int
	channels   int

	mu     sync.Mutex
	player *oto.Player
}

// NewOtoDevice creates a device for the given format. The oto context
// is not opened until Start.
func NewOtoDevice(sampleRate, channels int) *OtoDevice {
	return &OtoDevice{sampleRate: sampleRate, channels: channels}
}

// Start opens the shared oto context if needed and begins playback.
func (d *OtoDevice) Start(src io.Reader) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		return fmt.Errorf("device already started")
	}

	otoCtxOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   d.sampleRate,
			ChannelCount: d.channels,
			Format:       oto.FormatSignedInt16LE,
		}

		// Platform-specific buffer size adjustments.
		switch runtime.GOOS {
		case "darwin":
			// macOS benefits from larger buffers
			options.BufferSize = time.Millisecond * 100
		case "windows":
			options.BufferSize = time.Millisecond * 80
		default:
			// Linux ALSA and others
			options.BufferSize = time.Millisecond * 50
		}

		log.Debug("initializing audio context",
			"sample_rate", options.SampleRate,
			"channels", options.ChannelCount,
			"buffer_size", options.BufferSize)

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			otoCtxErr = fmt.Errorf("creating audio context: %w", err)
			return
		}
		select {
		case <-ready:
			otoCtx = ctx
			otoCtxRate = d.sampleRate
			otoCtxCh = d.channels
		case <-time.After(5 * time.Second):
			// oto v3 contexts have no Close; the failed one is left
			// for the garbage collector.
			otoCtxErr = fmt.Errorf("audio context initialization timeout")
		}
	})
	if otoCtxErr != nil {
		return otoCtxErr
	}
	if otoCtxRate != d.sampleRate || otoCtxCh != d.channels {
		return fmt.Errorf("audio context already open at %d Hz/%d ch, cannot reopen at %d Hz/%d ch",
			otoCtxRate, otoCtxCh, d.sampleRate, d.channels)
	}

	d.player = otoCtx.NewPlayer(src)
	d.player.Play()
	return nil
}

// Close stops playback and releases the player. The shared context
// stays open for the life of the process.
func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	return err
}

// MockAudio reports whether the environment asks for a silent mock
// device instead of real output. CI environments and explicit opt-in
// both qualify.
func MockAudio() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}
	for _, envVar := range ciVars {
		if val := os.Getenv(envVar); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", envVar)
			return true
		}
	}
	if os.Getenv("KOE_MOCK_AUDIO") == "true" {
		log.Debug("mock audio requested via environment")
		return true
	}
	return false
}

// NewDevice returns the output device appropriate for the
// environment: the oto device normally, a self-draining mock in CI or
// when KOE_MOCK_AUDIO=true.
func NewDevice(sampleRate, channels, chunkSamples int) Device {
	if MockAudio() {
		log.Info("using mock audio device")
		return NewPacedMockDevice(sampleRate, channels, chunkSamples)
	}
	return NewOtoDevice(sampleRate, channels)
}
