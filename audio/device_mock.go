package audio

import (
	"io"
	"sync"
	"time"
)

// MockDevice is an output device for tests. It performs no I/O: the
// test drives playback explicitly by calling Pull, so every tick is
// deterministic.
type MockDevice struct {
	mu      sync.Mutex
	src     io.Reader
	started bool
	closed  bool
}

// NewMockDevice creates a manually driven mock device.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// Start records the source. Nothing is pulled until the test asks.
func (d *MockDevice) Start(src io.Reader) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.src = src
	d.started = true
	d.closed = false
	return nil
}

// Close marks the device closed.
func (d *MockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Started reports whether Start has been called.
func (d *MockDevice) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Closed reports whether Close has been called since the last Start.
func (d *MockDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Pull reads one n-byte frame from the source, simulating a single
// device tick. Returns the frame and the read error, if any.
func (d *MockDevice) Pull(n int) ([]byte, error) {
	d.mu.Lock()
	src := d.src
	d.mu.Unlock()

	buf := make([]byte, n)
	read, err := src.Read(buf)
	return buf[:read], err
}

// PacedMockDevice discards audio at real-time speed. It stands in for
// the system output where none exists, keeping the sink's queue
// draining at the rate a real device would.
type PacedMockDevice struct {
	sampleRate   int
	channels     int
	chunkSamples int

	mu   sync.Mutex
	done chan struct{}
}

// NewPacedMockDevice creates a silent device that consumes PCM16 at
// the rate implied by the format.
func NewPacedMockDevice(sampleRate, channels, chunkSamples int) *PacedMockDevice {
	if chunkSamples <= 0 {
		chunkSamples = 1024
	}
	return &PacedMockDevice{
		sampleRate:   sampleRate,
		channels:     channels,
		chunkSamples: chunkSamples,
	}
}

// Start launches the drain loop.
func (d *PacedMockDevice) Start(src io.Reader) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done != nil {
		return nil
	}
	done := make(chan struct{})
	d.done = done

	frameBytes := d.chunkSamples * 2 * d.channels
	interval := time.Duration(d.chunkSamples) * time.Second / time.Duration(d.sampleRate)

	go func() {
		buf := make([]byte, frameBytes)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if _, err := src.Read(buf); err != nil {
					return
				}
			}
		}
	}()
	return nil
}

// Close stops the drain loop.
func (d *PacedMockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		close(d.done)
		d.done = nil
	}
	return nil
}
