package audio

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func newTestSink(t *testing.T, queueCap int) (*Sink, *MockDevice) {
	t.Helper()
	dev := NewMockDevice()
	s := NewSink(Config{
		SampleRate:    22050,
		Channels:      1,
		ChunkSize:     4, // 8 bytes per frame, small enough to reason about
		QueueCapacity: queueCap,
	}, dev)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	return s, dev
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	s, _ := newTestSink(t, 3)
	defer s.Stop()

	accepted := 0
	for i := 0; i < 5; i++ {
		if s.Enqueue([]byte{1, 2, 3, 4}) {
			accepted++
		}
	}
	if accepted != 3 {
		t.Errorf("accepted = %d, want 3", accepted)
	}

	stats := s.Stats()
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", stats.Dropped)
	}
	if stats.QueueDepth != 3 {
		t.Errorf("QueueDepth = %d, want 3", stats.QueueDepth)
	}
}

func TestEnqueueRejectsWhenIdle(t *testing.T) {
	dev := NewMockDevice()
	s := NewSink(Config{SampleRate: 22050, Channels: 1}, dev)

	if s.Enqueue([]byte{1, 2}) {
		t.Error("Enqueue accepted a chunk before Start")
	}
	if s.Stats().Dropped != 0 {
		t.Errorf("Dropped = %d, want 0 (rejected, not dropped)", s.Stats().Dropped)
	}
}

func TestEnqueueRejectsEmptyChunk(t *testing.T) {
	s, _ := newTestSink(t, 3)
	defer s.Stop()

	if s.Enqueue(nil) {
		t.Error("Enqueue accepted an empty chunk")
	}
}

func TestReadUnderrunYieldsSilence(t *testing.T) {
	s, dev := newTestSink(t, 3)
	defer s.Stop()

	frame, err := dev.Pull(8)
	if err != nil {
		t.Fatalf("Pull() = %v", err)
	}
	if len(frame) != 8 {
		t.Fatalf("frame length = %d, want 8", len(frame))
	}
	if !bytes.Equal(frame, make([]byte, 8)) {
		t.Errorf("frame = %v, want all zeros", frame)
	}
	if got := s.Stats().Underruns; got != 1 {
		t.Errorf("Underruns = %d, want exactly 1 per starved read", got)
	}
}

func TestReadDeliversQueuedAudio(t *testing.T) {
	s, dev := newTestSink(t, 3)
	defer s.Stop()

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if !s.Enqueue(want) {
		t.Fatal("Enqueue rejected a chunk while streaming")
	}

	frame, err := dev.Pull(8)
	if err != nil {
		t.Fatalf("Pull() = %v", err)
	}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = %v, want %v", frame, want)
	}

	stats := s.Stats()
	if stats.Underruns != 0 {
		t.Errorf("Underruns = %d, want 0", stats.Underruns)
	}
	if stats.Latency <= 0 {
		t.Errorf("Latency = %v, want > 0 after a pop", stats.Latency)
	}
}

func TestReadSpansChunkBoundaries(t *testing.T) {
	s, dev := newTestSink(t, 3)
	defer s.Stop()

	// One 8-byte chunk served across two 4-byte device frames.
	s.Enqueue([]byte{1, 2, 3, 4, 5, 6, 7, 8})

	first, err := dev.Pull(4)
	if err != nil {
		t.Fatalf("Pull() = %v", err)
	}
	second, err := dev.Pull(4)
	if err != nil {
		t.Fatalf("Pull() = %v", err)
	}
	if !bytes.Equal(first, []byte{1, 2, 3, 4}) {
		t.Errorf("first frame = %v", first)
	}
	if !bytes.Equal(second, []byte{5, 6, 7, 8}) {
		t.Errorf("second frame = %v", second)
	}
	if got := s.Stats().Underruns; got != 0 {
		t.Errorf("Underruns = %d, want 0", got)
	}
}

func TestReadPadsShortChunkWithSilence(t *testing.T) {
	s, dev := newTestSink(t, 3)
	defer s.Stop()

	s.Enqueue([]byte{1, 2, 3})
	frame, err := dev.Pull(8)
	if err != nil {
		t.Fatalf("Pull() = %v", err)
	}
	want := []byte{1, 2, 3, 0, 0, 0, 0, 0}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame = %v, want %v", frame, want)
	}
	if got := s.Stats().Underruns; got != 1 {
		t.Errorf("Underruns = %d, want 1", got)
	}
}

func TestReadAfterStopReturnsEOF(t *testing.T) {
	s, dev := newTestSink(t, 3)
	s.Stop()

	if _, err := dev.Pull(8); !errors.Is(err, io.EOF) {
		t.Errorf("Pull() error = %v, want io.EOF", err)
	}
}

func TestStartWhileStreaming(t *testing.T) {
	s, _ := newTestSink(t, 3)
	defer s.Stop()

	if err := s.Start(); !errors.Is(err, ErrAlreadyStreaming) {
		t.Errorf("second Start() = %v, want ErrAlreadyStreaming", err)
	}
}

func TestStartDeviceFailure(t *testing.T) {
	dev := &failingDevice{err: errors.New("no output hardware")}
	s := NewSink(Config{SampleRate: 22050, Channels: 1}, dev)

	err := s.Start()
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Start() = %v, want ErrDeviceUnavailable", err)
	}
	if s.Stats().State != StateIdle {
		t.Errorf("state = %v, want idle after failed start", s.Stats().State)
	}
}

type failingDevice struct{ err error }

func (d *failingDevice) Start(io.Reader) error { return d.err }
func (d *failingDevice) Close() error          { return nil }

func TestStopIsIdempotent(t *testing.T) {
	s, dev := newTestSink(t, 3)
	s.Enqueue([]byte{1, 2, 3, 4})

	s.Stop()
	s.Stop() // no-op

	if !dev.Closed() {
		t.Error("device not closed after Stop")
	}
	stats := s.Stats()
	if stats.State != StateIdle {
		t.Errorf("state = %v, want idle", stats.State)
	}
	if stats.QueueDepth != 0 {
		t.Errorf("QueueDepth = %d, want 0 after flush", stats.QueueDepth)
	}
	if s.Enqueue([]byte{1, 2}) {
		t.Error("Enqueue accepted a chunk after Stop")
	}
}

func TestStopConcurrent(t *testing.T) {
	s, _ := newTestSink(t, 3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Stop()
		}()
	}
	wg.Wait()

	if s.Stats().State != StateIdle {
		t.Errorf("state = %v, want idle", s.Stats().State)
	}
}

func TestStopRacingEnqueueLeavesQueueEmpty(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, _ := newTestSink(t, 8)

		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					s.Enqueue([]byte{1, 2, 3, 4})
				}
			}()
		}
		s.Stop()
		wg.Wait()

		// No chunk enqueued during shutdown may survive into a restart.
		if depth := s.Stats().QueueDepth; depth != 0 {
			t.Fatalf("QueueDepth after Stop = %d, want 0", depth)
		}
	}
}

func TestStartStopRestart(t *testing.T) {
	s, dev := newTestSink(t, 3)
	s.Stop()

	if err := s.Start(); err != nil {
		t.Fatalf("restart = %v", err)
	}
	defer s.Stop()

	want := []byte{9, 9, 9, 9}
	s.Enqueue(want)
	frame, err := dev.Pull(4)
	if err != nil {
		t.Fatalf("Pull() = %v", err)
	}
	if !bytes.Equal(frame, want) {
		t.Errorf("frame after restart = %v, want %v", frame, want)
	}
}

func TestSetChunkSizeClamps(t *testing.T) {
	tests := []struct {
		name string
		set  int
		want int
	}{
		{"in range", 1024, 1024},
		{"below floor", 100, MinChunkSamples},
		{"above ceiling", 10000, MaxChunkSamples},
		{"at floor", MinChunkSamples, MinChunkSamples},
		{"at ceiling", MaxChunkSamples, MaxChunkSamples},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSink(Config{SampleRate: 22050, Channels: 1}, NewMockDevice())
			s.SetChunkSize(tt.set)
			if got := s.ChunkSize(); got != tt.want {
				t.Errorf("ChunkSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChunkBytes(t *testing.T) {
	s := NewSink(Config{SampleRate: 22050, Channels: 2, ChunkSize: 512}, NewMockDevice())
	if got := s.ChunkBytes(); got != 512*2*2 {
		t.Errorf("ChunkBytes() = %d, want %d", got, 512*2*2)
	}
}

func TestResetStats(t *testing.T) {
	s, dev := newTestSink(t, 1)
	defer s.Stop()

	s.Enqueue([]byte{1, 2})
	s.Enqueue([]byte{3, 4}) // dropped
	dev.Pull(8)             // pops then underruns

	s.ResetStats()
	stats := s.Stats()
	if stats.Dropped != 0 || stats.Underruns != 0 || stats.Latency != 0 {
		t.Errorf("after reset: dropped=%d underruns=%d latency=%v, want zeros",
			stats.Dropped, stats.Underruns, stats.Latency)
	}
}

func TestConcurrentEnqueueAndRead(t *testing.T) {
	s, dev := newTestSink(t, 10)
	defer s.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.Enqueue([]byte{byte(i), byte(i), byte(i), byte(i)})
		}
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("producer did not finish")
		default:
			if _, err := dev.Pull(8); err != nil {
				t.Fatalf("Pull() = %v", err)
			}
		}
	}
}
