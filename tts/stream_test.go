package tts

import (
	"context"
	"testing"
)

func TestChunkStreamSlicing(t *testing.T) {
	tests := []struct {
		name       string
		dataLen    int
		chunkBytes int
		wantChunks int
		wantLast   int
	}{
		{name: "exact multiple", dataLen: 4096, chunkBytes: 1024, wantChunks: 4, wantLast: 1024},
		{name: "short tail", dataLen: 4100, chunkBytes: 1024, wantChunks: 5, wantLast: 4},
		{name: "single short buffer", dataLen: 100, chunkBytes: 1024, wantChunks: 1, wantLast: 100},
		{name: "default size", dataLen: DefaultChunkBytes * 2, chunkBytes: 0, wantChunks: 2, wantLast: DefaultChunkBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audio := &Audio{Data: make([]byte, tt.dataLen), SampleRate: 22050, Channels: 1}
			stream := NewChunkStream(context.Background(), audio, tt.chunkBytes)

			var chunks []Chunk
			for c := range stream {
				chunks = append(chunks, c)
			}
			if len(chunks) != tt.wantChunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if c.Position != i {
					t.Errorf("chunk %d has position %d", i, c.Position)
				}
				if c.Final != (i == len(chunks)-1) {
					t.Errorf("chunk %d Final = %v", i, c.Final)
				}
			}
			if got := len(chunks[len(chunks)-1].Data); got != tt.wantLast {
				t.Errorf("last chunk size = %d, want %d", got, tt.wantLast)
			}
		})
	}
}

func TestChunkStreamFrameAlignment(t *testing.T) {
	// Stereo frames are 4 bytes; an odd chunk size must be rounded up
	// so no frame is split across chunks.
	audio := &Audio{Data: make([]byte, 4000), SampleRate: 22050, Channels: 2}
	stream := NewChunkStream(context.Background(), audio, 1001)
	for c := range stream {
		if !c.Final && len(c.Data)%4 != 0 {
			t.Fatalf("chunk %d size %d is not frame aligned", c.Position, len(c.Data))
		}
	}
}

func TestChunkStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	audio := &Audio{Data: make([]byte, 1<<20), SampleRate: 22050, Channels: 1}
	stream := NewChunkStream(ctx, audio, 1024)

	<-stream
	cancel()

	// The channel must close without delivering the full stream.
	count := 0
	for range stream {
		count++
	}
	if count >= 1023 {
		t.Errorf("received %d chunks after cancel, expected early close", count)
	}
}

func TestCollect(t *testing.T) {
	data := make([]byte, 3000)
	for i := range data {
		data[i] = byte(i)
	}
	audio := &Audio{Data: data, SampleRate: 22050, Channels: 1}
	got := Collect(NewChunkStream(context.Background(), audio, 1024))
	if len(got) != len(data) {
		t.Fatalf("Collect() returned %d bytes, want %d", len(got), len(data))
	}
	for i := range got {
		if got[i] != data[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], data[i])
		}
	}
}
