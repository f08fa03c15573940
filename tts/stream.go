package tts

import (
	"context"
)

// DefaultChunkBytes is the slice size used when converting a batch
// buffer into a chunk stream: 1024 samples of 16-bit mono PCM.
const DefaultChunkBytes = 2048

// NewChunkStream slices a complete audio buffer into fixed-size chunks
// delivered lazily on the returned channel, in order, with the last
// chunk possibly shorter. The sequence is finite, single-pass and not
// restartable; consuming it twice is undefined. Cancelling the context
// stops production and closes the channel.
func NewChunkStream(ctx context.Context, audio *Audio, chunkBytes int) <-chan Chunk {
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	// Keep chunk boundaries aligned to whole frames.
	frame := 2
	if audio.Channels > 0 {
		frame = 2 * audio.Channels
	}
	if rem := chunkBytes % frame; rem != 0 {
		chunkBytes += frame - rem
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		data := audio.Data
		for i, pos := 0, 0; i < len(data); i, pos = i+chunkBytes, pos+1 {
			end := i + chunkBytes
			if end > len(data) {
				end = len(data)
			}
			chunk := Chunk{
				Data:     data[i:end],
				Position: pos,
				Final:    end == len(data),
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Collect drains a chunk stream into one buffer. Intended for tests and
// for callers that asked for streaming delivery but need the whole
// result after all.
func Collect(stream <-chan Chunk) []byte {
	var buf []byte
	for chunk := range stream {
		buf = append(buf, chunk.Data...)
	}
	return buf
}
