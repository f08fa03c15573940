package tts

import (
	"encoding/binary"
	"math"
	"testing"
)

// sine renders n samples of a tone at the given frequency as PCM16.
func sine(n int, freq, sampleRate float64) []byte {
	data := make([]byte, n*2)
	step := 2 * math.Pi * freq / sampleRate
	for i := 0; i < n; i++ {
		v := int16(10000 * math.Sin(step*float64(i)))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return data
}

func TestResampleLength(t *testing.T) {
	pcm := sine(1000, 220, 22050)
	tests := []struct {
		name   string
		target int
	}{
		{"shrink", 500},
		{"grow", 2000},
		{"identity", 1000},
		{"single sample", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Resample(pcm, tt.target)
			if got := len(out) / 2; got != tt.target {
				t.Errorf("Resample() produced %d samples, want %d", got, tt.target)
			}
		})
	}
}

func TestTimeStretchIdentity(t *testing.T) {
	pcm := sine(5000, 220, 22050)
	out := TimeStretch(pcm, 1.0)
	if len(out) != len(pcm) {
		t.Errorf("TimeStretch(1.0) changed length: %d -> %d", len(pcm), len(out))
	}

	// Buffers shorter than one analysis window pass through untouched.
	short := sine(100, 220, 22050)
	if got := TimeStretch(short, 2.0); len(got) != len(short) {
		t.Errorf("TimeStretch on short buffer changed length: %d -> %d", len(short), len(got))
	}
}

func TestTimeStretchDuration(t *testing.T) {
	pcm := sine(22050, 220, 22050) // one second
	tests := []struct {
		name   string
		factor float64
	}{
		{"double speed", 2.0},
		{"half speed", 0.5},
		{"slightly fast", 1.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := TimeStretch(pcm, tt.factor)
			want := float64(len(pcm)) / tt.factor
			got := float64(len(out))
			// Overlap-add lands within a window of the exact target.
			if math.Abs(got-want) > 4096 {
				t.Errorf("TimeStretch(%g) length %d, want about %d", tt.factor, len(out), int(want))
			}
		})
	}
}

func TestPitchShiftPreservesDuration(t *testing.T) {
	pcm := sine(22050, 220, 22050)
	for _, factor := range []float64{0.8, 1.0, 1.3} {
		out := PitchShift(pcm, factor)
		diff := math.Abs(float64(len(out) - len(pcm)))
		if diff > 4096 {
			t.Errorf("PitchShift(%g) length %d, want about %d", factor, len(out), len(pcm))
		}
	}
}

func TestShapeAudioNeutralIsIdentity(t *testing.T) {
	audio := &Audio{Data: sine(4000, 220, 22050), SampleRate: 22050, Channels: 1}
	shaped := ShapeAudio(audio, 1.0, 1.0)
	if len(shaped.Data) != len(audio.Data) {
		t.Errorf("neutral shaping changed length: %d -> %d", len(audio.Data), len(shaped.Data))
	}
}

func TestEncodeDecodeClamps(t *testing.T) {
	samples := []float64{0, 0.5, -0.5, 2.0, -2.0}
	out := encodePCM16(samples)
	decoded := decodePCM16(out)
	if decoded[3] < 0.99 {
		t.Errorf("over-range sample decoded to %g, want clamp near 1", decoded[3])
	}
	if decoded[4] > -0.99 {
		t.Errorf("under-range sample decoded to %g, want clamp near -1", decoded[4])
	}
}
