package tts

import (
	"encoding/binary"
	"math"
)

// DSP helpers for voice shaping. Speed and pitch are separate,
// correctly-scoped operations: TimeStretch changes duration without
// shifting pitch, PitchShift changes pitch without changing duration.
// All functions operate on 16-bit little-endian mono PCM.

const (
	solaWindow  = 1024 // samples per overlap-add frame
	solaOverlap = 256  // crossfaded region between frames
	solaSeek    = 160  // search range for best alignment
)

func decodePCM16(data []byte) []float64 {
	n := len(data) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2])))
	}
	return samples
}

func encodePCM16(samples []float64) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		binary.LittleEndian.PutUint16(data[i*2:i*2+2], uint16(int16(s)))
	}
	return data
}

// resampleTo linearly interpolates samples to the target length.
func resampleTo(samples []float64, target int) []float64 {
	if target <= 0 || len(samples) == 0 {
		return nil
	}
	if target == len(samples) {
		out := make([]float64, target)
		copy(out, samples)
		return out
	}
	out := make([]float64, target)
	step := float64(len(samples)-1) / float64(target-1)
	if target == 1 {
		step = 0
	}
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// Resample stretches or compresses the buffer to a new length by linear
// interpolation. Played back at the original rate the result is both
// faster and higher (or slower and lower); use TimeStretch or
// PitchShift for the scoped operations.
func Resample(pcm []byte, targetSamples int) []byte {
	return encodePCM16(resampleTo(decodePCM16(pcm), targetSamples))
}

// TimeStretch changes playback speed by the given factor without
// shifting pitch, using synchronized overlap-add. factor > 1 shortens
// the audio, factor < 1 lengthens it. A factor of 1 (or input shorter
// than one analysis window) returns the input unchanged.
func TimeStretch(pcm []byte, factor float64) []byte {
	if factor <= 0 || factor == 1 {
		return pcm
	}
	samples := decodePCM16(pcm)
	if len(samples) < solaWindow+solaSeek {
		return pcm
	}

	synthHop := solaWindow - solaOverlap
	analysisHop := int(float64(synthHop) * factor)
	if analysisHop < 1 {
		analysisHop = 1
	}

	outLen := int(float64(len(samples)) / factor)
	out := make([]float64, 0, outLen+solaWindow)

	// Seed with the first window.
	out = append(out, samples[:solaWindow]...)

	inPos := analysisHop
	for inPos+solaWindow+solaSeek < len(samples) {
		// Search around the nominal position for the offset whose
		// start best correlates with the tail of what we have so far.
		tail := out[len(out)-solaOverlap:]
		best, bestScore := 0, math.Inf(-1)
		for off := 0; off < solaSeek; off++ {
			score := 0.0
			frame := samples[inPos+off:]
			for i := 0; i < solaOverlap; i++ {
				score += tail[i] * frame[i]
			}
			if score > bestScore {
				bestScore = score
				best = off
			}
		}

		frame := samples[inPos+best : inPos+best+solaWindow]
		// Crossfade the overlap, then append the rest.
		base := len(out) - solaOverlap
		for i := 0; i < solaOverlap; i++ {
			fade := float64(i) / float64(solaOverlap)
			out[base+i] = out[base+i]*(1-fade) + frame[i]*fade
		}
		out = append(out, frame[solaOverlap:]...)

		inPos += analysisHop
	}

	return encodePCM16(out)
}

// PitchShift shifts pitch by the given factor while preserving
// duration: the buffer is resampled (shifting pitch and duration
// together), then time-stretched back to its original length. factor >
// 1 raises pitch.
func PitchShift(pcm []byte, factor float64) []byte {
	if factor <= 0 || factor == 1 {
		return pcm
	}
	samples := len(pcm) / 2
	resampled := Resample(pcm, int(float64(samples)/factor))
	stretched := TimeStretch(resampled, 1/factor)
	return stretched
}

// ShapeAudio applies a profile's speed and pitch to a batch buffer.
// Engines with native speed or pitch controls skip the corresponding
// step by passing 1.0.
func ShapeAudio(audio *Audio, pitch, speed float64) *Audio {
	data := audio.Data
	if speed > 0 && speed != 1 {
		data = TimeStretch(data, speed)
	}
	if pitch > 0 && pitch != 1 {
		data = PitchShift(data, pitch)
	}
	return &Audio{Data: data, SampleRate: audio.SampleRate, Channels: audio.Channels}
}
