package tts

import (
	"errors"
	"testing"
)

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{name: "valid", profile: Profile{Name: "x", Pitch: 1.0, Speed: 1.0}},
		{name: "missing name", profile: Profile{Pitch: 1.0, Speed: 1.0}, wantErr: true},
		{name: "zero pitch", profile: Profile{Name: "x", Pitch: 0, Speed: 1.0}, wantErr: true},
		{name: "negative pitch", profile: Profile{Name: "x", Pitch: -1.2, Speed: 1.0}, wantErr: true},
		{name: "zero speed", profile: Profile{Name: "x", Pitch: 1.0, Speed: 0}, wantErr: true},
		{name: "negative speed", profile: Profile{Name: "x", Pitch: 1.0, Speed: -0.5}, wantErr: true},
		{name: "extreme but positive", profile: Profile{Name: "x", Pitch: 0.01, Speed: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Errorf("Validate() error = %v, want *ParseError in chain", err)
				}
			}
		})
	}
}

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()
	want := map[string]struct{ pitch, speed float64 }{
		"cute_girl":      {1.2, 1.0},
		"asmr_girl":      {0.9, 0.8},
		"energetic_girl": {1.3, 1.2},
	}
	if len(profiles) != len(want) {
		t.Fatalf("got %d default profiles, want %d", len(profiles), len(want))
	}
	for _, p := range profiles {
		w, ok := want[p.Name]
		if !ok {
			t.Errorf("unexpected default profile %q", p.Name)
			continue
		}
		if p.Pitch != w.pitch || p.Speed != w.speed {
			t.Errorf("%s = pitch %g speed %g, want pitch %g speed %g", p.Name, p.Pitch, p.Speed, w.pitch, w.speed)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("default profile %s invalid: %v", p.Name, err)
		}
	}
}

func TestAudioDuration(t *testing.T) {
	// 22050 samples of mono PCM16 is exactly one second.
	a := &Audio{Data: make([]byte, 22050*2), SampleRate: 22050, Channels: 1}
	if got := a.Duration().Seconds(); got < 0.999 || got > 1.001 {
		t.Errorf("Duration() = %gs, want 1s", got)
	}
}
