package tts

import (
	"fmt"
)

// Profile is a named bundle of voice-shaping parameters, independent of
// any specific engine. Profiles are immutable once constructed; to
// change a voice, build a new profile and add it under a new name.
type Profile struct {
	Name     string  `yaml:"name"`
	Gender   string  `yaml:"gender,omitempty"`    // descriptive only
	AgeRange string  `yaml:"age_range,omitempty"` // descriptive only
	Language string  `yaml:"language"`            // BCP-47 hint or "auto"
	Pitch    float64 `yaml:"pitch"`               // multiplier, 1.0 = unmodified
	Speed    float64 `yaml:"speed"`               // multiplier, 1.0 = unmodified
	Emotion  string  `yaml:"emotion,omitempty"`
	// SamplePath optionally points at a reference recording for engines
	// that support voice cloning.
	SamplePath string `yaml:"sample_path,omitempty"`
}

// Validate checks the profile's parameters. Pitch and speed must be
// strictly positive; a name is required because profiles are keyed by it.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return &ParseError{Field: "profile name", Value: ""}
	}
	if p.Pitch <= 0 {
		return fmt.Errorf("profile %s: %w", p.Name, &ParseError{Field: "pitch", Value: fmt.Sprintf("%g", p.Pitch)})
	}
	if p.Speed <= 0 {
		return fmt.Errorf("profile %s: %w", p.Name, &ParseError{Field: "speed", Value: fmt.Sprintf("%g", p.Speed)})
	}
	return nil
}

// DefaultProfiles returns the voice profiles seeded into a new Manager.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:     "cute_girl",
			Gender:   "female",
			AgeRange: "young",
			Language: "auto",
			Pitch:    1.2,
			Speed:    1.0,
			Emotion:  "cheerful",
		},
		{
			Name:     "asmr_girl",
			Gender:   "female",
			AgeRange: "young",
			Language: "auto",
			Pitch:    0.9,
			Speed:    0.8,
			Emotion:  "calm",
		},
		{
			Name:     "energetic_girl",
			Gender:   "female",
			AgeRange: "young",
			Language: "auto",
			Pitch:    1.3,
			Speed:    1.2,
			Emotion:  "excited",
		},
	}
}
