package persona

import (
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/koe-sh/koe/lang"
)

func testManager() *Manager {
	return NewManager(WithRand(rand.New(rand.NewSource(1))))
}

func TestTraitsValidate(t *testing.T) {
	tests := []struct {
		name    string
		traits  Traits
		wantErr bool
	}{
		{"valid", Traits{Name: "a", VoicePitch: 1.0, VoiceSpeed: 1.0}, false},
		{"missing name", Traits{VoicePitch: 1.0, VoiceSpeed: 1.0}, true},
		{"zero pitch", Traits{Name: "a", VoiceSpeed: 1.0}, true},
		{"negative speed", Traits{Name: "a", VoicePitch: 1.0, VoiceSpeed: -0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.traits.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPersonalities(t *testing.T) {
	m := testManager()

	want := []string{"cute_girl", "asmr_girl", "energetic_girl", "shy_girl"}
	if got := m.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if cur := m.Current(); cur.Name != "cute_girl" {
		t.Errorf("Current() = %q, want cute_girl", cur.Name)
	}
}

func TestSetPersonality(t *testing.T) {
	m := testManager()

	if err := m.Set("asmr_girl"); err != nil {
		t.Fatalf("Set() = %v", err)
	}
	if cur := m.Current(); cur.Name != "asmr_girl" {
		t.Errorf("Current() = %q, want asmr_girl", cur.Name)
	}
	if err := m.Set("nobody"); err == nil {
		t.Error("Set(nobody) = nil, want error")
	}
	if cur := m.Current(); cur.Name != "asmr_girl" {
		t.Errorf("failed Set changed current to %q", cur.Name)
	}
}

func TestAddReplacesInPlace(t *testing.T) {
	m := testManager()
	before := len(m.Names())

	custom := Traits{Name: "cute_girl", VoicePitch: 2.0, VoiceSpeed: 1.0}
	if err := m.Add(custom); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	if got := len(m.Names()); got != before {
		t.Errorf("Names() length = %d after replace, want %d", got, before)
	}

	if err := m.Add(Traits{Name: "newcomer", VoicePitch: 1.0, VoiceSpeed: 1.0}); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	names := m.Names()
	if names[len(names)-1] != "newcomer" {
		t.Errorf("Names() = %v, want newcomer appended", names)
	}

	if err := m.Add(Traits{Name: "bad"}); err == nil {
		t.Error("Add(invalid) = nil, want error")
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestVoiceProfileEmotionModulation(t *testing.T) {
	m := testManager() // cute_girl: pitch 1.3, speed 1.1, tendency happy

	tests := []struct {
		name    string
		emotion lang.Emotion
		pitch   float64
		speed   float64
	}{
		{"neutral falls back to tendency", lang.EmotionNeutral, 1.3 * 1.1, 1.1 * 1.05},
		{"empty falls back to tendency", "", 1.3 * 1.1, 1.1 * 1.05},
		{"explicit excited", lang.EmotionExcited, 1.3 * 1.3, 1.1 * 1.2},
		{"explicit sleepy", lang.EmotionSleepy, 1.3 * 0.8, 1.1 * 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := m.VoiceProfile(tt.emotion)
			if !approx(p.Pitch, tt.pitch) || !approx(p.Speed, tt.speed) {
				t.Errorf("VoiceProfile(%q) = pitch %.3f speed %.3f, want %.3f/%.3f",
					tt.emotion, p.Pitch, p.Speed, tt.pitch, tt.speed)
			}
		})
	}

	p := m.VoiceProfile(lang.EmotionHappy)
	if p.Name != "cute_girl" || p.Gender != "female" || p.Emotion != "happy" {
		t.Errorf("profile identity = %+v", p)
	}
}

func TestVoiceProfileNoTendencyIsUnmodified(t *testing.T) {
	m := testManager()
	m.Add(Traits{Name: "plain", VoicePitch: 1.0, VoiceSpeed: 1.0})
	m.Set("plain")

	p := m.VoiceProfile(lang.EmotionNeutral)
	if !approx(p.Pitch, 1.0) || !approx(p.Speed, 1.0) {
		t.Errorf("profile = pitch %.3f speed %.3f, want identity", p.Pitch, p.Speed)
	}
}

func TestRespondPatterned(t *testing.T) {
	m := testManager()
	cur := m.Current()
	patterns := cur.Responses["greeting"]

	for i := 0; i < 20; i++ {
		got := m.Respond("greeting", "ignored")
		matched := false
		for _, p := range patterns {
			if strings.HasPrefix(got, p) {
				matched = true
				break
			}
		}
		if !matched {
			t.Fatalf("Respond() = %q, not built from any greeting pattern", got)
		}
		if got == "ignored" {
			t.Fatal("Respond() passed user text through despite a matching context")
		}
	}
}

func TestRespondPassthrough(t *testing.T) {
	m := testManager()

	for i := 0; i < 20; i++ {
		got := m.Respond("no_such_context", "原样的文本")
		if !strings.HasPrefix(got, "原样的文本") {
			t.Fatalf("Respond() = %q, want user text preserved", got)
		}
	}
}
