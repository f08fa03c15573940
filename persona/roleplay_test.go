package persona

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/koe-sh/koe/lang"
)

func testRoleplay() *RoleplayManager {
	return NewRoleplayManager(WithRand(rand.New(rand.NewSource(1))))
}

func TestRoleplayDefaultScenarios(t *testing.T) {
	m := testRoleplay()

	want := []string{"cafe_maid", "little_sister", "girlfriend", "gaming_partner", "bedtime_story"}
	if got := m.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if m.Active() {
		t.Error("Active() = true before any Set")
	}
}

func TestRoleplaySetAndEnd(t *testing.T) {
	m := testRoleplay()

	if err := m.Set("girlfriend"); err != nil {
		t.Fatalf("Set() = %v", err)
	}
	if !m.Active() {
		t.Error("Active() = false after Set")
	}
	if s, ok := m.Current(); !ok || s.Name != "girlfriend" {
		t.Errorf("Current() = %+v, %v, want girlfriend", s, ok)
	}

	if err := m.Set(""); err != nil {
		t.Fatalf("Set(\"\") = %v", err)
	}
	if m.Active() {
		t.Error("Active() = true after ending the scenario")
	}

	if err := m.Set("no_such_scenario"); err == nil {
		t.Error("Set(no_such_scenario) = nil, want error")
	}
}

func TestRoleplayVoiceProfile(t *testing.T) {
	m := testRoleplay()

	p := m.VoiceProfile()
	if p.Name != "default_roleplay" || p.Pitch != 1.0 || p.Speed != 1.0 {
		t.Errorf("inactive profile = %+v, want default_roleplay 1.0/1.0", p)
	}

	m.Set("bedtime_story")
	p = m.VoiceProfile()
	if p.Name != "bedtime_story" || p.Pitch != 0.8 || p.Speed != 0.7 {
		t.Errorf("active profile = %+v, want bedtime_story 0.8/0.7", p)
	}
	if p.Emotion != string(lang.EmotionSleepy) {
		t.Errorf("active profile emotion = %q, want sleepy", p.Emotion)
	}
}

func TestRoleplayGreeting(t *testing.T) {
	m := testRoleplay()

	if got := m.Greeting(); got != "Hello~ How can I help you today?" {
		t.Errorf("inactive Greeting() = %q, want the generic line", got)
	}

	m.Set("cafe_maid")
	maid, _ := m.Info("cafe_maid")
	for i := 0; i < 20; i++ {
		got := m.Greeting()
		found := false
		for _, g := range maid.Greetings {
			if got == g {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("Greeting() = %q, not a cafe_maid template", got)
		}
	}
}

func TestRoleplayRespondPatterned(t *testing.T) {
	m := testRoleplay()
	m.Set("gaming_partner")

	partner, _ := m.Info("gaming_partner")
	for i := 0; i < 20; i++ {
		got := m.Respond("victory", "we won")
		found := false
		for _, tpl := range partner.Responses["victory"] {
			if strings.HasPrefix(got, tpl) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("Respond(victory) = %q, not built from a victory template", got)
		}
	}
	if m.Interactions() != 20 {
		t.Errorf("Interactions() = %d, want 20", m.Interactions())
	}
}

func TestRoleplayRespondPassthrough(t *testing.T) {
	m := testRoleplay()
	m.Set("little_sister")

	for i := 0; i < 20; i++ {
		got := m.Respond("weather", "今天天气不错")
		if !strings.HasPrefix(got, "今天天气不错") {
			t.Fatalf("Respond() = %q, want user text preserved", got)
		}
	}
	// Pass-through replies never count as scenario interactions.
	if m.Interactions() != 0 {
		t.Errorf("Interactions() = %d, want 0", m.Interactions())
	}
}

func TestRoleplayRespondInactive(t *testing.T) {
	m := testRoleplay()
	if got := m.Respond("victory", "原文"); got != "原文" {
		t.Errorf("inactive Respond() = %q, want user text unchanged", got)
	}
}

func TestRoleplaySetResetsInteractions(t *testing.T) {
	m := testRoleplay()
	m.Set("cafe_maid")
	m.Respond("order", "")
	if m.Interactions() == 0 {
		t.Fatal("Interactions() = 0 after a patterned response")
	}

	m.Set("girlfriend")
	if m.Interactions() != 0 {
		t.Errorf("Interactions() = %d after switching scenarios, want 0", m.Interactions())
	}
}

func TestRoleplayAdd(t *testing.T) {
	m := testRoleplay()

	if err := m.Add(Scenario{Name: "broken"}); err == nil {
		t.Error("Add() accepted a scenario without voice values")
	}

	custom := Scenario{
		Name:       "study_buddy",
		Kind:       KindStudyBuddy,
		Role:       "同学",
		Mood:       lang.EmotionCalm,
		VoicePitch: 1.0,
		VoiceSpeed: 1.0,
		Greetings:  []string{"一起学习吧~"},
	}
	if err := m.Add(custom); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	if err := m.Set("study_buddy"); err != nil {
		t.Fatalf("Set(study_buddy) = %v", err)
	}
	if got := m.Greeting(); got != "一起学习吧~" {
		t.Errorf("Greeting() = %q, want the custom template", got)
	}
}
