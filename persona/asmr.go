package persona

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/koe-sh/koe/lang"
	"github.com/koe-sh/koe/tts"
)

// Trigger is an ASMR trigger category.
type Trigger string

const (
	TriggerWhispering        Trigger = "whispering"
	TriggerTapping           Trigger = "tapping"
	TriggerBrushing          Trigger = "brushing"
	TriggerRainSounds        Trigger = "rain_sounds"
	TriggerBreathing         Trigger = "breathing"
	TriggerRoleplay          Trigger = "roleplay"
	TriggerPersonalAttention Trigger = "personal_attention"
)

// ASMRMode is a named ASMR configuration: a slow, low-pitched voice
// plus the trigger vocabulary and script templates for one style of
// session.
type ASMRMode struct {
	Name        string       `yaml:"name"`
	DisplayName string       `yaml:"display_name,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Triggers    []Trigger    `yaml:"triggers"`
	Mood        lang.Emotion `yaml:"mood"`
	VoicePitch  float64      `yaml:"voice_pitch"`
	VoiceSpeed  float64      `yaml:"voice_speed"`
	Background  string       `yaml:"background,omitempty"`
	Scripts     []string     `yaml:"scripts,omitempty"`
}

var triggerSounds = map[Trigger][]string{
	TriggerWhispering: {"*轻声耳语*", "*温柔低语*", "*gentle whisper*", "*soft murmur*"},
	TriggerTapping:    {"*轻敲桌面*", "*指尖敲击*", "*gentle tapping*", "*finger taps*"},
	TriggerBrushing:   {"*轻柔刷拭*", "*毛刷声音*", "*gentle brushing*"},
	TriggerRainSounds: {"*雨滴声*", "*细雨绵绵*", "*rain drops*", "*gentle rain*"},
	TriggerBreathing:  {"*轻柔呼吸*", "*深呼吸*", "*gentle breathing*", "*deep breath*"},
}

// ASMRManager tracks the active ASMR mode, if any.
type ASMRManager struct {
	mu      sync.Mutex
	modes   map[string]*ASMRMode
	order   []string
	current *ASMRMode
	rng     *rand.Rand
}

// NewASMRManager creates a manager with the default modes and no
// active mode.
func NewASMRManager(opts ...Option) *ASMRManager {
	// Option is shared with Manager; only WithRand applies here.
	probe := &Manager{}
	for _, opt := range opts {
		opt(probe)
	}
	rng := probe.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m := &ASMRManager{
		modes: make(map[string]*ASMRMode),
		rng:   rng,
	}
	for _, mode := range defaultASMRModes() {
		mode := mode
		m.modes[mode.Name] = &mode
		m.order = append(m.order, mode.Name)
	}
	return m
}

// Set activates a mode. An empty name deactivates ASMR.
func (m *ASMRManager) Set(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		m.current = nil
		return nil
	}
	mode, ok := m.modes[name]
	if !ok {
		return fmt.Errorf("asmr mode %q not found", name)
	}
	m.current = mode
	log.Info("switched asmr mode", "name", name)
	return nil
}

// Active reports whether an ASMR mode is in effect.
func (m *ASMRManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Names lists available mode names.
func (m *ASMRManager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// VoiceProfile returns the synthesis profile for the active mode, or
// a generic soft profile when none is set.
func (m *ASMRManager) VoiceProfile() tts.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return tts.Profile{
			Name:     "default_asmr",
			Gender:   "female",
			AgeRange: "young",
			Pitch:    0.8,
			Speed:    0.6,
			Emotion:  string(lang.EmotionCalm),
		}
	}
	return tts.Profile{
		Name:     m.current.Name,
		Gender:   "female",
		AgeRange: "young",
		Pitch:    m.current.VoicePitch,
		Speed:    m.current.VoiceSpeed,
		Emotion:  string(m.current.Mood),
	}
}

// Script produces ASMR-flavored speech text. Base text is enhanced
// with trigger sounds; empty base text draws from the mode's script
// templates. Whisper-triggered text has sentence endings softened to
// trailing pauses.
func (m *ASMRManager) Script(base string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return base
	}
	trigger := m.current.Triggers[m.rng.Intn(len(m.current.Triggers))]
	sounds := triggerSounds[trigger]

	if base == "" {
		if len(m.current.Scripts) == 0 {
			return "轻轻地... 放松一下... Gently... just relax..."
		}
		base = m.current.Scripts[m.rng.Intn(len(m.current.Scripts))]
	}
	if len(sounds) > 0 && m.rng.Float64() < 0.7 {
		base += " " + sounds[m.rng.Intn(len(sounds))]
	}
	if trigger == TriggerWhispering {
		base = strings.ReplaceAll(base, "。", "... ")
		base = strings.ReplaceAll(base, ".", "... ")
	}
	return base
}

func defaultASMRModes() []ASMRMode {
	return []ASMRMode{
		{
			Name:        "gentle_whisper",
			DisplayName: "温柔耳语",
			Description: "轻柔的耳语声，让人放松入睡",
			Triggers:    []Trigger{TriggerWhispering, TriggerBreathing},
			Mood:        lang.EmotionSleepy,
			VoicePitch:  0.7,
			VoiceSpeed:  0.5,
			Scripts: []string{
				"轻轻地... 闭上眼睛... 听我的声音...",
				"慢慢地... 深呼吸... 放松你的身体...",
				"Gently... close your eyes... listen to my voice...",
			},
		},
		{
			Name:        "personal_attention",
			DisplayName: "个人关怀",
			Description: "贴心的个人关怀，像姐姐一样照顾你",
			Triggers:    []Trigger{TriggerPersonalAttention, TriggerWhispering},
			Mood:        lang.EmotionLove,
			VoicePitch:  0.9,
			VoiceSpeed:  0.7,
			Scripts: []string{
				"你今天辛苦了... 让我来照顾你...",
				"You've worked hard today... let me take care of you...",
			},
		},
		{
			Name:        "rain_nature",
			DisplayName: "雨声自然",
			Description: "配合雨声和自然音效的放松模式",
			Triggers:    []Trigger{TriggerRainSounds, TriggerWhispering},
			Mood:        lang.EmotionCalm,
			VoicePitch:  0.8,
			VoiceSpeed:  0.6,
			Background:  "rain",
			Scripts: []string{
				"听... 外面下雨了... 很舒服对吧...",
				"Listen... it's raining outside... so peaceful...",
			},
		},
		{
			Name:        "tapping_sounds",
			DisplayName: "敲击音效",
			Description: "各种敲击和触摸音效，刺激听觉",
			Triggers:    []Trigger{TriggerTapping, TriggerBrushing},
			Mood:        lang.EmotionCalm,
			VoicePitch:  0.9,
			VoiceSpeed:  0.8,
			Scripts: []string{
				"听听这个声音... 很舒服吧...",
				"Listen to this sound... so soothing...",
			},
		},
	}
}
