// Package persona models the streamer characters the host speaks as:
// voice traits, catchphrases and canned response patterns per
// personality, with emotion-driven pitch and speed modulation.
package persona

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/koe-sh/koe/lang"
	"github.com/koe-sh/koe/tts"
)

// Traits describes one personality.
type Traits struct {
	Name            string              `yaml:"name"`
	DisplayName     string              `yaml:"display_name,omitempty"`
	Description     string              `yaml:"description,omitempty"`
	VoicePitch      float64             `yaml:"voice_pitch"`
	VoiceSpeed      float64             `yaml:"voice_speed"`
	EmotionTendency lang.Emotion        `yaml:"emotion_tendency,omitempty"`
	SpeakingStyle   string              `yaml:"speaking_style,omitempty"`
	Catchphrases    []string            `yaml:"catchphrases,omitempty"`
	Responses       map[string][]string `yaml:"responses,omitempty"`
	SamplePath      string              `yaml:"sample_path,omitempty"`
}

// Validate checks a personality for usable values.
func (t *Traits) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("personality name is required")
	}
	if t.VoicePitch <= 0 || t.VoiceSpeed <= 0 {
		return fmt.Errorf("personality %q: pitch and speed must be positive", t.Name)
	}
	return nil
}

// emotionModifiers scale the base voice per emotional state.
var emotionModifiers = map[lang.Emotion]lang.VoiceAdjustment{
	lang.EmotionHappy:     {Pitch: 1.1, Speed: 1.05},
	lang.EmotionExcited:   {Pitch: 1.3, Speed: 1.2},
	lang.EmotionCalm:      {Pitch: 0.9, Speed: 0.8},
	lang.EmotionPlayful:   {Pitch: 1.2, Speed: 1.1},
	lang.EmotionSleepy:    {Pitch: 0.8, Speed: 0.7},
	lang.EmotionSurprised: {Pitch: 1.4, Speed: 1.3},
	lang.EmotionLove:      {Pitch: 0.95, Speed: 0.85},
	lang.EmotionSad:       {Pitch: 0.85, Speed: 0.8},
	lang.EmotionAngry:     {Pitch: 1.1, Speed: 1.15},
}

const (
	// Probability of appending a catchphrase to a patterned response.
	catchphraseChance = 0.3
	// Probability of appending one to pass-through text.
	passthroughChance = 0.2
)

// Manager holds the personality set and the active selection.
type Manager struct {
	mu       sync.Mutex
	personas map[string]*Traits
	order    []string
	current  *Traits
	rng      *rand.Rand
}

// Option configures a Manager.
type Option func(*Manager)

// WithRand sets the random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) { m.rng = r }
}

// NewManager creates a manager seeded with the default personalities.
// The first default becomes current.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		personas: make(map[string]*Traits),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, t := range defaultPersonalities() {
		t := t
		m.personas[t.Name] = &t
		m.order = append(m.order, t.Name)
	}
	m.current = m.personas[m.order[0]]
	log.Debug("loaded default personalities", "count", len(m.order))
	return m
}

// Add registers a personality. An existing entry with the same name
// is replaced.
func (m *Manager) Add(t Traits) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.personas[t.Name]; !exists {
		m.order = append(m.order, t.Name)
	}
	m.personas[t.Name] = &t
	return nil
}

// Set switches the active personality.
func (m *Manager) Set(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.personas[name]
	if !ok {
		return fmt.Errorf("personality %q not found", name)
	}
	m.current = t
	log.Info("switched personality", "name", name)
	return nil
}

// Current returns a copy of the active personality.
func (m *Manager) Current() Traits {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.current
}

// Names lists personalities in registration order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// VoiceProfile builds the synthesis profile for the active
// personality under the given emotion. EmotionNeutral falls back to
// the personality's own tendency.
func (m *Manager) VoiceProfile(emotion lang.Emotion) tts.Profile {
	m.mu.Lock()
	t := m.current
	m.mu.Unlock()

	pitch, speed := t.VoicePitch, t.VoiceSpeed
	effective := emotion
	if effective == lang.EmotionNeutral || effective == "" {
		effective = t.EmotionTendency
	}
	if mod, ok := emotionModifiers[effective]; ok {
		pitch *= mod.Pitch
		speed *= mod.Speed
	}

	return tts.Profile{
		Name:       t.Name,
		Gender:     "female",
		AgeRange:   "young",
		Pitch:      pitch,
		Speed:      speed,
		Emotion:    string(effective),
		SamplePath: t.SamplePath,
	}
}

// Respond produces what the personality says for a context key
// ("greeting", "thanks", ...). A patterned response is chosen at
// random when the personality has one for the context; otherwise the
// user text passes through. Catchphrases are sprinkled in
// probabilistically either way.
func (m *Manager) Respond(context, userText string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.current
	if patterns := t.Responses[context]; len(patterns) > 0 {
		response := patterns[m.rng.Intn(len(patterns))]
		if len(t.Catchphrases) > 0 && m.rng.Float64() < catchphraseChance {
			response += " " + t.Catchphrases[m.rng.Intn(len(t.Catchphrases))]
		}
		return response
	}
	if len(t.Catchphrases) > 0 && m.rng.Float64() < passthroughChance {
		return userText + " " + t.Catchphrases[m.rng.Intn(len(t.Catchphrases))]
	}
	return userText
}

func defaultPersonalities() []Traits {
	return []Traits{
		{
			Name:            "cute_girl",
			DisplayName:     "可爱小萌妹",
			Description:     "甜美可爱的小女孩，声音清脆，喜欢用可爱的语气说话",
			VoicePitch:      1.3,
			VoiceSpeed:      1.1,
			EmotionTendency: lang.EmotionHappy,
			SpeakingStyle:   "cute",
			Catchphrases: []string{
				"哇~", "好棒哦~", "嘻嘻~", "么么哒~", "好开心呀~",
				"Wow~", "So cool~", "Hehe~",
			},
			Responses: map[string][]string{
				"greeting": {
					"大家好呀~ 我是你们的小萌妹~",
					"嗨嗨~ 今天大家都好吗？",
					"Hello everyone~ I'm your cute little host~",
				},
				"thanks": {
					"谢谢大家的支持~ 爱你们哦~",
					"么么哒~ 你们真的太好了~",
					"Thank you so much~ Love you all~",
				},
				"excitement": {
					"哇塞~ 太棒了！",
					"好激动呀~ 心跳加速了~",
				},
			},
		},
		{
			Name:            "asmr_girl",
			DisplayName:     "温柔ASMR姐姐",
			Description:     "声音轻柔温和，专门做ASMR内容，让人放松",
			VoicePitch:      0.9,
			VoiceSpeed:      0.7,
			EmotionTendency: lang.EmotionCalm,
			SpeakingStyle:   "gentle",
			Catchphrases: []string{
				"轻轻的~", "慢慢来~", "放松~", "很舒服~",
				"Gently~", "Relax~",
			},
			Responses: map[string][]string{
				"greeting": {
					"大家好... 欢迎来到我的直播间... 让我们一起放松一下吧...",
					"Hello everyone... Welcome to my stream... Let's relax together...",
				},
				"goodnight": {
					"晚安... 做个好梦...",
					"Good night... Sweet dreams...",
					"轻轻地... 闭上眼睛... 睡个好觉...",
				},
			},
		},
		{
			Name:            "energetic_girl",
			DisplayName:     "活力满满小姐姐",
			Description:     "充满活力和热情，说话快速有节奏",
			VoicePitch:      1.4,
			VoiceSpeed:      1.3,
			EmotionTendency: lang.EmotionExcited,
			SpeakingStyle:   "energetic",
			Catchphrases: []string{
				"冲冲冲！", "太棒了！", "加油！", "燃起来！",
				"Let's go!", "Awesome!",
			},
			Responses: map[string][]string{
				"greeting": {
					"大家好！我是你们的活力小姐姐！今天要一起嗨起来！",
					"Hello everyone! Ready to have some fun today?!",
				},
				"encouragement": {
					"加油加油！你们都是最棒的！",
					"Come on! You can do it!",
				},
				"celebration": {
					"耶！太棒了！我们做到了！",
					"Yes! That was incredible! We did it!",
				},
			},
		},
		{
			Name:            "shy_girl",
			DisplayName:     "害羞小妹妹",
			Description:     "性格害羞内向，说话轻声细语，容易脸红",
			VoicePitch:      1.1,
			VoiceSpeed:      0.9,
			EmotionTendency: lang.EmotionCalm,
			SpeakingStyle:   "shy",
			Catchphrases: []string{
				"那个...", "嗯...", "有点害羞...",
				"Um...", "I'm a bit shy...",
			},
			Responses: map[string][]string{
				"greeting": {
					"那个... 大家好... 我有点紧张...",
					"Um... Hello everyone... I'm a bit nervous...",
				},
				"compliment_received": {
					"诶？真的吗... 谢谢... 好害羞...",
					"Really? Thank you... I'm blushing...",
				},
			},
		},
	}
}
