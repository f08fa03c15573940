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

// ScenarioKind classifies a roleplay scenario.
type ScenarioKind string

const (
	KindCafeMaid          ScenarioKind = "cafe_maid"
	KindLittleSister      ScenarioKind = "little_sister"
	KindGirlfriend        ScenarioKind = "girlfriend"
	KindStudyBuddy        ScenarioKind = "study_buddy"
	KindGamingPartner     ScenarioKind = "gaming_partner"
	KindBedtimeStory      ScenarioKind = "bedtime_story"
	KindMorningGreeting   ScenarioKind = "morning_greeting"
	KindCookingTogether   ScenarioKind = "cooking_together"
	KindShoppingCompanion ScenarioKind = "shopping_companion"
	KindWorkoutTrainer    ScenarioKind = "workout_trainer"
)

// Scenario is one roleplay setup: a character in a setting, a voice
// adjusted to the part, and the template lines the character draws
// from. Responses is keyed by situation ("order", "sleepy", ...).
type Scenario struct {
	Name        string              `yaml:"name"`
	DisplayName string              `yaml:"display_name,omitempty"`
	Description string              `yaml:"description,omitempty"`
	Kind        ScenarioKind        `yaml:"kind"`
	Role        string              `yaml:"role"`
	Setting     string              `yaml:"setting,omitempty"`
	Mood        lang.Emotion        `yaml:"mood"`
	VoicePitch  float64             `yaml:"voice_pitch"`
	VoiceSpeed  float64             `yaml:"voice_speed"`
	Greetings   []string            `yaml:"greetings,omitempty"`
	Responses   map[string][]string `yaml:"responses,omitempty"`
	Actions     []string            `yaml:"actions,omitempty"`
}

// Validate checks a scenario for usable values.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.VoicePitch <= 0 || s.VoiceSpeed <= 0 {
		return fmt.Errorf("scenario %q: pitch and speed must be positive", s.Name)
	}
	return nil
}

const (
	// Probability of appending an action line to a patterned response.
	actionChance = 0.3
	// Probability of appending one to pass-through text.
	actionPassthroughChance = 0.2
)

// RoleplayManager tracks the scenario set and the active selection,
// if any. No scenario is active until Set is called.
type RoleplayManager struct {
	mu           sync.Mutex
	scenarios    map[string]*Scenario
	order        []string
	current      *Scenario
	interactions int
	rng          *rand.Rand
}

// NewRoleplayManager creates a manager with the default scenarios and
// nothing active.
func NewRoleplayManager(opts ...Option) *RoleplayManager {
	// Option is shared with Manager; only WithRand applies here.
	probe := &Manager{}
	for _, opt := range opts {
		opt(probe)
	}
	rng := probe.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m := &RoleplayManager{
		scenarios: make(map[string]*Scenario),
		rng:       rng,
	}
	for _, s := range defaultScenarios() {
		s := s
		m.scenarios[s.Name] = &s
		m.order = append(m.order, s.Name)
	}
	log.Debug("loaded roleplay scenarios", "count", len(m.order))
	return m
}

// Add registers a scenario. An existing entry with the same name is
// replaced.
func (m *RoleplayManager) Add(s Scenario) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.scenarios[s.Name]; !exists {
		m.order = append(m.order, s.Name)
	}
	m.scenarios[s.Name] = &s
	return nil
}

// Set activates a scenario and resets the interaction count. An empty
// name ends roleplay.
func (m *RoleplayManager) Set(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		if m.current != nil {
			log.Info("ending roleplay scenario", "name", m.current.Name)
		}
		m.current = nil
		m.interactions = 0
		return nil
	}
	s, ok := m.scenarios[name]
	if !ok {
		return fmt.Errorf("roleplay scenario %q not found", name)
	}
	m.current = s
	m.interactions = 0
	log.Info("switched roleplay scenario", "name", name, "role", s.Role)
	return nil
}

// Active reports whether a scenario is in effect.
func (m *RoleplayManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Names lists scenarios in registration order.
func (m *RoleplayManager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Info returns a copy of a scenario by name and whether it exists.
func (m *RoleplayManager) Info(name string) (Scenario, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scenarios[name]
	if !ok {
		return Scenario{}, false
	}
	return *s, true
}

// Current returns a copy of the active scenario and whether one is
// set.
func (m *RoleplayManager) Current() (Scenario, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Scenario{}, false
	}
	return *m.current, true
}

// Interactions counts patterned responses since the scenario started.
func (m *RoleplayManager) Interactions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interactions
}

// Greeting returns an in-character opening line for the active
// scenario, or a generic one when nothing is active.
func (m *RoleplayManager) Greeting() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || len(m.current.Greetings) == 0 {
		return "Hello~ How can I help you today?"
	}
	return m.current.Greetings[m.rng.Intn(len(m.current.Greetings))]
}

// Respond produces what the character says for a situation key. A
// template response is chosen at random when the scenario has one for
// the situation; otherwise the user text passes through. Action lines
// are appended probabilistically either way.
func (m *RoleplayManager) Respond(situation, userText string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return userText
	}
	if templates := m.current.Responses[situation]; len(templates) > 0 {
		response := templates[m.rng.Intn(len(templates))]
		if len(m.current.Actions) > 0 && m.rng.Float64() < actionChance {
			response += " " + m.current.Actions[m.rng.Intn(len(m.current.Actions))]
		}
		m.interactions++
		return response
	}
	if len(m.current.Actions) > 0 && m.rng.Float64() < actionPassthroughChance {
		return userText + " " + m.current.Actions[m.rng.Intn(len(m.current.Actions))]
	}
	return userText
}

// VoiceProfile returns the synthesis profile for the active scenario,
// or a neutral profile when none is set.
func (m *RoleplayManager) VoiceProfile() tts.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return tts.Profile{
			Name:     "default_roleplay",
			Gender:   "female",
			AgeRange: "young",
			Pitch:    1.0,
			Speed:    1.0,
			Emotion:  string(lang.EmotionNeutral),
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

func defaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "cafe_maid",
			DisplayName: "咖啡厅女仆",
			Description: "可爱的女仆在咖啡厅为客人服务",
			Kind:        KindCafeMaid,
			Role:        "女仆",
			Setting:     "咖啡厅",
			Mood:        lang.EmotionHappy,
			VoicePitch:  1.2,
			VoiceSpeed:  1.0,
			Greetings: []string{
				"欢迎光临主人~ 今天想要点什么呢？",
				"主人好~ 我是您专属的女仆，请多多指教~",
				"Welcome master~ What would you like to order today?",
				"Master~ I'm your dedicated maid, please take care of me~",
			},
			Responses: map[string][]string{
				"order": {
					"好的主人~ 马上为您准备~",
					"了解~ 请稍等一下哦~",
					"Yes master~ I'll prepare it right away~",
				},
				"compliment": {
					"谢谢主人的夸奖~ 人家好开心~",
					"主人真是太好了~ 嘻嘻~",
					"Thank you master~ I'm so happy~",
				},
				"goodbye": {
					"谢谢主人的光临~ 期待下次见面~",
					"主人慢走~ 记得想念我哦~",
					"Thank you for coming master~ Looking forward to seeing you again~",
				},
			},
			Actions: []string{
				"*鞠躬* 为主人服务是我的荣幸~",
				"*端茶* 请慢用主人~",
				"*微笑* 主人今天也很帅气呢~",
			},
		},
		{
			Name:        "little_sister",
			DisplayName: "可爱妹妹",
			Description: "撒娇的小妹妹，很依赖哥哥",
			Kind:        KindLittleSister,
			Role:        "妹妹",
			Setting:     "家里",
			Mood:        lang.EmotionPlayful,
			VoicePitch:  1.3,
			VoiceSpeed:  1.1,
			Greetings: []string{
				"哥哥~ 你回来啦~ 我好想你哦~",
				"哥哥哥哥~ 快来陪我玩~",
				"Big brother~ You're back~ I missed you so much~",
				"Brother brother~ Come play with me~",
			},
			Responses: map[string][]string{
				"praise": {
					"嘻嘻~ 哥哥最好了~",
					"哥哥夸我我好开心~ 么么哒~",
					"Hehe~ Brother is the best~",
				},
				"request": {
					"哥哥~ 可以帮我做这个吗？",
					"拜托拜托~ 哥哥最厉害了~",
					"Brother~ Can you help me with this?",
				},
				"sleepy": {
					"哥哥... 我困了... 陪我睡觉好不好...",
					"想要哥哥的抱抱... 嗯...",
					"Brother... I'm sleepy... Can you stay with me...",
				},
			},
			Actions: []string{
				"*抱住哥哥的胳膊* 不要离开我~",
				"*撒娇* 哥哥最好了~",
				"*揉眼睛* 困困...",
			},
		},
		{
			Name:        "girlfriend",
			DisplayName: "贴心女友",
			Description: "温柔体贴的女朋友，很关心你",
			Kind:        KindGirlfriend,
			Role:        "女朋友",
			Setting:     "约会",
			Mood:        lang.EmotionLove,
			VoicePitch:  1.0,
			VoiceSpeed:  0.9,
			Greetings: []string{
				"亲爱的~ 今天辛苦了~ 我来陪你~",
				"宝贝~ 想我了吗？我超级想你的~",
				"Darling~ You worked hard today~ I'm here for you~",
				"Baby~ Did you miss me? I missed you so much~",
			},
			Responses: map[string][]string{
				"tired": {
					"辛苦了宝贝~ 来我这里休息一下~",
					"让我给你按按肩膀~ 放松一下~",
					"You worked hard baby~ Come rest here with me~",
				},
				"love": {
					"我也爱你~ 永远爱你~",
					"你是我最重要的人~",
					"I love you too~ Forever and always~",
				},
				"date": {
					"今天想去哪里呢？我都想和你一起~",
					"只要和你在一起，去哪里都开心~",
					"Where do you want to go today? I want to be with you~",
				},
			},
			Actions: []string{
				"*温柔地抚摸你的头* 乖~",
				"*紧紧抱住* 不要离开我~",
				"*亲吻* 爱你~",
			},
		},
		{
			Name:        "gaming_partner",
			DisplayName: "游戏搭档",
			Description: "一起打游戏的可爱队友",
			Kind:        KindGamingPartner,
			Role:        "队友",
			Setting:     "游戏中",
			Mood:        lang.EmotionExcited,
			VoicePitch:  1.2,
			VoiceSpeed:  1.2,
			Greetings: []string{
				"队友！准备好一起上分了吗？",
				"来来来！我们一起carry全场！",
				"Teammate! Ready to rank up together?",
				"Let's go! We're gonna carry this game!",
			},
			Responses: map[string][]string{
				"victory": {
					"耶！我们赢了！太棒了！",
					"哇！配合得真好！再来一局！",
					"Yes! We won! Amazing!",
				},
				"defeat": {
					"没关系~ 下一局我们一定能赢！",
					"失败是成功之母~ 加油！",
					"It's okay~ We'll win the next one!",
				},
				"strategy": {
					"我觉得我们应该这样打...",
					"跟着我！我有个好计划！",
					"Follow me! I have a good plan!",
				},
			},
			Actions: []string{
				"*兴奋地跳起来* 太厉害了！",
				"*握拳* 冲冲冲！",
				"*比心* 队友最棒！",
			},
		},
		{
			Name:        "bedtime_story",
			DisplayName: "睡前故事",
			Description: "温柔地讲睡前故事，帮助入睡",
			Kind:        KindBedtimeStory,
			Role:        "故事姐姐",
			Setting:     "卧室",
			Mood:        lang.EmotionSleepy,
			VoicePitch:  0.8,
			VoiceSpeed:  0.7,
			Greetings: []string{
				"小宝贝~ 该睡觉了~ 我来给你讲个故事吧~",
				"今晚想听什么故事呢？我有很多好听的故事哦~",
				"Little one~ Time for bed~ Let me tell you a story~",
				"What story would you like to hear tonight?",
			},
			Responses: map[string][]string{
				"story_start": {
					"很久很久以前... 在一个美丽的地方...",
					"从前有一个... 非常可爱的...",
					"Once upon a time... in a beautiful place...",
				},
				"sleepy": {
					"慢慢地... 闭上眼睛... 进入梦乡...",
					"睡吧睡吧... 做个好梦...",
					"Slowly... close your eyes... drift into dreams...",
				},
				"goodnight": {
					"晚安小宝贝~ 做个甜甜的梦~",
					"明天见~ 愿你有个美好的夜晚~",
					"Good night little one~ Sweet dreams~",
				},
			},
			Actions: []string{
				"*轻抚你的头* 乖乖睡觉~",
				"*轻声哼唱摇篮曲*",
				"*温柔地盖被子* 暖暖的~",
			},
		},
	}
}
