package lang

import (
	"regexp"
	"sort"
	"strings"
)

// Emotion is a detected emotional tone.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionExcited   Emotion = "excited"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionCalm      Emotion = "calm"
	EmotionLove      Emotion = "love"
	EmotionSleepy    Emotion = "sleepy"
	EmotionPlayful   Emotion = "playful"
	EmotionNeutral   Emotion = "neutral"
)

// EmotionScore pairs an emotion with its confidence in [0, 1].
type EmotionScore struct {
	Emotion    Emotion
	Confidence float64
}

// VoiceAdjustment is the pitch/speed shift an emotion suggests,
// multiplied onto the active profile.
type VoiceAdjustment struct {
	Pitch float64
	Speed float64
}

var emotionKeywords = map[Emotion][]string{
	EmotionHappy: {
		"开心", "高兴", "快乐", "愉快", "喜悦", "幸福",
		"哈哈", "嘻嘻", "呵呵", "嘿嘿",
		"happy", "joy", "glad", "cheerful", "delighted",
		"wonderful", "haha", "hehe", "lol", "smile",
	},
	EmotionSad: {
		"伤心", "难过", "悲伤", "沮丧", "失望", "郁闷",
		"哭", "眼泪", "呜呜", "555",
		"sad", "sorrow", "upset", "depressed", "disappointed",
		"cry", "tears", "sob",
	},
	EmotionExcited: {
		"激动", "兴奋", "热血", "燃", "冲", "爽",
		"哇塞", "太棒了", "厉害", "6666",
		"excited", "thrilled", "pumped", "amazing",
		"awesome", "incredible", "fantastic",
	},
	EmotionAngry: {
		"生气", "愤怒", "气愤", "恼火", "火大", "讨厌",
		"angry", "mad", "furious", "annoyed", "irritated", "hate",
	},
	EmotionSurprised: {
		"惊讶", "震惊", "吃惊", "意外", "没想到", "天哪",
		"surprised", "shocked", "astonished", "omg", "no way",
	},
	EmotionCalm: {
		"平静", "冷静", "安静", "宁静", "放松", "舒服", "淡定",
		"calm", "peaceful", "quiet", "relaxed", "serene",
	},
	EmotionLove: {
		"爱你", "亲爱的", "宝贝", "么么哒", "亲亲", "抱抱", "甜蜜",
		"love", "adore", "honey", "sweet", "cute", "adorable",
	},
	EmotionSleepy: {
		"困", "疲惫", "想睡", "睡觉", "打哈欠", "zzz",
		"tired", "sleepy", "exhausted", "yawn", "drowsy",
	},
	EmotionPlayful: {
		"好玩", "调皮", "淘气", "搞怪", "逗", "萌",
		"playful", "silly", "funny", "tease", "joke",
	},
}

var emotionPatterns = map[Emotion][]*regexp.Regexp{
	EmotionHappy: {
		regexp.MustCompile(`[哈嘻呵嘿]{2,}`),
		regexp.MustCompile(`6{3,}`),
		regexp.MustCompile(`!{2,}`),
		regexp.MustCompile(`太.+了`),
	},
	EmotionSad: {
		regexp.MustCompile(`呜{2,}`),
		regexp.MustCompile(`5{3,}`),
		regexp.MustCompile(`T[_.]?T`),
	},
	EmotionExcited: {
		regexp.MustCompile(`哇{2,}`),
		regexp.MustCompile(`冲+[啊鸭]`),
	},
	EmotionSurprised: {
		regexp.MustCompile(`[咦诶]+`),
		regexp.MustCompile(`什么[？?!]+`),
		regexp.MustCompile(`天[哪啊][！!]*`),
	},
}

var punctuationEmotions = map[string]Emotion{
	"!!!": EmotionExcited,
	"???": EmotionSurprised,
	"...": EmotionCalm,
	"~~~": EmotionPlayful,
	"💔":   EmotionSad,
	"❤️":  EmotionLove,
	"😴":   EmotionSleepy,
	"🔥":   EmotionExcited,
}

var emotionAdjustments = map[Emotion]VoiceAdjustment{
	EmotionHappy:     {Pitch: 1.2, Speed: 1.1},
	EmotionSad:       {Pitch: 0.8, Speed: 0.8},
	EmotionExcited:   {Pitch: 1.3, Speed: 1.3},
	EmotionAngry:     {Pitch: 1.1, Speed: 1.2},
	EmotionSurprised: {Pitch: 1.4, Speed: 1.2},
	EmotionCalm:      {Pitch: 0.9, Speed: 0.8},
	EmotionLove:      {Pitch: 1.1, Speed: 0.9},
	EmotionSleepy:    {Pitch: 0.7, Speed: 0.6},
	EmotionPlayful:   {Pitch: 1.2, Speed: 1.1},
	EmotionNeutral:   {Pitch: 1.0, Speed: 1.0},
}

// DetectEmotions scores every emotion with evidence in the text,
// sorted by descending confidence. Keyword hits, pattern matches and
// punctuation runs each contribute; per-emotion confidence is the max
// of its sources, capped at 1.
func DetectEmotions(text string) []EmotionScore {
	lower := strings.ToLower(text)
	scores := map[Emotion]float64{}

	for emotion, keywords := range emotionKeywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > 0 {
			conf := float64(hits) / float64(len(keywords)) * 10
			if conf > 1 {
				conf = 1
			}
			if conf > scores[emotion] {
				scores[emotion] = conf
			}
		}
	}

	for emotion, patterns := range emotionPatterns {
		for _, p := range patterns {
			n := len(p.FindAllString(text, -1))
			if n == 0 {
				continue
			}
			conf := float64(n) * 0.3
			if conf > 1 {
				conf = 1
			}
			if conf > scores[emotion] {
				scores[emotion] = conf
			}
		}
	}

	for punct, emotion := range punctuationEmotions {
		if strings.Contains(text, punct) && scores[emotion] < 0.5 {
			scores[emotion] = 0.5
		}
	}

	out := make([]EmotionScore, 0, len(scores))
	for e, c := range scores {
		out = append(out, EmotionScore{Emotion: e, Confidence: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Emotion < out[j].Emotion
	})
	return out
}

// PrimaryEmotion returns the strongest detected emotion, or
// EmotionNeutral when the text carries no emotional evidence.
func PrimaryEmotion(text string) Emotion {
	scores := DetectEmotions(text)
	if len(scores) == 0 {
		return EmotionNeutral
	}
	return scores[0].Emotion
}

// Adjustment returns the voice shift for an emotion. Unknown emotions
// get the neutral identity adjustment.
func Adjustment(e Emotion) VoiceAdjustment {
	if adj, ok := emotionAdjustments[e]; ok {
		return adj
	}
	return VoiceAdjustment{Pitch: 1.0, Speed: 1.0}
}
