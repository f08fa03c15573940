// Package lang handles language detection and emotion analysis for
// mixed Chinese/English chat text. Detection is script-based with a
// BCP 47 matcher for explicit overrides; emotion analysis scores
// keyword, pattern and punctuation evidence.
package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Language identifies the dominant script of a piece of text.
type Language string

const (
	Chinese  Language = "zh"
	English  Language = "en"
	Japanese Language = "ja"
	Korean   Language = "ko"
	Mixed    Language = "mixed"
	Unknown  Language = "unknown"
	// Auto asks the pipeline to detect per utterance.
	Auto Language = "auto"
)

// mixedThreshold is the share of counted characters a second script
// needs before the text is classified as mixed.
const mixedThreshold = 0.2

var supported = []language.Tag{
	language.Chinese,
	language.English,
	language.Japanese,
	language.Korean,
}

var matcher = language.NewMatcher(supported)

// Parse resolves a user-supplied language string ("zh", "en-US",
// "auto", ...) to a Language. Unrecognized values map to Unknown.
func Parse(s string) Language {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "auto":
		return Auto
	case "mixed":
		return Mixed
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Unknown
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Unknown
	}
	switch supported[idx] {
	case language.Chinese:
		return Chinese
	case language.English:
		return English
	case language.Japanese:
		return Japanese
	case language.Korean:
		return Korean
	}
	return Unknown
}

func scriptOf(r rune) Language {
	switch {
	case unicode.Is(unicode.Han, r):
		return Chinese
	case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
		return Japanese
	case unicode.Is(unicode.Hangul, r):
		return Korean
	case r < 128 && unicode.IsLetter(r):
		return English
	default:
		return Unknown
	}
}

// Detect classifies text by counting script membership per rune.
// Returns the dominant language and its share of counted characters.
// Kanji inside Japanese text counts toward Chinese, so text with any
// kana present is classified Japanese outright. Two scripts above the
// mixed threshold yield Mixed.
func Detect(text string) (Language, float64) {
	counts := map[Language]int{}
	total := 0
	for _, r := range text {
		l := scriptOf(r)
		if l == Unknown {
			continue
		}
		counts[l]++
		total++
	}
	if total == 0 {
		return Unknown, 0
	}

	// Kana is unambiguous; Han characters are shared with Chinese.
	if counts[Japanese] > 0 {
		counts[Japanese] += counts[Chinese]
		delete(counts, Chinese)
	}

	primary, best := Unknown, 0
	significant := 0
	for l, n := range counts {
		if n > best {
			primary, best = l, n
		}
		if float64(n)/float64(total) > mixedThreshold {
			significant++
		}
	}
	confidence := float64(best) / float64(total)
	if significant > 1 {
		return Mixed, confidence
	}
	return primary, confidence
}
