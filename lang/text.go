package lang

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	urlRE        = regexp.MustCompile(`https?://\S+`)
	emailRE      = regexp.MustCompile(`\S+@\S+`)
	ellipsisRE   = regexp.MustCompile(`\.{3,}`)
	bangRE       = regexp.MustCompile(`!{2,}`)
	questionRE   = regexp.MustCompile(`\?{2,}`)
)

// Normalize prepares raw chat text for synthesis: URLs and email
// addresses are stripped, punctuation runs are collapsed, emoji and
// other symbol characters are dropped, and whitespace is folded.
func Normalize(text string) string {
	text = urlRE.ReplaceAllString(text, "")
	text = emailRE.ReplaceAllString(text, "")
	text = ellipsisRE.ReplaceAllString(text, "...")
	text = bangRE.ReplaceAllString(text, "!!")
	text = questionRE.ReplaceAllString(text, "??")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsSymbol(r) || unicode.Is(unicode.So, r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(b.String(), " "))
}

var sentenceEndings = map[Language]string{
	Chinese:  "。！？…",
	Japanese: "。！？",
	Korean:   ".!?",
	English:  ".!?",
}

// SplitSentences breaks text into sentences using the ending
// punctuation of the given language, so long utterances can be
// synthesized and queued one sentence at a time. Mixed text accepts
// both CJK and Latin endings.
func SplitSentences(text string, l Language) []string {
	endings := sentenceEndings[l]
	if endings == "" {
		endings = "。！？…" + ".!?"
	}

	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if strings.ContainsRune(endings, r) {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}
