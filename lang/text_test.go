package lang

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strip url", "check https://example.com now", "check now"},
		{"strip email", "mail me@example.com please", "mail please"},
		{"collapse ellipsis", "wow......", "wow..."},
		{"collapse bangs", "yes!!!!", "yes!!"},
		{"collapse questions", "why????", "why??"},
		{"drop emoji", "你好😀世界", "你好 世界"},
		{"fold whitespace", "a   b\t c", "a b c"},
		{"trim", "  hello  ", "hello"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		lang Language
		want []string
	}{
		{
			"chinese",
			"你好。今天天气不错！出门吗？",
			Chinese,
			[]string{"你好。", "今天天气不错！", "出门吗？"},
		},
		{
			"english",
			"Hello world. How are you? Fine!",
			English,
			[]string{"Hello world.", "How are you?", "Fine!"},
		},
		{
			"trailing fragment kept",
			"first. and then",
			English,
			[]string{"first.", "and then"},
		},
		{
			"mixed accepts both ending sets",
			"你好。ok then.",
			Mixed,
			[]string{"你好。", "ok then."},
		},
		{
			"no endings",
			"just one piece",
			English,
			[]string{"just one piece"},
		},
		{
			"empty",
			"",
			Chinese,
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitSentences(tt.text, tt.lang); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q, %q) = %q, want %q", tt.text, tt.lang, got, tt.want)
			}
		})
	}
}
