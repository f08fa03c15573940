package chat

import (
	"fmt"
	"strings"
)

// Responder turns chat events into speech-ready reply text. Replies
// are keyword-driven; an empty reply means the event should not be
// voiced.
type Responder struct {
	// MinCommentLength gates the generic fallback reply so one-word
	// comments don't each earn a thank-you.
	MinCommentLength int
}

// NewResponder creates a responder with default gating.
func NewResponder() *Responder {
	return &Responder{MinCommentLength: 6}
}

var commentReplies = []struct {
	keywords []string
	format   string
}{
	{[]string{"你好", "hello", "hi"}, "你好 %s！欢迎来到直播间！"},
	{[]string{"漂亮", "可爱", "beautiful", "cute"}, "谢谢 %s 的夸奖！你也很棒哦！"},
	{[]string{"唱歌", "sing", "song"}, "%s 想听歌吗？我来为大家唱一首！"},
	{[]string{"晚安", "goodnight", "睡觉"}, "晚安 %s！做个好梦！"},
}

// Reply builds the response for an event. The context string it also
// returns names the situation ("greeting", "thanks", ...) so a
// personality layer can substitute its own patterned response.
func (r *Responder) Reply(ev Event) (text, context string) {
	switch ev.Type {
	case EventComment:
		lower := strings.ToLower(ev.Content)
		for _, rule := range commentReplies {
			for _, kw := range rule.keywords {
				if strings.Contains(lower, kw) {
					return fmt.Sprintf(rule.format, ev.User), "greeting"
				}
			}
		}
		if len([]rune(ev.Content)) >= r.MinCommentLength {
			return fmt.Sprintf("谢谢 %s 的留言！", ev.User), "thanks"
		}
		return "", ""
	case EventGift:
		return fmt.Sprintf("谢谢 %s 的 %s！非常感谢！", ev.User, ev.GiftName), "thanks"
	case EventFollow:
		return fmt.Sprintf("欢迎 %s 关注！谢谢支持！", ev.User), "greeting"
	case EventLike:
		// Likes are acknowledged in aggregate, not per event.
		return "", ""
	default:
		return "", ""
	}
}
