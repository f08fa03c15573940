package chat

import (
	"strings"
	"testing"
)

func TestResponderReply(t *testing.T) {
	r := NewResponder()
	tests := []struct {
		name        string
		ev          Event
		wantText    string // substring; empty means no reply expected
		wantContext string
	}{
		{
			"greeting keyword",
			Event{Type: EventComment, User: "小明", Content: "主播你好呀"},
			"你好 小明",
			"greeting",
		},
		{
			"english keyword case folded",
			Event{Type: EventComment, User: "Sam", Content: "HELLO there"},
			"你好 Sam",
			"greeting",
		},
		{
			"compliment",
			Event{Type: EventComment, User: "阿花", Content: "今天好可爱"},
			"谢谢 阿花 的夸奖",
			"greeting",
		},
		{
			"song request",
			Event{Type: EventComment, User: "乐迷", Content: "能唱歌吗"},
			"乐迷 想听歌吗",
			"greeting",
		},
		{
			"long comment thanked",
			Event{Type: EventComment, User: "路人", Content: "这个直播间的内容很不错"},
			"谢谢 路人 的留言",
			"thanks",
		},
		{
			"short comment ignored",
			Event{Type: EventComment, User: "路人", Content: "666"},
			"",
			"",
		},
		{
			"gift thanked",
			Event{Type: EventGift, User: "老板", GiftName: "火箭", Count: 2},
			"谢谢 老板 的 火箭",
			"thanks",
		},
		{
			"follow welcomed",
			Event{Type: EventFollow, User: "新粉"},
			"欢迎 新粉 关注",
			"greeting",
		},
		{
			"likes not voiced per event",
			Event{Type: EventLike, User: "x", Count: 30},
			"",
			"",
		},
		{
			"raw not voiced",
			Event{Type: EventRaw, Content: "heartbeat"},
			"",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, context := r.Reply(tt.ev)
			if tt.wantText == "" {
				if text != "" {
					t.Errorf("Reply() = %q, want no reply", text)
				}
			} else if !strings.Contains(text, tt.wantText) {
				t.Errorf("Reply() = %q, want it to contain %q", text, tt.wantText)
			}
			if context != tt.wantContext {
				t.Errorf("context = %q, want %q", context, tt.wantContext)
			}
		})
	}
}

func TestResponderCommentLengthGate(t *testing.T) {
	r := &Responder{MinCommentLength: 3}
	text, context := r.Reply(Event{Type: EventComment, User: "u", Content: "三个字"})
	if text == "" || context != "thanks" {
		t.Errorf("Reply() = (%q, %q), want generic thanks at the gate", text, context)
	}
}
