package chat

import (
	"testing"
	"time"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{
			"comment",
			`{"type":"chat","user":{"nickname":"小明"},"content":"你好！"}`,
			Event{Type: EventComment, User: "小明", Content: "你好！"},
		},
		{
			"comment without nickname",
			`{"type":"chat","content":"hi"}`,
			Event{Type: EventComment, User: "Anonymous", Content: "hi"},
		},
		{
			"gift",
			`{"type":"gift","user":{"nickname":"老铁"},"gift":{"name":"火箭","count":3}}`,
			Event{Type: EventGift, User: "老铁", GiftName: "火箭", Count: 3},
		},
		{
			"gift count defaults to one",
			`{"type":"gift","user":{"nickname":"a"},"gift":{"name":"玫瑰"}}`,
			Event{Type: EventGift, User: "a", GiftName: "玫瑰", Count: 1},
		},
		{
			"follow",
			`{"type":"follow","user":{"nickname":"新粉"}}`,
			Event{Type: EventFollow, User: "新粉"},
		},
		{
			"like count defaults to one",
			`{"type":"like","user":{"nickname":"b"}}`,
			Event{Type: EventLike, User: "b", Count: 1},
		},
		{
			"like with count",
			`{"type":"like","user":{"nickname":"b"},"count":15}`,
			Event{Type: EventLike, User: "b", Count: 15},
		},
		{
			"unknown type is raw",
			`{"type":"member_join","user":{"nickname":"c"}}`,
			Event{Type: EventRaw, User: "c"},
		},
		{
			"binary heartbeat is raw",
			"\x00\x01\x02",
			Event{Type: EventRaw},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMessage([]byte(tt.raw))
			if got.Type != tt.want.Type {
				t.Errorf("Type = %q, want %q", got.Type, tt.want.Type)
			}
			if got.User != tt.want.User {
				t.Errorf("User = %q, want %q", got.User, tt.want.User)
			}
			if got.Content != tt.want.Content && tt.want.Content != "" {
				t.Errorf("Content = %q, want %q", got.Content, tt.want.Content)
			}
			if got.GiftName != tt.want.GiftName {
				t.Errorf("GiftName = %q, want %q", got.GiftName, tt.want.GiftName)
			}
			if got.Count != tt.want.Count {
				t.Errorf("Count = %d, want %d", got.Count, tt.want.Count)
			}
			if got.Timestamp.IsZero() {
				t.Error("Timestamp not set")
			}
		})
	}
}

func TestParseMessageTimestamp(t *testing.T) {
	got := parseMessage([]byte(`{"type":"chat","content":"x","timestamp":1700000000.5}`))
	want := time.Unix(1700000000, 5e8)
	if !got.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want)
	}
}
