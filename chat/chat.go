// Package chat connects to a live-stream chat feed over websocket and
// turns platform messages into typed events for the host loop.
package chat

import (
	"encoding/json"
	"time"
)

// EventType classifies a chat event.
type EventType string

const (
	EventComment EventType = "comment"
	EventGift    EventType = "gift"
	EventFollow  EventType = "follow"
	EventLike    EventType = "like"
	EventRaw     EventType = "raw"
)

// Event is one normalized chat event.
type Event struct {
	Type      EventType
	User      string
	Content   string
	GiftName  string
	Count     int
	Timestamp time.Time
}

// Stats are cumulative feed counters.
type Stats struct {
	Comments   uint64
	Gifts      uint64
	Followers  uint64
	Likes      uint64
	Dropped    uint64
	Reconnects uint64
	Connected  bool
}

// wire structures for the platform's JSON frames.
type wireUser struct {
	Nickname string `json:"nickname"`
}

type wireGift struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type wireMessage struct {
	Type      string   `json:"type"`
	User      wireUser `json:"user"`
	Content   string   `json:"content"`
	Gift      wireGift `json:"gift"`
	Count     int      `json:"count"`
	Timestamp float64  `json:"timestamp"`
}

// parseMessage decodes one raw frame into an Event. Non-JSON frames
// come back as EventRaw rather than an error, since the platform
// interleaves binary heartbeats with JSON payloads.
func parseMessage(raw []byte) Event {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Event{Type: EventRaw, Content: string(raw), Timestamp: time.Now()}
	}

	ts := time.Now()
	if msg.Timestamp > 0 {
		sec := int64(msg.Timestamp)
		nsec := int64((msg.Timestamp - float64(sec)) * 1e9)
		ts = time.Unix(sec, nsec)
	}
	user := msg.User.Nickname
	if user == "" {
		user = "Anonymous"
	}

	switch msg.Type {
	case "chat":
		return Event{Type: EventComment, User: user, Content: msg.Content, Timestamp: ts}
	case "gift":
		count := msg.Gift.Count
		if count == 0 {
			count = 1
		}
		return Event{Type: EventGift, User: user, GiftName: msg.Gift.Name, Count: count, Timestamp: ts}
	case "follow":
		return Event{Type: EventFollow, User: user, Timestamp: ts}
	case "like":
		count := msg.Count
		if count == 0 {
			count = 1
		}
		return Event{Type: EventLike, User: user, Count: count, Timestamp: ts}
	default:
		return Event{Type: EventRaw, User: user, Content: string(raw), Timestamp: ts}
	}
}
