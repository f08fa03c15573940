package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Config holds the connection parameters for a chat feed.
type Config struct {
	// URL is the websocket endpoint. RoomID and Token are appended as
	// query parameters.
	URL    string
	RoomID string
	Token  string

	// PongWait is how long the read side tolerates silence before the
	// connection is considered dead. Pings go out at 90% of this.
	PongWait time.Duration

	// ReconnectMin/Max bound the exponential backoff between
	// connection attempts.
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	// EventRate and EventBurst throttle delivery to the consumer.
	// Events beyond the budget are counted as dropped, keeping a
	// flood of likes from starving the synthesis pipeline.
	EventRate  rate.Limit
	EventBurst int
}

// DefaultConfig returns the stock feed settings.
func DefaultConfig(roomID string) Config {
	return Config{
		URL:          "wss://webcast.douyin.com/webcast/im/push/v2/",
		RoomID:       roomID,
		PongWait:     30 * time.Second,
		ReconnectMin: time.Second,
		ReconnectMax: 30 * time.Second,
		EventRate:    rate.Limit(10),
		EventBurst:   20,
	}
}

// Client maintains the websocket connection, reconnecting with
// backoff, and delivers normalized events on a channel.
type Client struct {
	cfg    Config
	events chan Event

	mu   sync.Mutex
	conn *websocket.Conn

	connected  atomic.Bool
	comments   atomic.Uint64
	gifts      atomic.Uint64
	followers  atomic.Uint64
	likes      atomic.Uint64
	dropped    atomic.Uint64
	reconnects atomic.Uint64

	limiter *rate.Limiter
}

// NewClient creates a client for the given feed. Run must be called
// to start receiving.
func NewClient(cfg Config) *Client {
	if cfg.PongWait <= 0 {
		cfg.PongWait = 30 * time.Second
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = time.Second
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 30 * time.Second
	}
	if cfg.EventRate <= 0 {
		cfg.EventRate = rate.Limit(10)
	}
	if cfg.EventBurst <= 0 {
		cfg.EventBurst = 20
	}
	return &Client{
		cfg:     cfg,
		events:  make(chan Event, 64),
		limiter: rate.NewLimiter(cfg.EventRate, cfg.EventBurst),
	}
}

// Events is the stream of normalized chat events. Closed when Run
// returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parsing chat url: %w", err)
	}
	q := u.Query()
	q.Set("room_id", c.cfg.RoomID)
	if c.cfg.Token != "" {
		q.Set("token", c.cfg.Token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run connects and processes the feed until ctx is canceled,
// reconnecting with exponential backoff on failures. The events
// channel is closed on return.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	dial, err := c.dialURL()
	if err != nil {
		return err
	}
	header := http.Header{
		"User-Agent": {"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"},
		"Origin":     {"https://live.douyin.com"},
	}

	backoff := c.cfg.ReconnectMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, dial, header)
		if err != nil {
			log.Warn("chat connect failed", "room", c.cfg.RoomID, "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.cfg.ReconnectMax {
				backoff = c.cfg.ReconnectMax
			}
			c.reconnects.Add(1)
			continue
		}

		log.Info("chat connected", "room", c.cfg.RoomID)
		backoff = c.cfg.ReconnectMin
		c.setConn(conn)
		c.connected.Store(true)

		err = c.readLoop(ctx, conn)
		c.connected.Store(false)
		c.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("chat disconnected", "room", c.cfg.RoomID, "err", err)
		c.reconnects.Add(1)
	}
}

// readLoop pumps one connection. Liveness uses the standard
// ping/pong dance: pings at 90% of PongWait, read deadline pushed on
// every pong.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	pingPeriod := c.cfg.PongWait * 9 / 10
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				deadline := time.Now().Add(10 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.deliver(ctx, parseMessage(raw))
	}
}

func (c *Client) deliver(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventComment:
		c.comments.Add(1)
	case EventGift:
		c.gifts.Add(1)
	case EventFollow:
		c.followers.Add(1)
	case EventLike:
		c.likes.Add(uint64(ev.Count))
	case EventRaw:
		// Heartbeats and unknown frames are counted nowhere and not
		// forwarded.
		return
	}

	if !c.limiter.Allow() {
		c.dropped.Add(1)
		return
	}
	select {
	case c.events <- ev:
	case <-ctx.Done():
	default:
		c.dropped.Add(1)
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// Send writes a chat message back to the feed. Fails when not
// connected.
func (c *Client) Send(text string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("chat not connected")
	}

	payload, err := json.Marshal(map[string]any{
		"type":      "chat",
		"content":   text,
		"timestamp": float64(time.Now().UnixNano()) / 1e9,
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// Stats returns a snapshot of the feed counters.
func (c *Client) Stats() Stats {
	return Stats{
		Comments:   c.comments.Load(),
		Gifts:      c.gifts.Load(),
		Followers:  c.followers.Load(),
		Likes:      c.likes.Load(),
		Dropped:    c.dropped.Load(),
		Reconnects: c.reconnects.Load(),
		Connected:  c.connected.Load(),
	}
}

// ResetStats clears the feed counters.
func (c *Client) ResetStats() {
	c.comments.Store(0)
	c.gifts.Store(0)
	c.followers.Store(0)
	c.likes.Store(0)
	c.dropped.Store(0)
	c.reconnects.Store(0)
}
