// Package host runs the live session: chat events in, personality
// responses out through the synthesis pipeline into the audio sink,
// with the latency controller keeping playback tight.
package host

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/koe-sh/koe/audio"
	"github.com/koe-sh/koe/chat"
	"github.com/koe-sh/koe/lang"
	"github.com/koe-sh/koe/persona"
	"github.com/koe-sh/koe/tts"
)

// Config holds session parameters.
type Config struct {
	// Language forces utterance language; lang.Auto detects per
	// utterance.
	Language lang.Language
	// Mode is the synthesis mode requested from the engine registry.
	Mode tts.Mode
	// LatencyTarget for the bang-bang controller. Zero selects the
	// default.
	LatencyTarget time.Duration
	// StatsInterval between stats log lines. Zero disables them.
	StatsInterval time.Duration
	// Greeting is spoken once at session start, through the active
	// personality's greeting patterns.
	Greeting bool
}

// Host wires the chat feed, personality layer and synthesis pipeline
// together.
type Host struct {
	cfg       Config
	manager   *tts.Manager
	sink      *audio.Sink
	personas  *persona.Manager
	asmr      *persona.ASMRManager
	roleplay  *persona.RoleplayManager
	responder *chat.Responder
	client    *chat.Client

	spoken atomic.Uint64
	bytes  atomic.Uint64
}

// New creates a host over already-constructed components. The chat
// client may be nil for sessions driven by Speak alone.
func New(cfg Config, manager *tts.Manager, sink *audio.Sink, personas *persona.Manager, asmr *persona.ASMRManager, roleplay *persona.RoleplayManager, client *chat.Client) *Host {
	if cfg.Mode == 0 {
		cfg.Mode = tts.ModeStreaming
	}
	if cfg.Language == "" {
		cfg.Language = lang.Auto
	}
	return &Host{
		cfg:       cfg,
		manager:   manager,
		sink:      sink,
		personas:  personas,
		asmr:      asmr,
		roleplay:  roleplay,
		responder: chat.NewResponder(),
		client:    client,
	}
}

// Run starts the sink, the chat feed and the latency controller, then
// processes events until ctx is canceled. The sink is stopped on
// return.
func (h *Host) Run(ctx context.Context) error {
	if err := h.sink.Start(); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer h.sink.Stop()

	controller := audio.NewLatencyController(h.sink, h.cfg.LatencyTarget, 0)
	go controller.Run(ctx)

	if h.cfg.StatsInterval > 0 {
		go h.logStats(ctx)
	}

	if h.cfg.Greeting {
		var greeting string
		if h.roleplay != nil && h.roleplay.Active() {
			greeting = h.roleplay.Greeting()
		} else {
			greeting = h.personas.Respond("greeting", "")
		}
		if greeting != "" {
			if err := h.Speak(ctx, greeting); err != nil {
				log.Warn("greeting failed", "err", err)
			}
		}
	}

	if h.client == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- h.client.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case ev, ok := <-h.client.Events():
			if !ok {
				return nil
			}
			h.handleEvent(ctx, ev)
		}
	}
}

func (h *Host) handleEvent(ctx context.Context, ev chat.Event) {
	text, situation := h.responder.Reply(ev)
	if text == "" {
		return
	}
	// Let the character override the generic reply when it has a
	// pattern for the situation.
	if situation != "" {
		if h.roleplay != nil && h.roleplay.Active() {
			text = h.roleplay.Respond(situation, text)
		} else {
			text = h.personas.Respond(situation, text)
		}
	}
	if err := h.Speak(ctx, text); err != nil {
		log.Warn("speaking reply failed", "event", ev.Type, "err", err)
	}
}

// Speak synthesizes text through the active personality and queues
// the audio for playback. Long utterances are split into sentences so
// audio starts flowing before the whole text is rendered.
func (h *Host) Speak(ctx context.Context, text string) error {
	// Emotion cues live partly in the emoji and repeated punctuation
	// that Normalize strips, so detect on the raw text.
	emotion := lang.PrimaryEmotion(text)
	text = lang.Normalize(text)
	if text == "" {
		return nil
	}

	language := h.cfg.Language
	if language == lang.Auto {
		language, _ = lang.Detect(text)
	}

	var profile tts.Profile
	switch {
	case h.asmr != nil && h.asmr.Active():
		text = h.asmr.Script(text)
		profile = h.asmr.VoiceProfile()
	case h.roleplay != nil && h.roleplay.Active():
		profile = h.roleplay.VoiceProfile()
	default:
		profile = h.personas.VoiceProfile(emotion)
	}

	// Keep the batch-conversion chunk size in step with whatever the
	// latency controller has tuned the sink to.
	h.manager.SetChunkBytes(h.sink.ChunkBytes())

	for _, sentence := range lang.SplitSentences(text, language) {
		if err := h.speakSentence(ctx, sentence, language, &profile); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) speakSentence(ctx context.Context, sentence string, language lang.Language, profile *tts.Profile) error {
	result, err := h.manager.Synthesize(ctx, tts.Request{
		Text:     sentence,
		Language: string(language),
		Voice:    profile,
		Mode:     h.cfg.Mode,
	})
	if err != nil {
		return err
	}

	h.spoken.Add(1)
	if result.Stream != nil {
		for chunk := range result.Stream {
			h.bytes.Add(uint64(len(chunk.Data)))
			h.sink.Enqueue(chunk.Data)
		}
		return nil
	}
	h.bytes.Add(uint64(len(result.Audio.Data)))
	h.sink.Enqueue(result.Audio.Data)
	return nil
}

func (h *Host) logStats(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sink := h.sink.Stats()
			fields := []any{
				"utterances", h.spoken.Load(),
				"audio", humanize.Bytes(h.bytes.Load()),
				"queue", sink.QueueDepth,
				"latency", sink.Latency.Round(time.Millisecond),
				"underruns", sink.Underruns,
				"dropped", sink.Dropped,
				"chunk", sink.ChunkSize,
			}
			if h.roleplay != nil && h.roleplay.Active() {
				fields = append(fields, "roleplay", h.roleplay.Interactions())
			}
			if h.client != nil {
				feed := h.client.Stats()
				fields = append(fields,
					"comments", feed.Comments,
					"gifts", feed.Gifts,
					"followers", feed.Followers,
					"likes", feed.Likes,
					"connected", feed.Connected,
				)
			}
			log.Info("session stats", fields...)
		}
	}
}
