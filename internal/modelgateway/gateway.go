// Package modelgateway owns the single WebSocket connection to the model
// provider per call session (spec §4.4), hand-rolled against
// gorilla/websocket in the style of the Gemini Live API's bidirectional
// setup/parts protocol (grounded on the PromptKit Gemini provider reference
// in other_examples, since the teacher's own Gemini integration is a
// request/response REST client unsuited to a raw duplex audio socket).
package modelgateway

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/internal/voiceerr"
	"github.com/northlane/voicebridge/pkg/Logger"
)

// EventKind tags a classified inbound model event (spec §4.4 message
// parsing table).
type EventKind string

const (
	EventSetupComplete EventKind = "setupComplete"
	EventAudio         EventKind = "audio"
	EventText          EventKind = "text"
	EventTurnComplete  EventKind = "turnComplete"
	EventInterrupted   EventKind = "interrupted"
	EventToolCall      EventKind = "toolCall"
	EventFatal         EventKind = "fatal"
)

// Event is one classified unit pushed up to the call session loop.
type Event struct {
	Kind  EventKind
	Frame domain.AudioFrame // EventAudio
	Text  string            // EventText
	Tool  ToolCall          // EventToolCall
	Err   error             // EventFatal
}

// ToolCall is forwarded upward untouched; it is outside core scope but must
// not crash the parser (spec §4.4).
type ToolCall struct {
	Name string
	Args map[string]interface{}
}

const (
	modelIngressRate = 16000 // PCM sent to the model
	modelEgressRate  = 24000 // PCM received from the model
)

var reconnectSchedule = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Config configures one gateway instance; CacheHandle is used verbatim if
// domain.ValidCacheHandle accepts it, otherwise the gateway falls back to an
// inline systemInstruction and invokes the OnCacheHandleInvalid callback
// passed to New.
type Config struct {
	WSURL       string
	APIKey      string
	Model       string
	Voice       string
	VoiceSpeed  float64
	Prompt      string
	Knowledge   []string
	CacheHandle string
}

// OnCacheHandleInvalid is invoked once, synchronously, if Config.CacheHandle
// was non-empty but malformed, before the setup message is sent.
type OnCacheHandleInvalid func()

// Gateway owns one model WebSocket connection for the lifetime of a call.
type Gateway struct {
	cfg Config
	log *Logger.Logger

	mu              sync.Mutex
	conn            *websocket.Conn
	setupConfirmed  bool
	intentionalClose bool
	reconnectCount  int

	events  chan Event
	outbox  chan clientMessage
}

// New dials the model provider, sends the setup message and blocks until
// setupComplete or ctx is done.
func New(ctx context.Context, cfg Config, log *Logger.Logger, onInvalidCache OnCacheHandleInvalid) (*Gateway, error) {
	g := &Gateway{
		cfg:    cfg,
		log:    log,
		events: make(chan Event, 32),
		outbox: make(chan clientMessage, 64),
	}
	if err := g.connectAndSetup(ctx, onInvalidCache); err != nil {
		return nil, err
	}
	go g.receiveLoop(ctx)
	go g.sendLoop(ctx)
	return g, nil
}

// Events returns the channel of classified inbound events.
func (g *Gateway) Events() <-chan Event { return g.events }

func (g *Gateway) connectAndSetup(ctx context.Context, onInvalidCache OnCacheHandleInvalid) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.cfg.WSURL, nil)
	if err != nil {
		return voiceerr.New(voiceerr.KindTransport, "modelgateway.dial", err)
	}

	setup := setupMessage{
		Model:              g.cfg.Model,
		ResponseModalities: []string{"AUDIO"},
		Voice:              g.cfg.Voice,
		GenerationConfig:   generationConfig{VoiceSpeed: g.cfg.VoiceSpeed},
	}

	handle, valid := domain.NormalizeCacheHandle(g.cfg.CacheHandle)
	if !valid && onInvalidCache != nil {
		onInvalidCache()
	}
	if handle != "" {
		setup.CachedContent = handle
	} else {
		setup.SystemInstruction = &systemInstruction{
			Parts: []textPart{{Text: BuildSystemInstruction(g.cfg.Prompt, g.cfg.Knowledge)}},
		}
	}

	if err := conn.WriteJSON(struct {
		Setup setupMessage `json:"setup"`
	}{Setup: setup}); err != nil {
		conn.Close()
		return voiceerr.New(voiceerr.KindTransport, "modelgateway.sendSetup", err)
	}

	var resp serverMessage
	if err := conn.ReadJSON(&resp); err != nil {
		conn.Close()
		return voiceerr.New(voiceerr.KindTransport, "modelgateway.readSetupComplete", err)
	}
	if resp.SetupComplete == nil {
		conn.Close()
		return voiceerr.New(voiceerr.KindProtocol, "modelgateway.setupNotConfirmed", voiceerr.ErrSetupNotConfirmed)
	}

	g.mu.Lock()
	g.conn = conn
	g.setupConfirmed = true
	g.mu.Unlock()
	return nil
}

// SendAudio enqueues a 16kHz PCM16 chunk for transmission. Sending before
// setupComplete is a programming error (spec §4.4) and returns
// ErrSetupNotConfirmed without blocking.
func (g *Gateway) SendAudio(frame domain.AudioFrame) error {
	g.mu.Lock()
	confirmed := g.setupConfirmed
	g.mu.Unlock()
	if !confirmed {
		return voiceerr.ErrSetupNotConfirmed
	}

	msg := clientMessage{RealtimeInput: &realtimeInput{MediaChunks: []mediaChunk{{
		MimeType: "audio/pcm;rate=16000",
		Data:     base64.StdEncoding.EncodeToString(frame.PCM16),
	}}}}

	select {
	case g.outbox <- msg:
		return nil
	default:
		return voiceerr.ErrOutboundFull
	}
}

// SendInterrupt signals that the session is truncating the model's current
// turn due to a user barge-in.
func (g *Gateway) SendInterrupt() {
	select {
	case g.outbox <- clientMessage{ClientContent: &clientContent{Interrupt: true}}:
	default:
	}
}

// Close closes the underlying socket intentionally; the receive loop will
// not attempt to reconnect.
func (g *Gateway) Close() error {
	g.mu.Lock()
	g.intentionalClose = true
	conn := g.conn
	g.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session-ended"),
		time.Now().Add(time.Second))
	return conn.Close()
}

func (g *Gateway) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-g.outbox:
			if !ok {
				return
			}
			g.mu.Lock()
			conn := g.conn
			g.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil && g.log != nil {
				g.log.Warnf("modelgateway: write failed: %v", err)
			}
		}
	}
}

func (g *Gateway) receiveLoop(ctx context.Context) {
	for {
		g.mu.Lock()
		conn := g.conn
		g.mu.Unlock()
		if conn == nil {
			return
		}

		var resp serverMessage
		err := conn.ReadJSON(&resp)
		if err != nil {
			g.mu.Lock()
			intentional := g.intentionalClose
			g.mu.Unlock()
			if intentional {
				return
			}
			if !g.reconnect(ctx) {
				g.events <- Event{Kind: EventFatal, Err: voiceerr.New(voiceerr.KindTransport, "modelgateway.reconnectExhausted", err)}
				return
			}
			continue
		}

		g.dispatch(resp)
	}
}

func (g *Gateway) dispatch(resp serverMessage) {
	if resp.ServerContent != nil {
		sc := resp.ServerContent
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				g.classifyPart(part)
			}
		}
		if sc.TurnComplete {
			g.events <- Event{Kind: EventTurnComplete}
		}
		if sc.Interrupted {
			g.events <- Event{Kind: EventInterrupted}
		}
	}
	if resp.ToolCall != nil {
		g.events <- Event{Kind: EventToolCall, Tool: ToolCall{Name: resp.ToolCall.Name, Args: resp.ToolCall.Args}}
	}
}

func (g *Gateway) classifyPart(part serverPart) {
	if part.InlineData != nil {
		if !isAudioMime(part.InlineData.MimeType) {
			if g.log != nil {
				g.log.Warnf("modelgateway: ignoring inlineData with mime %q", part.InlineData.MimeType)
			}
			return
		}
		pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			if g.log != nil {
				g.log.Warnf("modelgateway: inlineData base64 decode failed: %v", err)
			}
			return
		}
		g.events <- Event{Kind: EventAudio, Frame: domain.AudioFrame{
			PCM16:      pcm,
			SampleRate: modelEgressRate,
			CaptureTs:  time.Now(),
		}}
		return
	}
	if part.Text != "" {
		g.events <- Event{Kind: EventText, Text: part.Text}
	}
}

func isAudioMime(mime string) bool {
	return len(mime) >= 6 && mime[:6] == "audio/"
}

// reconnect attempts the spec §4.4 backoff schedule (1s, 2s, 4s, max 3
// attempts); returns true on success.
func (g *Gateway) reconnect(ctx context.Context) bool {
	for _, delay := range reconnectSchedule {
		g.reconnectCount++
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		if err := g.connectAndSetup(ctx, nil); err == nil {
			g.reconnectCount = 0
			return true
		} else if g.log != nil {
			g.log.Warnf("modelgateway: reconnect attempt %d failed: %v", g.reconnectCount, err)
		}
	}
	return false
}

// ReconnectAttempts reports how many reconnects have been made since the
// last success, for session metrics.
func (g *Gateway) ReconnectAttempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reconnectCount
}
