package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/northlane/voicebridge/internal/audiorouter"
	"github.com/northlane/voicebridge/internal/callsession"
	"github.com/northlane/voicebridge/internal/carrier"
	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/internal/hedge"
	"github.com/northlane/voicebridge/internal/modelgateway"
)

// upgrader accepts any origin, matching the teacher's websocket handler --
// the control surface's own AuthMiddleware is not applicable to carrier
// callbacks (spec §6: carriers authenticate via their own webhook contract,
// not this runtime's bearer JWT).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	ringByteCapacity = 64 * 1024
	carrierARate     = 8000
	carrierBRate     = 44100
	drainInterval    = 20 * time.Millisecond
)

// adapterWriter bridges a carrier.Adapter to audiorouter.Writer.
type adapterWriter struct {
	ctx     context.Context
	adapter carrier.Adapter
}

func (w adapterWriter) WriteAudio(frame domain.AudioFrame) error {
	return w.adapter.Send(w.ctx, carrier.FrameOrControl{Frame: &frame})
}

// MediaStreamCarrierA handles GET /media-stream/{callSid} (spec §4.3 Carrier
// A: JSON text frames, mulaw 8kHz, 60s answer-without-session timeout).
func (d Dependencies) MediaStreamCarrierA(c *gin.Context) {
	callSid := c.Param("callSid")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		d.Logger.Warnf("media-stream carrier A: upgrade failed: %v", err)
		return
	}

	pending, ok := d.Pending.Take(callSid)
	if !ok {
		d.Logger.Warnf("media-stream carrier A: no pending call for %s within timeout", callSid)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session-timeout"))
		_ = conn.Close()
		return
	}

	adapter := carrier.NewCarrierA(conn, d.Logger)
	d.runSession(c.Request.Context(), callSid, pending, adapter, carrierARate)
}

// MediaStreamCarrierB handles GET /media-stream (spec §4.3 Carrier B: framed
// JSON + raw binary, PCM 44.1kHz, 1s answer_ack deadline). Carrier B
// announces its call ID in the first frame rather than the URL path, so the
// pending lookup happens inside the adapter's own connected-event
// handshake.
func (d Dependencies) MediaStreamCarrierB(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		d.Logger.Warnf("media-stream carrier B: upgrade failed: %v", err)
		return
	}

	adapter := carrier.NewCarrierB(conn, d.Logger)

	_, raw, err := conn.ReadMessage()
	if err != nil {
		d.Logger.Warnf("media-stream carrier B: initial read failed: %v", err)
		_ = conn.Close()
		return
	}
	ev, err := adapter.Parse(raw, false)
	if err != nil || (ev.Kind != carrier.EventConnected && ev.Kind != carrier.EventAnswer) {
		d.Logger.Warnf("media-stream carrier B: unexpected first frame: %v", err)
		_ = conn.Close()
		return
	}

	callID := firstNonEmpty(ev.CallSID, ev.ChannelID)
	pending, ok := d.Pending.Take(callID)
	if !ok {
		d.Logger.Warnf("media-stream carrier B: no pending call for %s", callID)
		_ = conn.Close()
		return
	}

	ackCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()
	if err := adapter.Send(ackCtx, carrier.FrameOrControl{Control: carrier.ControlAnswerAck}); err != nil {
		d.Logger.Warnf("media-stream carrier B: answer_ack failed: %v", err)
		_ = conn.Close()
		return
	}

	d.runSession(c.Request.Context(), callID, pending, adapter, carrierBRate)
}

// runSession assembles and drives one call's Session for the lifetime of its
// WebSocket connection (spec §4.8).
func (d Dependencies) runSession(parent context.Context, callID string, pending callsession.PendingCall, adapter carrier.Adapter, carrierRate int) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	agent, err := d.AgentStore.GetByID(pending.AgentID)
	if err != nil {
		d.Logger.Errorf("call %s: agent %s lookup failed: %v", callID, pending.AgentID, err)
		_ = adapter.Close("agent-not-found")
		return
	}

	gwCfg := modelgateway.Config{
		WSURL:       d.Config.Model.WSURL,
		APIKey:      d.Config.Model.APIKey,
		Model:       d.Config.Model.Model,
		Voice:       agent.Voice,
		VoiceSpeed:  agent.SpeechSettings.VoiceSpeed,
		Prompt:      agent.Prompt,
		Knowledge:   agent.Knowledge,
		CacheHandle: agent.CacheHandle,
	}
	cacheWarned := false
	gateway, err := modelgateway.New(ctx, gwCfg, d.Logger, func() { cacheWarned = true })
	if err != nil {
		d.Logger.Errorf("call %s: model gateway dial failed: %v", callID, err)
		_ = adapter.Close("model-unavailable")
		return
	}
	if cacheWarned {
		d.Logger.Warnf("call %s: cache handle %q invalid, fell back to inline prompt", callID, agent.CacheHandle)
	}

	router := audiorouter.NewRouter(adapterWriter{ctx: ctx, adapter: adapter}, carrierRate, ringByteCapacity, d.Logger)

	var hedgeEngine *hedge.Engine
	if d.Fillers != nil {
		hedgeEngine = hedge.NewEngine(d.Fillers)
	}

	session := callsession.New(callID, pending.Direction, adapter, gateway, router, hedgeEngine, *agent, pending.Mode, d.CallStore, d.Logger)
	d.Sessions.Put(session)
	defer d.Sessions.Remove(callID)

	drainTicker := time.NewTicker(drainInterval)
	defer drainTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				router.Drain()
				return
			case <-drainTicker.C:
				router.Drain()
			}
		}
	}()

	go func() {
		defer cancel()
		for {
			mt, raw, err := adapter.ReadRaw()
			if err != nil {
				return
			}
			ev, err := adapter.Parse(raw, mt == websocket.BinaryMessage)
			if err != nil {
				d.Logger.Warnf("call %s: carrier parse error: %v", callID, err)
				continue
			}
			session.HandleCarrierEvent(ctx, ev)
			if ev.Kind == carrier.EventStop {
				return
			}
		}
	}()

	session.Run(ctx)
	_ = adapter.Close("session-ended")
}
