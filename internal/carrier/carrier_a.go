package carrier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/northlane/voicebridge/internal/audio"
	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/pkg/Logger"
)

const carrierANativeRate = 8000

// carrierAWireFrame is the JSON envelope Carrier A sends/expects (spec
// §4.3): {event, streamSid, callSid, media:{payload}, ...}.
type carrierAWireFrame struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid,omitempty"`
	CallSID   string `json:"callSid,omitempty"`
	Media     *struct {
		Payload string `json:"payload"`
	} `json:"media,omitempty"`
}

// CarrierA implements Adapter for the JSON/mulaw-8kHz telephony provider.
type CarrierA struct {
	conn      *websocket.Conn
	streamSID string
	log       *Logger.Logger
}

// NewCarrierA wraps an already-upgraded websocket connection.
func NewCarrierA(conn *websocket.Conn, log *Logger.Logger) *CarrierA {
	return &CarrierA{conn: conn, log: log}
}

func (a *CarrierA) Tag() domain.CarrierTag { return domain.CarrierA }

// Parse decodes one Carrier A JSON text frame (spec §4.3: "Carrier A (JSON,
// mulaw 8 kHz): events connected, start{streamSid, callSid}, media{payload:
// b64-mulaw}, mark, stop"). Unknown events and malformed JSON are logged and
// ignored, never returned as an error, matching the spec's failure
// semantics.
func (a *CarrierA) Parse(raw []byte, isBinary bool) (EventOrFrame, error) {
	if isBinary {
		return EventOrFrame{Kind: EventUnknown}, nil
	}

	var wf carrierAWireFrame
	if err := json.Unmarshal(raw, &wf); err != nil {
		if a.log != nil {
			a.log.Warnf("carrier A: malformed json frame: %v", err)
		}
		return EventOrFrame{Kind: EventUnknown}, nil
	}

	switch wf.Event {
	case "connected":
		return EventOrFrame{Kind: EventConnected}, nil
	case "start":
		a.streamSID = wf.StreamSID
		return EventOrFrame{Kind: EventStart, StreamSID: wf.StreamSID, CallSID: wf.CallSID}, nil
	case "media":
		if wf.Media == nil {
			if a.log != nil {
				a.log.Warnf("carrier A: media event missing payload")
			}
			return EventOrFrame{Kind: EventUnknown}, nil
		}
		frame, err := a.decodeMedia(wf.Media.Payload)
		if err != nil {
			if a.log != nil {
				a.log.Warnf("carrier A: media decode failed: %v", err)
			}
			return EventOrFrame{Kind: EventUnknown}, nil
		}
		return EventOrFrame{Kind: EventMedia, StreamSID: wf.StreamSID, Frame: frame}, nil
	case "mark":
		return EventOrFrame{Kind: EventMark, StreamSID: wf.StreamSID}, nil
	case "stop":
		return EventOrFrame{Kind: EventStop, StreamSID: wf.StreamSID, CallSID: wf.CallSID}, nil
	default:
		if a.log != nil {
			a.log.Warnf("carrier A: unknown event %q", wf.Event)
		}
		return EventOrFrame{Kind: EventUnknown}, nil
	}
}

// decodeMedia base64-decodes a mulaw payload and normalizes it to PCM16 at
// 16kHz (spec §4.3 ingress normalization).
func (a *CarrierA) decodeMedia(payload string) (domain.AudioFrame, error) {
	mulawBytes, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.AudioFrame{}, fmt.Errorf("base64 decode: %w", err)
	}
	pcm8k := audio.DecodeMulaw(mulawBytes)
	pcm16k, err := audio.Resample(pcm8k, carrierANativeRate, 16000)
	if err != nil {
		return domain.AudioFrame{}, err
	}
	return domain.AudioFrame{
		PCM16:      pcm16k,
		SampleRate: 16000,
		RMS:        audio.RMS(pcm16k),
		CaptureTs:  time.Now(),
	}, nil
}

// buildMedia re-encodes a 24kHz PCM16 frame as a Carrier A outbound media
// frame: {event:"media", streamSid, media:{payload: b64-mulaw}}.
func (a *CarrierA) buildMedia(frame domain.AudioFrame) ([]byte, error) {
	pcm8k, err := audio.Resample(frame.PCM16, frame.SampleRate, carrierANativeRate)
	if err != nil {
		return nil, err
	}
	mulawBytes, err := audio.EncodeMulaw(pcm8k)
	if err != nil {
		return nil, err
	}
	wf := carrierAWireFrame{
		Event:     "media",
		StreamSID: a.streamSID,
		Media: &struct {
			Payload string `json:"payload"`
		}{Payload: base64.StdEncoding.EncodeToString(mulawBytes)},
	}
	return json.Marshal(wf)
}

// Send writes a normalized outbound unit in Carrier A's wire format.
func (a *CarrierA) Send(ctx context.Context, fc FrameOrControl) error {
	if fc.Frame != nil {
		payload, err := a.buildMedia(*fc.Frame)
		if err != nil {
			return err
		}
		return a.conn.WriteMessage(websocket.TextMessage, payload)
	}
	switch fc.Control {
	case ControlMark:
		wf := carrierAWireFrame{Event: "mark", StreamSID: a.streamSID}
		payload, err := json.Marshal(wf)
		if err != nil {
			return err
		}
		return a.conn.WriteMessage(websocket.TextMessage, payload)
	default:
		return nil
	}
}

// ReadRaw blocks for the next raw wire message from the carrier.
func (a *CarrierA) ReadRaw() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *CarrierA) Close(reason string) error {
	_ = a.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(time.Second),
	)
	return a.conn.Close()
}
