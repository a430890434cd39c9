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

const carrierBNativeRate = 44100

// frameKind distinguishes the two wire shapes Carrier B may deliver on the
// same socket (spec §9 open question: isolated behind classify() so the
// first-byte sniff can be swapped for a sub-protocol header later without
// touching call-handling code).
type frameKind int

const (
	frameKindJSON frameKind = iota
	frameKindRawPCM
)

// classify implements the spec §4.3 sniff: "any frame whose first byte is
// not 0x7B or 0x5B is treated as raw PCM 44.1 kHz".
func classify(raw []byte) frameKind {
	if len(raw) == 0 {
		return frameKindRawPCM
	}
	switch raw[0] {
	case '{', '[':
		return frameKindJSON
	default:
		return frameKindRawPCM
	}
}

// carrierBWireFrame is the JSON envelope Carrier B sends/expects.
type carrierBWireFrame struct {
	Type           string `json:"type"`
	StreamID       string `json:"streamId,omitempty"`
	ChannelID      string `json:"channelId,omitempty"`
	CallID         string `json:"callId,omitempty"`
	MediaFormat    string `json:"mediaFormat,omitempty"`
	Chunk          int    `json:"chunk,omitempty"`
	Payload        string `json:"payload,omitempty"`
	Digit          string `json:"digit,omitempty"`
	DurationMs     int    `json:"durationMs,omitempty"`
	DisconnectedBy string `json:"disconnectedBy,omitempty"`
	Timestamp      int64  `json:"timestamp,omitempty"`
}

// CarrierB implements Adapter for the framed-JSON + raw-binary-PCM
// 44.1kHz telephony provider.
type CarrierB struct {
	conn     *websocket.Conn
	callID   string
	log      *Logger.Logger
}

// NewCarrierB wraps an already-upgraded websocket connection.
func NewCarrierB(conn *websocket.Conn, log *Logger.Logger) *CarrierB {
	return &CarrierB{conn: conn, log: log}
}

func (b *CarrierB) Tag() domain.CarrierTag { return domain.CarrierB }

// Parse decodes either a framed JSON message or a raw binary PCM chunk
// (spec §4.3). The runtime MUST reply to `answer` with `answer_ack` within
// 1s; that reply is issued by the caller upon observing EventAnswer, not
// here, to keep Parse side-effect free.
func (b *CarrierB) Parse(raw []byte, isBinary bool) (EventOrFrame, error) {
	kind := frameKindRawPCM
	if !isBinary {
		kind = classify(raw)
	}

	if kind == frameKindRawPCM {
		pcm16k, err := audio.Resample(raw, carrierBNativeRate, 16000)
		if err != nil {
			if b.log != nil {
				b.log.Warnf("carrier B: raw pcm resample failed: %v", err)
			}
			return EventOrFrame{Kind: EventUnknown}, nil
		}
		return EventOrFrame{
			Kind: EventMedia,
			Frame: domain.AudioFrame{
				PCM16:      pcm16k,
				SampleRate: 16000,
				RMS:        audio.RMS(pcm16k),
				CaptureTs:  time.Now(),
			},
		}, nil
	}

	var wf carrierBWireFrame
	if err := json.Unmarshal(raw, &wf); err != nil {
		if b.log != nil {
			b.log.Warnf("carrier B: malformed json frame: %v", err)
		}
		return EventOrFrame{Kind: EventUnknown}, nil
	}

	switch wf.Type {
	case "answer":
		b.callID = wf.CallID
		return EventOrFrame{
			Kind:      EventAnswer,
			StreamSID: wf.StreamID,
			ChannelID: wf.ChannelID,
			CallSID:   wf.CallID,
		}, nil
	case "start":
		return EventOrFrame{Kind: EventStart}, nil
	case "media":
		frame, err := b.decodeMedia(wf.Payload)
		if err != nil {
			if b.log != nil {
				b.log.Warnf("carrier B: media decode failed: %v", err)
			}
			return EventOrFrame{Kind: EventUnknown}, nil
		}
		return EventOrFrame{Kind: EventMedia, Frame: frame}, nil
	case "dtmf":
		return EventOrFrame{
			Kind:         EventDTMF,
			DTMFDigit:    wf.Digit,
			DTMFDuration: time.Duration(wf.DurationMs) * time.Millisecond,
		}, nil
	case "stop":
		return EventOrFrame{Kind: EventStop, CallSID: wf.CallID, DisconnectedBy: wf.DisconnectedBy}, nil
	default:
		if b.log != nil {
			b.log.Warnf("carrier B: unknown event %q", wf.Type)
		}
		return EventOrFrame{Kind: EventUnknown}, nil
	}
}

func (b *CarrierB) decodeMedia(payload string) (domain.AudioFrame, error) {
	pcm441, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.AudioFrame{}, fmt.Errorf("base64 decode: %w", err)
	}
	pcm16k, err := audio.Resample(pcm441, carrierBNativeRate, 16000)
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

// SendAnswerAck replies to an `answer` frame within the spec's 1s deadline.
func (b *CarrierB) SendAnswerAck() error {
	payload, err := json.Marshal(carrierBWireFrame{Type: string(ControlAnswerAck)})
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, payload)
}

// Send writes a normalized outbound unit in Carrier B's wire format: base64
// PCM 44.1 kHz in a JSON "media" frame (spec §4.3 egress).
func (b *CarrierB) Send(ctx context.Context, fc FrameOrControl) error {
	if fc.Frame != nil {
		pcm441, err := audio.Resample(fc.Frame.PCM16, fc.Frame.SampleRate, carrierBNativeRate)
		if err != nil {
			return err
		}
		wf := carrierBWireFrame{
			Type:    "media",
			Payload: base64.StdEncoding.EncodeToString(pcm441),
		}
		payload, err := json.Marshal(wf)
		if err != nil {
			return err
		}
		return b.conn.WriteMessage(websocket.TextMessage, payload)
	}
	if fc.Control == ControlAnswerAck {
		return b.SendAnswerAck()
	}
	return nil
}

// ReadRaw blocks for the next raw wire message from the carrier.
func (b *CarrierB) ReadRaw() (int, []byte, error) {
	return b.conn.ReadMessage()
}

func (b *CarrierB) Close(reason string) error {
	_ = b.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(time.Second),
	)
	return b.conn.Close()
}
