// Package carrier implements the two telephony provider adapters (spec
// §4.3), normalizing both onto one internal contract:
// {Parse(wireFrame) → EventOrFrame, Send(FrameOrControl) → wireFrame}.
// Grounded on the teacher's internal/handlers/websocket session/connection
// pattern (gorilla/websocket, mutex-guarded writes, typed message envelopes).
package carrier

import (
	"context"
	"time"

	"github.com/northlane/voicebridge/internal/domain"
)

// EventKind tags the variant carried by an EventOrFrame (spec §9: "model as
// tagged variants with decode validation at the boundary; do not let
// untyped maps propagate past the adapter").
type EventKind string

const (
	EventConnected  EventKind = "connected"
	EventStart      EventKind = "start"
	EventMedia      EventKind = "media"
	EventMark       EventKind = "mark"
	EventStop       EventKind = "stop"
	EventAnswer     EventKind = "answer"
	EventDTMF       EventKind = "dtmf"
	EventUnknown    EventKind = "unknown"
)

// EventOrFrame is the normalized inbound unit an adapter produces. Exactly
// one of Frame (for EventMedia) or the metadata fields is meaningful,
// depending on Kind.
type EventOrFrame struct {
	Kind EventKind

	// present for EventStart/EventAnswer
	StreamSID string
	CallSID   string
	ChannelID string

	// present for EventMedia: PCM16 already normalized to 16kHz
	Frame domain.AudioFrame

	// present for EventDTMF
	DTMFDigit    string
	DTMFDuration time.Duration

	// present for EventStop
	DisconnectedBy string
}

// FrameOrControl is the normalized outbound unit the session/router hands to
// an adapter. Frame carries PCM16 at EgressRate (24kHz); Control carries a
// carrier-specific acknowledgement.
type FrameOrControl struct {
	Frame   *domain.AudioFrame
	Control ControlKind
}

// ControlKind tags an outbound non-audio control message.
type ControlKind string

const (
	ControlNone      ControlKind = ""
	ControlAnswerAck ControlKind = "answer_ack"
	ControlMark      ControlKind = "mark"
)

// Adapter is the shared contract both carrier implementations satisfy.
type Adapter interface {
	// Parse decodes one raw wire message (text or binary) into a normalized
	// event. Unknown events and malformed JSON are logged and ignored by the
	// adapter itself, never surfaced as an error (spec §4.3 failure
	// semantics), except when the failure is a transport-level read error.
	Parse(raw []byte, isBinary bool) (EventOrFrame, error)

	// Send encodes a normalized outbound unit to this carrier's wire format
	// and writes it to the underlying connection.
	Send(ctx context.Context, fc FrameOrControl) error

	// Close terminates the underlying connection with reason.
	Close(reason string) error

	// Tag identifies which carrier this adapter is.
	Tag() domain.CarrierTag

	// ReadRaw blocks for the next raw wire message from the carrier, for the
	// session's adapter read loop to hand to Parse.
	ReadRaw() (messageType int, raw []byte, err error)
}
