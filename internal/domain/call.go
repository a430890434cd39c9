// Package domain holds the plain value types shared across the voice runtime:
// CallSession, Turn, AudioFrame, AgentConfig, Campaign and friends (spec §3).
package domain

import "time"

// Direction is the call direction.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// CarrierTag identifies which provider adapter originated/owns a call.
type CarrierTag string

const (
	CarrierA CarrierTag = "carrier_a" // JSON, mulaw 8kHz
	CarrierB CarrierTag = "carrier_b" // framed JSON + raw binary, PCM 44.1kHz
)

// CallState is one of the 9 states of the call lifecycle (spec §4.7).
type CallState string

const (
	StateInit               CallState = "INIT"
	StateWelcome            CallState = "WELCOME"
	StateListening          CallState = "LISTENING"
	StateHumanSpeaking      CallState = "HUMAN_SPEAKING"
	StateProcessingRequest  CallState = "PROCESSING_REQUEST"
	StateResponding         CallState = "RESPONDING"
	StateResponseComplete   CallState = "RESPONSE_COMPLETE"
	StateCallEnding         CallState = "CALL_ENDING"
	StateEnded              CallState = "ENDED"
)

// EndReason is recorded once a call reaches CALL_ENDING/ENDED.
type EndReason string

const (
	EndReasonNone             EndReason = ""
	EndReasonDurationExceeded EndReason = "duration-exceeded"
	EndReasonSilence          EndReason = "silence"
	EndReasonVoicemail        EndReason = "voicemail"
	EndReasonProtocol         EndReason = "protocol"
	EndReasonProviderClose    EndReason = "provider-close"
	EndReasonFatalError       EndReason = "fatal-error"
	EndReasonHangup           EndReason = "hangup"
)

// Role identifies who spoke a Turn.
type Role string

const (
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// Turn is one contiguous attributed span of speech within a call (spec §3).
type Turn struct {
	Role          Role
	Content       string
	StartTime     time.Time
	EndTime       time.Time
	Interrupted   bool
	LatencyMs     int64 // only meaningful for agent turns: set in callsession's Session.onModelAudio
}

// AudioFrame is the pure value type that flows through channels between
// provider adapter, codec, VAD, router and model gateway.
type AudioFrame struct {
	PCM16      []byte
	SampleRate int
	RMS        float64
	Seq        uint32
	CaptureTs  time.Time
}

// Metrics are the per-session counters the session loop owns exclusively.
type Metrics struct {
	DurationEnforcements int
	SilenceDetections    int
	ProtocolErrors       int
	ReconnectAttempts    int
	FillersPlayed        int
	FillersDiscarded     int
	CacheHandleWarnings  int
	FramesDropped        int
	ChunksSent           int64
	ChunksFailed         int64
	BytesSent            int64
}

// CallSession is identified by an opaque CallID; owned exclusively by its
// session loop goroutine (spec §3 invariant 1).
type CallSession struct {
	CallID      string
	Direction   Direction
	Carrier     CarrierTag
	AgentID     string
	LeadID      string
	AgentConfig AgentConfig

	StartTs time.Time
	EndTs   time.Time

	State     CallState
	EndReason EndReason

	Turns   []Turn
	Metrics Metrics

	AIProcessed bool
}

// FormatTranscript renders one "Role: content" line per turn, in order,
// matching the persistence contract of spec §4.8.
func FormatTranscript(turns []Turn) string {
	out := make([]byte, 0, 64*len(turns))
	for i, t := range turns {
		if i > 0 {
			out = append(out, '\n')
		}
		label := "Agent"
		if t.Role == RoleUser {
			label = "Lead"
		}
		out = append(out, label...)
		out = append(out, ':', ' ')
		out = append(out, t.Content...)
	}
	return string(out)
}
