package domain

import "regexp"

// VoicemailAction is the configured behavior once voicemail is detected.
type VoicemailAction string

const (
	VoicemailHangup       VoicemailAction = "hangup"
	VoicemailLeaveMessage VoicemailAction = "leaveMessage"
	VoicemailTransfer     VoicemailAction = "transfer"
)

// SessionMode distinguishes a real carrier call from a test session used to
// exercise an agent outside a live call (spec §4.2). TestQualityPriority
// prioritizes undistorted audio playback over responsive turn-taking, so VAD
// is disabled entirely rather than tuned.
type SessionMode string

const (
	SessionModeLive                SessionMode = ""
	SessionModeTest                SessionMode = "test"
	SessionModeTestQualityPriority SessionMode = "test-quality-priority"
)

// SpeechSettings configures voice delivery and interruption policy (spec §3, §4.7).
type SpeechSettings struct {
	VoiceSpeed              float64
	Responsiveness          float64
	InterruptionSensitivity float64 // in [0,1]
	Emotions                []string
	BackgroundNoise         string
	// SilenceThreshold overrides the normative 0.003 RMS silence threshold
	// (spec §9 open question: 0.003 is normative unless explicitly overridden).
	SilenceThreshold float64
}

// CallSettings configures call-duration, silence and voicemail policy.
type CallSettings struct {
	MaxCallDurationSec int
	SilenceDetectionMs int
	VoicemailDetection bool
	VoicemailAction    VoicemailAction
}

// AgentConfig is supplied by the external store and is immutable for the
// lifetime of a session (spec §3).
type AgentConfig struct {
	AgentID         string
	Prompt          string
	WelcomeMessage  string
	Characteristics []string
	SpeechSettings  SpeechSettings
	CallSettings    CallSettings
	Knowledge       []string // raw document texts, in priority order
	Voice           string
	Model           string
	CacheHandle     string // raw value as supplied; validate with ValidCacheHandle
}

// cacheHandlePattern matches spec §3 invariant 3 / §8 property 6:
// ^cachedContents/[A-Za-z0-9_-]+$
var cacheHandlePattern = regexp.MustCompile(`^cachedContents/[A-Za-z0-9_-]+$`)

// ValidCacheHandle reports whether handle is either empty or well formed.
// A non-empty, malformed handle is NOT valid and must be rewritten to "".
func ValidCacheHandle(handle string) bool {
	if handle == "" {
		return true
	}
	return cacheHandlePattern.MatchString(handle)
}

// NormalizeCacheHandle returns handle unchanged if valid, or "" plus false if
// the supplied handle is malformed (caller should log a warning and count it).
func NormalizeCacheHandle(handle string) (normalized string, wasValid bool) {
	if handle == "" {
		return "", true
	}
	if cacheHandlePattern.MatchString(handle) {
		return handle, true
	}
	return "", false
}

// EffectiveSilenceThreshold returns the RMS silence threshold for a session
// in the given mode: the agent's explicit override if set, else 0.003 for a
// live call or 0.004 for a test session (spec §4.2, §9). In
// SessionModeTestQualityPriority, VAD is disabled entirely: the returned
// threshold is 0, so isVoiceActive(rms, 0) and the silence timer built on it
// are always satisfied and never fire.
func (s SpeechSettings) EffectiveSilenceThreshold(mode SessionMode) float64 {
	if mode == SessionModeTestQualityPriority {
		return 0
	}
	if s.SilenceThreshold > 0 {
		return s.SilenceThreshold
	}
	if mode == SessionModeTest {
		return 0.004
	}
	return 0.003
}
