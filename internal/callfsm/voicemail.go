package callfsm

import "strings"

// Contributor is one named voicemail-detection signal (spec §9: "keep
// heuristics but structure as a scorer with named contributors so each can
// be unit-tested in isolation").
type Contributor func(s VoicemailSignals) bool

// VoicemailSignals is the evidence available to each contributor.
type VoicemailSignals struct {
	// TextHypothesis is the current speech-to-text hypothesis for the
	// user's utterance, if any.
	TextHypothesis string
	// FlatPitchVariance is true when acoustic analysis finds a flat pitch
	// with low variation (a "robotic" signature).
	FlatPitchVariance bool
	// ProlongedNoHumanSpectrum is true once human-speech spectral energy
	// has been absent for an extended span.
	ProlongedNoHumanSpectrum bool
}

var voicemailPhrases = []string{
	"leave a message after the tone",
	"no one is available to take your call",
	"please leave your message",
	"you have reached the voicemail",
	"is not available",
}

// textHypothesisContributor matches the user-text hypothesis against a
// fixed voicemail phrase set.
func textHypothesisContributor(s VoicemailSignals) bool {
	lower := strings.ToLower(s.TextHypothesis)
	for _, phrase := range voicemailPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// acousticSignatureContributor matches the "robotic" flat-pitch acoustic
// signal.
func acousticSignatureContributor(s VoicemailSignals) bool {
	return s.FlatPitchVariance
}

// absentHumanSpectrumContributor matches prolonged absence of human-speech
// spectrum.
func absentHumanSpectrumContributor(s VoicemailSignals) bool {
	return s.ProlongedNoHumanSpectrum
}

// Scorer sums named contributors, each worth 0.4, capped at 1.0 (spec §4.7,
// authoritative per §9's open-question resolution over the disagreeing
// 0.4/0.3/0.3 variant).
type Scorer struct {
	contributors []Contributor
}

// NewScorer builds the standard voicemail scorer.
func NewScorer() *Scorer {
	return &Scorer{contributors: []Contributor{
		textHypothesisContributor,
		acousticSignatureContributor,
		absentHumanSpectrumContributor,
	}}
}

// Score returns the capped confidence in [0,1].
func (s *Scorer) Score(signals VoicemailSignals) float64 {
	var total float64
	for _, c := range s.contributors {
		if c(signals) {
			total += 0.4
		}
	}
	if total > 1.0 {
		total = 1.0
	}
	return total
}

// VoicemailThreshold is the confidence at or above which the configured
// voicemailAction applies (spec §4.7: "If confidence >= 0.5").
const VoicemailThreshold = 0.5
