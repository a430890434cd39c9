package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// RMS computes the root-mean-square energy of little-endian PCM16 audio,
// normalized to [0,1]. Grounded on the teacher's energy-based VAD fallback
// (pkg/io/stt/vad.energyBasedVAD), generalized to be the sole detector
// rather than a fallback (spec §4.2 drops the external Silero HTTP call).
func RMS(pcm []byte) float64 {
	sampleCount := len(pcm) / 2
	if sampleCount == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < sampleCount; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}
	return math.Sqrt(sum / float64(sampleCount))
}

// SilenceTimer tracks consecutive below-threshold frames and fires exactly
// once per continuous silence span (spec §8 property: "the silence timer
// enters exactly once per contiguous span below threshold").
type SilenceTimer struct {
	threshold float64
	limit     time.Duration

	silenceStart time.Time
	armed        bool
	fired        bool
}

// NewSilenceTimer builds a timer that fires after limit of continuous audio
// below threshold RMS.
func NewSilenceTimer(threshold float64, limit time.Duration) *SilenceTimer {
	return &SilenceTimer{threshold: threshold, limit: limit}
}

// Observe feeds one frame's RMS at timestamp ts. It returns true exactly
// once per contiguous silent span, the moment the span reaches limit;
// voice activity (rms >= threshold) resets the span.
func (s *SilenceTimer) Observe(rms float64, ts time.Time) bool {
	if rms >= s.threshold {
		s.armed = false
		s.fired = false
		return false
	}
	if !s.armed {
		s.armed = true
		s.fired = false
		s.silenceStart = ts
		return false
	}
	if s.fired {
		return false
	}
	if ts.Sub(s.silenceStart) >= s.limit {
		s.fired = true
		return true
	}
	return false
}

// Reset clears any in-progress silence span, e.g. on a state transition that
// leaves LISTENING.
func (s *SilenceTimer) Reset() {
	s.armed = false
	s.fired = false
}

// Since reports how long the current silence span has run as of ts, or zero
// if no span is in progress.
func (s *SilenceTimer) Since(ts time.Time) time.Duration {
	if !s.armed {
		return 0
	}
	return ts.Sub(s.silenceStart)
}

// IsVoiceActive reports whether rms clears the given threshold.
func IsVoiceActive(rms, threshold float64) bool {
	return rms >= threshold
}
