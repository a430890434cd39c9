package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestRMSSilentBufferIsZero(t *testing.T) {
	pcm := make([]byte, 320) // 160 samples of zero
	if got := RMS(pcm); got != 0 {
		t.Fatalf("expected 0 RMS for silence, got %f", got)
	}
}

func TestRMSLoudBufferIsHigh(t *testing.T) {
	pcm := make([]byte, 8)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(32767)))
	}
	got := RMS(pcm)
	if got < 0.9 {
		t.Fatalf("expected near-max RMS for full-scale samples, got %f", got)
	}
}

func TestIsVoiceActive(t *testing.T) {
	if IsVoiceActive(0.001, 0.003) {
		t.Error("expected 0.001 to be below 0.003 threshold")
	}
	if !IsVoiceActive(0.01, 0.003) {
		t.Error("expected 0.01 to clear 0.003 threshold")
	}
}

func TestSilenceTimerFiresOncePerSpan(t *testing.T) {
	timer := NewSilenceTimer(0.003, 1*time.Second)
	base := time.Now()

	if timer.Observe(0.0001, base) {
		t.Fatal("should not fire on first silent frame")
	}
	if timer.Observe(0.0001, base.Add(500*time.Millisecond)) {
		t.Fatal("should not fire before the limit elapses")
	}
	if !timer.Observe(0.0001, base.Add(1100*time.Millisecond)) {
		t.Fatal("expected timer to fire once the limit elapses")
	}
	if timer.Observe(0.0001, base.Add(1200*time.Millisecond)) {
		t.Fatal("should not re-fire for the same contiguous silent span")
	}

	if timer.Observe(0.5, base.Add(1300*time.Millisecond)) {
		t.Fatal("voice activity should never itself trigger a fire")
	}
	if timer.Observe(0.0001, base.Add(1400*time.Millisecond)) {
		t.Fatal("new silent span should not fire immediately")
	}
}

func TestSilenceTimerResetClearsArmedSpan(t *testing.T) {
	timer := NewSilenceTimer(0.003, 1*time.Second)
	base := time.Now()
	timer.Observe(0.0001, base)
	timer.Reset()
	if timer.Observe(0.0001, base.Add(2*time.Second)) {
		t.Fatal("expected span to restart after Reset, not fire immediately")
	}
}
