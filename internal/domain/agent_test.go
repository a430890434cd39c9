package domain

import "testing"

func TestValidCacheHandleAcceptsEmpty(t *testing.T) {
	if !ValidCacheHandle("") {
		t.Fatal("expected empty handle to be valid")
	}
}

func TestValidCacheHandleAcceptsWellFormed(t *testing.T) {
	if !ValidCacheHandle("cachedContents/abc-123_XYZ") {
		t.Fatal("expected well-formed handle to be valid")
	}
}

func TestValidCacheHandleRejectsMalformed(t *testing.T) {
	if ValidCacheHandle("cachedContents/has a space") {
		t.Fatal("expected malformed handle to be rejected")
	}
	if ValidCacheHandle("not-even-close") {
		t.Fatal("expected non-matching prefix to be rejected")
	}
}

func TestNormalizeCacheHandleEmpty(t *testing.T) {
	normalized, valid := NormalizeCacheHandle("")
	if normalized != "" || !valid {
		t.Fatalf("expected empty/true, got %q/%v", normalized, valid)
	}
}

func TestNormalizeCacheHandleWellFormed(t *testing.T) {
	normalized, valid := NormalizeCacheHandle("cachedContents/abc123")
	if normalized != "cachedContents/abc123" || !valid {
		t.Fatalf("expected handle preserved/true, got %q/%v", normalized, valid)
	}
}

func TestNormalizeCacheHandleMalformed(t *testing.T) {
	normalized, valid := NormalizeCacheHandle("garbage")
	if normalized != "" || valid {
		t.Fatalf("expected empty/false for malformed handle, got %q/%v", normalized, valid)
	}
}

func TestEffectiveSilenceThresholdDefault(t *testing.T) {
	s := SpeechSettings{}
	if got := s.EffectiveSilenceThreshold(SessionModeLive); got != 0.003 {
		t.Fatalf("expected default 0.003, got %v", got)
	}
}

func TestEffectiveSilenceThresholdOverride(t *testing.T) {
	s := SpeechSettings{SilenceThreshold: 0.01}
	if got := s.EffectiveSilenceThreshold(SessionModeLive); got != 0.01 {
		t.Fatalf("expected override 0.01, got %v", got)
	}
}

func TestEffectiveSilenceThresholdTestSession(t *testing.T) {
	s := SpeechSettings{}
	if got := s.EffectiveSilenceThreshold(SessionModeTest); got != 0.004 {
		t.Fatalf("expected test-session default 0.004, got %v", got)
	}
}

func TestEffectiveSilenceThresholdTestSessionOverrideWins(t *testing.T) {
	s := SpeechSettings{SilenceThreshold: 0.02}
	if got := s.EffectiveSilenceThreshold(SessionModeTest); got != 0.02 {
		t.Fatalf("expected explicit override to beat test-session default, got %v", got)
	}
}

func TestEffectiveSilenceThresholdQualityPriorityDisablesVAD(t *testing.T) {
	s := SpeechSettings{SilenceThreshold: 0.02}
	if got := s.EffectiveSilenceThreshold(SessionModeTestQualityPriority); got != 0 {
		t.Fatalf("expected quality-priority mode to disable VAD (threshold 0) even with an override, got %v", got)
	}
}
