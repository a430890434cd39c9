package carrier

import (
	"encoding/base64"
	"testing"

	"github.com/northlane/voicebridge/internal/domain"
)

func TestCarrierAParseStartEvent(t *testing.T) {
	a := NewCarrierA(nil, nil)
	raw := []byte(`{"event":"start","streamSid":"s1","callSid":"c1"}`)
	ev, err := a.Parse(raw, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.Kind != EventStart || ev.StreamSID != "s1" || ev.CallSID != "c1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestCarrierAParseMediaDecodesMulaw(t *testing.T) {
	a := NewCarrierA(nil, nil)
	payload := base64.StdEncoding.EncodeToString([]byte{0xFF, 0x7F, 0x00})
	raw := []byte(`{"event":"media","streamSid":"s1","media":{"payload":"` + payload + `"}}`)

	ev, err := a.Parse(raw, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.Kind != EventMedia {
		t.Fatalf("expected EventMedia, got %v", ev.Kind)
	}
	if ev.Frame.SampleRate != 16000 {
		t.Fatalf("expected media decoded to 16kHz, got %d", ev.Frame.SampleRate)
	}
	if len(ev.Frame.PCM16) == 0 {
		t.Fatal("expected non-empty decoded PCM16")
	}
}

func TestCarrierAParseMalformedJSONIsUnknownNotError(t *testing.T) {
	a := NewCarrierA(nil, nil)
	ev, err := a.Parse([]byte(`not json`), false)
	if err != nil {
		t.Fatalf("expected no error for malformed json, got %v", err)
	}
	if ev.Kind != EventUnknown {
		t.Fatalf("expected EventUnknown, got %v", ev.Kind)
	}
}

func TestCarrierAParseUnknownEventName(t *testing.T) {
	a := NewCarrierA(nil, nil)
	ev, err := a.Parse([]byte(`{"event":"something-else"}`), false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ev.Kind != EventUnknown {
		t.Fatalf("expected EventUnknown, got %v", ev.Kind)
	}
}

func TestCarrierATag(t *testing.T) {
	a := NewCarrierA(nil, nil)
	if a.Tag() != domain.CarrierA {
		t.Fatalf("unexpected tag %v", a.Tag())
	}
}
