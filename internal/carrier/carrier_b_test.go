package carrier

import (
	"encoding/base64"
	"testing"

	"github.com/northlane/voicebridge/internal/domain"
)

func TestClassifyDetectsJSONVsRawPCM(t *testing.T) {
	if classify([]byte(`{"type":"media"}`)) != frameKindJSON {
		t.Fatal("expected object-prefixed frame to classify as JSON")
	}
	if classify([]byte(`[1,2,3]`)) != frameKindJSON {
		t.Fatal("expected array-prefixed frame to classify as JSON")
	}
	if classify([]byte{0x01, 0x02, 0x03}) != frameKindRawPCM {
		t.Fatal("expected non-JSON-prefixed frame to classify as raw PCM")
	}
	if classify(nil) != frameKindRawPCM {
		t.Fatal("expected empty frame to classify as raw PCM")
	}
}

func TestCarrierBParseAnswerEvent(t *testing.T) {
	b := NewCarrierB(nil, nil)
	raw := []byte(`{"type":"answer","channelId":"ch1","callId":"call1"}`)
	ev, err := b.Parse(raw, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.Kind != EventAnswer || ev.ChannelID != "ch1" || ev.CallSID != "call1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestCarrierBParseRawBinaryMedia(t *testing.T) {
	b := NewCarrierB(nil, nil)
	raw := make([]byte, 882) // small even-length PCM44.1 buffer
	ev, err := b.Parse(raw, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.Kind != EventMedia {
		t.Fatalf("expected EventMedia for raw binary, got %v", ev.Kind)
	}
	if ev.Frame.SampleRate != 16000 {
		t.Fatalf("expected frame resampled to 16kHz, got %d", ev.Frame.SampleRate)
	}
}

func TestCarrierBParseJSONMediaFrame(t *testing.T) {
	b := NewCarrierB(nil, nil)
	payload := base64.StdEncoding.EncodeToString(make([]byte, 882))
	raw := []byte(`{"type":"media","payload":"` + payload + `"}`)
	ev, err := b.Parse(raw, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.Kind != EventMedia {
		t.Fatalf("expected EventMedia, got %v", ev.Kind)
	}
}

func TestCarrierBParseDTMF(t *testing.T) {
	b := NewCarrierB(nil, nil)
	raw := []byte(`{"type":"dtmf","digit":"5","durationMs":150}`)
	ev, err := b.Parse(raw, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ev.Kind != EventDTMF || ev.DTMFDigit != "5" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestCarrierBTag(t *testing.T) {
	b := NewCarrierB(nil, nil)
	if b.Tag() != domain.CarrierB {
		t.Fatalf("unexpected tag %v", b.Tag())
	}
}
