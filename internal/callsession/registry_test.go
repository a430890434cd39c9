package callsession

import (
	"testing"

	"github.com/northlane/voicebridge/internal/audiorouter"
	"github.com/northlane/voicebridge/internal/domain"
)

func newTestSession(callID string) *Session {
	router := audiorouter.NewRouter(nil, 8000, 8192, nil)
	return New(callID, domain.DirectionInbound, nil, nil, router, nil, domain.AgentConfig{}, domain.SessionModeLive, nil, nil)
}

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("call1")
	r.Put(s)

	got, ok := r.Get("call1")
	if !ok || got.CallID() != "call1" {
		t.Fatalf("expected to find call1, got %+v ok=%v", got, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("expected length 1, got %d", r.Len())
	}

	r.Remove("call1")
	if _, ok := r.Get("call1"); ok {
		t.Fatal("expected call1 to be gone after Remove")
	}
	if r.Len() != 0 {
		t.Fatalf("expected length 0 after Remove, got %d", r.Len())
	}
}

func TestRegistryGetMissingReturnsFalse(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected Get of unregistered call ID to return false")
	}
}
