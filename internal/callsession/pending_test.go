package callsession

import (
	"testing"
	"time"

	"github.com/northlane/voicebridge/internal/domain"
)

func TestPendingRegistryPutThenTake(t *testing.T) {
	r := NewPendingRegistry()
	r.Put("call1", PendingCall{AgentID: "agent1", Direction: domain.DirectionInbound})

	pc, ok := r.Take("call1")
	if !ok {
		t.Fatal("expected pending call to be found")
	}
	if pc.AgentID != "agent1" {
		t.Fatalf("expected agent1, got %q", pc.AgentID)
	}
}

func TestPendingRegistryTakeRemovesEntry(t *testing.T) {
	r := NewPendingRegistry()
	r.Put("call1", PendingCall{AgentID: "agent1"})
	r.Take("call1")

	if _, ok := r.Take("call1"); ok {
		t.Fatal("expected second Take to find nothing, entry should be consumed")
	}
}

func TestPendingRegistryTakeMissingReturnsFalse(t *testing.T) {
	r := NewPendingRegistry()
	if _, ok := r.Take("never-registered"); ok {
		t.Fatal("expected Take of unregistered call ID to return false")
	}
}

func TestPendingRegistryTakeExpiredReturnsFalse(t *testing.T) {
	r := NewPendingRegistry()
	r.mu.Lock()
	r.m["call1"] = PendingCall{AgentID: "agent1", RegisteredAt: time.Now().Add(-61 * time.Second)}
	r.mu.Unlock()

	if _, ok := r.Take("call1"); ok {
		t.Fatal("expected an entry older than the 60s TTL to be treated as expired")
	}
}
