package callsession

import (
	"sync"
	"time"

	"github.com/northlane/voicebridge/internal/domain"
)

// pendingTTL is the spec §4.3/§6 window: "Answer without matching
// CallSession in store within 60 s -> close WS with reason
// session-timeout".
const pendingTTL = 60 * time.Second

// PendingCall is the metadata recorded before a carrier's media-stream
// WebSocket connects: for an inbound call by the /twilio/voice webhook,
// for an outbound call by the Campaign Dispatcher's CallInitiator, keyed
// by the carrier's own call identifier (callSid / callId).
type PendingCall struct {
	AgentID      string
	LeadID       string
	CampaignID   string
	Direction    domain.Direction
	Mode         domain.SessionMode
	RegisteredAt time.Time
}

// PendingRegistry bridges the gap between "a carrier call was created" and
// "the carrier's media WebSocket connected and announced its call ID",
// adapted from the session Registry's mutex-guarded map pattern.
type PendingRegistry struct {
	mu sync.Mutex
	m  map[string]PendingCall
}

// NewPendingRegistry builds an empty registry.
func NewPendingRegistry() *PendingRegistry {
	return &PendingRegistry{m: make(map[string]PendingCall)}
}

// Put registers callID's pending metadata, stamped with the current time
// for the 60s expiry window.
func (p *PendingRegistry) Put(callID string, pc PendingCall) {
	pc.RegisteredAt = time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[callID] = pc
}

// Take removes and returns callID's pending metadata if present and not
// expired (spec: "Answer without matching CallSession in store within
// 60s -> close WS with reason session-timeout").
func (p *PendingRegistry) Take(callID string) (PendingCall, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pc, ok := p.m[callID]
	if !ok {
		return PendingCall{}, false
	}
	delete(p.m, callID)
	if time.Since(pc.RegisteredAt) > pendingTTL {
		return PendingCall{}, false
	}
	return pc, true
}
