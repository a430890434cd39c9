package server

import (
	"testing"

	"github.com/northlane/voicebridge/internal/domain"
)

func TestParseClientStateValidToken(t *testing.T) {
	campaignID, leadID, agentID := parseClientState("camp1:lead1:agent1", "")
	if campaignID != "camp1" || leadID != "lead1" || agentID != "agent1" {
		t.Fatalf("unexpected parse: %s %s %s", campaignID, leadID, agentID)
	}
}

func TestParseClientStateMalformedFallsBackToAgentID(t *testing.T) {
	campaignID, leadID, agentID := parseClientState("not-a-valid-token", "fallback-agent")
	if campaignID != "" || leadID != "" {
		t.Fatalf("expected empty campaign/lead for malformed token, got %q %q", campaignID, leadID)
	}
	if agentID != "fallback-agent" {
		t.Fatalf("expected fallback agent ID, got %q", agentID)
	}
}

func TestParseClientStateEmptyToken(t *testing.T) {
	campaignID, leadID, agentID := parseClientState("", "fallback-agent")
	if campaignID != "" || leadID != "" || agentID != "fallback-agent" {
		t.Fatalf("unexpected parse of empty token: %q %q %q", campaignID, leadID, agentID)
	}
}

func TestDirectionForEmptyCampaignIsInbound(t *testing.T) {
	if got := directionFor(""); got != domain.DirectionInbound {
		t.Fatalf("expected inbound direction for empty campaign, got %v", got)
	}
}

func TestDirectionForCampaignIsOutbound(t *testing.T) {
	if got := directionFor("camp1"); got != domain.DirectionOutbound {
		t.Fatalf("expected outbound direction for non-empty campaign, got %v", got)
	}
}

func TestFirstNonEmptyReturnsFirstSetValue(t *testing.T) {
	if got := firstNonEmpty("", "", "third"); got != "third" {
		t.Fatalf("expected third value, got %q", got)
	}
}

func TestFirstNonEmptyAllEmptyReturnsEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", ""); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestSessionModeForEmptyIsLive(t *testing.T) {
	if got := sessionModeFor(""); got != domain.SessionModeLive {
		t.Fatalf("expected live mode for empty testMode, got %v", got)
	}
}

func TestSessionModeForTest(t *testing.T) {
	if got := sessionModeFor("Test"); got != domain.SessionModeTest {
		t.Fatalf("expected test mode, got %v", got)
	}
}

func TestSessionModeForQualityPriority(t *testing.T) {
	if got := sessionModeFor("quality-priority"); got != domain.SessionModeTestQualityPriority {
		t.Fatalf("expected quality-priority mode, got %v", got)
	}
	if got := sessionModeFor("test-quality-priority"); got != domain.SessionModeTestQualityPriority {
		t.Fatalf("expected quality-priority mode for alternate spelling, got %v", got)
	}
}

func TestSessionModeForUnknownFallsBackToLive(t *testing.T) {
	if got := sessionModeFor("bogus"); got != domain.SessionModeLive {
		t.Fatalf("expected live mode fallback for unrecognized value, got %v", got)
	}
}
