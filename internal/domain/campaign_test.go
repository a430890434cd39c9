package domain

import "testing"

func TestCallStatusInFlight(t *testing.T) {
	inFlight := []CallStatus{CallInitiated, CallDialing, CallRinging, CallAnswered}
	for _, s := range inFlight {
		if !s.InFlight() {
			t.Fatalf("expected %s to count as in-flight", s)
		}
	}
	terminal := []CallStatus{CallCompleted, CallFailed, CallNoAnswer, CallMissed}
	for _, s := range terminal {
		if s.InFlight() {
			t.Fatalf("expected %s to not count as in-flight", s)
		}
	}
}

func TestNextUnattemptedSkipsAttempted(t *testing.T) {
	c := &Campaign{
		LeadIDs:   []string{"l1", "l2", "l3"},
		Attempted: map[string]struct{}{"l1": {}},
	}
	leadID, ok := c.NextUnattempted()
	if !ok || leadID != "l2" {
		t.Fatalf("expected l2, got %q ok=%v", leadID, ok)
	}
}

func TestNextUnattemptedNoneLeft(t *testing.T) {
	c := &Campaign{
		LeadIDs:   []string{"l1", "l2"},
		Attempted: map[string]struct{}{"l1": {}, "l2": {}},
	}
	if _, ok := c.NextUnattempted(); ok {
		t.Fatal("expected no unattempted lead left")
	}
}

func TestIsCompleteFalseWhenLeadsRemain(t *testing.T) {
	c := &Campaign{LeadIDs: []string{"l1", "l2"}, Attempted: map[string]struct{}{"l1": {}}}
	if c.IsComplete() {
		t.Fatal("expected campaign with unattempted leads to be incomplete")
	}
}

func TestIsCompleteTrueWhenAllAttempted(t *testing.T) {
	c := &Campaign{LeadIDs: []string{"l1", "l2"}, Attempted: map[string]struct{}{"l1": {}, "l2": {}}}
	if !c.IsComplete() {
		t.Fatal("expected campaign to be complete once all leads are attempted")
	}
}
