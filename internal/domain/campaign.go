package domain

import "time"

// CampaignStatus is the lifecycle state of an outbound calling campaign.
type CampaignStatus string

const (
	CampaignPending   CampaignStatus = "pending"
	CampaignRunning   CampaignStatus = "running"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignFailed    CampaignStatus = "failed"
)

// CallStatus mirrors the carrier-reported lifecycle of one outbound call leg.
type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallDialing   CallStatus = "dialing"
	CallRinging   CallStatus = "ringing"
	CallAnswered  CallStatus = "answered"
	CallCompleted CallStatus = "completed"
	CallFailed    CallStatus = "failed"
	CallNoAnswer  CallStatus = "no_answer"
	CallMissed    CallStatus = "missed"
)

// InFlight reports whether s counts against the campaign's concurrency cap
// (spec §3 invariant 7 / §4.9).
func (s CallStatus) InFlight() bool {
	switch s {
	case CallInitiated, CallDialing, CallRinging, CallAnswered:
		return true
	default:
		return false
	}
}

// MaxConcurrentCalls is the hard cap on in-flight calls per campaign (k=5,
// spec §3 invariant 7, §8 property 3).
const MaxConcurrentCalls = 5

// Campaign is {id, userId, agentId, leadIds[], attempted set, status, counters}.
type Campaign struct {
	ID        string
	UserID    string
	AgentID   string
	Name      string
	LeadIDs   []string
	Attempted map[string]struct{}
	Status    CampaignStatus
	CreatedAt time.Time

	// counters
	Completed int
	Failed    int
}

// Lead is a dialable target belonging to a campaign.
type Lead struct {
	ID          string
	CampaignID  string
	PhoneNumber string
	Name        string
}

// NextUnattempted returns the smallest lead index (by position in LeadIDs)
// not yet present in Attempted, and true if one exists (spec §4.9
// reconciliation: "selects the smallest lead index not yet in the attempted
// set").
func (c *Campaign) NextUnattempted() (leadID string, ok bool) {
	for _, id := range c.LeadIDs {
		if _, tried := c.Attempted[id]; !tried {
			return id, true
		}
	}
	return "", false
}

// IsComplete reports whether every lead has been attempted.
func (c *Campaign) IsComplete() bool {
	return len(c.Attempted) >= len(c.LeadIDs)
}
