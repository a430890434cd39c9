// Package store persists CallSession, Campaign, AgentConfig and Lead
// documents via GORM, following the teacher's internal/repository/user
// entity/domain split (Entity struct with gorm tags + ToDomain/FromDomain,
// a narrow GormXRepo behind a domain-facing interface, gorm.DeletedAt soft
// deletes, BeforeCreate UUID hooks).
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/domain"
)

// CallEntity is the persisted shape of domain.CallSession (spec §6
// "Persisted state ... CallSession document").
type CallEntity struct {
	ID          string `gorm:"primaryKey;type:char(36);not null"`
	Direction   string `gorm:"type:varchar(16);not null"`
	Carrier     string `gorm:"type:varchar(16);not null"`
	AgentID     string `gorm:"type:char(36);index"`
	LeadID      string `gorm:"type:char(36);index"`
	StartTs     time.Time
	EndTs       time.Time
	Status      string          `gorm:"type:varchar(32)"`
	EndReason   string          `gorm:"type:varchar(32)"`
	Transcript  string          `gorm:"type:longtext"`
	Turns       json.RawMessage `gorm:"type:json"`
	Metrics     json.RawMessage `gorm:"type:json"`
	AIProcessed bool            `gorm:"column:ai_processed"`
	RecordingURL string         `gorm:"column:recording_url;type:varchar(512)"`
	CreatedAt   time.Time       `gorm:"autoCreateTime(3)"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime(3)"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}

func (CallEntity) TableName() string { return "call_sessions" }

func (c *CallEntity) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// ToDomain converts a persisted entity back to a domain.CallSession. Turns
// and metrics are carried as opaque JSON per the spec's "treated opaquely"
// persistence contract; callers that need live CallSession behavior operate
// on the in-memory instance owned by the session loop, not this copy.
func (c *CallEntity) ToDomain() *domain.CallSession {
	var turns []domain.Turn
	_ = json.Unmarshal(c.Turns, &turns)
	var metrics domain.Metrics
	_ = json.Unmarshal(c.Metrics, &metrics)

	return &domain.CallSession{
		CallID:      c.ID,
		Direction:   domain.Direction(c.Direction),
		Carrier:     domain.CarrierTag(c.Carrier),
		AgentID:     c.AgentID,
		LeadID:      c.LeadID,
		StartTs:     c.StartTs,
		EndTs:       c.EndTs,
		State:       domain.CallState(c.Status),
		EndReason:   domain.EndReason(c.EndReason),
		Turns:       turns,
		Metrics:     metrics,
		AIProcessed: c.AIProcessed,
	}
}

// FromDomain populates an entity from a domain.CallSession, building the
// formatted transcript the spec requires on persistence (§4.8).
func (c *CallEntity) FromDomain(s *domain.CallSession) {
	turnsJSON, _ := json.Marshal(s.Turns)
	metricsJSON, _ := json.Marshal(s.Metrics)

	c.ID = s.CallID
	c.Direction = string(s.Direction)
	c.Carrier = string(s.Carrier)
	c.AgentID = s.AgentID
	c.LeadID = s.LeadID
	c.StartTs = s.StartTs
	c.EndTs = s.EndTs
	c.Status = string(s.State)
	c.EndReason = string(s.EndReason)
	c.Transcript = domain.FormatTranscript(s.Turns)
	c.Turns = turnsJSON
	c.Metrics = metricsJSON
	c.AIProcessed = s.AIProcessed
}

func newCallEntityFromDomain(s *domain.CallSession) *CallEntity {
	e := &CallEntity{}
	e.FromDomain(s)
	return e
}
