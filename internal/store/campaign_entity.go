package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/domain"
)

// CampaignEntity is the persisted shape of domain.Campaign (spec §6
// "Campaign document with counters").
type CampaignEntity struct {
	ID        string          `gorm:"primaryKey;type:char(36);not null"`
	UserID    string          `gorm:"type:char(36);index;not null"`
	AgentID   string          `gorm:"type:char(36);index;not null"`
	Name      string          `gorm:"type:varchar(255)"`
	LeadIDs   json.RawMessage `gorm:"type:json"`
	Attempted json.RawMessage `gorm:"type:json"`
	Status    string          `gorm:"type:varchar(16);not null"`
	Completed int
	Failed    int
	CreatedAt time.Time      `gorm:"autoCreateTime(3)"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime(3)"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (CampaignEntity) TableName() string { return "campaigns" }

func (c *CampaignEntity) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

func (c *CampaignEntity) ToDomain() *domain.Campaign {
	var leadIDs []string
	_ = json.Unmarshal(c.LeadIDs, &leadIDs)
	var attemptedList []string
	_ = json.Unmarshal(c.Attempted, &attemptedList)

	attempted := make(map[string]struct{}, len(attemptedList))
	for _, id := range attemptedList {
		attempted[id] = struct{}{}
	}

	return &domain.Campaign{
		ID:        c.ID,
		UserID:    c.UserID,
		AgentID:   c.AgentID,
		Name:      c.Name,
		LeadIDs:   leadIDs,
		Attempted: attempted,
		Status:    domain.CampaignStatus(c.Status),
		CreatedAt: c.CreatedAt,
		Completed: c.Completed,
		Failed:    c.Failed,
	}
}

func (c *CampaignEntity) FromDomain(d *domain.Campaign) {
	leadIDsJSON, _ := json.Marshal(d.LeadIDs)
	attemptedList := make([]string, 0, len(d.Attempted))
	for id := range d.Attempted {
		attemptedList = append(attemptedList, id)
	}
	attemptedJSON, _ := json.Marshal(attemptedList)

	c.ID = d.ID
	c.UserID = d.UserID
	c.AgentID = d.AgentID
	c.Name = d.Name
	c.LeadIDs = leadIDsJSON
	c.Attempted = attemptedJSON
	c.Status = string(d.Status)
	c.CreatedAt = d.CreatedAt
	c.Completed = d.Completed
	c.Failed = d.Failed
}

func newCampaignEntityFromDomain(d *domain.Campaign) *CampaignEntity {
	e := &CampaignEntity{}
	e.FromDomain(d)
	return e
}

// LeadEntity is the persisted shape of domain.Lead.
type LeadEntity struct {
	ID          string `gorm:"primaryKey;type:char(36);not null"`
	CampaignID  string `gorm:"type:char(36);index;not null"`
	PhoneNumber string `gorm:"type:varchar(32);not null"`
	Name        string `gorm:"type:varchar(255)"`
	CreatedAt   time.Time `gorm:"autoCreateTime(3)"`
}

func (LeadEntity) TableName() string { return "leads" }

func (l *LeadEntity) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

func (l *LeadEntity) ToDomain() *domain.Lead {
	return &domain.Lead{ID: l.ID, CampaignID: l.CampaignID, PhoneNumber: l.PhoneNumber, Name: l.Name}
}
