package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/domain"
)

// AgentEntity is the persisted shape of domain.AgentConfig.
type AgentEntity struct {
	ID              string `gorm:"primaryKey;type:char(36);not null"`
	Prompt          string `gorm:"type:longtext"`
	WelcomeMessage  string `gorm:"type:text"`
	Characteristics json.RawMessage `gorm:"type:json"`
	SpeechSettings  json.RawMessage `gorm:"type:json"`
	CallSettings    json.RawMessage `gorm:"type:json"`
	Knowledge       json.RawMessage `gorm:"type:json"`
	Voice           string `gorm:"type:varchar(64)"`
	Model           string `gorm:"type:varchar(64)"`
	CacheHandle     string `gorm:"type:varchar(128)"`
	CreatedAt       time.Time      `gorm:"autoCreateTime(3)"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime(3)"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (AgentEntity) TableName() string { return "agent_configs" }

func (a *AgentEntity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (a *AgentEntity) ToDomain() *domain.AgentConfig {
	var characteristics []string
	_ = json.Unmarshal(a.Characteristics, &characteristics)
	var speech domain.SpeechSettings
	_ = json.Unmarshal(a.SpeechSettings, &speech)
	var call domain.CallSettings
	_ = json.Unmarshal(a.CallSettings, &call)
	var knowledge []string
	_ = json.Unmarshal(a.Knowledge, &knowledge)

	return &domain.AgentConfig{
		AgentID:         a.ID,
		Prompt:          a.Prompt,
		WelcomeMessage:  a.WelcomeMessage,
		Characteristics: characteristics,
		SpeechSettings:  speech,
		CallSettings:    call,
		Knowledge:       knowledge,
		Voice:           a.Voice,
		Model:           a.Model,
		CacheHandle:     a.CacheHandle,
	}
}

func (a *AgentEntity) FromDomain(d *domain.AgentConfig) {
	characteristicsJSON, _ := json.Marshal(d.Characteristics)
	speechJSON, _ := json.Marshal(d.SpeechSettings)
	callJSON, _ := json.Marshal(d.CallSettings)
	knowledgeJSON, _ := json.Marshal(d.Knowledge)

	a.ID = d.AgentID
	a.Prompt = d.Prompt
	a.WelcomeMessage = d.WelcomeMessage
	a.Characteristics = characteristicsJSON
	a.SpeechSettings = speechJSON
	a.CallSettings = callJSON
	a.Knowledge = knowledgeJSON
	a.Voice = d.Voice
	a.Model = d.Model
	a.CacheHandle = d.CacheHandle
}

func newAgentEntityFromDomain(d *domain.AgentConfig) *AgentEntity {
	e := &AgentEntity{}
	e.FromDomain(d)
	return e
}
