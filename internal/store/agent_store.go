package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/domain"
)

// ErrAgentNotFound is returned when an agent config lookup misses.
var ErrAgentNotFound = errors.New("agent config not found")

// AgentConfigStore is the domain-facing persistence contract for agent
// configuration.
type AgentConfigStore interface {
	GetByID(id string) (*domain.AgentConfig, error)
	Create(a *domain.AgentConfig) error
}

// GormAgentConfigStore implements AgentConfigStore on gorm.io/gorm.
type GormAgentConfigStore struct {
	db *gorm.DB
}

// NewGormAgentConfigStore builds an AgentConfigStore backed by db.
func NewGormAgentConfigStore(db *gorm.DB) AgentConfigStore {
	return &GormAgentConfigStore{db: db}
}

func (g *GormAgentConfigStore) GetByID(id string) (*domain.AgentConfig, error) {
	var entity AgentEntity
	if err := g.db.Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent config: %w", err)
	}
	return entity.ToDomain(), nil
}

func (g *GormAgentConfigStore) Create(a *domain.AgentConfig) error {
	entity := newAgentEntityFromDomain(a)
	if err := g.db.Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create agent config: %w", err)
	}
	a.AgentID = entity.ID
	return nil
}
