package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/internal/voiceerr"
)

// CallStore is the domain-facing persistence contract for call sessions,
// kept opaque to the rest of the system per spec §3's non-goal on storage
// layout.
type CallStore interface {
	Create(s *domain.CallSession) error
	GetByID(callID string) (*domain.CallSession, error)
	Update(s *domain.CallSession) error
}

// GormCallStore implements CallStore on gorm.io/gorm + MySQL, matching the
// teacher's GormUserRepo.
type GormCallStore struct {
	db *gorm.DB
}

// NewGormCallStore builds a CallStore backed by db.
func NewGormCallStore(db *gorm.DB) CallStore {
	return &GormCallStore{db: db}
}

func (g *GormCallStore) Create(s *domain.CallSession) error {
	entity := newCallEntityFromDomain(s)
	if err := g.db.Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create call session: %w", err)
	}
	return nil
}

func (g *GormCallStore) GetByID(callID string) (*domain.CallSession, error) {
	var entity CallEntity
	if err := g.db.Where("id = ?", callID).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, voiceerr.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get call session: %w", err)
	}
	return entity.ToDomain(), nil
}

func (g *GormCallStore) Update(s *domain.CallSession) error {
	entity := newCallEntityFromDomain(s)
	result := g.db.Model(&CallEntity{}).Where("id = ?", s.CallID).Updates(entity)
	if result.Error != nil {
		return fmt.Errorf("failed to update call session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return voiceerr.ErrSessionNotFound
	}
	return nil
}
