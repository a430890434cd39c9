package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/domain"
)

// ErrLeadNotFound is returned when a lead lookup misses.
var ErrLeadNotFound = errors.New("lead not found")

// LeadStore is the domain-facing persistence contract for campaign leads.
type LeadStore interface {
	GetByID(id string) (*domain.Lead, error)
}

// GormLeadStore implements LeadStore on gorm.io/gorm.
type GormLeadStore struct {
	db *gorm.DB
}

// NewGormLeadStore builds a LeadStore backed by db.
func NewGormLeadStore(db *gorm.DB) LeadStore {
	return &GormLeadStore{db: db}
}

func (g *GormLeadStore) GetByID(id string) (*domain.Lead, error) {
	var entity LeadEntity
	if err := g.db.Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return entity.ToDomain(), nil
}
