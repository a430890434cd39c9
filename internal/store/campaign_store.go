package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/internal/voiceerr"
)

// CampaignStore is the domain-facing persistence contract for campaigns.
type CampaignStore interface {
	Create(c *domain.Campaign) error
	GetByID(id string) (*domain.Campaign, error)
	Update(c *domain.Campaign) error
	CreateLeads(leads []domain.Lead) error
}

// GormCampaignStore implements CampaignStore on gorm.io/gorm.
type GormCampaignStore struct {
	db *gorm.DB
}

// NewGormCampaignStore builds a CampaignStore backed by db.
func NewGormCampaignStore(db *gorm.DB) CampaignStore {
	return &GormCampaignStore{db: db}
}

func (g *GormCampaignStore) Create(c *domain.Campaign) error {
	entity := newCampaignEntityFromDomain(c)
	if err := g.db.Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	c.ID = entity.ID
	return nil
}

func (g *GormCampaignStore) GetByID(id string) (*domain.Campaign, error) {
	var entity CampaignEntity
	if err := g.db.Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, voiceerr.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return entity.ToDomain(), nil
}

func (g *GormCampaignStore) Update(c *domain.Campaign) error {
	entity := newCampaignEntityFromDomain(c)
	result := g.db.Model(&CampaignEntity{}).Where("id = ?", c.ID).Updates(entity)
	if result.Error != nil {
		return fmt.Errorf("failed to update campaign: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return voiceerr.ErrCampaignNotFound
	}
	return nil
}

func (g *GormCampaignStore) CreateLeads(leads []domain.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	entities := make([]LeadEntity, len(leads))
	for i, l := range leads {
		entities[i] = LeadEntity{CampaignID: l.CampaignID, PhoneNumber: l.PhoneNumber, Name: l.Name}
	}
	if err := g.db.Create(&entities).Error; err != nil {
		return fmt.Errorf("failed to create leads: %w", err)
	}
	// Propagate GORM-assigned IDs back into the caller's slice so the
	// dispatcher can populate Campaign.LeadIDs immediately after creation.
	for i := range entities {
		leads[i].ID = entities[i].ID
	}
	return nil
}
