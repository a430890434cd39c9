package database

import (
	"gorm.io/gorm"

	"github.com/northlane/voicebridge/internal/store"
)

// MigrateDB applies schema migrations for the four persisted entity types
// (spec §3: agent config, call session, campaign, lead -- storage layout is
// otherwise opaque).
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&store.AgentEntity{},
		&store.CallEntity{},
		&store.CampaignEntity{},
		&store.LeadEntity{},
	)
}
