// Package server wires the gin-gonic HTTP control surface and the two
// carrier WebSocket endpoints onto the rest of the runtime (spec §6),
// grounded on the teacher's internal/server route-registration shape.
package server

import (
	"github.com/northlane/voicebridge/internal/callsession"
	"github.com/northlane/voicebridge/internal/campaign"
	"github.com/northlane/voicebridge/internal/config"
	"github.com/northlane/voicebridge/internal/hedge"
	"github.com/northlane/voicebridge/internal/ratelimit"
	"github.com/northlane/voicebridge/internal/store"
	"github.com/northlane/voicebridge/pkg/Logger"
)

// Dependencies bundles everything a route handler needs, assembled once by
// internal/app and handed to InitializeRoutes.
type Dependencies struct {
	Config  *config.Settings
	Logger  *Logger.Logger
	Limiter *ratelimit.Limiter

	Sessions *callsession.Registry
	Pending  *callsession.PendingRegistry
	Fillers  *hedge.Library

	AgentStore    store.AgentConfigStore
	CallStore     store.CallStore
	CampaignStore store.CampaignStore
	LeadStore     store.LeadStore

	Dispatcher *campaign.Dispatcher
}
