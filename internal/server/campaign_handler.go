package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/northlane/voicebridge/internal/domain"
	"github.com/northlane/voicebridge/internal/voiceerr"
)

// createCampaignRequest matches spec §6: "POST /campaigns
// {agentId, leadIds[], campaignName}". Storage layout is opaque (spec §3
// non-goal), so each lead is supplied inline with its dial target rather
// than as a reference into a pre-existing global lead table.
type createCampaignRequest struct {
	AgentID      string      `json:"agentId" binding:"required"`
	CampaignName string      `json:"campaignName" binding:"required"`
	Leads        []leadInput `json:"leadIds" binding:"required,min=1"`
}

type leadInput struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Name        string `json:"name"`
}

type createCampaignResponse struct {
	CampaignID    string `json:"campaignId"`
	EstimatedTime int64  `json:"estimatedTime"`
}

// CreateCampaign handles POST /campaigns (spec §6: "Rejected with 429 when
// rate bucket is full, 400 when no provider assigned, 500 when public base
// url is unconfigured").
func (d Dependencies) CreateCampaign(c *gin.Context) {
	if d.Config.PublicBaseURL == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "public base url unconfigured"})
		return
	}

	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := d.AgentStore.GetByID(req.AgentID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no provider assigned for agentId"})
		return
	}

	userID := c.GetString("userID")
	if userID == "" {
		userID = "default"
	}

	leads := make([]domain.Lead, len(req.Leads))
	for i, l := range req.Leads {
		leads[i] = domain.Lead{PhoneNumber: l.PhoneNumber, Name: l.Name}
	}

	camp, err := d.Dispatcher.CreateCampaign(c.Request.Context(), userID, req.AgentID, req.CampaignName, leads)
	if err != nil {
		if errors.Is(err, voiceerr.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, createCampaignResponse{
		CampaignID:    camp.ID,
		EstimatedTime: int64(len(camp.LeadIDs)) * int64(domain.MaxConcurrentCalls),
	})
}

// PauseCampaign handles POST /campaigns/{id}/pause (spec §6, idempotent).
func (d Dependencies) PauseCampaign(c *gin.Context) {
	d.controlCampaign(c, d.Dispatcher.Pause)
}

// ResumeCampaign handles POST /campaigns/{id}/resume (spec §6, idempotent).
func (d Dependencies) ResumeCampaign(c *gin.Context) {
	d.controlCampaign(c, d.Dispatcher.Resume)
}

// StopCampaign handles POST /campaigns/{id}/stop (spec §6, idempotent).
func (d Dependencies) StopCampaign(c *gin.Context) {
	d.controlCampaign(c, d.Dispatcher.Stop)
}

func (d Dependencies) controlCampaign(c *gin.Context, op func(ctx context.Context, campaignID string) error) {
	id := c.Param("id")
	if err := op(c.Request.Context(), id); err != nil {
		if errors.Is(err, voiceerr.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
