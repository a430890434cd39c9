package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/northlane/voicebridge/internal/callsession"
	"github.com/northlane/voicebridge/internal/domain"
)

// voiceWebhookResponse tells the carrier where to connect its media-stream
// WebSocket (spec §6: "PUBLIC_BASE_URL used to derive the WS url returned to
// carriers").
type voiceWebhookResponse struct {
	StreamURL string `json:"streamUrl"`
}

// VoiceWebhook handles POST /twilio/voice: the carrier's call-setup
// callback. It registers the pending call (so the media-stream WS handler
// can bind it to an agent once the carrier connects) and replies with the
// media-stream URL.
func (d Dependencies) VoiceWebhook(c *gin.Context) {
	callID := firstNonEmpty(c.PostForm("CallSid"), c.PostForm("callId"), c.Query("callId"))
	agentID := firstNonEmpty(c.PostForm("agentId"), c.Query("agentId"))
	clientState := firstNonEmpty(c.PostForm("ClientState"), c.PostForm("clientState"))

	campaignID, leadID := "", ""
	if clientState != "" {
		campaignID, leadID, agentID = parseClientState(clientState, agentID)
	}

	if callID != "" {
		d.Pending.Put(callID, callsession.PendingCall{
			AgentID:    agentID,
			LeadID:     leadID,
			CampaignID: campaignID,
			Direction:  directionFor(campaignID),
			Mode:       sessionModeFor(firstNonEmpty(c.PostForm("testMode"), c.Query("testMode"))),
		})
	}

	streamURL := strings.Replace(d.Config.PublicBaseURL, "http", "ws", 1) + "/media-stream/" + callID
	c.JSON(http.StatusOK, voiceWebhookResponse{StreamURL: streamURL})
}

func directionFor(campaignID string) domain.Direction {
	if campaignID == "" {
		return domain.DirectionInbound
	}
	return domain.DirectionOutbound
}

// sessionModeFor maps the optional "testMode" webhook param to a
// domain.SessionMode (spec §4.2: real calls vs. test sessions vs.
// quality-priority test sessions with VAD disabled entirely). Unrecognized
// or absent values fall back to a live call.
func sessionModeFor(testMode string) domain.SessionMode {
	switch strings.ToLower(testMode) {
	case "test":
		return domain.SessionModeTest
	case "quality-priority", "test-quality-priority":
		return domain.SessionModeTestQualityPriority
	default:
		return domain.SessionModeLive
	}
}

// statusWebhookRequest is the carrier call-status callback body (spec §4.9:
// "on every carrier status callback (completed, failed, no_answer,
// missed)").
type statusWebhookRequest struct {
	CallSid     string `json:"CallSid" form:"CallSid"`
	CallStatus  string `json:"CallStatus" form:"CallStatus"`
	ClientState string `json:"ClientState" form:"ClientState"`
}

var carrierStatusMap = map[string]domain.CallStatus{
	"completed": domain.CallCompleted,
	"failed":    domain.CallFailed,
	"busy":      domain.CallFailed,
	"no-answer": domain.CallNoAnswer,
	"no_answer": domain.CallNoAnswer,
	"canceled":  domain.CallMissed,
	"missed":    domain.CallMissed,
}

// StatusWebhook handles POST /twilio/status: drives Campaign Dispatcher
// reconciliation (spec §4.9, §6).
func (d Dependencies) StatusWebhook(c *gin.Context) {
	var req statusWebhookRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, ok := carrierStatusMap[strings.ToLower(req.CallStatus)]
	if !ok {
		c.Status(http.StatusOK)
		return
	}

	campaignID, leadID, _ := parseClientState(req.ClientState, "")
	if campaignID != "" && leadID != "" && d.Dispatcher != nil {
		if err := d.Dispatcher.Reconcile(c.Request.Context(), campaignID, leadID, status); err != nil {
			d.Logger.Warnf("status webhook: reconcile failed for campaign %s lead %s: %v", campaignID, leadID, err)
		}
	}

	c.Status(http.StatusOK)
}

// parseClientState decodes the "campaignID:leadID:agentID" token this
// runtime stamps onto outbound calls via carrier.Initiator.InitiateCall.
func parseClientState(state, fallbackAgentID string) (campaignID, leadID, agentID string) {
	parts := strings.SplitN(state, ":", 3)
	if len(parts) != 3 {
		return "", "", fallbackAgentID
	}
	return parts[0], parts[1], parts[2]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
