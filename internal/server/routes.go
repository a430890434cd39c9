package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/northlane/voicebridge/internal/config"
)

// InitializeRoutes registers every control-surface route (spec §6), grounded
// on the teacher's internal/server route-registration layout.
func InitializeRoutes(cfg *config.Settings, r *gin.Engine, deps Dependencies) {
	r.Use(CORSMiddleware(), RequestLoggerMiddleware(deps.Logger), ErrorHandlerMiddleware(deps.Logger))

	r.GET("/health", deps.Health)
	r.GET("/stats", deps.Stats)

	r.POST("/twilio/voice", deps.VoiceWebhook)
	r.POST("/twilio/status", deps.StatusWebhook)

	r.GET("/media-stream/:callSid", deps.MediaStreamCarrierA)
	r.GET("/media-stream", deps.MediaStreamCarrierB)

	campaigns := r.Group("/campaigns")
	campaigns.Use(AuthMiddleware(cfg.Auth.JWTSecret, deps.Logger))
	{
		campaigns.POST("", deps.CreateCampaign)
		campaigns.POST("/:id/pause", deps.PauseCampaign)
		campaigns.POST("/:id/resume", deps.ResumeCampaign)
		campaigns.POST("/:id/stop", deps.StopCampaign)
	}
}

var startedAt = time.Now()

// Health reports liveness for orchestrators/load balancers.
func (d Dependencies) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptimeSeconds": int64(time.Since(startedAt).Seconds())})
}

// Stats reports the runtime's in-flight session count, for operator
// visibility (spec §5 aggregated metrics are per-call; this is the one
// cross-session readout the control surface exposes).
func (d Dependencies) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"activeSessions": d.Sessions.Len(),
	})
}
