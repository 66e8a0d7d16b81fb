package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/tubescribe/internal/infrastructure"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	ytdlp       *infrastructure.YTDLPClient
	transcriber *infrastructure.TranscriptionClient
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(ytdlp *infrastructure.YTDLPClient, transcriber *infrastructure.TranscriptionClient) *HealthHandler {
	return &HealthHandler{
		ytdlp:       ytdlp,
		transcriber: transcriber,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status string `json:"status"`
	Tools  struct {
		YTDLP         bool   `json:"ytdlp"`
		YTDLPVersion  string `json:"ytdlp_version,omitempty"`
		FFmpeg        bool   `json:"ffmpeg"`
		Transcription bool   `json:"transcription"`
	} `json:"tools"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{Status: "ok"}

	ctx := c.Request.Context()
	if version, err := h.ytdlp.Version(ctx); err == nil {
		response.Tools.YTDLP = true
		response.Tools.YTDLPVersion = version
	}
	response.Tools.FFmpeg = h.ytdlp.CheckFFmpeg(ctx)
	response.Tools.Transcription = h.transcriber.Configured()

	if !response.Tools.YTDLP {
		response.Status = "degraded"
	}

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.ytdlp.CheckInstalled(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "yt-dlp is not installed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
