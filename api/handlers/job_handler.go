package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tubescribe/internal/app"
	"github.com/yourusername/tubescribe/internal/domain"
	"github.com/yourusername/tubescribe/internal/infrastructure"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	orchestrator *app.Orchestrator
	transcriber  *app.TranscriptionManager
	repo         domain.JobRepository
	ytdlp        *infrastructure.YTDLPClient
	config       domain.JobsConfig
	logger       *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	orchestrator *app.Orchestrator,
	transcriber *app.TranscriptionManager,
	repo domain.JobRepository,
	ytdlp *infrastructure.YTDLPClient,
	config domain.JobsConfig,
	logger *zap.Logger,
) *JobHandler {
	return &JobHandler{
		orchestrator: orchestrator,
		transcriber:  transcriber,
		repo:         repo,
		ytdlp:        ytdlp,
		config:       config,
		logger:       logger,
	}
}

// StartJobRequest represents a request to start a job
type StartJobRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Target   string `json:"target" binding:"required"`
	Quality  string `json:"quality,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// StartJobResponse is returned when a job is accepted
type StartJobResponse struct {
	JobID       string `json:"job_id"`
	Slot        string `json:"slot"`
	Destination string `json:"destination,omitempty"`
}

// StartJob handles POST /api/v1/jobs
func (h *JobHandler) StartJob(c *gin.Context) {
	var req StartJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := domain.JobKind(req.Kind)
	if !domain.ValidKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job kind: " + req.Kind})
		return
	}

	if kind == domain.KindTranscribe {
		handle, err := h.transcriber.Transcribe(req.Target)
		if err != nil {
			h.respondStartError(c, err)
			return
		}
		c.JSON(http.StatusCreated, StartJobResponse{
			JobID: handle.ID,
			Slot:  string(handle.Slot),
		})
		return
	}

	destination, err := h.resolveDestination(c, kind, req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	quality := domain.Quality(req.Quality)
	if quality == "" {
		quality = domain.QualityBest
	}

	spec := domain.NewJobSpec(kind, req.Target, quality, destination)
	handle, err := h.orchestrator.Start(kind.DefaultSlot(), spec)
	if err != nil {
		h.respondStartError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StartJobResponse{
		JobID:       handle.ID,
		Slot:        string(handle.Slot),
		Destination: destination,
	})
}

// resolveDestination picks the output path for a download. An explicit
// filename wins; otherwise the video title is fetched and sanitized.
func (h *JobHandler) resolveDestination(c *gin.Context, kind domain.JobKind, req StartJobRequest) (string, error) {
	name := req.Filename
	if name == "" {
		meta, err := h.ytdlp.FetchMetadata(c.Request.Context(), req.Target)
		if err != nil {
			return "", err
		}
		name = meta.Title
	}
	filename := infrastructure.OutputFilename(infrastructure.SanitizeFilename(name), kind)
	return filepath.Join(h.config.DownloadDir, infrastructure.UniqueFilename(h.config.DownloadDir, filename)), nil
}

// respondStartError maps start failures to HTTP statuses
func (h *JobHandler) respondStartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidJobSpec), errors.Is(err, domain.ErrUnknownSlot):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to start job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CancelSlot handles POST /api/v1/slots/:slot/cancel
func (h *JobHandler) CancelSlot(c *gin.Context) {
	slot := domain.Slot(c.Param("slot"))

	if err := h.orchestrator.Cancel(slot); err != nil {
		if errors.Is(err, domain.ErrUnknownSlot) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to cancel job", zap.String("slot", string(slot)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cancellation requested"})
}

// ListSlots handles GET /api/v1/slots
func (h *JobHandler) ListSlots(c *gin.Context) {
	var statuses []app.SlotStatus
	for _, slot := range []domain.Slot{domain.SlotDownload, domain.SlotTranscription} {
		status, err := h.orchestrator.Status(slot)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		statuses = append(statuses, status)
	}

	c.JSON(http.StatusOK, statuses)
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param("id")

	record, err := h.repo.FindByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	var (
		records []*domain.JobRecord
		err     error
	)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if kind := c.Query("kind"); kind != "" {
		filters["kind"] = kind
	}
	records, err = h.repo.FindAll(filters)
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetStats handles GET /api/v1/jobs/stats
func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMetadata handles GET /api/v1/metadata?url=...
func (h *JobHandler) GetMetadata(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}
	if !domain.ValidDownloadURL(url) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported URL"})
		return
	}

	meta, err := h.ytdlp.FetchMetadata(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, meta)
}
