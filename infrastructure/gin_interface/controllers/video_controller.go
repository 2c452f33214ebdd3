package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/inbound"
	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
	"github.com/sirliboyev-uz/ai-video-agent/infrastructure/gin_interface/dto"
	"github.com/sirliboyev-uz/ai-video-agent/middleware"
)

type VideoController interface {
	GenerateVideo(c *gin.Context)
	StreamVideoGeneration(c *gin.Context)
	Health(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type videoController struct {
	logger           outbound.LoggerPort
	orchestrator     inbound.PipelineOrchestratorPort
	progressStreamer inbound.ProgressStreamerPort
	pipelineConfig   *config.PipelineConfig
}

func NewVideoController(
	logger outbound.LoggerPort,
	orchestrator inbound.PipelineOrchestratorPort,
	progressStreamer inbound.ProgressStreamerPort,
	pipelineConfig *config.PipelineConfig,
) VideoController {
	return &videoController{
		logger:           logger,
		orchestrator:     orchestrator,
		progressStreamer: progressStreamer,
		pipelineConfig:   pipelineConfig,
	}
}

func (v *videoController) GenerateVideo(c *gin.Context) {
	var request dto.GenerateVideoRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		err = c.AbortWithError(400, err)
		if err != nil {
			v.logger.Error(err, "failed to abort with error")
		}
		return
	}

	params := v.generateParams(c, request)

	run, err := v.orchestrator.Execute(c.Request.Context(), params, nil)
	if err != nil {
		v.logger.ErrorWithFields(err, "Video generation failed", map[string]interface{}{
			"runID": params.RunID,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"run_id": params.RunID,
		})
		return
	}

	c.JSON(http.StatusOK, dto.GenerateVideoResponse{
		RunID:         run.ID,
		Status:        string(run.Status),
		VideoURL:      run.VideoURL,
		TotalCost:     run.TotalCost,
		CostBreakdown: run.CostBreakdown(),
	})
}

func (v *videoController) StreamVideoGeneration(c *gin.Context) {
	var request dto.GenerateVideoRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		err = c.AbortWithError(400, err)
		if err != nil {
			v.logger.Error(err, "failed to abort with error")
		}
		return
	}

	params := v.generateParams(c, request)
	events := v.progressStreamer.Stream(c.Request.Context(), params)

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := v.writeEvent(c, event); err != nil {
				v.logger.Error(err, "failed to write progress event")
				return
			}
		}
	}
}

// writeEvent emits a single SSE frame: "event: <name>\ndata: <json>\n\n".
func (v *videoController) writeEvent(c *gin.Context, event domain.ProgressEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("event: " + event.Name + "\ndata: " + string(payload) + "\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func (v *videoController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (v *videoController) generateParams(c *gin.Context, request dto.GenerateVideoRequest) inbound.GenerateVideoParams {
	params := inbound.GenerateVideoParams{
		RunID:           uuid.NewString(),
		UserID:          c.GetString(middleware.ContextUserIDKey),
		Topic:           request.Topic,
		Style:           request.Style,
		Niche:           request.Niche,
		DurationSeconds: request.DurationSeconds,
		SceneCount:      request.SceneCount,
		AspectRatio:     request.AspectRatio,
		DurationClass:   request.DurationClass,
		VoiceID:         request.VoiceID,
	}
	if params.Style == "" {
		params.Style = "educational"
	}
	if params.Niche == "" {
		params.Niche = "finance"
	}
	if params.DurationSeconds == 0 {
		params.DurationSeconds = 60
	}
	if params.SceneCount == 0 {
		params.SceneCount = v.pipelineConfig.SceneCount
	}
	if params.AspectRatio == "" {
		params.AspectRatio = "portrait"
	}
	if params.DurationClass == "" {
		params.DurationClass = "10"
	}
	return params
}

func (v *videoController) RegisterRoutes(g *gin.Engine) {
	g.POST("/generate", v.GenerateVideo)
	g.POST("/generate/stream", middleware.SSEMiddleware(), v.StreamVideoGeneration)
	g.GET("/health", v.Health)
}
