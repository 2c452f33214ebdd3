package inbound

import (
	"context"

	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type GenerateVideoParams struct {
	RunID           string
	UserID          string
	Topic           string
	Style           string
	Niche           string
	DurationSeconds int
	SceneCount      int
	AspectRatio     string
	DurationClass   string
	VoiceID         string
}

// StageObserver is notified around every stage transition. Implementations
// must not block: the orchestrator calls them inline.
type StageObserver interface {
	StageStarted(phase int, name string)
	StageCompleted(phase int, name string, cost float64)
}

type PipelineOrchestratorPort interface {
	Execute(ctx context.Context, params GenerateVideoParams, observer StageObserver) (*domain.PipelineRun, error)
}
