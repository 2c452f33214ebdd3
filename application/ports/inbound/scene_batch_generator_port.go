package inbound

import (
	"context"

	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type GenerateScenesParams struct {
	RunID         string
	Prompts       []string
	SceneCount    int
	AspectRatio   string
	DurationClass string
}

type SceneBatchGeneratorPort interface {
	Generate(ctx context.Context, params GenerateScenesParams) (*domain.SceneBatchResult, error)
}
