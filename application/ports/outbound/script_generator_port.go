package outbound

import (
	"context"

	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type GenerateScriptParams struct {
	Topic           string
	Style           string
	Niche           string
	DurationSeconds int
}

type GeneratedScript struct {
	Script domain.VideoScript
	Cost   float64
}

type ScriptGeneratorPort interface {
	Generate(ctx context.Context, params GenerateScriptParams) (*GeneratedScript, error)
}
