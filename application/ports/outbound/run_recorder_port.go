package outbound

import (
	"context"

	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type RunRecorderPort interface {
	Save(ctx context.Context, run *domain.PipelineRun) error
}
