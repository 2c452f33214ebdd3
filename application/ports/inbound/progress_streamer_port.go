package inbound

import (
	"context"

	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type ProgressStreamerPort interface {
	Stream(ctx context.Context, params GenerateVideoParams) <-chan domain.ProgressEvent
}
