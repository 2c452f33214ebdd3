package outbound

import (
	"context"
	"time"

	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type SubmitTaskParams struct {
	Prompt          string
	AspectRatio     string
	DurationClass   string
	RemoveWatermark bool
}

type PollResult struct {
	Status       domain.JobStatus
	ArtifactURL  string
	ErrorCode    string
	ErrorMessage string
}

type RemoteTaskClientPort interface {
	Submit(ctx context.Context, params SubmitTaskParams) (*domain.RemoteJob, error)
	Poll(ctx context.Context, jobID string) (*PollResult, error)
	AwaitCompletion(ctx context.Context, job *domain.RemoteJob, maxWait time.Duration, pollInterval time.Duration) error
	DownloadArtifact(ctx context.Context, url string) ([]byte, error)
}
