package services

import (
	"context"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/inbound"
	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

// progressEventBuffer holds every event a single run can emit, so the
// pipeline goroutine never blocks on a consumer that stopped reading.
const progressEventBuffer = 16

type progressEmitter struct {
	logger       outbound.LoggerPort
	orchestrator inbound.PipelineOrchestratorPort
	workerPool   outbound.TaskDispatcher
}

func NewProgressEmitter(
	logger outbound.LoggerPort,
	orchestrator inbound.PipelineOrchestratorPort,
	workerPool outbound.TaskDispatcher) inbound.ProgressStreamerPort {
	return &progressEmitter{
		logger:       logger,
		orchestrator: orchestrator,
		workerPool:   workerPool,
	}
}

func (s *progressEmitter) Stream(ctx context.Context, params inbound.GenerateVideoParams) <-chan domain.ProgressEvent {
	events := make(chan domain.ProgressEvent, progressEventBuffer)

	err := s.workerPool.Submit(func() {
		defer close(events)

		events <- domain.ProgressEvent{
			Name: domain.EventStart,
			Payload: domain.StartPayload{
				RunID: params.RunID,
				Topic: params.Topic,
			},
		}

		run, err := s.orchestrator.Execute(ctx, params, &channelStageObserver{events: events})
		if err != nil {
			events <- domain.ProgressEvent{
				Name: domain.EventError,
				Payload: domain.ErrorPayload{
					RunID:   params.RunID,
					Message: err.Error(),
				},
			}
			return
		}

		events <- domain.ProgressEvent{
			Name: domain.EventComplete,
			Payload: domain.CompletePayload{
				RunID:     run.ID,
				VideoURL:  run.VideoURL,
				TotalCost: run.TotalCost,
			},
		}
	})
	if err != nil {
		s.logger.Error(err, "Failed to submit pipeline run to worker pool")
		events <- domain.ProgressEvent{
			Name: domain.EventError,
			Payload: domain.ErrorPayload{
				RunID:   params.RunID,
				Message: "failed to schedule pipeline run",
			},
		}
		close(events)
	}

	return events
}

type channelStageObserver struct {
	events chan<- domain.ProgressEvent
}

func (o *channelStageObserver) StageStarted(phase int, name string) {
	o.events <- domain.ProgressEvent{
		Name: domain.EventPhase,
		Payload: domain.PhasePayload{
			Phase:  phase,
			Name:   name,
			Status: domain.PhaseStatusProcessing,
		},
	}
}

func (o *channelStageObserver) StageCompleted(phase int, name string, cost float64) {
	o.events <- domain.ProgressEvent{
		Name: domain.EventPhase,
		Payload: domain.PhasePayload{
			Phase:  phase,
			Name:   name,
			Status: domain.PhaseStatusCompleted,
			Cost:   &cost,
		},
	}
}
