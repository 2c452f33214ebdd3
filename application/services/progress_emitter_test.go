package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/inbound"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
	"github.com/sirliboyev-uz/ai-video-agent/infrastructure/adapters"
)

// stagePlayingOrchestrator drives the observer through two stages and either
// completes the run or fails during the first stage.
type stagePlayingOrchestrator struct {
	err error
}

func (o *stagePlayingOrchestrator) Execute(_ context.Context, params inbound.GenerateVideoParams, observer inbound.StageObserver) (*domain.PipelineRun, error) {
	run := domain.NewPipelineRun(params.RunID, params.Topic)

	observer.StageStarted(1, domain.StageScriptGeneration)
	if o.err != nil {
		_ = run.Fail(o.err.Error())
		return run, o.err
	}
	observer.StageCompleted(1, domain.StageScriptGeneration, 0.02)

	observer.StageStarted(2, domain.StageVoiceSynthesis)
	observer.StageCompleted(2, domain.StageVoiceSynthesis, 0.3)

	_ = run.CommitStage(domain.StageResult{Stage: domain.StageScriptGeneration, Cost: 0.02})
	_ = run.CommitStage(domain.StageResult{Stage: domain.StageVoiceSynthesis, Cost: 0.3})
	_ = run.Complete("https://bucket.s3.amazonaws.com/final.mp4")
	return run, nil
}

type failingDispatcher struct{}

func (failingDispatcher) Submit(func()) error {
	return errors.New("worker pool is full")
}

func newProgressEmitterForTest(t *testing.T, orchestrator inbound.PipelineOrchestratorPort) inbound.ProgressStreamerPort {
	t.Helper()

	workerPool, err := ants.NewPool(10)
	if err != nil {
		t.Fatal("Failed to create worker pool:", err)
	}

	return NewProgressEmitter(adapters.NewZerologWrapper("error"), orchestrator, workerPool)
}

func collectEvents(t *testing.T, events <-chan domain.ProgressEvent) []domain.ProgressEvent {
	t.Helper()

	collected := make([]domain.ProgressEvent, 0)
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, event)
		case <-timeout:
			t.Fatal("Timed out waiting for the event channel to close")
		}
	}
}

func countTerminalEvents(events []domain.ProgressEvent) int {
	terminal := 0
	for _, event := range events {
		if event.Name == domain.EventComplete || event.Name == domain.EventError {
			terminal++
		}
	}
	return terminal
}

func TestProgressEmitterStreamsEventsInOrder(t *testing.T) {
	emitter := newProgressEmitterForTest(t, &stagePlayingOrchestrator{})
	params := generateVideoParamsForTest()

	events := collectEvents(t, emitter.Stream(context.Background(), params))

	wantNames := []string{
		domain.EventStart,
		domain.EventPhase,
		domain.EventPhase,
		domain.EventPhase,
		domain.EventPhase,
		domain.EventComplete,
	}
	if len(events) != len(wantNames) {
		t.Fatalf("Expected %d events, got %d: %+v", len(wantNames), len(events), events)
	}
	for i, want := range wantNames {
		if events[i].Name != want {
			t.Errorf("Expected event %d to be %s, got %s", i, want, events[i].Name)
		}
	}

	start, ok := events[0].Payload.(domain.StartPayload)
	if !ok {
		t.Fatalf("Expected a start payload, got %T", events[0].Payload)
	}
	if start.RunID != params.RunID || start.Topic != params.Topic {
		t.Errorf("Expected the start event to identify the run, got %+v", start)
	}

	firstPhase, ok := events[1].Payload.(domain.PhasePayload)
	if !ok {
		t.Fatalf("Expected a phase payload, got %T", events[1].Payload)
	}
	if firstPhase.Phase != 1 || firstPhase.Status != domain.PhaseStatusProcessing || firstPhase.Cost != nil {
		t.Errorf("Expected phase 1 processing without cost, got %+v", firstPhase)
	}

	firstDone, ok := events[2].Payload.(domain.PhasePayload)
	if !ok {
		t.Fatalf("Expected a phase payload, got %T", events[2].Payload)
	}
	if firstDone.Status != domain.PhaseStatusCompleted || firstDone.Cost == nil {
		t.Fatalf("Expected phase 1 completed with a cost, got %+v", firstDone)
	}
	if math.Abs(*firstDone.Cost-0.02) > 1e-9 {
		t.Errorf("Expected phase 1 cost 0.02, got %f", *firstDone.Cost)
	}

	complete, ok := events[len(events)-1].Payload.(domain.CompletePayload)
	if !ok {
		t.Fatalf("Expected a complete payload, got %T", events[len(events)-1].Payload)
	}
	if complete.VideoURL == "" {
		t.Error("Expected the complete event to carry the video URL")
	}
	if math.Abs(complete.TotalCost-0.32) > 1e-9 {
		t.Errorf("Expected total cost 0.32, got %f", complete.TotalCost)
	}

	if terminal := countTerminalEvents(events); terminal != 1 {
		t.Errorf("Expected exactly one terminal event, got %d", terminal)
	}
}

func TestProgressEmitterEndsWithErrorEventWhenRunFails(t *testing.T) {
	cause := &domain.FatalStageFailure{
		Stage: domain.StageScriptGeneration,
		Err:   errors.New("script model unavailable"),
	}
	emitter := newProgressEmitterForTest(t, &stagePlayingOrchestrator{err: cause})
	params := generateVideoParamsForTest()

	events := collectEvents(t, emitter.Stream(context.Background(), params))

	wantNames := []string{domain.EventStart, domain.EventPhase, domain.EventError}
	if len(events) != len(wantNames) {
		t.Fatalf("Expected %d events, got %d: %+v", len(wantNames), len(events), events)
	}
	for i, want := range wantNames {
		if events[i].Name != want {
			t.Errorf("Expected event %d to be %s, got %s", i, want, events[i].Name)
		}
	}

	errorPayload, ok := events[len(events)-1].Payload.(domain.ErrorPayload)
	if !ok {
		t.Fatalf("Expected an error payload, got %T", events[len(events)-1].Payload)
	}
	if errorPayload.RunID != params.RunID {
		t.Errorf("Expected the error event to identify the run, got %+v", errorPayload)
	}
	if errorPayload.Message != cause.Error() {
		t.Errorf("Expected the error message %q, got %q", cause.Error(), errorPayload.Message)
	}

	if terminal := countTerminalEvents(events); terminal != 1 {
		t.Errorf("Expected exactly one terminal event, got %d", terminal)
	}
}

func TestProgressEmitterReportsDispatchFailure(t *testing.T) {
	emitter := NewProgressEmitter(adapters.NewZerologWrapper("error"), &stagePlayingOrchestrator{}, failingDispatcher{})

	events := collectEvents(t, emitter.Stream(context.Background(), generateVideoParamsForTest()))

	if len(events) != 1 {
		t.Fatalf("Expected a single error event, got %d: %+v", len(events), events)
	}
	if events[0].Name != domain.EventError {
		t.Errorf("Expected an error event, got %s", events[0].Name)
	}
}

func TestProgressEmitterDoesNotBlockWithoutConsumer(t *testing.T) {
	emitter := newProgressEmitterForTest(t, &stagePlayingOrchestrator{})

	events := emitter.Stream(context.Background(), generateVideoParamsForTest())

	// Let the run finish while nothing reads from the channel.
	time.Sleep(200 * time.Millisecond)

	collected := collectEvents(t, events)
	if len(collected) != 6 {
		t.Fatalf("Expected all 6 events to be buffered, got %d", len(collected))
	}
}
