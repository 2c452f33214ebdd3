package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/inbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
	"github.com/sirliboyev-uz/ai-video-agent/infrastructure/adapters"
	"github.com/sirliboyev-uz/ai-video-agent/infrastructure/gin_interface/dto"
)

type stubOrchestrator struct {
	err    error
	params inbound.GenerateVideoParams
}

func (s *stubOrchestrator) Execute(_ context.Context, params inbound.GenerateVideoParams, _ inbound.StageObserver) (*domain.PipelineRun, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	run := domain.NewPipelineRun(params.RunID, params.Topic)
	_ = run.CommitStage(domain.StageResult{Stage: domain.StageScriptGeneration, Cost: 0.02})
	_ = run.Complete("https://bucket.s3.amazonaws.com/final.mp4")
	return run, nil
}

type stubProgressStreamer struct {
	params inbound.GenerateVideoParams
}

func (s *stubProgressStreamer) Stream(_ context.Context, params inbound.GenerateVideoParams) <-chan domain.ProgressEvent {
	s.params = params
	cost := 0.02

	events := make(chan domain.ProgressEvent, 4)
	events <- domain.ProgressEvent{Name: domain.EventStart, Payload: domain.StartPayload{RunID: params.RunID, Topic: params.Topic}}
	events <- domain.ProgressEvent{Name: domain.EventPhase, Payload: domain.PhasePayload{Phase: 1, Name: domain.StageScriptGeneration, Status: domain.PhaseStatusProcessing}}
	events <- domain.ProgressEvent{Name: domain.EventPhase, Payload: domain.PhasePayload{Phase: 1, Name: domain.StageScriptGeneration, Status: domain.PhaseStatusCompleted, Cost: &cost}}
	events <- domain.ProgressEvent{Name: domain.EventComplete, Payload: domain.CompletePayload{RunID: params.RunID, VideoURL: "https://bucket.s3.amazonaws.com/final.mp4", TotalCost: 1.12}}
	close(events)
	return events
}

func newVideoEngineForTest(orchestrator inbound.PipelineOrchestratorPort, streamer inbound.ProgressStreamerPort) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	pipelineConfig := &config.PipelineConfig{SceneCount: 6, Resolution: "1080x1920"}
	controller := NewVideoController(adapters.NewZerologWrapper("error"), orchestrator, streamer, pipelineConfig)
	controller.RegisterRoutes(engine)
	return engine
}

func TestVideoControllerGenerateVideo(t *testing.T) {
	orchestrator := &stubOrchestrator{}
	engine := newVideoEngineForTest(orchestrator, &stubProgressStreamer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(`{"topic":"compound interest"}`))
	request.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response dto.GenerateVideoResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatal("Failed to decode response:", err)
	}
	if response.Status != string(domain.RunStatusCompleted) {
		t.Errorf("Expected a completed run, got %q", response.Status)
	}
	if response.VideoURL == "" {
		t.Error("Expected the response to carry the video URL")
	}
	if response.RunID == "" {
		t.Error("Expected the response to carry the run id")
	}

	if orchestrator.params.Style != "educational" || orchestrator.params.Niche != "finance" {
		t.Errorf("Expected default style and niche, got %q / %q", orchestrator.params.Style, orchestrator.params.Niche)
	}
	if orchestrator.params.DurationSeconds != 60 {
		t.Errorf("Expected the default duration, got %d", orchestrator.params.DurationSeconds)
	}
	if orchestrator.params.SceneCount != 6 {
		t.Errorf("Expected the configured scene count, got %d", orchestrator.params.SceneCount)
	}
	if orchestrator.params.AspectRatio != "portrait" || orchestrator.params.DurationClass != "10" {
		t.Errorf("Expected default aspect and duration class, got %q / %q", orchestrator.params.AspectRatio, orchestrator.params.DurationClass)
	}
}

func TestVideoControllerGenerateVideoRequiresTopic(t *testing.T) {
	engine := newVideoEngineForTest(&stubOrchestrator{}, &stubProgressStreamer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(`{}`))
	request.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", recorder.Code)
	}
}

func TestVideoControllerGenerateVideoReportsFailure(t *testing.T) {
	orchestrator := &stubOrchestrator{
		err: &domain.FatalStageFailure{Stage: domain.StageScriptGeneration, Err: context.DeadlineExceeded},
	}
	engine := newVideoEngineForTest(orchestrator, &stubProgressStreamer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(`{"topic":"compound interest"}`))
	request.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "run_id") {
		t.Error("Expected the failure response to carry the run id")
	}
}

func TestVideoControllerStreamsEventFrames(t *testing.T) {
	streamer := &stubProgressStreamer{}
	engine := newVideoEngineForTest(&stubOrchestrator{}, streamer)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/generate/stream", bytes.NewBufferString(`{"topic":"compound interest"}`))
	request.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Expected a text/event-stream content type, got %q", got)
	}

	body := recorder.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(frames) != 4 {
		t.Fatalf("Expected 4 frames, got %d: %q", len(frames), body)
	}

	wantPrefixes := []string{
		"event: start\ndata: ",
		"event: phase\ndata: ",
		"event: phase\ndata: ",
		"event: complete\ndata: ",
	}
	for i, frame := range frames {
		if !strings.HasPrefix(frame, wantPrefixes[i]) {
			t.Errorf("Expected frame %d to start with %q, got %q", i, wantPrefixes[i], frame)
		}
	}

	var start domain.StartPayload
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "event: start\ndata: ")), &start); err != nil {
		t.Fatal("Failed to decode start payload:", err)
	}
	if start.RunID != streamer.params.RunID {
		t.Errorf("Expected the streamed run id %q, got %q", streamer.params.RunID, start.RunID)
	}

	var complete domain.CompletePayload
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[3], "event: complete\ndata: ")), &complete); err != nil {
		t.Fatal("Failed to decode complete payload:", err)
	}
	if complete.TotalCost != 1.12 {
		t.Errorf("Expected total cost 1.12, got %f", complete.TotalCost)
	}
}

func TestVideoControllerHealth(t *testing.T) {
	engine := newVideoEngineForTest(&stubOrchestrator{}, &stubProgressStreamer{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
}
