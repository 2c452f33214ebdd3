package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/inbound"
	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type pipelineOrchestrator struct {
	logger             outbound.LoggerPort
	scriptGenerator    outbound.ScriptGeneratorPort
	scenePlanner       outbound.ScenePlannerPort
	narrationGenerator outbound.NarrationGeneratorPort
	sceneBatch         inbound.SceneBatchGeneratorPort
	taskClient         outbound.RemoteTaskClientPort
	videoAssembler     outbound.VideoAssemblerPort
	mediaStore         outbound.MediaStorePort
	runRecorder        outbound.RunRecorderPort
	videoPublisher     outbound.VideoPublisherPort
	pipelineConfig     *config.PipelineConfig
}

func NewPipelineOrchestrator(
	logger outbound.LoggerPort,
	scriptGenerator outbound.ScriptGeneratorPort,
	scenePlanner outbound.ScenePlannerPort,
	narrationGenerator outbound.NarrationGeneratorPort,
	sceneBatch inbound.SceneBatchGeneratorPort,
	taskClient outbound.RemoteTaskClientPort,
	videoAssembler outbound.VideoAssemblerPort,
	mediaStore outbound.MediaStorePort,
	runRecorder outbound.RunRecorderPort,
	videoPublisher outbound.VideoPublisherPort,
	pipelineConfig *config.PipelineConfig) inbound.PipelineOrchestratorPort {
	return &pipelineOrchestrator{
		logger:             logger,
		scriptGenerator:    scriptGenerator,
		scenePlanner:       scenePlanner,
		narrationGenerator: narrationGenerator,
		sceneBatch:         sceneBatch,
		taskClient:         taskClient,
		videoAssembler:     videoAssembler,
		mediaStore:         mediaStore,
		runRecorder:        runRecorder,
		videoPublisher:     videoPublisher,
		pipelineConfig:     pipelineConfig,
	}
}

type nopStageObserver struct{}

func (nopStageObserver) StageStarted(int, string)            {}
func (nopStageObserver) StageCompleted(int, string, float64) {}

func (s *pipelineOrchestrator) Execute(ctx context.Context, params inbound.GenerateVideoParams, observer inbound.StageObserver) (*domain.PipelineRun, error) {
	if observer == nil {
		observer = nopStageObserver{}
	}

	run := domain.NewPipelineRun(params.RunID, params.Topic)
	if err := s.runRecorder.Save(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error(err, "Failed to persist new pipeline run")
		return nil, err
	}
	s.logger.InfoWithFields("Pipeline run started", map[string]interface{}{
		"runID": run.ID,
		"topic": run.Topic,
	})

	observer.StageStarted(1, domain.StageScriptGeneration)
	scriptResult, script, err := s.runScriptStage(ctx, params)
	if err != nil {
		return run, s.failRun(ctx, run, domain.StageScriptGeneration, err)
	}
	if err := s.commitStage(ctx, run, *scriptResult); err != nil {
		return run, s.failRun(ctx, run, domain.StageScriptGeneration, err)
	}
	observer.StageCompleted(1, domain.StageScriptGeneration, scriptResult.Cost)

	observer.StageStarted(2, domain.StageVoiceSynthesis)
	narrationResult, narrationAudio, err := s.runNarrationStage(ctx, params, script)
	if err != nil {
		return run, s.failRun(ctx, run, domain.StageVoiceSynthesis, err)
	}
	if err := s.commitStage(ctx, run, *narrationResult); err != nil {
		return run, s.failRun(ctx, run, domain.StageVoiceSynthesis, err)
	}
	observer.StageCompleted(2, domain.StageVoiceSynthesis, narrationResult.Cost)

	observer.StageStarted(3, domain.StageVisualGeneration)
	visualResult, sceneURLs, err := s.runVisualStage(ctx, params, script)
	if err != nil {
		return run, s.failRun(ctx, run, domain.StageVisualGeneration, err)
	}
	if err := s.commitStage(ctx, run, *visualResult); err != nil {
		return run, s.failRun(ctx, run, domain.StageVisualGeneration, err)
	}
	observer.StageCompleted(3, domain.StageVisualGeneration, visualResult.Cost)

	observer.StageStarted(4, domain.StageVideoAssembly)
	assemblyResult, videoURL, err := s.runAssemblyStage(ctx, params, narrationAudio, sceneURLs)
	if err != nil {
		return run, s.failRun(ctx, run, domain.StageVideoAssembly, err)
	}
	if err := s.commitStage(ctx, run, *assemblyResult); err != nil {
		return run, s.failRun(ctx, run, domain.StageVideoAssembly, err)
	}
	observer.StageCompleted(4, domain.StageVideoAssembly, assemblyResult.Cost)

	if err := run.Complete(videoURL); err != nil {
		s.logger.Error(err, "Failed to mark pipeline run completed")
		return run, err
	}
	if err := s.runRecorder.Save(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error(err, "Failed to persist completed pipeline run")
		return run, err
	}

	s.logger.InfoWithFields("Pipeline run completed", map[string]interface{}{
		"runID":     run.ID,
		"videoURL":  run.VideoURL,
		"totalCost": run.TotalCost,
	})
	return run, nil
}

// commitStage makes the stage durable before the next stage may start. The
// recorder write deliberately survives request cancellation.
func (s *pipelineOrchestrator) commitStage(ctx context.Context, run *domain.PipelineRun, result domain.StageResult) error {
	if err := run.CommitStage(result); err != nil {
		return err
	}
	if err := s.runRecorder.Save(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("failed to persist %s stage: %w", result.Stage, err)
	}
	return nil
}

func (s *pipelineOrchestrator) failRun(ctx context.Context, run *domain.PipelineRun, stage string, cause error) error {
	failure := &domain.FatalStageFailure{Stage: stage, Err: cause}
	if err := run.Fail(failure.Error()); err != nil {
		s.logger.Error(err, "Failed to mark pipeline run failed")
	}
	if err := s.runRecorder.Save(context.WithoutCancel(ctx), run); err != nil {
		s.logger.ErrorWithFields(err, "Failed to persist failed pipeline run", map[string]interface{}{
			"runID": run.ID,
		})
	}
	s.logger.ErrorWithFields(cause, "Pipeline run failed", map[string]interface{}{
		"runID": run.ID,
		"stage": stage,
	})
	return failure
}

func (s *pipelineOrchestrator) runScriptStage(ctx context.Context, params inbound.GenerateVideoParams) (*domain.StageResult, *domain.VideoScript, error) {
	generated, err := s.scriptGenerator.Generate(ctx, outbound.GenerateScriptParams{
		Topic:           params.Topic,
		Style:           params.Style,
		Niche:           params.Niche,
		DurationSeconds: params.DurationSeconds,
	})
	if err != nil {
		return nil, nil, err
	}

	payload, err := json.Marshal(generated.Script)
	if err != nil {
		return nil, nil, err
	}
	scriptURL, err := s.mediaStore.Save(ctx, outbound.StoreMediaParams{
		RunID:   params.RunID,
		UserID:  params.UserID,
		Kind:    "script",
		Content: payload,
	})
	if err != nil {
		return nil, nil, err
	}

	result := &domain.StageResult{
		Stage:     domain.StageScriptGeneration,
		Artifacts: []string{scriptURL},
		Cost:      generated.Cost,
		Metadata: map[string]interface{}{
			"hook":       generated.Script.Hook,
			"word_count": generated.Script.EstimatedWordCount,
		},
	}
	return result, &generated.Script, nil
}

func (s *pipelineOrchestrator) runNarrationStage(ctx context.Context, params inbound.GenerateVideoParams, script *domain.VideoScript) (*domain.StageResult, []byte, error) {
	narration, err := s.narrationGenerator.Generate(ctx, outbound.GenerateNarrationParams{
		Text:    script.FullScript,
		VoiceID: params.VoiceID,
	})
	if err != nil {
		return nil, nil, err
	}

	audioURL, err := s.mediaStore.Save(ctx, outbound.StoreMediaParams{
		RunID:   params.RunID,
		UserID:  params.UserID,
		Kind:    "narration",
		Content: narration.Audio,
	})
	if err != nil {
		return nil, nil, err
	}

	result := &domain.StageResult{
		Stage:     domain.StageVoiceSynthesis,
		Artifacts: []string{audioURL},
		Cost:      narration.Cost,
		Metadata: map[string]interface{}{
			"voice_id":        narration.VoiceID,
			"character_count": narration.CharacterCount,
		},
	}
	return result, narration.Audio, nil
}

func (s *pipelineOrchestrator) runVisualStage(ctx context.Context, params inbound.GenerateVideoParams, script *domain.VideoScript) (*domain.StageResult, []string, error) {
	descriptions, err := s.scenePlanner.PlanScenes(ctx, script.FullScript, params.SceneCount)
	if err != nil {
		return nil, nil, err
	}
	prompts, err := s.scenePlanner.EnhancePrompts(ctx, descriptions)
	if err != nil {
		return nil, nil, err
	}

	batch, err := s.sceneBatch.Generate(ctx, inbound.GenerateScenesParams{
		RunID:         params.RunID,
		Prompts:       prompts,
		SceneCount:    params.SceneCount,
		AspectRatio:   params.AspectRatio,
		DurationClass: params.DurationClass,
	})
	if err != nil {
		return nil, nil, err
	}

	result := &domain.StageResult{
		Stage:     domain.StageVisualGeneration,
		Artifacts: batch.ArtifactURLs,
		Cost:      batch.TotalCost,
		Metadata: map[string]interface{}{
			"scene_descriptions": descriptions,
			"video_prompts":      prompts,
			"failed_scenes":      batch.Failures,
		},
	}
	return result, batch.ArtifactURLs, nil
}

func (s *pipelineOrchestrator) runAssemblyStage(ctx context.Context, params inbound.GenerateVideoParams, narrationAudio []byte, sceneURLs []string) (*domain.StageResult, string, error) {
	tempFiles := make([]string, 0, len(sceneURLs)+1)
	defer func() {
		for _, name := range tempFiles {
			if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
				s.logger.Error(err, "Failed to remove temporary media file")
			}
		}
	}()

	clipFileNames := make([]string, 0, len(sceneURLs))
	for _, sceneURL := range sceneURLs {
		clip, err := s.taskClient.DownloadArtifact(ctx, sceneURL)
		if err != nil {
			return nil, "", err
		}
		fileName, err := s.writeMediaToFile(clip, ".mp4")
		if err != nil {
			return nil, "", err
		}
		tempFiles = append(tempFiles, fileName)
		clipFileNames = append(clipFileNames, fileName)
	}

	audioFileName, err := s.writeMediaToFile(narrationAudio, ".mp3")
	if err != nil {
		return nil, "", err
	}
	tempFiles = append(tempFiles, audioFileName)

	assembled, err := s.videoAssembler.Assemble(outbound.AssembleVideoParams{
		ClipFileNames: clipFileNames,
		AudioFileName: audioFileName,
		Resolution:    s.pipelineConfig.Resolution,
	})
	if err != nil {
		return nil, "", err
	}

	published, err := s.videoPublisher.Publish(ctx, outbound.PublishVideoRequest{
		VideoFileName: assembled.FileName,
		RunID:         params.RunID,
		UserID:        params.UserID,
	})
	if err != nil {
		return nil, "", err
	}

	result := &domain.StageResult{
		Stage:     domain.StageVideoAssembly,
		Artifacts: []string{published.VideoURL},
		Cost:      0,
		Metadata: map[string]interface{}{
			"clips":            len(clipFileNames),
			"duration_seconds": assembled.Metadata.DurationSeconds,
			"size_bytes":       assembled.Metadata.SizeBytes,
			"width":            assembled.Metadata.Width,
			"height":           assembled.Metadata.Height,
			"video_key":        published.VideoKey,
			"store_region":     published.StoreRegion,
		},
	}
	return result, published.VideoURL, nil
}

func (s *pipelineOrchestrator) writeMediaToFile(content []byte, extension string) (string, error) {
	file, err := os.Create("/tmp/" + uuid.NewString() + extension)
	if err != nil {
		s.logger.Error(err, "Failed to create temporary media file")
		return "", err
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			s.logger.Error(err, "Failed to close temporary media file")
		}
	}(file)

	if _, err := file.Write(content); err != nil {
		s.logger.Error(err, "Failed to write temporary media file")
		return "", err
	}
	return file.Name(), nil
}
