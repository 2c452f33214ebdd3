package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/inbound"
	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/channel_utils"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type sceneBatchGenerator struct {
	logger          outbound.LoggerPort
	taskClient      outbound.RemoteTaskClientPort
	workerPool      outbound.TaskDispatcher
	pipelineConfig  *config.PipelineConfig
	removeWatermark bool
}

func NewSceneBatchGenerator(
	logger outbound.LoggerPort,
	taskClient outbound.RemoteTaskClientPort,
	workerPool outbound.TaskDispatcher,
	pipelineConfig *config.PipelineConfig,
	removeWatermark bool) inbound.SceneBatchGeneratorPort {
	return &sceneBatchGenerator{
		logger:          logger,
		taskClient:      taskClient,
		workerPool:      workerPool,
		pipelineConfig:  pipelineConfig,
		removeWatermark: removeWatermark,
	}
}

func (g *sceneBatchGenerator) Generate(ctx context.Context, params inbound.GenerateScenesParams) (*domain.SceneBatchResult, error) {
	prompts, err := normalizePrompts(params.Prompts, params.SceneCount)
	if err != nil {
		return nil, err
	}

	taskChannels := make([]<-chan domain.SceneTask, 0, len(prompts))
	for i, prompt := range prompts {
		taskCh := make(chan domain.SceneTask, 1)
		taskChannels = append(taskChannels, taskCh)

		index, scenePrompt := i, prompt
		err := g.workerPool.Submit(func() {
			defer close(taskCh)
			taskCh <- g.runScene(ctx, index, scenePrompt, params)
		})
		if err != nil {
			g.logger.Error(err, "Failed to submit scene task to worker pool")
			taskCh <- domain.SceneTask{
				Index:        index,
				Prompt:       scenePrompt,
				Outcome:      domain.SceneFailed,
				ErrorMessage: err.Error(),
			}
			close(taskCh)
		}
	}

	merged, err := channel_utils.MergeChannels(g.workerPool, taskChannels...)
	if err != nil {
		g.logger.Error(err, "Failed to merge scene task channels")
		return nil, err
	}

	tasks := make([]domain.SceneTask, 0, len(prompts))
	for task := range merged {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Index < tasks[j].Index })

	result := &domain.SceneBatchResult{
		ArtifactURLs: make([]string, 0, len(tasks)),
		Failures:     make([]domain.SceneFailure, 0),
	}
	for _, task := range tasks {
		if task.Outcome == domain.SceneSucceeded {
			result.ArtifactURLs = append(result.ArtifactURLs, task.ArtifactURL)
			result.TotalCost += task.Job.Cost
		} else {
			result.Failures = append(result.Failures, domain.SceneFailure{
				Index:  task.Index,
				Prompt: task.Prompt,
				Error:  task.ErrorMessage,
			})
		}
	}

	g.logger.InfoWithFields("Scene batch finished", map[string]interface{}{
		"runID":     params.RunID,
		"requested": len(prompts),
		"succeeded": len(result.ArtifactURLs),
		"failed":    len(result.Failures),
		"cost":      result.TotalCost,
	})

	if len(result.ArtifactURLs) == 0 {
		return nil, fmt.Errorf("all %d scene tasks failed, first error: %s", len(prompts), result.Failures[0].Error)
	}
	return result, nil
}

func (g *sceneBatchGenerator) runScene(ctx context.Context, index int, prompt string, params inbound.GenerateScenesParams) domain.SceneTask {
	task := domain.SceneTask{
		Index:   index,
		Prompt:  prompt,
		Outcome: domain.ScenePending,
	}

	job, err := g.taskClient.Submit(ctx, outbound.SubmitTaskParams{
		Prompt:          prompt,
		AspectRatio:     params.AspectRatio,
		DurationClass:   params.DurationClass,
		RemoveWatermark: g.removeWatermark,
	})
	if err != nil {
		g.logger.ErrorWithFields(err, "Scene task submission failed", map[string]interface{}{
			"runID": params.RunID,
			"scene": index,
		})
		task.Outcome = domain.SceneFailed
		task.ErrorMessage = err.Error()
		return task
	}
	task.Job = job

	err = g.taskClient.AwaitCompletion(ctx, job, g.pipelineConfig.SceneMaxWait, g.pipelineConfig.ScenePollInterval)
	if err != nil {
		g.logger.ErrorWithFields(err, "Scene task did not complete", map[string]interface{}{
			"runID":  params.RunID,
			"scene":  index,
			"taskID": job.ID,
		})
		task.Outcome = domain.SceneFailed
		task.ErrorMessage = err.Error()
		return task
	}

	task.Outcome = domain.SceneSucceeded
	task.ArtifactURL = job.ArtifactURL
	return task
}

// normalizePrompts stretches or trims the prompt list to exactly sceneCount
// entries, repeating the last prompt when the planner came up short.
func normalizePrompts(prompts []string, sceneCount int) ([]string, error) {
	if sceneCount <= 0 {
		return nil, &domain.ValidationError{Message: "scene count must be positive"}
	}
	if len(prompts) == 0 {
		return nil, &domain.ValidationError{Message: "at least one scene prompt is required"}
	}

	normalized := make([]string, sceneCount)
	for i := 0; i < sceneCount; i++ {
		if i < len(prompts) {
			normalized[i] = prompts[i]
		} else {
			normalized[i] = prompts[len(prompts)-1]
		}
	}
	return normalized, nil
}
