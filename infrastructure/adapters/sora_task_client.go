package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

const longDurationClass = "15"

type soraCreateTaskRequest struct {
	Model string              `json:"model"`
	Input soraCreateTaskInput `json:"input"`
}

type soraCreateTaskInput struct {
	Prompt          string `json:"prompt"`
	AspectRatio     string `json:"aspect_ratio"`
	NFrames         string `json:"n_frames"`
	RemoveWatermark bool   `json:"remove_watermark"`
}

type soraCreateTaskResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type soraRecordInfoResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    *soraTaskRecord `json:"data"`
}

type soraTaskRecord struct {
	State      string `json:"state"`
	ResultJson string `json:"resultJson"`
	FailCode   string `json:"failCode"`
	FailMsg    string `json:"failMsg"`
}

type soraResultPayload struct {
	ResultUrls []string `json:"resultUrls"`
	ResultUrl  string   `json:"resultUrl"`
}

type soraTaskClient struct {
	ContentFetcher
	logger     outbound.LoggerPort
	soraConfig *config.SoraConfig
}

func NewSoraTaskClient(contentFetcher ContentFetcher, soraConfig *config.SoraConfig, logger outbound.LoggerPort) outbound.RemoteTaskClientPort {
	return &soraTaskClient{
		ContentFetcher: contentFetcher,
		logger:         logger,
		soraConfig:     soraConfig,
	}
}

func (c *soraTaskClient) Submit(ctx context.Context, params outbound.SubmitTaskParams) (*domain.RemoteJob, error) {
	requestBody := soraCreateTaskRequest{
		Model: c.soraConfig.Model,
		Input: soraCreateTaskInput{
			Prompt:          params.Prompt,
			AspectRatio:     params.AspectRatio,
			NFrames:         params.DurationClass,
			RemoveWatermark: params.RemoveWatermark,
		},
	}
	payload, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.soraConfig.ApiUrl+"/jobs/createTask", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	responsePayload, err := c.FetchContent(req)
	if err != nil {
		return nil, &domain.RemoteServiceError{Message: err.Error()}
	}

	var response soraCreateTaskResponse
	if err := json.Unmarshal(responsePayload, &response); err != nil {
		return nil, &domain.RemoteServiceError{Message: "failed to decode create task response: " + err.Error()}
	}
	if response.Code != http.StatusOK {
		return nil, &domain.RemoteServiceError{Code: strconv.Itoa(response.Code), Message: response.Message}
	}
	if response.Data == nil || response.Data.TaskID == "" {
		return nil, &domain.RemoteServiceError{Message: "create task response is missing a task id"}
	}

	job := &domain.RemoteJob{
		ID:              response.Data.TaskID,
		Prompt:          params.Prompt,
		AspectRatio:     params.AspectRatio,
		DurationClass:   params.DurationClass,
		RemoveWatermark: params.RemoveWatermark,
		Status:          domain.JobStatusQueued,
		Cost:            c.taskCost(params.DurationClass),
	}
	c.logger.DebugWithFields("Submitted generation task", map[string]interface{}{
		"taskID": job.ID,
		"cost":   job.Cost,
	})
	return job, nil
}

func (c *soraTaskClient) Poll(ctx context.Context, jobID string) (*outbound.PollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.soraConfig.ApiUrl+"/jobs/recordInfo?taskId="+url.QueryEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	responsePayload, err := c.FetchContent(req)
	if err != nil {
		return nil, &domain.RemoteServiceError{Message: err.Error()}
	}

	var response soraRecordInfoResponse
	if err := json.Unmarshal(responsePayload, &response); err != nil {
		return nil, &domain.RemoteServiceError{Message: "failed to decode record info response: " + err.Error()}
	}
	if response.Code != http.StatusOK {
		return nil, &domain.RemoteServiceError{Code: strconv.Itoa(response.Code), Message: response.Message}
	}
	// The provider reports a null record while the task is still registering.
	if response.Data == nil {
		return &outbound.PollResult{Status: domain.JobStatusQueued}, nil
	}

	switch response.Data.State {
	case "waiting", "queuing":
		return &outbound.PollResult{Status: domain.JobStatusQueued}, nil
	case "generating":
		return &outbound.PollResult{Status: domain.JobStatusRunning}, nil
	case "success":
		artifactURL, err := extractArtifactURL(response.Data.ResultJson)
		if err != nil {
			return nil, err
		}
		return &outbound.PollResult{Status: domain.JobStatusSucceeded, ArtifactURL: artifactURL}, nil
	case "fail":
		message := response.Data.FailMsg
		if message == "" {
			message = "generation failed"
		}
		return &outbound.PollResult{
			Status:       domain.JobStatusFailed,
			ErrorCode:    response.Data.FailCode,
			ErrorMessage: message,
		}, nil
	default:
		c.logger.WarnWithFields("Provider returned an unmapped task state", map[string]interface{}{
			"taskID": jobID,
			"state":  response.Data.State,
		})
		return &outbound.PollResult{Status: domain.JobStatusUnknown}, nil
	}
}

func (c *soraTaskClient) AwaitCompletion(ctx context.Context, job *domain.RemoteJob, maxWait time.Duration, pollInterval time.Duration) error {
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		result, err := c.Poll(ctx, job.ID)
		if err != nil {
			// A canceled wait leaves the job untouched: the provider may
			// still finish it, the caller just stopped waiting.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			job.MarkFailed(err.Error())
			return err
		}

		switch result.Status {
		case domain.JobStatusSucceeded:
			job.MarkSucceeded(result.ArtifactURL)
			return nil
		case domain.JobStatusFailed:
			job.MarkFailed(result.ErrorMessage)
			return &domain.RemoteServiceError{Code: result.ErrorCode, Message: result.ErrorMessage}
		case domain.JobStatusRunning:
			job.MarkRunning()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			job.MarkTimedOut()
			return &domain.TimeoutError{JobID: job.ID, MaxWait: maxWait}
		case <-ticker.C:
		}
	}
}

func (c *soraTaskClient) DownloadArtifact(ctx context.Context, artifactURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifactURL, nil)
	if err != nil {
		return nil, err
	}

	payload, err := c.FetchContent(req)
	if err != nil {
		return nil, &domain.RemoteServiceError{Message: err.Error()}
	}
	return payload, nil
}

func (c *soraTaskClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.soraConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")
}

func (c *soraTaskClient) taskCost(durationClass string) float64 {
	if durationClass == longDurationClass {
		return c.soraConfig.CostPer10s * 1.5
	}
	return c.soraConfig.CostPer10s
}

func extractArtifactURL(resultJson string) (string, error) {
	var result soraResultPayload
	if err := json.Unmarshal([]byte(resultJson), &result); err != nil {
		return "", &domain.RemoteServiceError{Message: "failed to decode task result payload: " + err.Error()}
	}
	if len(result.ResultUrls) > 0 {
		return result.ResultUrls[0], nil
	}
	if result.ResultUrl != "" {
		return result.ResultUrl, nil
	}
	return "", &domain.RemoteServiceError{Message: fmt.Sprintf("task result holds no artifact url: %s", resultJson)}
}
