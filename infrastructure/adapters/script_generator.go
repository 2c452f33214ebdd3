package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/donovanhide/eventsource"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

const DoneSignal = "[DONE]"
const MaxRetries = 3

type chatGptRequest struct {
	Stream         bool                   `json:"stream"`
	Model          string                 `json:"model"`
	Messages       []chatGptMessage       `json:"messages"`
	ResponseFormat *chatGptResponseFormat `json:"response_format,omitempty"`
}

type chatGptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatGptResponseFormat struct {
	Type string `json:"type"`
}

type chatGptChunkBody struct {
	Choices []chatGptResponseChoice `json:"choices"`
}

type chatGptResponseChoice struct {
	Index int `json:"index"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type scriptGenerator struct {
	logger    outbound.LoggerPort
	gptConfig *config.GptConfig
}

func NewScriptGenerator(gptConfig *config.GptConfig, logger outbound.LoggerPort) outbound.ScriptGeneratorPort {
	return &scriptGenerator{
		logger:    logger,
		gptConfig: gptConfig,
	}
}

func (s *scriptGenerator) Generate(ctx context.Context, params outbound.GenerateScriptParams) (*outbound.GeneratedScript, error) {
	req, err := s.createRequest(ctx, params)
	if err != nil {
		s.logger.Error(err, "Failed to create HTTP request for script stream")
		return nil, err
	}

	stream, err := eventsource.SubscribeWithRequest("", req)
	if err != nil {
		s.logger.Error(err, "Failed to subscribe to script stream")
		return nil, &domain.RemoteServiceError{Message: err.Error()}
	}
	defer stream.Close()

	var builder strings.Builder
	retryCount := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-stream.Events:
			if !ok {
				return s.finishScript(builder.String())
			}
			if ev.Data() == DoneSignal {
				return s.finishScript(builder.String())
			}
			payload, err := s.extractPayload(ev)
			if err != nil {
				return nil, &domain.RemoteServiceError{Message: err.Error()}
			}
			builder.WriteString(payload)
			retryCount = 0
		case err := <-stream.Errors:
			if err == io.EOF {
				s.logger.Info("Script stream closed")
				return s.finishScript(builder.String())
			}
			if retryCount < MaxRetries {
				s.logger.ErrorWithFields(err, "Error occurred during streaming, retrying", map[string]interface{}{
					"retry_count": retryCount})
				retryCount++
				// the subscription replays the request from scratch
				builder.Reset()
				continue
			}
			s.logger.Error(err, "Error occurred during streaming, max retries reached")
			return nil, &domain.RemoteServiceError{Message: err.Error()}
		}
	}
}

func (s *scriptGenerator) finishScript(raw string) (*outbound.GeneratedScript, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &domain.RemoteServiceError{Message: "script stream produced no content"}
	}

	var script domain.VideoScript
	if err := json.Unmarshal([]byte(raw), &script); err != nil {
		return nil, &domain.ValidationError{Message: "script response is not valid JSON: " + err.Error()}
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}

	estimatedTokens := (len(raw) + 3) / 4
	cost := float64(estimatedTokens) * s.gptConfig.CostPer1MTokens / 1000000.0

	s.logger.InfoWithFields("Generated video script", map[string]interface{}{
		"word_count": script.EstimatedWordCount,
		"cost":       cost,
	})

	return &outbound.GeneratedScript{
		Script: script,
		Cost:   cost,
	}, nil
}

func (s *scriptGenerator) extractPayload(event eventsource.Event) (string, error) {
	var chunkBody chatGptChunkBody
	err := json.Unmarshal([]byte(event.Data()), &chunkBody)
	if err != nil {
		s.logger.Error(err, "Failed to unmarshal event data")
		return "", err
	}
	if len(chunkBody.Choices) == 0 {
		return "", nil
	}

	return chunkBody.Choices[0].Delta.Content, nil
}

func (s *scriptGenerator) createRequest(ctx context.Context, params outbound.GenerateScriptParams) (*http.Request, error) {
	systemMessage := chatGptMessage{
		Role: "system",
		Content: "You are a scriptwriter for short-form vertical video. " +
			"You always answer with a single JSON object and nothing else.",
	}
	promptMessage := chatGptMessage{
		Role: "user",
		Content: fmt.Sprintf("Write a %d-second video script about: %s.\n"+
			"Style: %s. Target niche: %s.\n"+
			"Answer with a JSON object holding exactly these keys:\n"+
			"- hook: attention grab for the first two seconds\n"+
			"- value_prop: why the viewer should keep watching\n"+
			"- main_content: the body of the script\n"+
			"- cta: closing call to action\n"+
			"- full_script: hook, value_prop, main_content and cta joined into the spoken narration\n"+
			"- estimated_word_count: integer word count of full_script\n"+
			"- scene_descriptions: array of short visual descriptions, one per scene",
			params.DurationSeconds, params.Topic, params.Style, params.Niche),
	}

	promptReq := chatGptRequest{
		Stream:         true,
		Model:          s.gptConfig.Model,
		Messages:       []chatGptMessage{systemMessage, promptMessage},
		ResponseFormat: &chatGptResponseFormat{Type: "json_object"},
	}

	payloadBytes, err := json.Marshal(promptReq)
	if err != nil {
		s.logger.Error(err, "Failed to marshal the request body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.gptConfig.ApiUrl, bytes.NewBuffer(payloadBytes))
	if err != nil {
		s.logger.Error(err, "Failed to create the HTTP request")
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.gptConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
