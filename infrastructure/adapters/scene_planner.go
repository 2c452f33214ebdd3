package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type chatGptCompletionResponse struct {
	Choices []struct {
		Message chatGptMessage `json:"message"`
	} `json:"choices"`
}

type scenePlanner struct {
	ContentFetcher
	logger    outbound.LoggerPort
	gptConfig *config.GptConfig
}

func NewScenePlanner(contentFetcher ContentFetcher, gptConfig *config.GptConfig, logger outbound.LoggerPort) outbound.ScenePlannerPort {
	return &scenePlanner{
		ContentFetcher: contentFetcher,
		logger:         logger,
		gptConfig:      gptConfig,
	}
}

func (s *scenePlanner) PlanScenes(ctx context.Context, script string, sceneCount int) ([]string, error) {
	prompt := fmt.Sprintf("Split the following narration into exactly %d visual scenes for a vertical video.\n"+
		"Each scene is one short sentence describing what is on screen, without camera jargon.\n"+
		"Answer with a JSON object holding a \"scenes\" array of %d strings.\n\nNarration:\n%s",
		sceneCount, sceneCount, script)

	content, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	descriptions, err := extractStringList(content, "scenes", "scene_descriptions")
	if err != nil {
		return nil, err
	}
	if len(descriptions) == 0 {
		return nil, &domain.RemoteServiceError{Message: "scene planner returned no scene descriptions"}
	}
	return descriptions, nil
}

// EnhancePrompts rewrites scene descriptions into richer generation prompts.
// Enhancement is best effort: on any provider or shape problem the original
// descriptions are returned unchanged.
func (s *scenePlanner) EnhancePrompts(ctx context.Context, descriptions []string) ([]string, error) {
	encoded, err := json.Marshal(descriptions)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Rewrite each scene description below into a vivid prompt for a text-to-video model.\n"+
		"Keep the order and the count. Mention subject, setting, lighting and motion.\n"+
		"Answer with a JSON object holding a \"prompts\" array of %d strings.\n\nScenes:\n%s",
		len(descriptions), string(encoded))

	content, err := s.complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Prompt enhancement failed, keeping raw scene descriptions: " + err.Error())
		return descriptions, nil
	}

	prompts, err := extractStringList(content, "prompts", "enhanced_prompts", "scenes")
	if err != nil || len(prompts) != len(descriptions) {
		s.logger.WarnWithFields("Prompt enhancement returned an unusable shape, keeping raw scene descriptions", map[string]interface{}{
			"expected": len(descriptions),
			"got":      len(prompts),
		})
		return descriptions, nil
	}
	return prompts, nil
}

func (s *scenePlanner) complete(ctx context.Context, prompt string) (string, error) {
	requestBody := chatGptRequest{
		Model: s.gptConfig.Model,
		Messages: []chatGptMessage{
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &chatGptResponseFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gptConfig.ApiUrl, bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.gptConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	responsePayload, err := s.FetchContent(req)
	if err != nil {
		return "", &domain.RemoteServiceError{Message: err.Error()}
	}

	var response chatGptCompletionResponse
	if err := json.Unmarshal(responsePayload, &response); err != nil {
		return "", &domain.RemoteServiceError{Message: "failed to decode completion response: " + err.Error()}
	}
	if len(response.Choices) == 0 {
		return "", &domain.RemoteServiceError{Message: "completion response holds no choices"}
	}
	return response.Choices[0].Message.Content, nil
}

// extractStringList pulls the first present key out of a loosely shaped JSON
// object, trying the given keys in order.
func extractStringList(content string, keys ...string) ([]string, error) {
	var document map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &document); err != nil {
		return nil, &domain.RemoteServiceError{Message: "completion content is not a JSON object: " + err.Error()}
	}

	for _, key := range keys {
		raw, ok := document[key]
		if !ok {
			continue
		}
		var values []string
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, &domain.RemoteServiceError{Message: fmt.Sprintf("key %q does not hold a string array", key)}
		}
		return values, nil
	}

	// Models occasionally wrap the array in a key of their own choosing.
	if len(document) == 1 {
		for _, raw := range document {
			var values []string
			if err := json.Unmarshal(raw, &values); err == nil {
				return values, nil
			}
		}
	}
	return nil, &domain.RemoteServiceError{Message: fmt.Sprintf("completion content holds none of the expected keys %v", keys)}
}
