package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type ElevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type narrationGenerator struct {
	ContentFetcher
	elevenLabsConfig *config.ElevenLabsConfig
}

func NewNarrationGenerator(contentFetcher ContentFetcher, elevenLabsConfig *config.ElevenLabsConfig) outbound.NarrationGeneratorPort {
	return &narrationGenerator{
		ContentFetcher:   contentFetcher,
		elevenLabsConfig: elevenLabsConfig,
	}
}

func (a *narrationGenerator) Generate(ctx context.Context, params outbound.GenerateNarrationParams) (*outbound.GeneratedNarration, error) {
	if params.Text == "" {
		return nil, &domain.ValidationError{Message: "narration text must not be empty"}
	}

	voiceID := params.VoiceID
	if voiceID == "" {
		voiceID = a.elevenLabsConfig.VoiceId
	}

	req, err := a.getRequest(ctx, params.Text, voiceID)
	if err != nil {
		log.Error().Err(err).Str("action", "Fetching Narration").Msg("Failed to construct the HTTP request for narration fetching")
		return nil, err
	}

	audio, err := a.FetchContent(req)
	if err != nil {
		return nil, &domain.RemoteServiceError{Message: err.Error()}
	}

	characterCount := utf8.RuneCountInString(params.Text)
	return &outbound.GeneratedNarration{
		Audio:          audio,
		VoiceID:        voiceID,
		CharacterCount: characterCount,
		Cost:           float64(characterCount) * a.elevenLabsConfig.CostPerChar,
	}, nil
}

func (a *narrationGenerator) getRequest(ctx context.Context, text string, voiceID string) (*http.Request, error) {
	reqBody := ElevenLabsRequest{
		Text:    text,
		ModelId: a.elevenLabsConfig.ModelId,
		VoiceSettings: VoiceSettings{
			Stability:       a.elevenLabsConfig.Stability,
			SimilarityBoost: a.elevenLabsConfig.SimilarityBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		log.Error().Err(err).Str("action", "Marshalling JSON").Interface("ElevenLabsRequest", reqBody).Msg("Failed to marshal the request body for ElevenLabs API")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.elevenLabsConfig.ApiUrl+"/"+voiceID, bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Error().Err(err).Str("action", "Creating HTTP Request").Str("URL", a.elevenLabsConfig.ApiUrl+"/"+voiceID).Msg("Failed to create the HTTP POST request")
		return nil, err
	}

	reqHeaders := map[string]string{
		"Accept":       "audio/mpeg",
		"xi-api-key":   a.elevenLabsConfig.ApiKey,
		"Content-Type": "application/json",
	}
	for key, value := range reqHeaders {
		req.Header.Add(key, value)
	}

	return req, nil
}
