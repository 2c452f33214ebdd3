package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

func newNarrationGeneratorForTest(t *testing.T, handler http.HandlerFunc) outbound.NarrationGeneratorPort {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	elevenLabsConfig := &config.ElevenLabsConfig{
		ApiUrl:          server.URL,
		ApiKey:          "test-key",
		ModelId:         "eleven_turbo_v2",
		VoiceId:         "default-voice",
		Stability:       0.5,
		SimilarityBoost: 0.75,
		CostPerChar:     0.0003,
	}
	return NewNarrationGenerator(NewContentFetcher(NewZerologWrapper("error")), elevenLabsConfig)
}

func TestNarrationGeneratorGenerate(t *testing.T) {
	audio := []byte("mp3-bytes")
	var gotPath, gotApiKey, gotAccept string
	var gotBody ElevenLabsRequest

	generator := newNarrationGeneratorForTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotApiKey = r.Header.Get("xi-api-key")
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	})

	text := "Compound interest grows quietly."
	narration, err := generator.Generate(context.Background(), outbound.GenerateNarrationParams{
		Text:    text,
		VoiceID: "2EiwWnXFnvU5JabPnv8n",
	})
	if err != nil {
		t.Fatal("Received an error:", err)
	}

	if !bytes.Equal(narration.Audio, audio) {
		t.Error("Expected the audio bytes from the provider")
	}
	if narration.VoiceID != "2EiwWnXFnvU5JabPnv8n" {
		t.Errorf("Expected the requested voice, got %q", narration.VoiceID)
	}
	if narration.CharacterCount != len(text) {
		t.Errorf("Expected %d characters, got %d", len(text), narration.CharacterCount)
	}
	if math.Abs(narration.Cost-float64(len(text))*0.0003) > 1e-12 {
		t.Errorf("Expected the cost to follow the character count, got %f", narration.Cost)
	}

	if !strings.HasSuffix(gotPath, "/2EiwWnXFnvU5JabPnv8n") {
		t.Errorf("Expected the voice id in the URL, got %q", gotPath)
	}
	if gotApiKey != "test-key" {
		t.Errorf("Expected the api key header, got %q", gotApiKey)
	}
	if gotAccept != "audio/mpeg" {
		t.Errorf("Expected an audio/mpeg accept header, got %q", gotAccept)
	}
	if gotBody.ModelId != "eleven_turbo_v2" || gotBody.Text != text {
		t.Errorf("Expected the request body to carry model and text, got %+v", gotBody)
	}
}

func TestNarrationGeneratorFallsBackToConfiguredVoice(t *testing.T) {
	var gotPath string
	generator := newNarrationGeneratorForTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("mp3"))
	})

	narration, err := generator.Generate(context.Background(), outbound.GenerateNarrationParams{Text: "hello"})
	if err != nil {
		t.Fatal("Received an error:", err)
	}
	if narration.VoiceID != "default-voice" {
		t.Errorf("Expected the configured voice, got %q", narration.VoiceID)
	}
	if !strings.HasSuffix(gotPath, "/default-voice") {
		t.Errorf("Expected the configured voice in the URL, got %q", gotPath)
	}
}

func TestNarrationGeneratorRejectsEmptyText(t *testing.T) {
	generator := newNarrationGeneratorForTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Expected no request for empty text")
	})

	_, err := generator.Generate(context.Background(), outbound.GenerateNarrationParams{Text: ""})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected a validation error, got %v", err)
	}
}

func TestNarrationGeneratorWrapsProviderErrors(t *testing.T) {
	generator := newNarrationGeneratorForTest(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := generator.Generate(context.Background(), outbound.GenerateNarrationParams{Text: "hello"})
	var remoteErr *domain.RemoteServiceError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Expected a remote service error, got %v", err)
	}
}
