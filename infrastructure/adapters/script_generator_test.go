package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

func sseChunk(t *testing.T, content string) string {
	t.Helper()

	var choice chatGptResponseChoice
	choice.Delta.Content = content
	body, err := json.Marshal(chatGptChunkBody{Choices: []chatGptResponseChoice{choice}})
	if err != nil {
		t.Fatal("Failed to marshal chunk:", err)
	}
	return "data: " + string(body) + "\n\n"
}

// newScriptStreamServer streams the given content pieces as SSE chunks
// followed by the done signal, capturing the request body it received.
func newScriptStreamServer(t *testing.T, pieces []string, captured *chatGptRequest) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, piece := range pieces {
			_, _ = io.WriteString(w, sseChunk(t, piece))
			flusher.Flush()
		}
		_, _ = io.WriteString(w, "data: "+DoneSignal+"\n\n")
		flusher.Flush()
	}))
	t.Cleanup(server.Close)
	return server
}

func newScriptGeneratorForTest(apiUrl string) outbound.ScriptGeneratorPort {
	gptConfig := &config.GptConfig{
		ApiUrl:          apiUrl,
		ApiKey:          "test-key",
		Model:           "gpt-4o-mini",
		CostPer1MTokens: 0.6,
	}
	return NewScriptGenerator(gptConfig, NewZerologWrapper("error"))
}

func splitIntoPieces(s string, n int) []string {
	pieces := make([]string, 0, n)
	size := (len(s) + n - 1) / n
	for start := 0; start < len(s); start += size {
		end := start + size
		if end > len(s) {
			end = len(s)
		}
		pieces = append(pieces, s[start:end])
	}
	return pieces
}

func TestScriptGeneratorAssemblesStreamedScript(t *testing.T) {
	script := domain.VideoScript{
		Hook:               "Did you know?",
		ValueProp:          "A minute of math saves you years",
		MainContent:        "Compound interest grows quietly until it does not.",
		CTA:                "Follow for more",
		FullScript:         "Did you know? Compound interest grows quietly. Follow for more.",
		EstimatedWordCount: 11,
		SceneDescriptions:  []string{"a coin jar filling up", "a rising chart"},
	}
	raw, err := json.Marshal(script)
	if err != nil {
		t.Fatal("Failed to marshal script:", err)
	}

	var captured chatGptRequest
	server := newScriptStreamServer(t, splitIntoPieces(string(raw), 3), &captured)
	generator := newScriptGeneratorForTest(server.URL)

	generated, err := generator.Generate(context.Background(), outbound.GenerateScriptParams{
		Topic:           "compound interest",
		Style:           "educational",
		Niche:           "finance",
		DurationSeconds: 60,
	})
	if err != nil {
		t.Fatal("Received an error:", err)
	}

	if generated.Script.Hook != script.Hook {
		t.Errorf("Expected hook %q, got %q", script.Hook, generated.Script.Hook)
	}
	if generated.Script.FullScript != script.FullScript {
		t.Errorf("Expected the full script to survive streaming, got %q", generated.Script.FullScript)
	}
	if len(generated.Script.SceneDescriptions) != 2 {
		t.Errorf("Expected 2 scene descriptions, got %d", len(generated.Script.SceneDescriptions))
	}
	if generated.Cost <= 0 {
		t.Errorf("Expected a positive cost estimate, got %f", generated.Cost)
	}

	if !captured.Stream {
		t.Error("Expected a streaming completion request")
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Error("Expected a json_object response format")
	}
	if len(captured.Messages) != 2 || !strings.Contains(captured.Messages[1].Content, "compound interest") {
		t.Error("Expected the topic to appear in the user message")
	}
}

func TestScriptGeneratorRejectsMalformedScript(t *testing.T) {
	server := newScriptStreamServer(t, []string{"this is ", "not json"}, nil)
	generator := newScriptGeneratorForTest(server.URL)

	_, err := generator.Generate(context.Background(), outbound.GenerateScriptParams{
		Topic: "anything", Style: "educational", Niche: "finance", DurationSeconds: 60,
	})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected a validation error, got %v", err)
	}
}

func TestScriptGeneratorRejectsIncompleteScript(t *testing.T) {
	server := newScriptStreamServer(t, []string{`{"hook":"Did you know?","value_prop":"v","main_content":"m","full_script":"f"}`}, nil)
	generator := newScriptGeneratorForTest(server.URL)

	_, err := generator.Generate(context.Background(), outbound.GenerateScriptParams{
		Topic: "anything", Style: "educational", Niche: "finance", DurationSeconds: 60,
	})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected a validation error, got %v", err)
	}
	if !strings.Contains(validationErr.Message, "cta") {
		t.Errorf("Expected the missing field to be named, got %q", validationErr.Message)
	}
}

func TestScriptGeneratorRejectsEmptyStream(t *testing.T) {
	server := newScriptStreamServer(t, nil, nil)
	generator := newScriptGeneratorForTest(server.URL)

	_, err := generator.Generate(context.Background(), outbound.GenerateScriptParams{
		Topic: "anything", Style: "educational", Niche: "finance", DurationSeconds: 60,
	})
	var remoteErr *domain.RemoteServiceError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Expected a remote service error, got %v", err)
	}
}
