package outbound

import "context"

type GenerateNarrationParams struct {
	Text    string
	VoiceID string
}

type GeneratedNarration struct {
	Audio          []byte
	VoiceID        string
	CharacterCount int
	Cost           float64
}

type NarrationGeneratorPort interface {
	Generate(ctx context.Context, params GenerateNarrationParams) (*GeneratedNarration, error)
}
