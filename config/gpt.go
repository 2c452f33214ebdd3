package config

import (
	"fmt"
	"os"
	"strconv"
)

type GptConfig struct {
	ApiUrl          string
	ApiKey          string
	Model           string
	CostPer1MTokens float64
}

func GetGptConfig() (*GptConfig, error) {
	model := os.Getenv("GPT_MODEL")
	if model == "" {
		return nil, fmt.Errorf("GPT_MODEL must be set")
	}
	apiUrl := os.Getenv("GPT_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("GPT_API_URL must be set")
	}
	apiKey := os.Getenv("GPT_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GPT_API_KEY must be set")
	}
	costPer1M := os.Getenv("GPT_COST_PER_1M_TOKENS")
	if costPer1M == "" {
		return nil, fmt.Errorf("GPT_COST_PER_1M_TOKENS must be set")
	}
	costPer1MVal, err := strconv.ParseFloat(costPer1M, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPT_COST_PER_1M_TOKENS")
	}
	return &GptConfig{
		ApiUrl:          apiUrl,
		ApiKey:          apiKey,
		Model:           model,
		CostPer1MTokens: costPer1MVal,
	}, nil
}
