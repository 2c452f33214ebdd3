package config

import (
	"fmt"
	"os"
	"strconv"
)

type SoraConfig struct {
	ApiUrl          string
	ApiKey          string
	Model           string
	CostPer10s      float64
	RemoveWatermark bool
}

func GetSoraConfig() (*SoraConfig, error) {
	apiUrl := os.Getenv("SORA_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("SORA_API_URL must be set")
	}
	apiKey := os.Getenv("SORA_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("SORA_API_KEY must be set")
	}
	model := os.Getenv("SORA_MODEL")
	if model == "" {
		return nil, fmt.Errorf("SORA_MODEL must be set")
	}
	costPer10s := os.Getenv("SORA_COST_PER_10S")
	if costPer10s == "" {
		return nil, fmt.Errorf("SORA_COST_PER_10S must be set")
	}
	costPer10sVal, err := strconv.ParseFloat(costPer10s, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SORA_COST_PER_10S")
	}
	removeWatermark := true
	if raw := os.Getenv("SORA_REMOVE_WATERMARK"); raw != "" {
		removeWatermark, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SORA_REMOVE_WATERMARK")
		}
	}

	return &SoraConfig{
		ApiUrl:          apiUrl,
		ApiKey:          apiKey,
		Model:           model,
		CostPer10s:      costPer10sVal,
		RemoveWatermark: removeWatermark,
	}, nil
}
