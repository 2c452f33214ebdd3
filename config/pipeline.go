package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PipelineConfig struct {
	SceneCount        int
	SceneMaxWait      time.Duration
	ScenePollInterval time.Duration
	Resolution        string
}

func GetPipelineConfig() (*PipelineConfig, error) {
	sceneCount := 6
	if raw := os.Getenv("SCENE_COUNT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SCENE_COUNT")
		}
		sceneCount = parsed
	}

	maxWaitSeconds := 300
	if raw := os.Getenv("SCENE_MAX_WAIT_SECONDS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SCENE_MAX_WAIT_SECONDS")
		}
		maxWaitSeconds = parsed
	}

	pollIntervalSeconds := 15
	if raw := os.Getenv("SCENE_POLL_INTERVAL_SECONDS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse SCENE_POLL_INTERVAL_SECONDS")
		}
		pollIntervalSeconds = parsed
	}

	resolution := os.Getenv("VIDEO_RESOLUTION")
	if resolution == "" {
		resolution = "1080x1920"
	}

	return &PipelineConfig{
		SceneCount:        sceneCount,
		SceneMaxWait:      time.Duration(maxWaitSeconds) * time.Second,
		ScenePollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		Resolution:        resolution,
	}, nil
}
