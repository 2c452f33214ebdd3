package outbound

import "context"

type ScenePlannerPort interface {
	PlanScenes(ctx context.Context, script string, sceneCount int) ([]string, error)
	EnhancePrompts(ctx context.Context, descriptions []string) ([]string, error)
}
