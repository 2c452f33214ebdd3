package dto

type GenerateVideoRequest struct {
	Topic           string `json:"topic" binding:"required"`
	Style           string `json:"style"`
	Niche           string `json:"niche"`
	DurationSeconds int    `json:"duration_seconds" binding:"omitempty,min=15,max=120"`
	SceneCount      int    `json:"scene_count" binding:"omitempty,min=1,max=12"`
	AspectRatio     string `json:"aspect_ratio" binding:"omitempty,oneof=portrait landscape"`
	DurationClass   string `json:"duration_class" binding:"omitempty,oneof=10 15"`
	VoiceID         string `json:"voice_id"`
}

type GenerateVideoResponse struct {
	RunID         string             `json:"run_id"`
	Status        string             `json:"status"`
	VideoURL      string             `json:"video_url"`
	TotalCost     float64            `json:"total_cost"`
	CostBreakdown map[string]float64 `json:"cost_breakdown"`
}
