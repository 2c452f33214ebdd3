package mock_provider

import (
	"github.com/gin-gonic/gin"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
)

func Init(g *gin.Engine, logger outbound.LoggerPort) {
	store := NewTaskStore()
	controller := NewMockProviderController(logger, store)

	controller.RegisterRoutes(g)
}
