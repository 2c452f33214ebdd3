package mock_provider

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
)

// MockProviderController impersonates the video generation provider so the
// service can be exercised end to end without remote credentials. Prompt
// keywords select a script: "reject" is refused at submission, "boom"
// answers with a server error, "fail" fails after a few polls, "stall"
// never leaves the generating state, "weird" reports an unmapped state,
// "no-result" and "alt" exercise the result payload variants.
type MockProviderController interface {
	CreateTask(c *gin.Context)
	RecordInfo(c *gin.Context)
	File(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type mockProviderController struct {
	logger outbound.LoggerPort
	store  *TaskStore
}

func NewMockProviderController(logger outbound.LoggerPort, store *TaskStore) MockProviderController {
	return &mockProviderController{
		logger: logger,
		store:  store,
	}
}

func (m *mockProviderController) CreateTask(c *gin.Context) {
	var request createTaskRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusOK, taskResponse{Code: 400, Message: "invalid request body"})
		return
	}

	prompt := request.Input.Prompt
	if strings.Contains(prompt, "boom") {
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	if strings.Contains(prompt, "reject") {
		c.JSON(http.StatusOK, taskResponse{Code: 422, Message: "prompt rejected by moderation"})
		return
	}

	taskID := m.store.Create(prompt)
	m.logger.DebugWithFields("Mock task created", map[string]interface{}{
		"taskID": taskID,
		"model":  request.Model,
	})
	c.JSON(http.StatusOK, taskResponse{Code: 200, Message: "success", Data: createTaskData{TaskID: taskID}})
}

func (m *mockProviderController) RecordInfo(c *gin.Context) {
	record, ok := m.store.Poll(c.Query("taskId"))
	if !ok {
		c.JSON(http.StatusOK, taskResponse{Code: 404, Message: "task not found"})
		return
	}

	c.JSON(http.StatusOK, taskResponse{Code: 200, Message: "success", Data: m.recordState(c, record)})
}

// recordState walks the scripted lifecycle. The first poll always reports a
// still-registering task as a null record, later polls advance
// waiting -> generating -> terminal unless a keyword says otherwise.
func (m *mockProviderController) recordState(c *gin.Context, record TaskRecord) *recordInfoData {
	if record.Polls == 1 {
		return nil
	}

	prompt := record.Prompt
	switch {
	case strings.Contains(prompt, "stall"):
		return &recordInfoData{State: "generating"}
	case strings.Contains(prompt, "weird"):
		return &recordInfoData{State: "archived"}
	case strings.Contains(prompt, "fail"):
		if record.Polls < 3 {
			return &recordInfoData{State: "generating"}
		}
		return &recordInfoData{State: "fail", FailCode: "500", FailMsg: "generation failed on the provider side"}
	case strings.Contains(prompt, "no-result"):
		if record.Polls < 3 {
			return &recordInfoData{State: "generating"}
		}
		return &recordInfoData{State: "success", ResultJson: "{}"}
	case strings.Contains(prompt, "alt"):
		if record.Polls < 3 {
			return &recordInfoData{State: "generating"}
		}
		return &recordInfoData{State: "success", ResultJson: fmt.Sprintf(`{"resultUrl":"%s"}`, m.fileURL(c, record.ID))}
	}

	switch record.Polls {
	case 2:
		return &recordInfoData{State: "waiting"}
	case 3:
		return &recordInfoData{State: "generating"}
	default:
		return &recordInfoData{State: "success", ResultJson: fmt.Sprintf(`{"resultUrls":["%s"]}`, m.fileURL(c, record.ID))}
	}
}

func (m *mockProviderController) fileURL(c *gin.Context, taskID string) string {
	return "http://" + c.Request.Host + "/mock/files/" + taskID + ".mp4"
}

func (m *mockProviderController) File(c *gin.Context) {
	c.Data(http.StatusOK, "video/mp4", []byte("mock mp4 payload: "+c.Param("name")))
}

func (m *mockProviderController) RegisterRoutes(g *gin.Engine) {
	g.POST("/mock/jobs/createTask", m.CreateTask)
	g.GET("/mock/jobs/recordInfo", m.RecordInfo)
	g.GET("/mock/files/:name", m.File)
}
