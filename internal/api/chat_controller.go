package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mikita-k/ai-chatbot/internal/workflow"
)

// ChatRequest 对话请求
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  string `json:"user_id"`
}

// ChatController 对话控制器
type ChatController struct {
	orchestrator *workflow.Orchestrator
}

// NewChatController 创建对话控制器
func NewChatController(orchestrator *workflow.Orchestrator) *ChatController {
	return &ChatController{
		orchestrator: orchestrator,
	}
}

// Chat 处理用户消息,同步执行完整的工作流并返回结果
func (c *ChatController) Chat(ctx *gin.Context) {
	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		Error(ctx, http.StatusBadRequest, "invalid request", "message must not be empty")
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	result := c.orchestrator.Process(ctx.Request.Context(), req.Message, userID)

	Success(ctx, result)
}
