package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikita-k/ai-chatbot/internal/approval"
	"github.com/mikita-k/ai-chatbot/internal/config"
	"github.com/mikita-k/ai-chatbot/internal/metrics"
	"github.com/mikita-k/ai-chatbot/internal/repository"
	"github.com/mikita-k/ai-chatbot/internal/websocket"
	"github.com/mikita-k/ai-chatbot/internal/workflow"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config       *config.Config
	Orchestrator *workflow.Orchestrator
	Requests     repository.RequestRepository
	Reservations repository.ReservationRepository
	Hub          *websocket.Hub
	Publisher    approval.Publisher
	ApprovalDB   *gorm.DB
	StorageDB    *gorm.DB
}

// SetupRoutes 配置路由
func SetupRoutes(deps RouterDeps) *gin.Engine {
	if deps.Config != nil && config.IsProduction(deps.Config) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(ErrorHandlerMiddleware())
	if deps.Config != nil {
		router.Use(CORSMiddleware(deps.Config.CORS.AllowedOrigins))
		if deps.Config.RateLimit.RPS > 0 {
			router.Use(RateLimitMiddleware(deps.Config.RateLimit.RPS, deps.Config.RateLimit.Burst))
		}
	}

	// 健康检查
	healthController := NewHealthController(deps.ApprovalDB, deps.StorageDB)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket 路由,推送审批状态变更
	if deps.Hub != nil {
		router.GET("/ws", websocket.Handler(deps.Hub))
	}

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		chatController := NewChatController(deps.Orchestrator)
		v1.POST("/chat", chatController.Chat)

		requestController := NewRequestController(deps.Requests, deps.Publisher)
		requests := v1.Group("/requests")
		{
			requests.GET("", requestController.List)
			requests.GET("/:id", requestController.Get)
			requests.POST("/:id/approve", requestController.Approve)
			requests.POST("/:id/reject", requestController.Reject)
		}

		reservationController := NewReservationController(deps.Reservations)
		reservations := v1.Group("/reservations")
		{
			reservations.GET("", reservationController.List)
			reservations.GET("/:id", reservationController.Get)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", c.Request.URL.Path)
	})

	return router
}
