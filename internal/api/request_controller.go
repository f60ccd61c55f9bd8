package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mikita-k/ai-chatbot/internal/approval"
	"github.com/mikita-k/ai-chatbot/internal/metrics"
	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/mikita-k/ai-chatbot/internal/repository"
)

// ResolveRequest 审批决策请求体
type ResolveRequest struct {
	Feedback string `json:"feedback"`
}

// RequestController 预约申请控制器
type RequestController struct {
	requests  repository.RequestRepository
	publisher approval.Publisher
}

// NewRequestController 创建预约申请控制器
func NewRequestController(requests repository.RequestRepository, publisher approval.Publisher) *RequestController {
	if publisher == nil {
		publisher = approval.NopPublisher{}
	}
	return &RequestController{
		requests:  requests,
		publisher: publisher,
	}
}

// validateRequestID 验证申请 ID 并返回错误响应(如果无效)
func (c *RequestController) validateRequestID(ctx *gin.Context, id string) bool {
	if !strings.HasPrefix(id, "REQ-") {
		Error(ctx, http.StatusBadRequest, "invalid request ID", "ID must have REQ- prefix")
		return false
	}
	return true
}

// Get 获取单个预约申请
func (c *RequestController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateRequestID(ctx, id) {
		return
	}

	request, err := c.requests.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			Error(ctx, http.StatusNotFound, "request not found", id)
			return
		}
		Error(ctx, http.StatusInternalServerError, "failed to get request", err.Error())
		return
	}

	Success(ctx, request)
}

// List 列表查询预约申请,支持按状态过滤
func (c *RequestController) List(ctx *gin.Context) {
	filter := &repository.RequestFilter{}
	if status := ctx.Query("status"); status != "" {
		if status != model.StatusPending && status != model.StatusApproved && status != model.StatusRejected {
			Error(ctx, http.StatusBadRequest, "invalid status filter", status)
			return
		}
		filter.Status = &status
	}
	if carNumber := ctx.Query("car_number"); carNumber != "" {
		upper := strings.ToUpper(carNumber)
		filter.CarNumber = &upper
	}

	requests, err := c.requests.FindByFilter(filter)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list requests", err.Error())
		return
	}

	Success(ctx, requests)
}

// Approve 批准预约申请
func (c *RequestController) Approve(ctx *gin.Context) {
	c.resolve(ctx, model.StatusApproved)
}

// Reject 拒绝预约申请
func (c *RequestController) Reject(ctx *gin.Context) {
	c.resolve(ctx, model.StatusRejected)
}

// resolve 执行 pending 到终态的迁移,已终态的申请返回 409
func (c *RequestController) resolve(ctx *gin.Context, status string) {
	id := ctx.Param("id")
	if !c.validateRequestID(ctx, id) {
		return
	}

	var req ResolveRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	feedback := req.Feedback
	if feedback == "" {
		if status == model.StatusApproved {
			feedback = "approved by administrator"
		} else {
			feedback = "rejected by administrator"
		}
	}

	request, err := c.requests.Transition(id, status, feedback)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotFound):
			Error(ctx, http.StatusNotFound, "request not found", id)
		case errors.Is(err, repository.ErrInvalidTransition):
			Error(ctx, http.StatusConflict, "request already resolved", id)
		default:
			Error(ctx, http.StatusInternalServerError, "failed to resolve request", err.Error())
		}
		return
	}

	metrics.RecordApproval(status)
	c.publisher.PublishStatus(request.RequestID, request.Status, request.AdminFeedback)

	Success(ctx, request)
}
