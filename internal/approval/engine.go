package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/mikita-k/ai-chatbot/internal/parser"
	"github.com/mikita-k/ai-chatbot/internal/repository"
	"github.com/sirupsen/logrus"
)

// Decision 一次审批查询的结果快照
// pending 是合法结果,表示管理员尚未决定
type Decision struct {
	RequestID   string     `json:"request_id"`
	Status      string     `json:"status"`
	Feedback    string     `json:"feedback,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Approved 判断是否已批准
func (d *Decision) Approved() bool {
	return d.Status == model.StatusApproved
}

// Engine 审批引擎
// 提交请求并在有界时长内等待终态;等待结束后请求保持 pending,
// 由后续的 CheckStatus 独立查询承接(人工决定通常慢于可接受的同步响应延迟)
type Engine struct {
	requests     repository.RequestRepository
	channel      Channel
	pollInterval time.Duration
	publisher    Publisher
	logger       *logrus.Logger

	mu  sync.Mutex
	seq int
}

// NewEngine 创建审批引擎
func NewEngine(requests repository.RequestRepository, channel Channel, pollInterval time.Duration, publisher Publisher, logger *logrus.Logger) *Engine {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Engine{
		requests:     requests,
		channel:      channel,
		pollInterval: pollInterval,
		publisher:    publisher,
		logger:       logger,
	}
}

// nextRequestID 生成请求 ID,格式 REQ-<时间戳>-<序号>
// 进程内序号保证同一秒内提交的请求也拿到不同 ID
func (e *Engine) nextRequestID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return fmt.Sprintf("REQ-%s-%03d", time.Now().Format("20060102150405"), e.seq)
}

// SubmitAndWait 提交预约请求并在有界时长内等待审批结果
// 通知失败只记日志不中断:请求已落库,管理员仍可通过其他路径决定;
// 等待超时返回当前状态(通常是 pending),不视为错误
func (e *Engine) SubmitAndWait(ctx context.Context, res *parser.Reservation, wait time.Duration) (*Decision, error) {
	now := time.Now()
	req := &model.ReservationRequestModel{
		RequestID: e.nextRequestID(),
		Name:      res.Name,
		Surname:   res.Surname,
		CarNumber: res.CarNumber,
		StartDate: res.StartDate,
		EndDate:   res.EndDate,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.requests.Create(req); err != nil {
		return nil, fmt.Errorf("failed to create approval request: %w", err)
	}
	e.publisher.PublishStatus(req.RequestID, req.Status, "")
	e.logger.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"car_number": req.CarNumber,
	}).Info("approval request submitted")

	if err := e.channel.Notify(ctx, req); err != nil {
		e.logger.WithError(err).WithField("request_id", req.RequestID).
			Warn("approval notification failed, request stays pending")
	}

	return e.waitForDecision(ctx, req.RequestID, wait)
}

// waitForDecision 以固定间隔轮询审批库,直到终态或等待时长耗尽
func (e *Engine) waitForDecision(ctx context.Context, requestID string, wait time.Duration) (*Decision, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		current, err := e.requests.FindByID(requestID)
		if err != nil {
			return nil, err
		}
		if current.IsTerminal() {
			return decisionFrom(current), nil
		}
		if !time.Now().Before(deadline) {
			e.logger.WithField("request_id", requestID).
				Info("bounded wait elapsed without decision, request stays pending")
			return decisionFrom(current), nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return decisionFrom(current), nil
		}
	}
}

// CheckStatus 立即读取请求当前状态,不等待
func (e *Engine) CheckStatus(requestID string) (*Decision, error) {
	req, err := e.requests.FindByID(requestID)
	if err != nil {
		return nil, err
	}
	return decisionFrom(req), nil
}

// GetRequest 读取完整请求记录
func (e *Engine) GetRequest(requestID string) (*model.ReservationRequestModel, error) {
	return e.requests.FindByID(requestID)
}

// ListRequests 列出请求,status 为空时返回全部
func (e *Engine) ListRequests(status string) ([]*model.ReservationRequestModel, error) {
	filter := &repository.RequestFilter{}
	if status != "" {
		filter.Status = &status
	}
	return e.requests.FindByFilter(filter)
}

// decisionFrom 从数据库记录构造决定快照
func decisionFrom(req *model.ReservationRequestModel) *Decision {
	return &Decision{
		RequestID:   req.RequestID,
		Status:      req.Status,
		Feedback:    req.AdminFeedback,
		RespondedAt: req.RespondedAt,
	}
}
