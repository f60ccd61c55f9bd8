package approval

import (
	"context"
	"errors"
	"time"

	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/mikita-k/ai-chatbot/internal/repository"
	"github.com/sirupsen/logrus"
)

// AutoChannel 自动审批通道
// 固定延迟后直接通过审批库把请求转为 approved,模拟管理员审批,
// 用于测试和零配置运行;转换与等待方无同步,审批库是唯一汇合点
type AutoChannel struct {
	requests  repository.RequestRepository
	delay     time.Duration
	feedback  string
	publisher Publisher
	logger    *logrus.Logger
}

// NewAutoChannel 创建自动审批通道
func NewAutoChannel(requests repository.RequestRepository, delay time.Duration, publisher Publisher, logger *logrus.Logger) *AutoChannel {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &AutoChannel{
		requests:  requests,
		delay:     delay,
		feedback:  "auto-approved",
		publisher: publisher,
		logger:    logger,
	}
}

// Notify 调度固定延迟的自动批准
// 定时器独立于调用方运行:即便调用方的有界等待已经结束,转换仍会发生
func (c *AutoChannel) Notify(ctx context.Context, req *model.ReservationRequestModel) error {
	requestID := req.RequestID

	time.AfterFunc(c.delay, func() {
		updated, err := c.requests.Transition(requestID, model.StatusApproved, c.feedback)
		if err != nil {
			// 请求可能已被其他写入方抢先决定
			if errors.Is(err, repository.ErrInvalidTransition) {
				c.logger.WithField("request_id", requestID).Debug("request already resolved, skipping auto approval")
				return
			}
			c.logger.WithError(err).WithField("request_id", requestID).Error("auto approval failed")
			return
		}
		c.publisher.PublishStatus(updated.RequestID, updated.Status, updated.AdminFeedback)
		c.logger.WithField("request_id", requestID).Info("request auto-approved")
	})

	return nil
}
