package approval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/mikita-k/ai-chatbot/internal/repository"
	"github.com/sirupsen/logrus"
)

// AdminResolver 带外审批写入方
// 独立于聊天服务运行(cmd admin),消费管理员会话中的
// "approve REQ-..." / "reject REQ-... <原因>" 指令并直接写入审批库;
// 与等待方唯一的同步点就是这个共享的审批库
type AdminResolver struct {
	channel   *TelegramChannel
	requests  repository.RequestRepository
	publisher Publisher
	logger    *logrus.Logger
	offset    int64
}

// NewAdminResolver 创建带外审批写入方
func NewAdminResolver(channel *TelegramChannel, requests repository.RequestRepository, publisher Publisher, logger *logrus.Logger) *AdminResolver {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &AdminResolver{
		channel:   channel,
		requests:  requests,
		publisher: publisher,
		logger:    logger,
	}
}

// Run 长轮询管理员指令,直到 ctx 取消
func (r *AdminResolver) Run(ctx context.Context) error {
	r.logger.Info("admin resolver started, polling for admin commands")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("admin resolver stopped")
			return nil
		default:
		}

		updates, err := r.channel.GetUpdates(ctx, r.offset)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			r.logger.WithError(err).Warn("failed to poll telegram updates")
			// 出错后退避,避免空转
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		for _, update := range updates {
			r.offset = update.UpdateID + 1
			r.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate 处理单条更新
func (r *AdminResolver) handleUpdate(ctx context.Context, update Update) {
	if update.Message == nil {
		return
	}
	// 只接受管理员会话的指令
	if strconv.FormatInt(update.Message.Chat.ID, 10) != r.channel.AdminChatID() {
		return
	}

	reply, ok := r.resolveCommand(update.Message.Text)
	if !ok {
		return
	}
	if err := r.channel.SendMessage(ctx, reply); err != nil {
		r.logger.WithError(err).Warn("failed to send admin confirmation")
	}
}

// resolveCommand 解析并执行管理员指令,返回发回管理员的确认文本
func (r *AdminResolver) resolveCommand(text string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 2 {
		return "", false
	}

	var status string
	switch strings.ToLower(fields[0]) {
	case "approve":
		status = model.StatusApproved
	case "reject":
		status = model.StatusRejected
	default:
		return "", false
	}

	requestID := fields[1]
	feedback := strings.Join(fields[2:], " ")
	if feedback == "" && status == model.StatusApproved {
		feedback = "approved by admin"
	}

	updated, err := r.requests.Transition(requestID, status, feedback)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotFound):
			return fmt.Sprintf("Request %s not found", requestID), true
		case errors.Is(err, repository.ErrInvalidTransition):
			return fmt.Sprintf("Request %s is already resolved", requestID), true
		default:
			r.logger.WithError(err).WithField("request_id", requestID).Error("admin transition failed")
			return fmt.Sprintf("Failed to update request %s", requestID), true
		}
	}

	r.publisher.PublishStatus(updated.RequestID, updated.Status, updated.AdminFeedback)
	r.logger.WithFields(logrus.Fields{
		"request_id": updated.RequestID,
		"status":     updated.Status,
	}).Info("request resolved by admin")

	return fmt.Sprintf("Request %s %s", updated.RequestID, updated.Status), true
}
