package approval

import (
	"context"

	"github.com/mikita-k/ai-chatbot/internal/model"
)

// Channel 审批通道接口
// Notify 只负责把请求送达审批人;决定通过哪条路径写回审批库由实现自行约定,
// 调用方必须通过重读审批库获知结果,不得信任 Notify 的返回值
type Channel interface {
	Notify(ctx context.Context, req *model.ReservationRequestModel) error
}

// Publisher 状态变更事件发布接口
// 由 WebSocket hub 实现,引擎和审批写入方在状态变更时调用
type Publisher interface {
	PublishStatus(requestID, status, feedback string)
}

// NopPublisher 空实现,未接入推送时使用
type NopPublisher struct{}

// PublishStatus 丢弃事件
func (NopPublisher) PublishStatus(requestID, status, feedback string) {}
