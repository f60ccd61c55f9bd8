package model

import (
	"errors"
	"time"
)

// WorkflowRecordModel 工作流执行记录数据模型
// 每条用户消息对应一条记录,保存路由结果、访问过的节点和错误列表
type WorkflowRecordModel struct {
	FlowID      string    `gorm:"primaryKey;type:varchar(64)" json:"flow_id"`
	UserID      string    `gorm:"type:varchar(64);index" json:"user_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	RequestType string    `gorm:"type:varchar(32);not null;index" json:"request_type"`
	RequestID   string    `gorm:"type:varchar(64);index" json:"request_id"` // 关联的审批请求 ID(可为空)
	Nodes       string    `gorm:"type:text" json:"nodes"`                   // 访问过的节点(JSON 数组)
	Errors      string    `gorm:"type:text" json:"errors"`                  // 错误列表(JSON 数组)
	Response    string    `gorm:"type:text" json:"response"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName 指定表名
func (WorkflowRecordModel) TableName() string {
	return "workflow_records"
}

// Validate 验证工作流记录模型
func (m *WorkflowRecordModel) Validate() error {
	if m.FlowID == "" {
		return errors.New("flow ID is required")
	}
	if m.RequestType == "" {
		return errors.New("request type is required")
	}
	return nil
}
