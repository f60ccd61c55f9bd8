package model

import (
	"errors"
	"time"
)

// 预约请求状态
const (
	StatusPending  = "pending"  // 等待管理员审批
	StatusApproved = "approved" // 已批准
	StatusRejected = "rejected" // 已拒绝
)

// ReservationRequestModel 预约审批请求数据模型
// 由审批引擎创建,状态只能通过 Transition 操作从 pending 变为终态
type ReservationRequestModel struct {
	RequestID     string     `gorm:"primaryKey;type:varchar(64)" json:"request_id"`
	Name          string     `gorm:"type:varchar(64);not null" json:"name"`
	Surname       string     `gorm:"type:varchar(64);not null" json:"surname"`
	CarNumber     string     `gorm:"type:varchar(32);not null;index" json:"car_number"`
	StartDate     string     `gorm:"type:varchar(10);not null" json:"start_date"` // ISO 格式 yyyy-mm-dd
	EndDate       string     `gorm:"type:varchar(10);not null" json:"end_date"`
	Status        string     `gorm:"type:varchar(32);not null;index" json:"status"`
	AdminFeedback string     `gorm:"type:text" json:"admin_feedback"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
	RespondedAt   *time.Time `gorm:"index" json:"responded_at"` // 管理员响应时间
}

// TableName 指定表名
func (ReservationRequestModel) TableName() string {
	return "reservation_requests"
}

// Validate 验证预约请求模型
func (m *ReservationRequestModel) Validate() error {
	if m.RequestID == "" {
		return errors.New("request ID is required")
	}
	if m.Name == "" || m.Surname == "" {
		return errors.New("requester name is required")
	}
	if m.CarNumber == "" {
		return errors.New("car number is required")
	}
	if m.StartDate == "" || m.EndDate == "" {
		return errors.New("reservation dates are required")
	}
	if m.Status == "" {
		return errors.New("request status is required")
	}
	return nil
}

// IsTerminal 判断请求是否已到达终态
func (m *ReservationRequestModel) IsTerminal() bool {
	return m.Status == StatusApproved || m.Status == StatusRejected
}
