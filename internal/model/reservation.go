package model

import (
	"errors"
	"time"
)

// ApprovedReservationModel 已批准预约数据模型
// 审批通过后的只追加投影,写入后不再更新
type ApprovedReservationModel struct {
	ReservationID string    `gorm:"primaryKey;type:varchar(64)" json:"reservation_id"`
	UserName      string    `gorm:"type:varchar(128);not null" json:"user_name"`
	CarNumber     string    `gorm:"type:varchar(32);not null;index" json:"car_number"`
	StartDate     string    `gorm:"type:varchar(10);not null" json:"start_date"`
	EndDate       string    `gorm:"type:varchar(10);not null" json:"end_date"`
	ApprovedAt    time.Time `gorm:"not null;index" json:"approved_at"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

// TableName 指定表名
func (ApprovedReservationModel) TableName() string {
	return "approved_reservations"
}

// Validate 验证已批准预约模型
func (m *ApprovedReservationModel) Validate() error {
	if m.ReservationID == "" {
		return errors.New("reservation ID is required")
	}
	if m.UserName == "" {
		return errors.New("user name is required")
	}
	if m.CarNumber == "" {
		return errors.New("car number is required")
	}
	if m.StartDate == "" || m.EndDate == "" {
		return errors.New("reservation dates are required")
	}
	return nil
}
