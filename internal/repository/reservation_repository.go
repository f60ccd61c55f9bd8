package repository

import (
	"errors"
	"time"

	"github.com/mikita-k/ai-chatbot/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrReservationNotFound 已批准预约不存在
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepository 已批准预约仓储接口
// Persist 对同一 ID 幂等:重复写入是无操作成功,保证每个请求至多产生一条持久记录
type ReservationRepository interface {
	Persist(res *model.ApprovedReservationModel) (bool, error)
	FindByID(id string) (*model.ApprovedReservationModel, error)
	FindAll() ([]*model.ApprovedReservationModel, error)
	Count() (int64, error)
}

// reservationRepository 已批准预约仓储实现
type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建已批准预约仓储
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

// Persist 持久化已批准预约
// 返回值表示本次调用是否真正写入了新记录
func (r *reservationRepository) Persist(res *model.ApprovedReservationModel) (bool, error) {
	if err := res.Validate(); err != nil {
		return false, err
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}

	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(res)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindByID 根据 ID 查找已批准预约
func (r *reservationRepository) FindByID(id string) (*model.ApprovedReservationModel, error) {
	var res model.ApprovedReservationModel
	if err := r.db.Where("reservation_id = ?", id).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// FindAll 查找所有已批准预约,按批准时间倒序
func (r *reservationRepository) FindAll() ([]*model.ApprovedReservationModel, error) {
	var reservations []*model.ApprovedReservationModel
	err := r.db.Order("approved_at DESC").Find(&reservations).Error
	return reservations, err
}

// Count 统计已批准预约数量
func (r *reservationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.ApprovedReservationModel{}).Count(&count).Error
	return count, err
}
