package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikita-k/ai-chatbot/internal/model"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateID 请求 ID 已存在
	ErrDuplicateID = errors.New("request id already exists")
	// ErrRequestNotFound 请求不存在
	ErrRequestNotFound = errors.New("request not found")
	// ErrInvalidTransition 请求已到达终态,不允许再次变更
	ErrInvalidTransition = errors.New("request already resolved")
)

// RequestRepository 预约审批请求仓储接口
// 同一 request_id 上的状态变更通过条件更新串行化,pending -> approved/rejected 是唯一合法转换
type RequestRepository interface {
	Create(req *model.ReservationRequestModel) error
	FindByID(id string) (*model.ReservationRequestModel, error)
	FindByFilter(filter *RequestFilter) ([]*model.ReservationRequestModel, error)
	Transition(id string, status string, feedback string) (*model.ReservationRequestModel, error)
}

// RequestFilter 请求查询过滤器
type RequestFilter struct {
	Status    *string
	CarNumber *string
}

// requestRepository 预约审批请求仓储实现
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository 创建预约审批请求仓储
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create 保存新请求,ID 冲突返回 ErrDuplicateID
func (r *requestRepository) Create(req *model.ReservationRequestModel) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if err := r.db.Create(req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// FindByID 根据 ID 查找请求
func (r *requestRepository) FindByID(id string) (*model.ReservationRequestModel, error) {
	var req model.ReservationRequestModel
	if err := r.db.Where("request_id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindByFilter 根据过滤器查找请求,按创建时间倒序
func (r *requestRepository) FindByFilter(filter *RequestFilter) ([]*model.ReservationRequestModel, error) {
	var requests []*model.ReservationRequestModel
	query := r.db.Model(&model.ReservationRequestModel{})

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.CarNumber != nil {
			query = query.Where("car_number = ?", *filter.CarNumber)
		}
	}

	err := query.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// Transition 将请求从 pending 转换到终态
// 条件更新保证同一行上并发的 Transition 至多一个生效,其余返回 ErrInvalidTransition
func (r *requestRepository) Transition(id string, status string, feedback string) (*model.ReservationRequestModel, error) {
	if status != model.StatusApproved && status != model.StatusRejected {
		return nil, fmt.Errorf("invalid target status %q", status)
	}

	now := time.Now()
	result := r.db.Model(&model.ReservationRequestModel{}).
		Where("request_id = ? AND status = ?", id, model.StatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"admin_feedback": feedback,
			"responded_at":   now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// 区分请求不存在和已到达终态
		if _, err := r.FindByID(id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	return r.FindByID(id)
}
