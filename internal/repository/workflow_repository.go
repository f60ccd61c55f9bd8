package repository

import (
	"errors"

	"github.com/mikita-k/ai-chatbot/internal/model"
	"gorm.io/gorm"
)

// ErrWorkflowNotFound 工作流记录不存在
var ErrWorkflowNotFound = errors.New("workflow record not found")

// WorkflowRepository 工作流执行记录仓储接口
type WorkflowRepository interface {
	Save(record *model.WorkflowRecordModel) error
	FindByID(flowID string) (*model.WorkflowRecordModel, error)
	FindByUserID(userID string) ([]*model.WorkflowRecordModel, error)
	FindAll() ([]*model.WorkflowRecordModel, error)
}

// workflowRepository 工作流执行记录仓储实现
type workflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository 创建工作流执行记录仓储
func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

// Save 保存工作流记录
func (r *workflowRepository) Save(record *model.WorkflowRecordModel) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return r.db.Save(record).Error
}

// FindByID 根据流程 ID 查找记录
func (r *workflowRepository) FindByID(flowID string) (*model.WorkflowRecordModel, error) {
	var record model.WorkflowRecordModel
	if err := r.db.Where("flow_id = ?", flowID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByUserID 根据用户 ID 查找记录
func (r *workflowRepository) FindByUserID(userID string) ([]*model.WorkflowRecordModel, error) {
	var records []*model.WorkflowRecordModel
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error
	return records, err
}

// FindAll 查找所有记录,按创建时间倒序
func (r *workflowRepository) FindAll() ([]*model.WorkflowRecordModel, error) {
	var records []*model.WorkflowRecordModel
	err := r.db.Order("created_at DESC").Find(&records).Error
	return records, err
}
