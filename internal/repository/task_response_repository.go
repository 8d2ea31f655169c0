package repository

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// TaskResponseRepository 任务响应仓储接口
type TaskResponseRepository interface {
	Save(response *model.TaskResponseModel) error
	FindByTask(taskID string) ([]*model.TaskResponseModel, error)
	FindByUser(userID string) ([]*model.TaskResponseModel, error)
}

// taskResponseRepository 任务响应仓储实现
type taskResponseRepository struct {
	db *gorm.DB
}

// NewTaskResponseRepository 创建任务响应仓储
func NewTaskResponseRepository(db *gorm.DB) TaskResponseRepository {
	return &taskResponseRepository{db: db}
}

// Save 保存任务响应
func (r *taskResponseRepository) Save(response *model.TaskResponseModel) error {
	return r.db.Save(response).Error
}

// FindByTask 根据任务 ID 查找响应
func (r *taskResponseRepository) FindByTask(taskID string) ([]*model.TaskResponseModel, error) {
	var responses []*model.TaskResponseModel
	err := r.db.Where("task_id = ?", taskID).Order("submitted_at ASC").Find(&responses).Error
	return responses, err
}

// FindByUser 根据用户 ID 查找响应
func (r *taskResponseRepository) FindByUser(userID string) ([]*model.TaskResponseModel, error) {
	var responses []*model.TaskResponseModel
	err := r.db.Where("user_id = ?", userID).Order("submitted_at DESC").Find(&responses).Error
	return responses, err
}
