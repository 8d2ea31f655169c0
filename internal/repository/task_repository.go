package repository

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// TaskRepository 任务仓储接口
type TaskRepository interface {
	Save(task *model.TaskModel) error
	FindByID(id string) (*model.TaskModel, error)
	FindByWorkflow(workflowID string) ([]*model.TaskModel, error)
	FindByFilter(filter *TaskFilter) ([]*model.TaskModel, error)
	Delete(id string) error
}

// TaskFilter 任务查询过滤器
type TaskFilter struct {
	Status     *string
	WorkflowID *string
	AssignedTo *string
	Role       *string
	StartTime  *string
	EndTime    *string
}

// taskRepository 任务仓储实现
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓储
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Save 保存任务
func (r *taskRepository) Save(task *model.TaskModel) error {
	return r.db.Save(task).Error
}

// FindByID 根据 ID 查找任务
func (r *taskRepository) FindByID(id string) (*model.TaskModel, error) {
	var task model.TaskModel
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByWorkflow 查找工作流下的全部任务,按模板顺序排列
func (r *taskRepository) FindByWorkflow(workflowID string) ([]*model.TaskModel, error) {
	var tasks []*model.TaskModel
	err := r.db.Where("workflow_id = ?", workflowID).
		Order("task_order ASC, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// FindByFilter 根据过滤器查找任务
func (r *taskRepository) FindByFilter(filter *TaskFilter) ([]*model.TaskModel, error) {
	var tasks []*model.TaskModel
	query := r.db.Model(&model.TaskModel{})

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.WorkflowID != nil {
			query = query.Where("workflow_id = ?", *filter.WorkflowID)
		}
		if filter.AssignedTo != nil {
			query = query.Where("assigned_to = ?", *filter.AssignedTo)
		}
		if filter.Role != nil {
			query = query.Where("role = ?", *filter.Role)
		}
		if filter.StartTime != nil {
			query = query.Where("created_at >= ?", *filter.StartTime)
		}
		if filter.EndTime != nil {
			query = query.Where("created_at <= ?", *filter.EndTime)
		}
	}

	err := query.Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// Delete 删除任务
// 显式管理操作,独立于状态机;活动工作流中的任务不在此层拦截,由服务层校验
func (r *taskRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.TaskModel{}).Error
}
