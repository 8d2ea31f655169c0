package repository

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// ArchiveRepository 工作流归档仓储接口
type ArchiveRepository interface {
	Save(a *model.WorkflowArchiveModel) error
	FindByWorkflow(workflowID string) (*model.WorkflowArchiveModel, error)
	FindAll() ([]*model.WorkflowArchiveModel, error)
}

// archiveRepository 工作流归档仓储实现
type archiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository 创建工作流归档仓储
func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

// Save 保存归档
func (r *archiveRepository) Save(a *model.WorkflowArchiveModel) error {
	return r.db.Save(a).Error
}

// FindByWorkflow 根据工作流 ID 查找归档
func (r *archiveRepository) FindByWorkflow(workflowID string) (*model.WorkflowArchiveModel, error) {
	var a model.WorkflowArchiveModel
	if err := r.db.Where("workflow_id = ?", workflowID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAll 查找全部归档
func (r *archiveRepository) FindAll() ([]*model.WorkflowArchiveModel, error) {
	var archives []*model.WorkflowArchiveModel
	err := r.db.Order("archived_at DESC").Find(&archives).Error
	return archives, err
}
