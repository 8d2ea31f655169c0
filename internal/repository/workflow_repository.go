package repository

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// WorkflowRepository 工作流仓储接口
type WorkflowRepository interface {
	Save(wf *model.WorkflowModel) error
	FindByID(id string) (*model.WorkflowModel, error)
	FindAll() ([]*model.WorkflowModel, error)
	FindByFilter(filter *WorkflowFilter) ([]*model.WorkflowModel, error)
}

// WorkflowFilter 工作流查询过滤器
type WorkflowFilter struct {
	Status    *string
	CreatedBy *string
	DossierID *string
	Category  *string
	StartTime *string
	EndTime   *string
}

// workflowRepository 工作流仓储实现
type workflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository 创建工作流仓储
func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

// Save 保存工作流
func (r *workflowRepository) Save(wf *model.WorkflowModel) error {
	return r.db.Save(wf).Error
}

// FindByID 根据 ID 查找工作流
func (r *workflowRepository) FindByID(id string) (*model.WorkflowModel, error) {
	var wf model.WorkflowModel
	if err := r.db.Where("id = ?", id).First(&wf).Error; err != nil {
		return nil, err
	}
	return &wf, nil
}

// FindAll 查找所有工作流
func (r *workflowRepository) FindAll() ([]*model.WorkflowModel, error) {
	var wfs []*model.WorkflowModel
	err := r.db.Order("created_at DESC").Find(&wfs).Error
	return wfs, err
}

// FindByFilter 根据过滤器查找工作流
func (r *workflowRepository) FindByFilter(filter *WorkflowFilter) ([]*model.WorkflowModel, error) {
	var wfs []*model.WorkflowModel
	query := r.db.Model(&model.WorkflowModel{})

	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.CreatedBy != nil {
			query = query.Where("created_by = ?", *filter.CreatedBy)
		}
		if filter.DossierID != nil {
			query = query.Where("dossier_id = ?", *filter.DossierID)
		}
		if filter.Category != nil {
			query = query.Where("category = ?", *filter.Category)
		}
		if filter.StartTime != nil {
			query = query.Where("created_at >= ?", *filter.StartTime)
		}
		if filter.EndTime != nil {
			query = query.Where("created_at <= ?", *filter.EndTime)
		}
	}

	err := query.Order("created_at DESC").Find(&wfs).Error
	return wfs, err
}
