package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateRequest 工作流创建请求
// DossierID/DocumentID 至少其一为归属上下文
type CreateRequest struct {
	Category   string // 显式类别,可为空,为空时从目录名称推断
	DossierID  string
	DocumentID string
	CreatedBy  string
}

// CreateResult 工作流创建结果
// Warnings 上报无合格指派人的任务,非致命
type CreateResult struct {
	Workflow *model.WorkflowModel
	Tasks    []*model.TaskModel
	Warnings []AssignmentWarning
}

// Factory 工作流工厂
// 从模板实例化工作流: 建行、排序、指派、两段式依赖改写、归属关联。
// 整个创建过程在一个事务内完成,任何失败都整体回滚,
// 不会留下没有任务的工作流行
type Factory struct {
	db           *gorm.DB
	registry     *Registry
	directoryFor DirectoryProvider
	notifier     Notifier
	logger       *logrus.Logger
	now          func() time.Time
}

// NewFactory 创建工作流工厂
// directoryFor 在事务内以事务连接调用,指派解析与任务写入走同一连接
func NewFactory(db *gorm.DB, registry *Registry, directoryFor DirectoryProvider, notifier Notifier, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Factory{
		db:           db,
		registry:     registry,
		directoryFor: directoryFor,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateWorkflow 从模板创建工作流实例
func (f *Factory) CreateWorkflow(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	tpl, err := f.resolveTemplate(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{}

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := f.now()

		// 1. 先以占位名建行,拿到 ID 后重命名:
		// 命名契约要求工作流名称中出现自身 ID
		wf := &model.WorkflowModel{
			ID:          uuid.New().String(),
			Name:        tpl.Name,
			Description: tpl.Description,
			Status:      model.WorkflowStatusPending,
			CreatedBy:   req.CreatedBy,
			DocumentID:  req.DocumentID,
			DossierID:   req.DossierID,
			Category:    tpl.Category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(wf).Error; err != nil {
			return fmt.Errorf("failed to create workflow: %w", err)
		}

		wf.Name = fmt.Sprintf("%s #%s", tpl.Name, wf.ID)
		if err := tx.Model(&model.WorkflowModel{}).Where("id = ?", wf.ID).
			Update("name", wf.Name).Error; err != nil {
			return fmt.Errorf("failed to rename workflow: %w", err)
		}

		// 2. 蓝图按 order 升序稳定排序,order 相同保持声明顺序
		blueprints := make([]TaskBlueprint, len(tpl.Tasks))
		copy(blueprints, tpl.Tasks)
		sort.SliceStable(blueprints, func(i, j int) bool {
			return blueprints[i].Order < blueprints[j].Order
		})

		resolver := NewResolver(f.directoryFor(tx), f.logger)
		orderToID := make(map[int]string, len(blueprints))

		// 3. 第一遍: 插入全部任务,记录 order -> 任务 ID
		for _, bp := range blueprints {
			assignee, err := resolver.Resolve(bp.Role, bp.Type)
			if err != nil {
				return fmt.Errorf("failed to resolve assignee for %q: %w", bp.Title, err)
			}

			status := model.TaskStatusPending
			if bp.DependsOnOrder != nil {
				status = model.TaskStatusBlocked
			}

			task := &model.TaskModel{
				ID:          uuid.New().String(),
				WorkflowID:  wf.ID,
				Title:       bp.Title,
				Description: bp.Description,
				Type:        bp.Type,
				Role:        bp.Role,
				AssignedTo:  assignee,
				TaskOrder:   bp.Order,
				Status:      status,
				DueDate:     now.AddDate(0, 0, bp.DurationDays),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(task).Error; err != nil {
				return fmt.Errorf("failed to create task %q: %w", bp.Title, err)
			}

			if _, exists := orderToID[bp.Order]; !exists {
				orderToID[bp.Order] = task.ID
			}
			result.Tasks = append(result.Tasks, task)

			if assignee == nil {
				result.Warnings = append(result.Warnings, AssignmentWarning{
					TaskID: task.ID,
					Title:  task.Title,
					Role:   bp.Role,
				})
			}
		}

		// 4. 第二遍: 把符号化的 order 引用改写为真实任务 ID。
		// 必须等全部任务插入、ID 已知之后才能改写,两遍顺序是强制的
		for i, bp := range blueprints {
			if bp.DependsOnOrder == nil {
				continue
			}
			depID, ok := orderToID[*bp.DependsOnOrder]
			if !ok {
				return fmt.Errorf("task %q depends on unknown order %d", bp.Title, *bp.DependsOnOrder)
			}
			task := result.Tasks[i]
			if err := tx.Model(&model.TaskModel{}).Where("id = ?", task.ID).
				Update("depends_on", depID).Error; err != nil {
				return fmt.Errorf("failed to resolve dependency for %q: %w", bp.Title, err)
			}
			task.DependsOn = &depID
		}

		// 5. 把工作流关联到归属目录/文档
		if req.DossierID != "" {
			if err := tx.Model(&model.DossierModel{}).Where("id = ?", req.DossierID).
				Update("workflow_id", wf.ID).Error; err != nil {
				return fmt.Errorf("failed to link workflow to dossier: %w", err)
			}
		}
		if req.DocumentID != "" {
			if err := tx.Model(&model.DocumentModel{}).Where("id = ?", req.DocumentID).
				Update("workflow_id", wf.ID).Error; err != nil {
				return fmt.Errorf("failed to link workflow to document: %w", err)
			}
		}

		result.Workflow = wf
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 6. 事务提交后通知: 初始即可执行且有指派人的任务。
	// blocked 任务不通知,解除阻塞时再通知;无指派人的任务不通知
	for _, task := range result.Tasks {
		if task.Status != model.TaskStatusPending || task.AssignedTo == nil {
			continue
		}
		msg := fmt.Sprintf("new task assigned: %s", task.Title)
		if err := f.notifier.Notify(ctx, *task.AssignedTo, req.CreatedBy, msg, task.ID); err != nil {
			f.logger.WithError(err).WithField("task_id", task.ID).Warn("failed to emit assignment notification")
		}
	}

	for _, w := range result.Warnings {
		f.logger.WithFields(logrus.Fields{
			"task_id": w.TaskID,
			"role":    w.Role,
		}).Warn("task created without assignee")
	}

	return result, nil
}

// resolveTemplate 解析模板: 显式类别优先,其次目录名称关键字兜底
func (f *Factory) resolveTemplate(ctx context.Context, req *CreateRequest) (*Template, error) {
	if req.Category != "" {
		if tpl := f.registry.Get(req.Category); tpl != nil {
			return tpl, nil
		}
		return nil, ErrNoTemplate
	}

	if req.DossierID != "" {
		var dossier model.DossierModel
		err := f.db.WithContext(ctx).Where("id = ?", req.DossierID).First(&dossier).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoTemplate
			}
			return nil, fmt.Errorf("failed to load dossier: %w", err)
		}

		if dossier.Category != "" {
			if tpl := f.registry.Get(dossier.Category); tpl != nil {
				return tpl, nil
			}
		}

		if tpl := f.registry.ResolveFromName(dossier.Name); tpl != nil {
			f.logger.WithFields(logrus.Fields{
				"dossier_id": dossier.ID,
				"name":       dossier.Name,
				"category":   tpl.Category,
			}).Info("template resolved from dossier name keywords")
			return tpl, nil
		}
	}

	if req.DocumentID != "" {
		var doc model.DocumentModel
		err := f.db.WithContext(ctx).Where("id = ?", req.DocumentID).First(&doc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoTemplate
			}
			return nil, fmt.Errorf("failed to load document: %w", err)
		}

		if doc.Category != "" {
			if tpl := f.registry.Get(doc.Category); tpl != nil {
				return tpl, nil
			}
		}

		if tpl := f.registry.ResolveFromName(doc.Name); tpl != nil {
			f.logger.WithFields(logrus.Fields{
				"document_id": doc.ID,
				"name":        doc.Name,
				"category":    tpl.Category,
			}).Info("template resolved from document name keywords")
			return tpl, nil
		}
	}

	return nil, ErrNoTemplate
}
