package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/engine"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupServiceDB 创建测试数据库
func setupServiceDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.UserModel{},
		&model.WorkflowModel{},
		&model.TaskModel{},
		&model.DossierModel{},
		&model.DocumentModel{},
		&model.PermissionModel{},
		&model.StateHistoryModel{},
		&model.TaskResponseModel{},
		&model.WorkflowArchiveModel{},
		&model.NotificationModel{},
		&model.AuditLogModel{},
	)
	require.NoError(t, err)
	return db
}

// authCtx 模拟认证中间件注入的请求上下文
func authCtx(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), "user_id", userID)
	return context.WithValue(ctx, "role", role)
}

// seedServiceUsers 建全角色用户
func seedServiceUsers(t *testing.T, db *gorm.DB) {
	users := []*model.UserModel{
		{ID: "admin", Name: "Admin", Role: model.RoleAdmin},
		{ID: "directeur-1", Name: "Directeur", Role: model.RoleDirecteur},
		{ID: "manager-1", Name: "Manager 1", Role: model.RoleManager, LoadMetric: 1200},
		{ID: "manager-2", Name: "Manager 2", Role: model.RoleManager, LoadMetric: 600},
		{ID: "employe-1", Name: "Employé 1", Role: model.RoleEmploye, LoadMetric: 300},
		{ID: "employe-2", Name: "Employé 2", Role: model.RoleEmploye, LoadMetric: 900},
	}
	for _, u := range users {
		require.NoError(t, db.Create(u).Error)
	}
}

func newWorkflowService(t *testing.T, db *gorm.DB) service.WorkflowService {
	registry, err := engine.NewRegistry()
	require.NoError(t, err)
	directoryFor := func(conn *gorm.DB) engine.Directory { return repository.NewUserRepository(conn) }
	factory := engine.NewFactory(db, registry, directoryFor, nil, nil)
	return service.NewWorkflowService(
		db,
		factory,
		repository.NewWorkflowRepository(db),
		repository.NewTaskRepository(db),
		repository.NewArchiveRepository(db),
		nil,
	)
}

// seedCompletedWorkflow 建一个已完成的工作流
func seedCompletedWorkflow(t *testing.T, db *gorm.DB, status string) *model.WorkflowModel {
	now := time.Now()
	wf := &model.WorkflowModel{
		ID:          uuid.New().String(),
		Name:        fmt.Sprintf("workflow #%d", now.UnixNano()),
		Description: "Circuit de validation",
		Status:      status,
		CreatedBy:   "admin",
		DocumentID:  "document-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(wf).Error)
	return wf
}

// TestWorkflowServiceCreate 测试创建工作流
func TestWorkflowServiceCreate(t *testing.T) {
	db := setupServiceDB(t)
	seedServiceUsers(t, db)
	svc := newWorkflowService(t, db)

	result, err := svc.Create(authCtx("admin", model.RoleAdmin), &service.CreateWorkflowRequest{
		Category: model.CategoryFacture,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Workflow)
	assert.Equal(t, "admin", result.Workflow.CreatedBy)
	assert.Len(t, result.Tasks, 3)
	assert.Empty(t, result.Warnings)

	detail, err := svc.Get(context.Background(), result.Workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Workflow.ID, detail.Workflow.ID)
	assert.Len(t, detail.Tasks, 3)
}

// TestWorkflowServiceCreateNoTemplate 测试无模板可解析
func TestWorkflowServiceCreateNoTemplate(t *testing.T) {
	db := setupServiceDB(t)
	seedServiceUsers(t, db)
	svc := newWorkflowService(t, db)

	_, err := svc.Create(authCtx("admin", model.RoleAdmin), &service.CreateWorkflowRequest{
		Category: "unknown",
	})
	assert.ErrorIs(t, err, engine.ErrNoTemplate)
}

// TestWorkflowServiceList 测试按条件查询
func TestWorkflowServiceList(t *testing.T) {
	db := setupServiceDB(t)
	seedServiceUsers(t, db)
	svc := newWorkflowService(t, db)

	_, err := svc.Create(authCtx("admin", model.RoleAdmin), &service.CreateWorkflowRequest{Category: model.CategoryFacture})
	require.NoError(t, err)
	_, err = svc.Create(authCtx("manager-1", model.RoleManager), &service.CreateWorkflowRequest{Category: model.CategoryCV})
	require.NoError(t, err)

	all, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	category := model.CategoryCV
	filtered, err := svc.List(context.Background(), &repository.WorkflowFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "manager-1", filtered[0].CreatedBy)
}

// TestWorkflowServiceArchive 测试归档门控
func TestWorkflowServiceArchive(t *testing.T) {
	db := setupServiceDB(t)
	svc := newWorkflowService(t, db)
	ctx := authCtx("admin", model.RoleAdmin)

	t.Run("未完成的工作流不可归档", func(t *testing.T) {
		wf := seedCompletedWorkflow(t, db, model.WorkflowStatusPending)
		_, err := svc.Archive(ctx, wf.ID, "")
		assert.ErrorIs(t, err, engine.ErrNotCompleted)
	})

	t.Run("已完成的工作流只能归档一次", func(t *testing.T) {
		wf := seedCompletedWorkflow(t, db, model.WorkflowStatusCompleted)

		archive, err := svc.Archive(ctx, wf.ID, "rapport de validation")
		require.NoError(t, err)
		assert.Equal(t, wf.ID, archive.WorkflowID)
		assert.Equal(t, "rapport de validation", archive.ValidationReport)

		_, err = svc.Archive(ctx, wf.ID, "deuxième tentative")
		assert.ErrorIs(t, err, engine.ErrAlreadyArchived)

		archives, err := svc.ListArchives(ctx)
		require.NoError(t, err)
		assert.Len(t, archives, 1)
	})

	t.Run("归档行快照工作流字段", func(t *testing.T) {
		wf := seedCompletedWorkflow(t, db, model.WorkflowStatusCompleted)
		completedAt := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
		task := &model.TaskModel{
			ID:          uuid.New().String(),
			WorkflowID:  wf.ID,
			Title:       "Valider le document",
			Type:        model.TaskTypeValidation,
			Role:        model.RoleDirecteur,
			TaskOrder:   1,
			Status:      model.TaskStatusCompleted,
			CompletedAt: &completedAt,
			CreatedAt:   wf.CreatedAt,
			UpdatedAt:   completedAt,
		}
		require.NoError(t, db.Create(task).Error)

		archive, err := svc.Archive(ctx, wf.ID, "conforme")
		require.NoError(t, err)
		assert.Equal(t, wf.Name, archive.Name)
		assert.Equal(t, wf.Description, archive.Description)
		assert.Equal(t, wf.DocumentID, archive.DocumentID)
		assert.Equal(t, wf.CreatedBy, archive.CreatedBy)
		assert.WithinDuration(t, completedAt, archive.CompletedAt, time.Second)
		assert.False(t, archive.ArchivedAt.IsZero())

		// 落库的行同样携带快照
		var stored model.WorkflowArchiveModel
		require.NoError(t, db.Where("workflow_id = ?", wf.ID).First(&stored).Error)
		assert.Equal(t, wf.Name, stored.Name)
		assert.Equal(t, wf.CreatedBy, stored.CreatedBy)
		assert.False(t, stored.CompletedAt.IsZero())
	})

	t.Run("未知工作流", func(t *testing.T) {
		_, err := svc.Archive(ctx, "missing", "")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

// TestWorkflowServiceForceStatus 测试管理员强制覆盖状态
func TestWorkflowServiceForceStatus(t *testing.T) {
	db := setupServiceDB(t)
	svc := newWorkflowService(t, db)
	ctx := authCtx("admin", model.RoleAdmin)

	wf := seedCompletedWorkflow(t, db, model.WorkflowStatusPending)

	t.Run("非法目标状态", func(t *testing.T) {
		_, err := svc.ForceStatus(ctx, wf.ID, model.WorkflowStatusPending)
		assert.ErrorIs(t, err, engine.ErrInvalidStatus)

		_, err = svc.ForceStatus(ctx, wf.ID, "nonsense")
		assert.ErrorIs(t, err, engine.ErrInvalidStatus)
	})

	t.Run("强制置为完成", func(t *testing.T) {
		updated, err := svc.ForceStatus(ctx, wf.ID, model.WorkflowStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusCompleted, updated.Status)

		var stored model.WorkflowModel
		require.NoError(t, db.Where("id = ?", wf.ID).First(&stored).Error)
		assert.Equal(t, model.WorkflowStatusCompleted, stored.Status)
	})
}
