package engine_test

import (
	"testing"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/engine"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedWorkflowWithStatuses 建工作流与给定状态的任务集合
func seedWorkflowWithStatuses(t *testing.T, db *gorm.DB, taskStatuses ...string) *model.WorkflowModel {
	now := time.Now()
	wf := &model.WorkflowModel{
		ID:        uuid.New().String(),
		Name:      "aggregate workflow",
		Status:    model.WorkflowStatusPending,
		CreatedBy: "creator-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(wf).Error)

	for i, status := range taskStatuses {
		task := &model.TaskModel{
			ID:         uuid.New().String(),
			WorkflowID: wf.ID,
			Title:      "task",
			Type:       model.TaskTypeOperation,
			Role:       model.RoleEmploye,
			TaskOrder:  i + 1,
			Status:     status,
			DueDate:    now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		require.NoError(t, db.Create(task).Error)
	}
	return wf
}

// TestRecompute 测试工作流状态聚合推导
func TestRecompute(t *testing.T) {
	db := setupEngineDB(t)

	t.Run("存在拒绝任务则工作流拒绝", func(t *testing.T) {
		wf := seedWorkflowWithStatuses(t, db,
			model.TaskStatusCompleted, model.TaskStatusRejected, model.TaskStatusBlocked)

		status, err := engine.Recompute(db, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusRejected, status)
		assert.Equal(t, model.WorkflowStatusRejected, workflowStatus(t, db, wf.ID))
	})

	t.Run("全部完成则工作流完成", func(t *testing.T) {
		wf := seedWorkflowWithStatuses(t, db,
			model.TaskStatusCompleted, model.TaskStatusCompleted)

		status, err := engine.Recompute(db, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusCompleted, status)
	})

	t.Run("部分进度保持当前状态", func(t *testing.T) {
		wf := seedWorkflowWithStatuses(t, db,
			model.TaskStatusCompleted, model.TaskStatusInProgress, model.TaskStatusBlocked)

		status, err := engine.Recompute(db, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusPending, status)
	})

	t.Run("空任务集不变", func(t *testing.T) {
		wf := seedWorkflowWithStatuses(t, db)

		status, err := engine.Recompute(db, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusPending, status)
	})

	t.Run("拒绝优先于完成", func(t *testing.T) {
		wf := seedWorkflowWithStatuses(t, db,
			model.TaskStatusRejected, model.TaskStatusCompleted, model.TaskStatusCompleted)

		status, err := engine.Recompute(db, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusRejected, status)
	})

	t.Run("取消的任务阻止自动完成", func(t *testing.T) {
		wf := seedWorkflowWithStatuses(t, db,
			model.TaskStatusCompleted, model.TaskStatusCancelled)

		status, err := engine.Recompute(db, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowStatusPending, status)
	})

	t.Run("未知工作流返回错误", func(t *testing.T) {
		_, err := engine.Recompute(db, "missing")
		assert.Error(t, err)
	})
}
