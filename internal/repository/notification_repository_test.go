package repository_test

import (
	"testing"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newNotification 建通知行
func newNotification(userID string, read bool, createdAt time.Time) *model.NotificationModel {
	return &model.NotificationModel{
		ID:        uuid.New().String(),
		UserID:    userID,
		SenderID:  "system",
		Message:   "message",
		Read:      read,
		CreatedAt: createdAt,
	}
}

// TestNotificationRepositoryFindByUser 测试按用户查询,倒序与未读过滤
func TestNotificationRepositoryFindByUser(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := repository.NewNotificationRepository(db)

	now := time.Now()
	older := newNotification("employe-1", true, now.Add(-time.Hour))
	newer := newNotification("employe-1", false, now)
	other := newNotification("employe-2", false, now)
	for _, n := range []*model.NotificationModel{older, newer, other} {
		require.NoError(t, repo.Save(n))
	}

	all, err := repo.FindByUser("employe-1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	unread, err := repo.FindByUser("employe-1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, newer.ID, unread[0].ID)
}

// TestNotificationRepositoryMarkRead 测试已读标记只限本人
func TestNotificationRepositoryMarkRead(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := repository.NewNotificationRepository(db)

	n := newNotification("employe-1", false, time.Now())
	require.NoError(t, repo.Save(n))

	// 他人标记报未找到
	err := repo.MarkRead(n.ID, "employe-2")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.MarkRead(n.ID, "employe-1"))

	var stored model.NotificationModel
	require.NoError(t, db.Where("id = ?", n.ID).First(&stored).Error)
	assert.True(t, stored.Read)

	err = repo.MarkRead("missing", "employe-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// TestStateHistoryRepositoryFind 测试状态历史查询按时间升序
func TestStateHistoryRepositoryFind(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := repository.NewStateHistoryRepository(db)

	now := time.Now()
	entries := []*model.StateHistoryModel{
		{ID: "h2", TaskID: "task-1", WorkflowID: "wf-1", FromStatus: model.TaskStatusInProgress, ToStatus: model.TaskStatusCompleted, Operator: "employe-1", CreatedAt: now},
		{ID: "h1", TaskID: "task-1", WorkflowID: "wf-1", FromStatus: model.TaskStatusPending, ToStatus: model.TaskStatusInProgress, Operator: "employe-1", CreatedAt: now.Add(-time.Minute)},
		{ID: "h3", TaskID: "task-2", WorkflowID: "wf-1", FromStatus: model.TaskStatusBlocked, ToStatus: model.TaskStatusPending, Operator: "system", CreatedAt: now},
	}
	for _, h := range entries {
		require.NoError(t, repo.Save(h))
	}

	byTask, err := repo.FindByTask("task-1")
	require.NoError(t, err)
	require.Len(t, byTask, 2)
	assert.Equal(t, "h1", byTask[0].ID)
	assert.Equal(t, "h2", byTask[1].ID)

	byWorkflow, err := repo.FindByWorkflow("wf-1")
	require.NoError(t, err)
	assert.Len(t, byWorkflow, 3)
}
