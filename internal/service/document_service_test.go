package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// captureNotifier 捕获通知的测试替身
type captureNotifier struct {
	mu       sync.Mutex
	messages map[string][]string // userID -> messages
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{messages: make(map[string][]string)}
}

func (n *captureNotifier) Notify(ctx context.Context, userID, senderID, message, taskID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages[userID] = append(n.messages[userID], message)
	return nil
}

func newDocumentService(db *gorm.DB, notifier *captureNotifier) service.DocumentService {
	return service.NewDocumentService(
		repository.NewDocumentRepository(db),
		repository.NewDossierRepository(db),
		repository.NewPermissionRepository(db),
		notifier,
		nil,
		nil,
	)
}

// TestDocumentServiceCreateDossier 测试创建目录
func TestDocumentServiceCreateDossier(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDocumentService(db, newCaptureNotifier())
	ctx := authCtx("employe-1", model.RoleEmploye)

	dossier, err := svc.CreateDossier(ctx, &service.CreateDossierRequest{
		Name:     "Factures 2026",
		Category: model.CategoryFacture,
	})
	require.NoError(t, err)
	assert.Equal(t, "employe-1", dossier.OwnerID)
	assert.Equal(t, model.CategoryFacture, dossier.Category)

	stored, err := svc.GetDossier(ctx, dossier.ID)
	require.NoError(t, err)
	assert.Equal(t, dossier.Name, stored.Name)
}

// TestDocumentServiceCreateDocument 测试创建文档并授予 owner 权限
func TestDocumentServiceCreateDocument(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDocumentService(db, newCaptureNotifier())
	ctx := authCtx("employe-1", model.RoleEmploye)

	doc, err := svc.CreateDocument(ctx, &service.CreateDocumentRequest{
		Name:     "facture-001.pdf",
		Category: model.CategoryFacture,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusInProgress, doc.Status)
	assert.Equal(t, 1, doc.Version)
	assert.Nil(t, doc.PreviousID)
	assert.Equal(t, "employe-1", doc.OwnerID)

	perm, err := svc.EffectivePermission(ctx, doc.ID, "employe-1")
	require.NoError(t, err)
	assert.Equal(t, model.AccessTypeOwner, perm.AccessType)
	assert.True(t, perm.CanRead)
	assert.True(t, perm.CanModify)
	assert.True(t, perm.CanDelete)
	assert.True(t, perm.CanShare)
}

// TestDocumentServiceCreateVersion 测试版本派生门控
func TestDocumentServiceCreateVersion(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDocumentService(db, newCaptureNotifier())
	ctx := authCtx("employe-1", model.RoleEmploye)

	doc, err := svc.CreateDocument(ctx, &service.CreateDocumentRequest{
		Name:      "contrat-v1.pdf",
		Category:  model.CategoryContrat,
		DossierID: "dossier-1",
	})
	require.NoError(t, err)

	t.Run("未完成的版本不可派生", func(t *testing.T) {
		_, err := svc.CreateVersion(ctx, doc.ID, &service.CreateDocumentRequest{Name: "contrat-v2.pdf"})
		assert.ErrorIs(t, err, service.ErrVersionNotCompleted)
	})

	t.Run("完成后派生版本链", func(t *testing.T) {
		_, err := svc.CompleteVersion(ctx, doc.ID)
		require.NoError(t, err)

		v2, err := svc.CreateVersion(ctx, doc.ID, &service.CreateDocumentRequest{Name: "contrat-v2.pdf"})
		require.NoError(t, err)
		assert.Equal(t, 2, v2.Version)
		require.NotNil(t, v2.PreviousID)
		assert.Equal(t, doc.ID, *v2.PreviousID)
		// 类别与目录缺省继承自被取代版本
		assert.Equal(t, model.CategoryContrat, v2.Category)
		assert.Equal(t, "dossier-1", v2.DossierID)
		assert.Equal(t, model.DocumentStatusInProgress, v2.Status)
	})

	t.Run("未知的前版本", func(t *testing.T) {
		_, err := svc.CreateVersion(ctx, "missing", &service.CreateDocumentRequest{Name: "x.pdf"})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

// TestDocumentServiceCopyPermissions 测试授权复制,来源覆盖目标
func TestDocumentServiceCopyPermissions(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDocumentService(db, newCaptureNotifier())
	ctx := authCtx("employe-1", model.RoleEmploye)

	source, err := svc.CreateDocument(ctx, &service.CreateDocumentRequest{Name: "source.pdf"})
	require.NoError(t, err)
	target, err := svc.CreateDocument(ctx, &service.CreateDocumentRequest{Name: "target.pdf"})
	require.NoError(t, err)

	// 源文档上给另一个用户自定义授权
	permRepo := repository.NewPermissionRepository(db)
	require.NoError(t, permRepo.Upsert(&model.PermissionModel{
		UserID:     "manager-1",
		DocumentID: source.ID,
		AccessType: model.AccessTypeCustom,
		CanRead:    true,
		CanModify:  true,
	}))
	// 目标文档上同一用户已有只读授权,应被覆盖
	require.NoError(t, permRepo.Upsert(&model.PermissionModel{
		UserID:     "manager-1",
		DocumentID: target.ID,
		AccessType: model.AccessTypeRead,
		CanRead:    true,
	}))

	copied, err := svc.CopyPermissions(ctx, source.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, copied) // owner + custom

	perm, err := svc.EffectivePermission(ctx, target.ID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, model.AccessTypeCustom, perm.AccessType)
	assert.True(t, perm.CanModify)

	perms, err := svc.Permissions(ctx, target.ID)
	require.NoError(t, err)
	assert.Len(t, perms, 2)
}

// TestDocumentServiceCompleteVersionCopiesPermissions 测试新版本完成时继承授权并通知
func TestDocumentServiceCompleteVersionCopiesPermissions(t *testing.T) {
	db := setupServiceDB(t)
	notifier := newCaptureNotifier()
	svc := newDocumentService(db, notifier)
	ctx := authCtx("employe-1", model.RoleEmploye)

	v1, err := svc.CreateDocument(ctx, &service.CreateDocumentRequest{Name: "rapport-v1.pdf"})
	require.NoError(t, err)

	permRepo := repository.NewPermissionRepository(db)
	require.NoError(t, permRepo.Upsert(&model.PermissionModel{
		UserID:     "manager-1",
		DocumentID: v1.ID,
		AccessType: model.AccessTypeRead,
		CanRead:    true,
	}))

	_, err = svc.CompleteVersion(ctx, v1.ID)
	require.NoError(t, err)
	// 首版完成不触发授权复制,也不通知
	assert.Empty(t, notifier.messages["manager-1"])

	v2, err := svc.CreateVersion(ctx, v1.ID, &service.CreateDocumentRequest{Name: "rapport-v2.pdf"})
	require.NoError(t, err)

	completed, err := svc.CompleteVersion(ctx, v2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusCompleted, completed.Status)

	// 旧版本的授权已落在新版本上
	perm, err := svc.EffectivePermission(ctx, v2.ID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, model.AccessTypeRead, perm.AccessType)

	// 被授权用户收到版本更新通知,所有者不通知自己
	require.Len(t, notifier.messages["manager-1"], 1)
	assert.Contains(t, notifier.messages["manager-1"][0], "rapport-v2.pdf")
	assert.Empty(t, notifier.messages["employe-1"])
}

// TestDocumentServiceEffectivePermissionRank 测试多行授权取最高优先级
func TestDocumentServiceEffectivePermissionRank(t *testing.T) {
	db := setupServiceDB(t)
	svc := newDocumentService(db, newCaptureNotifier())
	ctx := authCtx("employe-1", model.RoleEmploye)

	doc, err := svc.CreateDocument(ctx, &service.CreateDocumentRequest{Name: "partagé.pdf"})
	require.NoError(t, err)

	// 所有者已有 owner 行,再为其他用户查询缺失授权
	_, err = svc.EffectivePermission(ctx, doc.ID, "manager-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
