package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/engine"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrVersionNotCompleted 只有已完成的文档才能派生新版本
var ErrVersionNotCompleted = errors.New("previous document version is not completed")

// DocumentService 文档服务接口
type DocumentService interface {
	CreateDossier(ctx context.Context, req *CreateDossierRequest) (*model.DossierModel, error)
	GetDossier(ctx context.Context, id string) (*model.DossierModel, error)
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*model.DocumentModel, error)
	CreateVersion(ctx context.Context, previousID string, req *CreateDocumentRequest) (*model.DocumentModel, error)
	Get(ctx context.Context, id string) (*model.DocumentModel, error)
	ListByDossier(ctx context.Context, dossierID string) ([]*model.DocumentModel, error)
	CompleteVersion(ctx context.Context, id string) (*model.DocumentModel, error)
	CopyPermissions(ctx context.Context, sourceID, targetID string) (int, error)
	Permissions(ctx context.Context, documentID string) ([]*model.PermissionModel, error)
	EffectivePermission(ctx context.Context, documentID, userID string) (*model.PermissionModel, error)
}

// CreateDossierRequest 创建目录请求
type CreateDossierRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

// CreateDocumentRequest 创建文档请求
type CreateDocumentRequest struct {
	Name      string `json:"name" binding:"required"`
	Category  string `json:"category"`
	DossierID string `json:"dossier_id"`
}

// documentService 文档服务实现
type documentService struct {
	docRepo     repository.DocumentRepository
	dossierRepo repository.DossierRepository
	permRepo    repository.PermissionRepository
	notifier    engine.Notifier
	auditLogSvc AuditLogService
	logger      *logrus.Logger
}

// NewDocumentService 创建文档服务
func NewDocumentService(
	docRepo repository.DocumentRepository,
	dossierRepo repository.DossierRepository,
	permRepo repository.PermissionRepository,
	notifier engine.Notifier,
	auditLogSvc AuditLogService,
	logger *logrus.Logger,
) DocumentService {
	if logger == nil {
		logger = logrus.New()
	}
	if notifier == nil {
		notifier = engine.NopNotifier{}
	}
	return &documentService{
		docRepo:     docRepo,
		dossierRepo: dossierRepo,
		permRepo:    permRepo,
		notifier:    notifier,
		auditLogSvc: auditLogSvc,
		logger:      logger,
	}
}

// CreateDossier 创建文档目录
func (s *documentService) CreateDossier(ctx context.Context, req *CreateDossierRequest) (*model.DossierModel, error) {
	userID := getUserIDFromContext(ctx)
	now := time.Now()
	dossier := &model.DossierModel{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Category:  req.Category,
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := dossier.Validate(); err != nil {
		return nil, err
	}
	if err := s.dossierRepo.Save(dossier); err != nil {
		return nil, err
	}

	if s.auditLogSvc != nil && userID != "" {
		details := fmt.Sprintf(`{"dossier_id":"%s","name":"%s"}`, dossier.ID, dossier.Name)
		_ = s.auditLogSvc.RecordAction(ctx, userID, "create", "dossier", dossier.ID, details)
	}
	return dossier, nil
}

// GetDossier 获取目录
func (s *documentService) GetDossier(ctx context.Context, id string) (*model.DossierModel, error) {
	return s.dossierRepo.FindByID(id)
}

// CreateDocument 创建文档首个版本
// 创建者自动获得 owner 全权限
func (s *documentService) CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*model.DocumentModel, error) {
	return s.createDocument(ctx, req, nil)
}

// CreateVersion 从已完成的文档派生新版本
// 新版本指向被取代的版本,版本号加一;权限在新版本完成时才复制
func (s *documentService) CreateVersion(ctx context.Context, previousID string, req *CreateDocumentRequest) (*model.DocumentModel, error) {
	previous, err := s.docRepo.FindByID(previousID)
	if err != nil {
		return nil, err
	}
	if previous.Status != model.DocumentStatusCompleted {
		return nil, ErrVersionNotCompleted
	}
	return s.createDocument(ctx, req, previous)
}

// createDocument 建行并授予创建者 owner 权限
func (s *documentService) createDocument(ctx context.Context, req *CreateDocumentRequest, previous *model.DocumentModel) (*model.DocumentModel, error) {
	userID := getUserIDFromContext(ctx)
	now := time.Now()

	doc := &model.DocumentModel{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Category:  req.Category,
		Status:    model.DocumentStatusInProgress,
		Version:   1,
		OwnerID:   userID,
		DossierID: req.DossierID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if previous != nil {
		doc.Version = previous.Version + 1
		doc.PreviousID = &previous.ID
		if doc.Category == "" {
			doc.Category = previous.Category
		}
		if doc.DossierID == "" {
			doc.DossierID = previous.DossierID
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := s.docRepo.Save(doc); err != nil {
		return nil, err
	}

	owner := &model.PermissionModel{
		ID:         uuid.New().String(),
		UserID:     userID,
		DocumentID: doc.ID,
		AccessType: model.AccessTypeOwner,
		CanRead:    true,
		CanModify:  true,
		CanDelete:  true,
		CanShare:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.permRepo.Upsert(owner); err != nil {
		return nil, fmt.Errorf("failed to grant owner permission: %w", err)
	}

	if s.auditLogSvc != nil && userID != "" {
		details := fmt.Sprintf(`{"document_id":"%s","name":"%s","version":%d}`, doc.ID, doc.Name, doc.Version)
		_ = s.auditLogSvc.RecordAction(ctx, userID, "create", "document", doc.ID, details)
	}
	return doc, nil
}

// Get 获取文档
func (s *documentService) Get(ctx context.Context, id string) (*model.DocumentModel, error) {
	return s.docRepo.FindByID(id)
}

// ListByDossier 查询目录下的文档
func (s *documentService) ListByDossier(ctx context.Context, dossierID string) ([]*model.DocumentModel, error) {
	return s.docRepo.FindByDossier(dossierID)
}

// CompleteVersion 完成文档版本
// 非首版完成时把旧版本的授权复制到新版本,并通知被授权用户;
// 复制失败只记录,不回滚文档完成
func (s *documentService) CompleteVersion(ctx context.Context, id string) (*model.DocumentModel, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	doc.Status = model.DocumentStatusCompleted
	doc.UpdatedAt = time.Now()
	if err := s.docRepo.Save(doc); err != nil {
		return nil, err
	}

	if doc.Version > 1 && doc.PreviousID != nil {
		copied, err := s.CopyPermissions(ctx, *doc.PreviousID, doc.ID)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"document_id": doc.ID,
				"previous_id": *doc.PreviousID,
			}).Error("failed to copy permissions to new version")
		} else {
			s.logger.WithFields(logrus.Fields{
				"document_id": doc.ID,
				"copied":      copied,
			}).Info("permissions copied to new version")
			s.notifyShared(ctx, doc)
		}
	}

	if s.auditLogSvc != nil {
		userID := getUserIDFromContext(ctx)
		if userID != "" {
			details := fmt.Sprintf(`{"document_id":"%s","version":%d}`, doc.ID, doc.Version)
			_ = s.auditLogSvc.RecordAction(ctx, userID, "complete_version", "document", doc.ID, details)
		}
	}
	return doc, nil
}

// CopyPermissions 把源文档的授权复制到目标文档
// 逐用户 upsert,源文档的权限位覆盖目标已有授权,返回复制行数
func (s *documentService) CopyPermissions(ctx context.Context, sourceID, targetID string) (int, error) {
	perms, err := s.permRepo.FindByDocument(sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load source permissions: %w", err)
	}

	now := time.Now()
	copied := 0
	for _, p := range perms {
		target := &model.PermissionModel{
			ID:         uuid.New().String(),
			UserID:     p.UserID,
			DocumentID: targetID,
			AccessType: p.AccessType,
			CanRead:    p.CanRead,
			CanModify:  p.CanModify,
			CanDelete:  p.CanDelete,
			CanShare:   p.CanShare,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.permRepo.Upsert(target); err != nil {
			return copied, fmt.Errorf("failed to copy permission for user %s: %w", p.UserID, err)
		}
		copied++
	}
	return copied, nil
}

// Permissions 查询文档的全部授权
func (s *documentService) Permissions(ctx context.Context, documentID string) ([]*model.PermissionModel, error) {
	return s.permRepo.FindByDocument(documentID)
}

// EffectivePermission 查询用户对文档的生效授权
// 存在多行授权时按访问类型优先级取最高
func (s *documentService) EffectivePermission(ctx context.Context, documentID, userID string) (*model.PermissionModel, error) {
	return s.permRepo.FindEffective(documentID, userID)
}

// notifyShared 通知新版本的被授权用户(文档所有者除外)
func (s *documentService) notifyShared(ctx context.Context, doc *model.DocumentModel) {
	perms, err := s.permRepo.FindByDocument(doc.ID)
	if err != nil {
		s.logger.WithError(err).WithField("document_id", doc.ID).Warn("failed to load permissions for share notification")
		return
	}
	msg := fmt.Sprintf("document updated: %s (version %d)", doc.Name, doc.Version)
	for _, p := range perms {
		if p.UserID == doc.OwnerID {
			continue
		}
		if err := s.notifier.Notify(ctx, p.UserID, doc.OwnerID, msg, ""); err != nil {
			s.logger.WithError(err).WithField("user_id", p.UserID).Warn("failed to emit share notification")
		}
	}
}
