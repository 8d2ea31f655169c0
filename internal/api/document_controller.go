package api

import (
	"net/http"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/utils"
	"github.com/gin-gonic/gin"
)

// DocumentController 文档与目录控制器
type DocumentController struct {
	documentService service.DocumentService
}

// NewDocumentController 创建文档控制器
func NewDocumentController(documentService service.DocumentService) *DocumentController {
	return &DocumentController{
		documentService: documentService,
	}
}

// validateDocumentID 验证文档 ID 并返回错误响应（如果无效）
func (c *DocumentController) validateDocumentID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid document ID", err.Error())
		return false
	}
	return true
}

// CreateDossier 创建目录
func (c *DocumentController) CreateDossier(ctx *gin.Context) {
	var req service.CreateDossierRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := utils.ValidateName(req.Name); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid dossier name", err.Error())
		return
	}

	dossier, err := c.documentService.CreateDossier(ctx.Request.Context(), &req)
	if err != nil {
		ServiceError(ctx, err, "create dossier")
		return
	}

	Success(ctx, dossier)
}

// GetDossier 获取目录
func (c *DocumentController) GetDossier(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid dossier ID", err.Error())
		return
	}

	dossier, err := c.documentService.GetDossier(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "get dossier")
		return
	}

	Success(ctx, dossier)
}

// ListDossierDocuments 查询目录下的文档
func (c *DocumentController) ListDossierDocuments(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid dossier ID", err.Error())
		return
	}

	docs, err := c.documentService.ListByDossier(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "list dossier documents")
		return
	}

	Success(ctx, docs)
}

// Create 创建文档
func (c *DocumentController) Create(ctx *gin.Context) {
	var req service.CreateDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := utils.ValidateName(req.Name); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid document name", err.Error())
		return
	}

	doc, err := c.documentService.CreateDocument(ctx.Request.Context(), &req)
	if err != nil {
		ServiceError(ctx, err, "create document")
		return
	}

	Success(ctx, doc)
}

// CreateVersion 从已完成文档派生新版本
func (c *DocumentController) CreateVersion(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	var req service.CreateDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	doc, err := c.documentService.CreateVersion(ctx.Request.Context(), id, &req)
	if err != nil {
		ServiceError(ctx, err, "create document version")
		return
	}

	Success(ctx, doc)
}

// Get 获取文档
func (c *DocumentController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	doc, err := c.documentService.Get(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "get document")
		return
	}

	Success(ctx, doc)
}

// Complete 完成文档版本
func (c *DocumentController) Complete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	doc, err := c.documentService.CompleteVersion(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "complete document version")
		return
	}

	Success(ctx, doc)
}

// Permissions 查询文档授权
func (c *DocumentController) Permissions(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	perms, err := c.documentService.Permissions(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "list document permissions")
		return
	}

	Success(ctx, perms)
}

// EffectivePermission 查询用户对文档的生效授权
func (c *DocumentController) EffectivePermission(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}
	userID := ctx.Param("userId")
	if err := utils.ValidateID(userID); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid user ID", err.Error())
		return
	}

	perm, err := c.documentService.EffectivePermission(ctx.Request.Context(), id, userID)
	if err != nil {
		ServiceError(ctx, err, "get effective permission")
		return
	}

	Success(ctx, perm)
}

// CopyPermissionsRequest 权限复制请求
type CopyPermissionsRequest struct {
	TargetID string `json:"target_id" binding:"required"` // 目标文档 ID
}

// CopyPermissions 把文档授权复制到另一个文档
func (c *DocumentController) CopyPermissions(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	var req CopyPermissionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	copied, err := c.documentService.CopyPermissions(ctx.Request.Context(), id, req.TargetID)
	if err != nil {
		ServiceError(ctx, err, "copy permissions")
		return
	}

	Success(ctx, gin.H{"copied": copied})
}
