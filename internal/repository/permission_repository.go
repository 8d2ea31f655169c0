package repository

import (
	"errors"
	"sort"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PermissionRepository 文档权限仓储接口
type PermissionRepository interface {
	FindByDocument(documentID string) ([]*model.PermissionModel, error)
	FindEffective(documentID, userID string) (*model.PermissionModel, error)
	Upsert(p *model.PermissionModel) error
}

// permissionRepository 文档权限仓储实现
type permissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository 创建文档权限仓储
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

// FindByDocument 查找文档的全部权限行
func (r *permissionRepository) FindByDocument(documentID string) ([]*model.PermissionModel, error) {
	var perms []*model.PermissionModel
	err := r.db.Where("document_id = ?", documentID).Find(&perms).Error
	return perms, err
}

// FindEffective 查找用户在文档上的有效权限
// 同一用户多行授权时按访问类型优先级取最小: owner > custom > public > read > 其他
func (r *permissionRepository) FindEffective(documentID, userID string) (*model.PermissionModel, error) {
	var perms []*model.PermissionModel
	err := r.db.Where("document_id = ? AND user_id = ?", documentID, userID).Find(&perms).Error
	if err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	sort.Slice(perms, func(i, j int) bool {
		return model.AccessTypeRank(perms[i].AccessType) < model.AccessTypeRank(perms[j].AccessType)
	})
	return perms[0], nil
}

// Upsert 写入权限行,(document, user) 已存在时覆盖其标志位
// 来源覆盖目标,不做合并
func (r *permissionRepository) Upsert(p *model.PermissionModel) error {
	var existing model.PermissionModel
	err := r.db.Where("document_id = ? AND user_id = ?", p.DocumentID, p.UserID).
		First(&existing).Error
	if err == nil {
		return r.db.Model(&model.PermissionModel{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"access_type": p.AccessType,
				"can_read":    p.CanRead,
				"can_modify":  p.CanModify,
				"can_delete":  p.CanDelete,
				"can_share":   p.CanShare,
				"updated_at":  time.Now(),
			}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return r.db.Create(p).Error
}
