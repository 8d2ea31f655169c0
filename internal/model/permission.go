package model

import (
	"errors"
	"time"
)

// 文档访问类型
const (
	AccessTypeOwner  = "owner"
	AccessTypeCustom = "custom"
	AccessTypePublic = "public"
	AccessTypeGroup  = "group"
	AccessTypeRead   = "read"
)

// accessTypeRank 访问类型优先级
// 同一用户存在多行授权时取最小值: owner > custom > public > read > 其他
var accessTypeRank = map[string]int{
	AccessTypeOwner:  0,
	AccessTypeCustom: 1,
	AccessTypePublic: 2,
	AccessTypeRead:   3,
}

// AccessTypeRank 返回访问类型的优先级,未知类型排最后
func AccessTypeRank(accessType string) int {
	if r, ok := accessTypeRank[accessType]; ok {
		return r
	}
	return 4
}

// PermissionModel 文档权限数据模型
type PermissionModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	UserID     string    `gorm:"type:varchar(64);not null;index:idx_permissions_doc_user"`
	DocumentID string    `gorm:"type:varchar(64);not null;index:idx_permissions_doc_user"`
	AccessType string    `gorm:"type:varchar(32);not null"`
	CanRead    bool      `gorm:"not null;default:false"`
	CanModify  bool      `gorm:"not null;default:false"`
	CanDelete  bool      `gorm:"not null;default:false"`
	CanShare   bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName 指定表名
func (PermissionModel) TableName() string {
	return "permissions"
}

// Validate 验证权限模型
func (pm *PermissionModel) Validate() error {
	if pm.ID == "" {
		return errors.New("permission ID is required")
	}
	if pm.UserID == "" {
		return errors.New("user ID is required")
	}
	if pm.DocumentID == "" {
		return errors.New("document ID is required")
	}
	if pm.AccessType == "" {
		return errors.New("access type is required")
	}
	return nil
}
