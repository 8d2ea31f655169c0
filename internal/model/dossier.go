package model

import (
	"errors"
	"time"
)

// DossierModel 目录数据模型
// 文档的归属上下文;类别可显式设置,缺失时由名称关键字推断模板
type DossierModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Category   string    `gorm:"type:varchar(64);index"` // 显式类别,可为空
	OwnerID    string    `gorm:"type:varchar(64);not null;index"`
	WorkflowID *string   `gorm:"type:varchar(64);index"` // 关联工作流 ID
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName 指定表名
func (DossierModel) TableName() string {
	return "dossiers"
}

// Validate 验证目录模型
func (dm *DossierModel) Validate() error {
	if dm.ID == "" {
		return errors.New("dossier ID is required")
	}
	if dm.Name == "" {
		return errors.New("dossier name is required")
	}
	if dm.OwnerID == "" {
		return errors.New("dossier owner is required")
	}
	return nil
}
