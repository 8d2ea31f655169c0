package model

import (
	"errors"
	"time"
)

// 文档类别
// 每个类别在源系统中有独立的元数据表,工作流引擎只消费类别标签
const (
	CategoryFacture      = "facture"
	CategoryContrat      = "contrat"
	CategoryDemandeConge = "demande_conge"
	CategoryCV           = "cv"
	CategoryRapport      = "rapport"
)

// 文档状态
const (
	DocumentStatusInProgress = "in_progress"
	DocumentStatusCompleted  = "completed"
)

// DocumentModel 文档数据模型
// 版本链: 每个新版本通过 PreviousID 指向被取代的版本
type DocumentModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Category   string    `gorm:"type:varchar(64);index"`
	Status     string    `gorm:"type:varchar(32);not null;index"` // in_progress/completed
	Version    int       `gorm:"type:int;not null;default:1"`
	PreviousID *string   `gorm:"type:varchar(64);index"` // 被取代版本的文档 ID
	OwnerID    string    `gorm:"type:varchar(64);not null;index"`
	DossierID  string    `gorm:"type:varchar(64);index"`
	WorkflowID *string   `gorm:"type:varchar(64);index"` // 关联工作流 ID
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName 指定表名
func (DocumentModel) TableName() string {
	return "documents"
}

// Validate 验证文档模型
func (dm *DocumentModel) Validate() error {
	if dm.ID == "" {
		return errors.New("document ID is required")
	}
	if dm.Name == "" {
		return errors.New("document name is required")
	}
	if dm.OwnerID == "" {
		return errors.New("document owner is required")
	}
	if dm.Version < 1 {
		return errors.New("document version must be >= 1")
	}
	return nil
}
