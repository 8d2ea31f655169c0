package repository

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// DocumentRepository 文档仓储接口
type DocumentRepository interface {
	Save(doc *model.DocumentModel) error
	FindByID(id string) (*model.DocumentModel, error)
	FindByDossier(dossierID string) ([]*model.DocumentModel, error)
}

// documentRepository 文档仓储实现
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓储
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Save 保存文档
func (r *documentRepository) Save(doc *model.DocumentModel) error {
	return r.db.Save(doc).Error
}

// FindByID 根据 ID 查找文档
func (r *documentRepository) FindByID(id string) (*model.DocumentModel, error) {
	var doc model.DocumentModel
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByDossier 查找目录下的全部文档
func (r *documentRepository) FindByDossier(dossierID string) ([]*model.DocumentModel, error) {
	var docs []*model.DocumentModel
	err := r.db.Where("dossier_id = ?", dossierID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// DossierRepository 目录仓储接口
type DossierRepository interface {
	Save(d *model.DossierModel) error
	FindByID(id string) (*model.DossierModel, error)
}

// dossierRepository 目录仓储实现
type dossierRepository struct {
	db *gorm.DB
}

// NewDossierRepository 创建目录仓储
func NewDossierRepository(db *gorm.DB) DossierRepository {
	return &dossierRepository{db: db}
}

// Save 保存目录
func (r *dossierRepository) Save(d *model.DossierModel) error {
	return r.db.Save(d).Error
}

// FindByID 根据 ID 查找目录
func (r *dossierRepository) FindByID(id string) (*model.DossierModel, error) {
	var d model.DossierModel
	if err := r.db.Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
