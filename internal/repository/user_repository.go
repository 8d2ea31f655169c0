package repository

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户目录仓储接口
// 实现引擎的 Directory 契约,角色内按负载升序返回
type UserRepository interface {
	Save(user *model.UserModel) error
	GetUser(id string) (*model.UserModel, error)
	ListByRole(role string) ([]*model.UserModel, error)
}

// userRepository 用户目录仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户目录仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save 保存用户
func (r *userRepository) Save(user *model.UserModel) error {
	return r.db.Save(user).Error
}

// GetUser 根据 ID 查找用户
func (r *userRepository) GetUser(id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByRole 按角色查找用户,负载升序
func (r *userRepository) ListByRole(role string) ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.Where("role = ?", role).
		Order("load_metric ASC, id ASC").
		Find(&users).Error
	return users, err
}
