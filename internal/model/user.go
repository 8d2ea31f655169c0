package model

import (
	"errors"
	"time"
)

// 用户角色
const (
	RoleEmploye   = "employe"
	RoleManager   = "manager"
	RoleDirecteur = "directeur" // 单例角色,审批节点优先路由至此
	RoleAdmin     = "admin"
)

// UserModel 用户数据模型
// 身份与会话由外部系统管理,本服务只消费 {id, role} 与负载指标
type UserModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Role       string    `gorm:"type:varchar(64);not null;index"`
	Disabled   bool      `gorm:"not null;default:false"`
	LoadMetric int64     `gorm:"type:bigint;not null;default:0"` // 历史会话时长累计,秒
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (um *UserModel) Validate() error {
	if um.ID == "" {
		return errors.New("user ID is required")
	}
	if um.Role == "" {
		return errors.New("user role is required")
	}
	return nil
}
