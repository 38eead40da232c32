package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 分类模型
//
// UserID 为空表示全局分类（预算内所有成员可见），否则归属单个用户。
// 手工创建的分类名称统一转小写；导入时自动创建的兜底分类保留原始大小写。
// 名称不加唯一约束：不同用户可以各自有同名分类，软删除后同名分类也可以重建，
// 查找统一走先查后建。
type Category struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"size:100;not null;index"`
	UserID       *uint          `json:"user_id" gorm:"index"`
	IsGlobal     bool           `json:"is_global" gorm:"not null;default:false"`
	Transactions []Transaction  `json:"-" gorm:"foreignKey:CategoryID"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}
