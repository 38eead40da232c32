package models

import (
	"time"
)

// GroupingRule 分组规则模型
//
// 导入交易时按用户的启用规则逐条匹配：规则的 Criterion 作为不区分大小写的
// 子串与交易描述比较，首个命中的规则决定分类。规则按创建顺序（id 升序）
// 参与匹配，保证结果可复现。Criterion 非空由调用方保证，这里不做校验。
type GroupingRule struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index;not null"`
	Criterion  string    `json:"criterion" gorm:"size:255;not null"`
	CategoryID uint      `json:"category_id" gorm:"not null"`
	Category   Category  `json:"category" gorm:"foreignKey:CategoryID"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
	User       User      `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (GroupingRule) TableName() string {
	return "grouping_rules"
}
