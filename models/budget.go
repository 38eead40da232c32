package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget 预算模型
//
// 预算通过成员关系共享：成员数大于 1 时 Shared 置为 true。
// 分类与预算是多对多关系，预算汇总时遍历其分类下的交易求和。
type Budget struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:100;not null"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Shared      bool            `json:"shared" gorm:"not null;default:false"`
	StartDate   *time.Time      `json:"start_date" gorm:"type:date"`
	EndDate     *time.Time      `json:"end_date" gorm:"type:date"`
	Members     []User          `json:"members" gorm:"many2many:budget_members"`
	Categories  []Category      `json:"categories" gorm:"many2many:budget_categories"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}
