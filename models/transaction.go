package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 交易类型
const (
	TransactionTypeExpense = "EXPENSE" // 支出
	TransactionTypeIncome  = "INCOME"  // 收入
)

// Transaction 交易记录模型
//
// Amount 始终按实际记账符号存储：导入的支出为负数，手工录入保持提交时的符号。
type Transaction struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	UserID          uint            `json:"user_id" gorm:"index;not null"`
	Type            string          `json:"transaction_type" gorm:"size:20;not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	TransactionDate time.Time       `json:"transaction_date" gorm:"type:date;not null"`
	CategoryID      uint            `json:"category_id" gorm:"index;not null"`
	Category        Category        `json:"category" gorm:"foreignKey:CategoryID"`
	Description     string          `json:"description" gorm:"size:255"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`
	User            User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}
