package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Goal 储蓄目标模型
type Goal struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"index;not null"`
	Name      string          `json:"name" gorm:"size:100;not null"`
	Current   decimal.Decimal `json:"current" gorm:"type:decimal(12,2);not null"`
	Target    decimal.Decimal `json:"target" gorm:"type:decimal(12,2);not null"`
	Deadline  time.Time       `json:"deadline" gorm:"type:date;not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
	User      User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Goal) TableName() string {
	return "goals"
}
