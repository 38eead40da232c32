package database

import (
	"budget/models"
	"budget/service"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gorm 实现的导入管道存储，满足 service 包定义的接口。
// NewImporter(NewStores()) 即可得到接数据库的导入器。

// Stores 聚合导入管道需要的三类存储
type Stores struct {
	db *gorm.DB
}

// NewStores 基于全局数据库连接创建存储
func NewStores() *Stores {
	return &Stores{db: DB}
}

// FindCategoryByName 按名称精确查找分类（全局查找，不限定用户）
func (s *Stores) FindCategoryByName(name string) (*models.Category, error) {
	var cat models.Category
	if err := s.db.Where("name = ?", name).First(&cat).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, service.ErrCategoryNotFound
		}
		return nil, err
	}
	return &cat, nil
}

// SaveCategory 保存新分类
func (s *Stores) SaveCategory(cat *models.Category) error {
	return s.db.Create(cat).Error
}

// FindActiveRulesByUser 查询用户启用中的分组规则，按创建顺序返回
func (s *Stores) FindActiveRulesByUser(userID uint) ([]models.GroupingRule, error) {
	var rules []models.GroupingRule
	err := s.db.Preload("Category").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

// SaveTransactions 批量保存交易，整体在一个数据库事务中完成
//
// 分类在解析阶段已经落库，这里只写交易本身，不级联写关联对象。
func (s *Stores) SaveTransactions(txns []models.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	return s.db.Omit(clause.Associations).Create(&txns).Error
}
