package database

import (
	"testing"
	"time"

	"budget/models"
	"budget/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockStores(t *testing.T) (*Stores, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := DB
	DB = gormDB
	return NewStores(), mock, func() {
		DB = oldDB
		sqlDB.Close()
	}
}

func TestStores_FindCategoryByName(t *testing.T) {
	stores, mock, cleanup := setupMockStores(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("Makse").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "is_global", "created_at", "updated_at", "deleted_at"}).
			AddRow(9, "Makse", 1, false, time.Now(), time.Now(), nil))

	cat, err := stores.FindCategoryByName("Makse")
	require.NoError(t, err)
	assert.Equal(t, uint(9), cat.ID)
	assert.Equal(t, "Makse", cat.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStores_FindCategoryByName_NotFound(t *testing.T) {
	stores, mock, cleanup := setupMockStores(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("Makse").
		WillReturnRows(sqlmock.NewRows([]string{}))

	_, err := stores.FindCategoryByName("Makse")
	assert.ErrorIs(t, err, service.ErrCategoryNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 软删除同名分类后重建：按名称查不到（被 deleted_at 过滤），随后的插入必须能成功，
// 否则含贷方行的导入整批失败
func TestStores_RecreateCategoryAfterSoftDelete(t *testing.T) {
	stores, mock, cleanup := setupMockStores(t)
	defer cleanup()

	// 软删除的旧行被查询过滤掉
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("Makse").
		WillReturnRows(sqlmock.NewRows([]string{}))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()

	_, err := stores.FindCategoryByName("Makse")
	require.ErrorIs(t, err, service.ErrCategoryNotFound)

	uid := uint(1)
	cat := &models.Category{Name: "Makse", UserID: &uid}
	require.NoError(t, stores.SaveCategory(cat))
	assert.Equal(t, uint(10), cat.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStores_FindActiveRulesByUser(t *testing.T) {
	stores, mock, cleanup := setupMockStores(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `grouping_rules`").
		WithArgs(uint(1), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "criterion", "category_id", "is_active", "created_at"}).
			AddRow(1, 1, "restaurant", 5, true, time.Now()).
			AddRow(2, 1, "taxi", 6, true, time.Now()))

	// Preload 规则目标分类
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "is_global", "created_at", "updated_at", "deleted_at"}).
			AddRow(5, "Dining", 1, false, time.Now(), time.Now(), nil).
			AddRow(6, "Transport", 1, false, time.Now(), time.Now(), nil))

	rules, err := stores.FindActiveRulesByUser(1)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "restaurant", rules[0].Criterion)
	assert.Equal(t, "Dining", rules[0].Category.Name)
	assert.Equal(t, "taxi", rules[1].Criterion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStores_SaveTransactions_EmptyIsNoop(t *testing.T) {
	stores, mock, cleanup := setupMockStores(t)
	defer cleanup()

	// 不应产生任何 SQL
	require.NoError(t, stores.SaveTransactions(nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStores_SaveTransactions(t *testing.T) {
	stores, mock, cleanup := setupMockStores(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	txns := []models.Transaction{
		{UserID: 1, Type: models.TransactionTypeExpense, CategoryID: 5, Description: "dinner"},
		{UserID: 1, Type: models.TransactionTypeIncome, CategoryID: 9, Description: "salary"},
	}
	require.NoError(t, stores.SaveTransactions(txns))
	require.NoError(t, mock.ExpectationsWereMet())
}
