package service

import (
	"errors"
	"strings"
	"testing"

	"budget/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStores 内存版存储，记录导入器的全部写入
type fakeStores struct {
	categories []models.Category
	rules      []models.GroupingRule
	saved      []models.Transaction
	savedCats  []models.Category
	nextID     uint

	rulesErr error
	saveErr  error
}

func newFakeStores() *fakeStores {
	return &fakeStores{nextID: 100}
}

func (f *fakeStores) FindCategoryByName(name string) (*models.Category, error) {
	for i := range f.categories {
		if f.categories[i].Name == name {
			return &f.categories[i], nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (f *fakeStores) SaveCategory(cat *models.Category) error {
	f.nextID++
	cat.ID = f.nextID
	f.categories = append(f.categories, *cat)
	f.savedCats = append(f.savedCats, *cat)
	return nil
}

func (f *fakeStores) FindActiveRulesByUser(userID uint) ([]models.GroupingRule, error) {
	if f.rulesErr != nil {
		return nil, f.rulesErr
	}
	var out []models.GroupingRule
	for _, r := range f.rules {
		if r.UserID == userID && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStores) SaveTransactions(txns []models.Transaction) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, txns...)
	return nil
}

// statementRow 按对账单列布局拼一行：第 2 列日期、第 4 列描述、第 7 列标记、第 8 列金额
func statementRow(date, desc, marker, amount string) string {
	return strings.Join([]string{"ref", "acc", date, "x", desc, "x", "x", marker, amount}, ";")
}

const statementHeader = "Reatüüp;Konto;Kuupäev;Saaja;Selgitus;Viide;Arhiveerimistunnus;Deebet/Kreedit;Summa"

func TestImporter_Import_DebitBecomesNegativeExpense(t *testing.T) {
	stores := newFakeStores()
	stores.rules = []models.GroupingRule{
		{ID: 1, UserID: 1, Criterion: "restaurant", IsActive: true,
			CategoryID: 5, Category: models.Category{ID: 5, Name: "Dining"}},
	}

	input := statementHeader + "\n" +
		statementRow(`"20.05.2025"`, "Restaurant Pizza OÜ", "D", "100,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	require.Len(t, stores.saved, 1)
	txn := stores.saved[0]
	assert.Equal(t, models.TransactionTypeExpense, txn.Type)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("-100.00")), "金额应取负: %s", txn.Amount)
	assert.Equal(t, uint(5), txn.CategoryID)
	assert.Equal(t, "Restaurant Pizza OÜ", txn.Description)
	assert.Equal(t, 2025, txn.TransactionDate.Year())
	assert.Equal(t, 5, int(txn.TransactionDate.Month()))
	assert.Equal(t, 20, txn.TransactionDate.Day())
	// 命中规则时不创建兜底分类
	assert.Empty(t, stores.savedCats)
}

func TestImporter_Import_CreditStaysIncome(t *testing.T) {
	stores := newFakeStores()

	input := statementHeader + "\n" +
		statementRow(`"01.06.2025"`, "Salary May", "C", "2500,50") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	require.Len(t, stores.saved, 1)
	txn := stores.saved[0]
	assert.Equal(t, models.TransactionTypeIncome, txn.Type)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("2500.50")), "收入金额不变号: %s", txn.Amount)
	// 贷方未命中规则时兜底到 Makse
	require.Len(t, stores.savedCats, 1)
	assert.Equal(t, "Makse", stores.savedCats[0].Name)
	assert.False(t, stores.savedCats[0].IsGlobal)
	require.NotNil(t, stores.savedCats[0].UserID)
	assert.Equal(t, uint(1), *stores.savedCats[0].UserID)
}

func TestImporter_Import_DebitFallbackUsesDescription(t *testing.T) {
	stores := newFakeStores()

	input := statementHeader + "\n" +
		statementRow(`"02.06.2025"`, "Rimi Selver", "D", "12,30") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	require.Len(t, stores.savedCats, 1)
	assert.Equal(t, "Rimi Selver", stores.savedCats[0].Name)
	require.Len(t, stores.saved, 1)
	assert.Equal(t, stores.savedCats[0].ID, stores.saved[0].CategoryID)
}

func TestImporter_Import_LowercaseMarker(t *testing.T) {
	stores := newFakeStores()

	input := statementHeader + "\n" +
		statementRow(`"03.06.2025"`, "Bolt Taxi", "d", "8,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	require.Len(t, stores.saved, 1)
	assert.Equal(t, models.TransactionTypeExpense, stores.saved[0].Type)
	assert.True(t, stores.saved[0].Amount.IsNegative())
}

func TestImporter_Import_RuleMatchIsCaseInsensitiveSubstring(t *testing.T) {
	stores := newFakeStores()
	stores.rules = []models.GroupingRule{
		{ID: 1, UserID: 1, Criterion: "RESTAURANT", IsActive: true,
			CategoryID: 5, Category: models.Category{ID: 5, Name: "Dining"}},
	}

	input := statementHeader + "\n" +
		statementRow(`"20.05.2025"`, "My favorite restaurant downtown", "D", "55,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	require.Len(t, stores.saved, 1)
	assert.Equal(t, uint(5), stores.saved[0].CategoryID)
}

func TestImporter_Import_FirstMatchingRuleWins(t *testing.T) {
	stores := newFakeStores()
	stores.rules = []models.GroupingRule{
		{ID: 1, UserID: 1, Criterion: "market", IsActive: true,
			CategoryID: 7, Category: models.Category{ID: 7, Name: "Groceries"}},
		{ID: 2, UserID: 1, Criterion: "super", IsActive: true,
			CategoryID: 8, Category: models.Category{ID: 8, Name: "Shopping"}},
	}

	// 两条规则都命中描述，取先创建的那条
	input := statementHeader + "\n" +
		statementRow(`"20.05.2025"`, "Supermarket AS", "D", "30,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	require.Len(t, stores.saved, 1)
	assert.Equal(t, uint(7), stores.saved[0].CategoryID)
}

func TestImporter_Import_SkipsShortRows(t *testing.T) {
	stores := newFakeStores()

	input := statementHeader + "\n" +
		"too;few;fields\n" +
		statementRow(`"20.05.2025"`, "Shop", "D", "10,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	// 坏行跳过，好行照常导入
	require.Len(t, stores.saved, 1)
	assert.Equal(t, "Shop", stores.saved[0].Description)
}

func TestImporter_Import_SkipsBadAmount(t *testing.T) {
	stores := newFakeStores()

	input := statementHeader + "\n" +
		statementRow(`"20.05.2025"`, "Shop", "D", "not-a-number") + "\n" +
		statementRow(`"21.05.2025"`, "Shop2", "D", "5,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	require.Len(t, stores.saved, 1)
	assert.Equal(t, "Shop2", stores.saved[0].Description)
}

func TestImporter_Import_SkipsBadDate(t *testing.T) {
	stores := newFakeStores()

	input := statementHeader + "\n" +
		statementRow(`"2025-05-20"`, "Shop", "D", "10,00") + "\n" +
		statementRow(`"21.05.2025"`, "Shop2", "D", "5,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	require.Len(t, stores.saved, 1)
	assert.Equal(t, "Shop2", stores.saved[0].Description)
}

func TestImporter_Import_FallbackCategoryCreatedOncePerBatch(t *testing.T) {
	stores := newFakeStores()

	input := statementHeader + "\n" +
		statementRow(`"01.06.2025"`, "Salary May", "C", "2500,00") + "\n" +
		statementRow(`"15.06.2025"`, "Refund", "C", "10,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	// 两笔贷方都兜底到 Makse，只建一次
	require.Len(t, stores.savedCats, 1)
	require.Len(t, stores.saved, 2)
	assert.Equal(t, stores.saved[0].CategoryID, stores.saved[1].CategoryID)
}

func TestImporter_Import_ReusesExistingCategory(t *testing.T) {
	stores := newFakeStores()
	stores.categories = []models.Category{{ID: 9, Name: "Makse", IsGlobal: true}}

	input := statementHeader + "\n" +
		statementRow(`"01.06.2025"`, "Transfer in", "C", "100,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.NoError(t, err)

	assert.Empty(t, stores.savedCats)
	require.Len(t, stores.saved, 1)
	assert.Equal(t, uint(9), stores.saved[0].CategoryID)
}

func TestImporter_Import_EmptyFile(t *testing.T) {
	stores := newFakeStores()

	err := NewImporter(stores).Import(strings.NewReader(""), 1)
	require.NoError(t, err)
	assert.Empty(t, stores.saved)
}

func TestImporter_Import_HeaderOnly(t *testing.T) {
	stores := newFakeStores()

	err := NewImporter(stores).Import(strings.NewReader(statementHeader+"\n"), 1)
	require.NoError(t, err)
	assert.Empty(t, stores.saved)
}

func TestImporter_Import_SaveFailurePropagates(t *testing.T) {
	stores := newFakeStores()
	stores.saveErr = errors.New("db down")

	input := statementHeader + "\n" +
		statementRow(`"20.05.2025"`, "Shop", "D", "10,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "保存交易失败")
}

func TestImporter_Import_RuleQueryFailurePropagates(t *testing.T) {
	stores := newFakeStores()
	stores.rulesErr = errors.New("db down")

	input := statementHeader + "\n" +
		statementRow(`"20.05.2025"`, "Shop", "D", "10,00") + "\n"

	err := NewImporter(stores).Import(strings.NewReader(input), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "查询分组规则失败")
}
