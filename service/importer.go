package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"budget/models"

	"github.com/shopspring/decimal"
)

// 银行对账单固定列布局（`;` 分隔，首行为表头）
const (
	statementDateLayout = "02.01.2006"
	statementMinFields  = 9
	statementColDate    = 2 // 日期，带引号，如 "20.05.2025"
	statementColDesc    = 4 // 交易描述
	statementColMarker  = 7 // 借/贷标记 D/C
	statementColAmount  = 8 // 金额，小数逗号格式，如 12,50
)

// fallbackPaymentCategory 贷方交易未命中任何规则时的兜底分类名
const fallbackPaymentCategory = "Makse"

// ErrCategoryNotFound 分类不存在
var ErrCategoryNotFound = errors.New("分类不存在")

// CategoryStore 导入管道依赖的分类存储
type CategoryStore interface {
	// FindCategoryByName 按名称精确查找（全局，不限定用户）；未找到返回 ErrCategoryNotFound
	FindCategoryByName(name string) (*models.Category, error)
	SaveCategory(cat *models.Category) error
}

// GroupingRuleStore 导入管道依赖的分组规则存储
type GroupingRuleStore interface {
	// FindActiveRulesByUser 返回用户启用中的规则，按创建顺序（id 升序）排列
	FindActiveRulesByUser(userID uint) ([]models.GroupingRule, error)
}

// TransactionStore 导入管道依赖的交易存储
type TransactionStore interface {
	// SaveTransactions 批量保存，要求整体成功或整体失败
	SaveTransactions(txns []models.Transaction) error
}

// ImporterStores 导入器需要的全部存储
type ImporterStores interface {
	CategoryStore
	GroupingRuleStore
	TransactionStore
}

// Importer 银行对账单导入器
//
// 整个导入是请求内的同步批处理：全量读入、逐行处理、最后一次性落库。
// 行级错误（列数不足、金额或日期无法解析）跳过该行并记日志，不中断批次；
// 文件读取失败或最终落库失败则整体失败。
type Importer struct {
	stores ImporterStores
}

// NewImporter 创建导入器
func NewImporter(stores ImporterStores) *Importer {
	return &Importer{stores: stores}
}

// Import 从 r 读取 `;` 分隔的对账单并为 userID 导入交易
//
// 每行的处理流程：金额规范化与类型推断 → 分组规则匹配/兜底分类 → 组装交易。
// 借方（D）交易记为支出且金额取负；其余记为收入，金额保持原样。
func (im *Importer) Import(r io.Reader, userID uint) error {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// 跳过表头
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("读取文件失败: %w", err)
	}

	rules, err := im.stores.FindActiveRulesByUser(userID)
	if err != nil {
		return fmt.Errorf("查询分组规则失败: %w", err)
	}

	// 同一批次内相同兜底分类只创建一次
	resolved := make(map[string]*models.Category)

	var txns []models.Transaction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("读取文件失败: %w", err)
		}

		if len(record) < statementMinFields {
			log.Printf("跳过格式错误的行: %s", strings.Join(record, ";"))
			continue
		}

		marker := record[statementColMarker]

		// 金额：逗号转小数点后按精确小数解析
		rawAmount := strings.TrimSpace(strings.ReplaceAll(record[statementColAmount], ",", "."))
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			log.Printf("金额格式无效，跳过该行: %s", rawAmount)
			continue
		}

		// 借方为支出，金额取负；其余为收入，符号不变
		txnType := models.TransactionTypeIncome
		if strings.EqualFold(marker, "D") {
			txnType = models.TransactionTypeExpense
			amount = amount.Neg()
		}

		description := record[statementColDesc]
		category, err := im.resolveCategory(description, marker, userID, rules, resolved)
		if err != nil {
			return fmt.Errorf("解析分类失败: %w", err)
		}

		// 日期带引号，去除后按 dd.MM.yyyy 解析
		rawDate := strings.ReplaceAll(record[statementColDate], "\"", "")
		date, err := time.Parse(statementDateLayout, rawDate)
		if err != nil {
			log.Printf("日期格式无效，跳过该行: %s", rawDate)
			continue
		}

		txns = append(txns, models.Transaction{
			UserID:          userID,
			Type:            txnType,
			Amount:          amount,
			TransactionDate: date,
			CategoryID:      category.ID,
			Category:        *category,
			Description:     description,
		})
	}

	if err := im.stores.SaveTransactions(txns); err != nil {
		return fmt.Errorf("保存交易失败: %w", err)
	}
	return nil
}

// resolveCategory 为一笔交易确定分类
//
// 先按创建顺序匹配用户的启用规则（criterion 作为不区分大小写的子串与描述比较，
// 首个命中即返回）；未命中时派生兜底分类名：贷方（C）固定为 Makse，否则用描述
// 本身。兜底分类先查缓存、再查库（精确名称、全局），都没有才创建并立即落库，
// 保证一次导入中每个兜底名最多创建一个分类。
//
// 并发导入竞争创建同名兜底分类时可能各建一行，这里不做跨请求串行化，
// 后续按名称查找取最早的一条。
func (im *Importer) resolveCategory(description, marker string, userID uint, rules []models.GroupingRule, resolved map[string]*models.Category) (*models.Category, error) {
	lowerDesc := strings.ToLower(description)
	for i := range rules {
		if strings.Contains(lowerDesc, strings.ToLower(rules[i].Criterion)) {
			return &rules[i].Category, nil
		}
	}

	name := description
	if strings.EqualFold(marker, "C") {
		name = fallbackPaymentCategory
	}

	if cat, ok := resolved[name]; ok {
		return cat, nil
	}

	cat, err := im.stores.FindCategoryByName(name)
	if err == nil {
		resolved[name] = cat
		return cat, nil
	}
	if !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}

	// 兜底分类保留原始大小写，归属导入用户，非全局
	uid := userID
	cat = &models.Category{
		Name:     name,
		UserID:   &uid,
		IsGlobal: false,
	}
	if err := im.stores.SaveCategory(cat); err != nil {
		return nil, err
	}
	resolved[name] = cat
	return cat, nil
}
