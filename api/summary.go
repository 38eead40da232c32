package api

import (
	"sort"

	"budget/database"
	"budget/middleware"
	"budget/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MonthlyAmount 按月汇总金额
type MonthlyAmount struct {
	Month  int             `json:"month" example:"5"` // 月份 1-12
	Amount decimal.Decimal `json:"amount" example:"-1024.50"`
}

// MonthlySummary 按月收支汇总
type MonthlySummary struct {
	Month        int             `json:"month" example:"5"`
	TotalIncome  decimal.Decimal `json:"total_income" example:"5000.00"`
	TotalExpense decimal.Decimal `json:"total_expense" example:"-1024.50"`
}

// 汇总按自然月分桶（1-12），不区分年份：跨年数据落入同一个月桶，
// 这是报表的既定口径。求和全部用精确小数在内存完成，不走浮点 SUM。

// monthlyTotals 将用户某一类型的交易按月份求和
func monthlyTotals(userID uint, txnType string) (map[int]decimal.Decimal, error) {
	var txns []models.Transaction
	if err := database.DB.Where("user_id = ? AND type = ?", userID, txnType).Find(&txns).Error; err != nil {
		return nil, err
	}

	totals := make(map[int]decimal.Decimal)
	for _, txn := range txns {
		month := int(txn.TransactionDate.Month())
		totals[month] = totals[month].Add(txn.Amount)
	}
	return totals, nil
}

// sortedMonthlyAmounts 转为按月份升序的切片
func sortedMonthlyAmounts(totals map[int]decimal.Decimal) []MonthlyAmount {
	result := make([]MonthlyAmount, 0, len(totals))
	for month, amount := range totals {
		result = append(result, MonthlyAmount{Month: month, Amount: amount})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result
}

// GetIncomesByMonth 获取按月收入汇总
// @Summary 获取按月收入汇总
// @Description 按自然月（1-12，跨年合并）汇总当前用户的收入
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]MonthlyAmount} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/statistics/incomes-by-month [get]
func (h *TransactionHandler) GetIncomesByMonth(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	totals, err := monthlyTotals(userID, models.TransactionTypeIncome)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, sortedMonthlyAmounts(totals))
}

// GetExpensesByMonth 获取按月支出汇总
// @Summary 获取按月支出汇总
// @Description 按自然月（1-12，跨年合并）汇总当前用户的支出
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]MonthlyAmount} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/statistics/expenses-by-month [get]
func (h *TransactionHandler) GetExpensesByMonth(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	totals, err := monthlyTotals(userID, models.TransactionTypeExpense)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, sortedMonthlyAmounts(totals))
}

// GetMonthlySummary 获取按月收支汇总
// @Summary 获取按月收支汇总
// @Description 每个月份一条记录，包含收入总和与支出总和，按月份升序返回
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]MonthlySummary} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/statistics/monthly-summary [get]
func (h *TransactionHandler) GetMonthlySummary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	incomes, err := monthlyTotals(userID, models.TransactionTypeIncome)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	expenses, err := monthlyTotals(userID, models.TransactionTypeExpense)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	months := make(map[int]struct{})
	for m := range incomes {
		months[m] = struct{}{}
	}
	for m := range expenses {
		months[m] = struct{}{}
	}

	summary := make([]MonthlySummary, 0, len(months))
	for m := range months {
		summary = append(summary, MonthlySummary{
			Month:        m,
			TotalIncome:  incomes[m],
			TotalExpense: expenses[m],
		})
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Month < summary[j].Month })

	Success(c, summary)
}
