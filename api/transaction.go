package api

import (
	"strconv"
	"time"

	"budget/database"
	"budget/middleware"
	"budget/models"
	"budget/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler 交易记录处理器
type TransactionHandler struct{}

// NewTransactionHandler 创建交易记录处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

// CreateTransactionRequest 创建交易请求
type CreateTransactionRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required" example:"-99.99"`
	TransactionDate string          `json:"transaction_date" binding:"required" example:"2025-05-20"`
	CategoryName    string          `json:"category_name" binding:"required" example:"Dining"`
	Description     string          `json:"description" example:"午餐"`
}

// UpdateTransactionRequest 更新交易请求，空字段不更新
type UpdateTransactionRequest struct {
	Amount          *decimal.Decimal `json:"amount" example:"-99.99"`
	TransactionDate string           `json:"transaction_date" example:"2025-05-20"`
	CategoryName    string           `json:"category_name" example:"Dining"`
	Description     string           `json:"description" example:"午餐"`
}

// Create 创建单笔交易
// @Summary 创建单笔交易
// @Description 手工录入一笔交易。交易类型由金额符号推断：负数为支出，非负为收入（与文件导入
// @Description 按借贷标记推断的口径不同，两条路径各自保持原有约定）。分类按名称全局查找，不存在则创建为全局分类。
// @Tags 交易记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "交易信息"
// @Success 200 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	txnDate, err := time.ParseInLocation("2006-01-02", req.TransactionDate, time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	// 分类按名称全局查找（不限定用户），不存在则创建为全局分类
	var category models.Category
	if err := database.DB.Where("name = ?", req.CategoryName).First(&category).Error; err != nil {
		category = models.Category{
			Name:     req.CategoryName,
			IsGlobal: true,
		}
		if err := database.DB.Create(&category).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "创建分类失败"))
			return
		}
	}

	// 手工路径：类型由金额符号推断，金额符号保持原样
	txnType := models.TransactionTypeIncome
	if req.Amount.IsNegative() {
		txnType = models.TransactionTypeExpense
	}

	txn := models.Transaction{
		UserID:          userID,
		Type:            txnType,
		Amount:          req.Amount,
		TransactionDate: txnDate,
		CategoryID:      category.ID,
		Category:        category,
		Description:     req.Description,
	}

	if err := database.DB.Omit("Category", "User").Create(&txn).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建交易失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", txn)
}

// List 获取交易列表
// @Summary 获取交易列表
// @Description 获取当前用户的全部交易记录，可按类型筛选（EXPENSE/INCOME）
// @Tags 交易记录
// @Produce json
// @Security BearerAuth
// @Param type query string false "交易类型筛选" Enums(EXPENSE,INCOME)
// @Success 200 {object} Response{data=[]models.Transaction} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Preload("Category").Where("user_id = ?", userID)

	if t := c.Query("type"); t != "" {
		if t != models.TransactionTypeExpense && t != models.TransactionTypeIncome {
			BadRequest(c, "无效的交易类型，可选值：EXPENSE、INCOME")
			return
		}
		query = query.Where("type = ?", t)
	}

	var txns []models.Transaction
	if err := query.Order("transaction_date DESC, id DESC").Find(&txns).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, txns)
}

// Update 更新交易
// @Summary 更新交易
// @Description 更新指定交易。仅更新请求中出现的字段；指定的分类名不存在时返回 404。
// @Tags 交易记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param request body UpdateTransactionRequest true "交易信息"
// @Success 200 {object} Response{data=models.Transaction} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "交易或分类不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var txn models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		NotFound(c, "交易不存在")
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.CategoryName != "" {
		var category models.Category
		if err := database.DB.Where("name = ?", req.CategoryName).First(&category).Error; err != nil {
			NotFound(c, "分类不存在")
			return
		}
		updates["category_id"] = category.ID
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.TransactionDate != "" {
		txnDate, err := time.ParseInLocation("2006-01-02", req.TransactionDate, time.Local)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		updates["transaction_date"] = txnDate
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&txn).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}

	// 重新获取更新后的记录
	database.DB.Preload("Category").First(&txn, txn.ID)
	SuccessWithMessage(c, "更新成功", txn)
}

// Delete 删除交易
// @Summary 删除交易
// @Description 删除指定的交易记录
// @Tags 交易记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var txn models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		NotFound(c, "交易不存在")
		return
	}

	if err := database.DB.Delete(&txn).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// Import 导入银行对账单
// @Summary 导入银行对账单
// @Description 上传 `;` 分隔的银行对账单文件并批量导入为交易。格式错误的行会被跳过（仅记录日志），
// @Description 文件读取失败或落库失败则整体失败。不返回跳过行数。
// @Tags 交易记录
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "对账单文件"
// @Success 200 {object} Response "导入成功"
// @Failure 400 {object} Response "文件缺失或导入失败"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions/import [post]
func (h *TransactionHandler) Import(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传对账单文件")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, "打开文件失败: "+err.Error())
		return
	}
	defer f.Close()

	importer := service.NewImporter(database.NewStores())
	if err := importer.Import(f, userID); err != nil {
		BadRequest(c, "导入失败: "+err.Error())
		return
	}

	SuccessWithMessage(c, "导入成功", nil)
}
