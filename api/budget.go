package api

import (
	"fmt"
	"strconv"
	"time"

	"budget/config"
	"budget/database"
	"budget/middleware"
	"budget/models"
	"budget/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BudgetHandler 预算处理器
type BudgetHandler struct {
	cfg          *config.Config
	emailService *service.EmailService
}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler(cfg *config.Config) *BudgetHandler {
	return &BudgetHandler{
		cfg:          cfg,
		emailService: service.NewEmailService(&cfg.Email),
	}
}

// BudgetCreateRequest 创建预算请求
type BudgetCreateRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=100" example:"家庭月度预算"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required" example:"3000.00"`
	Categories  []string        `json:"categories" binding:"required,min=1" example:"food,transport"`
	StartDate   string          `json:"start_date" example:"2025-05-01"`
	EndDate     string          `json:"end_date" example:"2025-05-31"`
}

// BudgetUpdateRequest 更新预算请求
type BudgetUpdateRequest struct {
	Name        string           `json:"name" binding:"omitempty,min=1,max=100"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
}

// CategorySpent 预算内单个分类的消费汇总
type CategorySpent struct {
	CategoryName string          `json:"category_name" example:"food"`
	TotalSpent   decimal.Decimal `json:"total_spent" example:"-420.50"`
}

// InviteMemberRequest 邀请成员请求
type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email" example:"member@example.com"`
}

// Create 创建预算
// @Summary 创建预算
// @Description 创建预算，必须至少提供一个分类名；分类会创建为当前用户的非全局分类并挂到预算下
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetCreateRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req BudgetCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	categories := make([]models.Category, 0, len(req.Categories))
	for _, name := range req.Categories {
		categories = append(categories, models.Category{
			Name:     name,
			UserID:   &user.ID,
			IsGlobal: false,
		})
	}
	if err := database.DB.Create(&categories).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建分类失败"))
		return
	}

	budget := models.Budget{
		Name:        req.Name,
		TotalAmount: req.TotalAmount,
		Shared:      true,
		Members:     []models.User{user},
		Categories:  categories,
	}
	if req.StartDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local); err == nil {
			budget.StartDate = &t
		}
	}
	if req.EndDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.EndDate, time.Local); err == nil {
			budget.EndDate = &t
		}
	}

	if err := database.DB.Create(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建预算失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", budget)
}

// Get 获取预算详情
// @Summary 获取预算详情
// @Description 获取预算及其成员、分类
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response{data=models.Budget} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Preload("Members").Preload("Categories").First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	Success(c, budget)
}

// List 获取预算列表
// @Summary 获取预算列表
// @Description 获取当前用户作为成员参与的全部预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Budget} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var budgets []models.Budget
	if err := database.DB.Preload("Members").Preload("Categories").
		Joins("JOIN budget_members ON budget_members.budget_id = budgets.id").
		Where("budget_members.user_id = ?", userID).
		Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, budgets)
}

// Update 更新预算
// @Summary 更新预算
// @Description 更新预算的名称、总额或起止日期
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body BudgetUpdateRequest true "更新的预算信息"
// @Success 200 {object} Response{data=models.Budget} "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	var req BudgetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.TotalAmount != nil {
		updates["total_amount"] = *req.TotalAmount
	}
	if req.StartDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local); err == nil {
			updates["start_date"] = t
		}
	}
	if req.EndDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.EndDate, time.Local); err == nil {
			updates["end_date"] = t
		}
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&budget).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}

	database.DB.Preload("Members").Preload("Categories").First(&budget, budget.ID)
	SuccessWithMessage(c, "更新成功", budget)
}

// Delete 删除预算
// @Summary 删除预算
// @Description 软删除指定的预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	if err := database.DB.Delete(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// AddCategory 向预算添加分类
// @Summary 向预算添加分类
// @Description 按名称将分类挂到预算下，分类不存在时创建为全局分类
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body CategoryCreateRequest true "分类名称"
// @Success 200 {object} Response "添加成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id}/categories [post]
func (h *BudgetHandler) AddCategory(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var category models.Category
	if err := database.DB.Where("name = ?", req.Name).First(&category).Error; err != nil {
		category = models.Category{
			Name:     req.Name,
			UserID:   &userID,
			IsGlobal: true,
		}
		if err := database.DB.Create(&category).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "创建分类失败"))
			return
		}
	}

	if err := database.DB.Model(&budget).Association("Categories").Append(&category); err != nil {
		InternalError(c, SafeErrorMessage(err, "添加分类失败"))
		return
	}

	SuccessWithMessage(c, "添加成功", category)
}

// RemoveCategory 从预算移除分类
// @Summary 从预算移除分类
// @Description 解除分类与预算的关联，不删除分类本身
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param categoryId path int true "分类ID"
// @Success 200 {object} Response "移除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算或分类不存在"
// @Router /api/v1/budgets/{id}/categories/{categoryId} [delete]
func (h *BudgetHandler) RemoveCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	catID, err := strconv.ParseUint(c.Param("categoryId"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的分类ID")
		return
	}

	var budget models.Budget
	if err := database.DB.First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}
	var category models.Category
	if err := database.DB.First(&category, uint(catID)).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}

	if err := database.DB.Model(&budget).Association("Categories").Delete(&category); err != nil {
		InternalError(c, SafeErrorMessage(err, "移除分类失败"))
		return
	}

	SuccessWithMessage(c, "移除成功", nil)
}

// GetCategorySpent 获取预算内各分类的消费汇总
// @Summary 获取预算内各分类的消费汇总
// @Description 对预算下每个分类，汇总其全部交易金额（精确小数求和）；没有交易的分类返回 0
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response{data=[]CategorySpent} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id}/category-spent [get]
func (h *BudgetHandler) GetCategorySpent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Preload("Categories.Transactions").First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	result := make([]CategorySpent, 0, len(budget.Categories))
	for _, category := range budget.Categories {
		total := decimal.Zero
		for _, txn := range category.Transactions {
			total = total.Add(txn.Amount)
		}
		result = append(result, CategorySpent{
			CategoryName: category.Name,
			TotalSpent:   total,
		})
	}

	Success(c, result)
}

// GetTotalSpent 获取预算总消费
// @Summary 获取预算总消费
// @Description 汇总预算下所有分类的全部交易金额
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id}/total-spent [get]
func (h *BudgetHandler) GetTotalSpent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Preload("Categories.Transactions").First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	total := decimal.Zero
	for _, category := range budget.Categories {
		for _, txn := range category.Transactions {
			total = total.Add(txn.Amount)
		}
	}

	Success(c, gin.H{"total_spent": total})
}

// InviteMember 邀请成员加入预算
// @Summary 邀请成员加入预算
// @Description 向指定邮箱发送加入预算的邀请邮件
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body InviteMemberRequest true "被邀请人邮箱"
// @Success 200 {object} Response "邀请已发送"
// @Failure 400 {object} Response "参数错误或邮件发送失败"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id}/invite [post]
func (h *BudgetHandler) InviteMember(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	var req InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var inviter models.User
	if err := database.DB.First(&inviter, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	joinLink := fmt.Sprintf("%s/api/v1/budgets/%d/accept-invite?email=%s",
		h.cfg.Server.BaseURL, budget.ID, req.Email)
	if err := h.emailService.SendBudgetInviteEmail(req.Email, inviter.Username, budget.Name, joinLink); err != nil {
		BadRequest(c, "发送邀请邮件失败: "+err.Error())
		return
	}

	SuccessWithMessage(c, "邀请已发送", nil)
}

// AcceptInvite 接受预算邀请
// @Summary 接受预算邀请
// @Description 按邮箱将用户加入预算成员；成员数大于 1 时预算标记为共享
// @Tags 预算
// @Produce json
// @Param id path int true "预算ID"
// @Param email query string true "被邀请人邮箱"
// @Success 200 {object} Response "加入成功"
// @Failure 404 {object} Response "预算或用户不存在"
// @Router /api/v1/budgets/{id}/accept-invite [get]
func (h *BudgetHandler) AcceptInvite(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	email := c.Query("email")
	if email == "" {
		BadRequest(c, "缺少 email 参数")
		return
	}

	var budget models.Budget
	if err := database.DB.Preload("Members").First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	if err := database.DB.Model(&budget).Association("Members").Append(&user); err != nil {
		InternalError(c, SafeErrorMessage(err, "加入预算失败"))
		return
	}

	// 成员数大于 1 即为共享预算
	memberCount := database.DB.Model(&budget).Association("Members").Count()
	if err := database.DB.Model(&budget).Update("shared", memberCount > 1).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新共享状态失败"))
		return
	}

	SuccessWithMessage(c, "加入成功", nil)
}

// RemoveMember 从预算移除成员
// @Summary 从预算移除成员
// @Description 解除成员与预算的关联
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param userId path int true "用户ID"
// @Success 200 {object} Response "移除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算或用户不存在"
// @Router /api/v1/budgets/{id}/members/{userId} [delete]
func (h *BudgetHandler) RemoveMember(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	memberID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的用户ID")
		return
	}

	var budget models.Budget
	if err := database.DB.First(&budget, uint(id)).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}
	var user models.User
	if err := database.DB.First(&user, uint(memberID)).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	if err := database.DB.Model(&budget).Association("Members").Delete(&user); err != nil {
		InternalError(c, SafeErrorMessage(err, "移除成员失败"))
		return
	}

	SuccessWithMessage(c, "移除成功", nil)
}
