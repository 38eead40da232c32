package api

import (
	"strconv"
	"strings"

	"budget/database"
	"budget/middleware"
	"budget/models"

	"github.com/gin-gonic/gin"
)

// GroupingRuleHandler 分组规则处理器
type GroupingRuleHandler struct{}

// NewGroupingRuleHandler 创建分组规则处理器
func NewGroupingRuleHandler() *GroupingRuleHandler {
	return &GroupingRuleHandler{}
}

// GroupingRuleCreateRequest 创建分组规则请求
type GroupingRuleCreateRequest struct {
	Criterion    string `json:"criterion" binding:"required,min=1,max=255" example:"restaurant"`
	CategoryName string `json:"category_name" binding:"required,min=1,max=100" example:"Dining"`
}

// GroupingRuleUpdateRequest 更新分组规则请求
type GroupingRuleUpdateRequest struct {
	Criterion string `json:"criterion" binding:"omitempty,min=1,max=255"`
	IsActive  *bool  `json:"is_active"`
}

// GroupingRuleResponse 分组规则返回
type GroupingRuleResponse struct {
	ID           uint   `json:"id"`
	Criterion    string `json:"criterion"`
	CategoryName string `json:"category_name"`
	IsActive     bool   `json:"is_active"`
}

// Create 创建分组规则
// @Summary 创建分组规则
// @Description 创建一条描述匹配规则。目标分类按名称查找，不存在则自动创建（归属当前用户）。新规则默认启用。
// @Tags 分组规则
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GroupingRuleCreateRequest true "规则信息"
// @Success 200 {object} Response{data=GroupingRuleResponse} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/grouping-rules [post]
func (h *GroupingRuleHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req GroupingRuleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if strings.TrimSpace(req.Criterion) == "" {
		BadRequest(c, "匹配条件不能为空")
		return
	}

	// 目标分类按名称查找，不存在则创建
	var category models.Category
	if err := database.DB.Where("name = ?", req.CategoryName).First(&category).Error; err != nil {
		category = models.Category{
			Name:   req.CategoryName,
			UserID: &userID,
		}
		if err := database.DB.Create(&category).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "创建分类失败"))
			return
		}
	}

	rule := models.GroupingRule{
		UserID:     userID,
		Criterion:  req.Criterion,
		CategoryID: category.ID,
		Category:   category,
		IsActive:   true,
	}
	if err := database.DB.Omit("Category", "User").Create(&rule).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建规则失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", GroupingRuleResponse{
		ID:           rule.ID,
		Criterion:    rule.Criterion,
		CategoryName: category.Name,
		IsActive:     rule.IsActive,
	})
}

// List 获取分组规则列表
// @Summary 获取分组规则列表
// @Description 获取当前用户的全部分组规则，按创建顺序返回（导入时也按此顺序匹配）
// @Tags 分组规则
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]GroupingRuleResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/grouping-rules [get]
func (h *GroupingRuleHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var rules []models.GroupingRule
	if err := database.DB.Preload("Category").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rules).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	result := make([]GroupingRuleResponse, 0, len(rules))
	for _, rule := range rules {
		result = append(result, GroupingRuleResponse{
			ID:           rule.ID,
			Criterion:    rule.Criterion,
			CategoryName: rule.Category.Name,
			IsActive:     rule.IsActive,
		})
	}

	Success(c, result)
}

// Update 更新分组规则
// @Summary 更新分组规则
// @Description 更新规则的匹配条件或启用状态
// @Tags 分组规则
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "规则ID"
// @Param request body GroupingRuleUpdateRequest true "更新的规则信息"
// @Success 200 {object} Response "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "规则不存在"
// @Router /api/v1/grouping-rules/{id} [put]
func (h *GroupingRuleHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var rule models.GroupingRule
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&rule).Error; err != nil {
		NotFound(c, "规则不存在")
		return
	}

	var req GroupingRuleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Criterion != "" {
		updates["criterion"] = req.Criterion
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", nil)
		return
	}

	if err := database.DB.Model(&rule).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	SuccessWithMessage(c, "更新成功", nil)
}

// Delete 删除分组规则
// @Summary 删除分组规则
// @Description 删除指定的分组规则，不影响已导入的交易
// @Tags 分组规则
// @Produce json
// @Security BearerAuth
// @Param id path int true "规则ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "规则不存在"
// @Router /api/v1/grouping-rules/{id} [delete]
func (h *GroupingRuleHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var rule models.GroupingRule
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&rule).Error; err != nil {
		NotFound(c, "规则不存在")
		return
	}

	if err := database.DB.Delete(&rule).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
