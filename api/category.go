package api

import (
	"strconv"
	"strings"

	"budget/database"
	"budget/middleware"
	"budget/models"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 分类处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建分类处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CategoryCreateRequest 创建分类请求
type CategoryCreateRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100" example:"Dining"`
	IsGlobal bool   `json:"is_global" example:"false"`
}

// CategoryUpdateRequest 更新分类请求
type CategoryUpdateRequest struct {
	Name     string `json:"name" binding:"omitempty,min=1,max=100"`
	IsGlobal *bool  `json:"is_global"`
}

// Create 创建分类
// @Summary 创建分类
// @Description 创建新分类。名称会去除首尾空白并统一转为小写（导入时自动创建的兜底分类不做此转换，
// @Description 两条路径的差异是既定行为）。同名分类已存在时返回 400。
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "分类信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "参数错误或分类已存在"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 手工创建的分类名统一小写
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	var existing models.Category
	if err := database.DB.Where("name = ? AND user_id = ?", name, userID).First(&existing).Error; err == nil {
		BadRequest(c, "分类名称已存在")
		return
	}

	cat := models.Category{
		Name:     name,
		UserID:   &userID,
		IsGlobal: req.IsGlobal,
	}
	if err := database.DB.Create(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", cat)
}

// Get 获取单个分类
// @Summary 获取分类详情
// @Description 根据ID获取分类及其关联的交易
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response{data=models.Category} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var cat models.Category
	if err := database.DB.Preload("Transactions").First(&cat, uint(id)).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}

	Success(c, cat)
}

// List 获取分类列表
// @Summary 获取分类列表
// @Description 返回当前用户自己的分类，以及其所在预算中的全局分类（去重）
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	// 用户自己的分类
	var own []models.Category
	if err := database.DB.Where("user_id = ?", userID).Find(&own).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 用户所在预算的全局分类
	var shared []models.Category
	if err := database.DB.
		Joins("JOIN budget_categories ON budget_categories.category_id = categories.id").
		Joins("JOIN budget_members ON budget_members.budget_id = budget_categories.budget_id").
		Where("budget_members.user_id = ? AND categories.is_global = ?", userID, true).
		Distinct("categories.*").
		Find(&shared).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 合并去重
	seen := make(map[uint]struct{}, len(own))
	result := make([]models.Category, 0, len(own)+len(shared))
	for _, cat := range own {
		seen[cat.ID] = struct{}{}
		result = append(result, cat)
	}
	for _, cat := range shared {
		if _, ok := seen[cat.ID]; !ok {
			result = append(result, cat)
		}
	}

	Success(c, result)
}

// Update 更新分类
// @Summary 更新分类
// @Description 更新指定分类的名称或全局标记
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Param request body CategoryUpdateRequest true "更新的分类信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var cat models.Category
	if err := database.DB.First(&cat, uint(id)).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := map[string]interface{}{"user_id": userID}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.IsGlobal != nil {
		updates["is_global"] = *req.IsGlobal
	}

	if err := database.DB.Model(&cat).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	database.DB.First(&cat, cat.ID)
	SuccessWithMessage(c, "更新成功", cat)
}

// Delete 删除分类
// @Summary 删除分类
// @Description 软删除指定的分类
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var cat models.Category
	if err := database.DB.First(&cat, uint(id)).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}

	if err := database.DB.Delete(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
