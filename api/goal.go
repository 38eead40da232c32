package api

import (
	"strconv"
	"time"

	"budget/database"
	"budget/middleware"
	"budget/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GoalHandler 储蓄目标处理器
type GoalHandler struct{}

// NewGoalHandler 创建储蓄目标处理器
func NewGoalHandler() *GoalHandler {
	return &GoalHandler{}
}

// GoalCreateRequest 创建储蓄目标请求
type GoalCreateRequest struct {
	Name     string          `json:"name" binding:"required,min=1,max=100" example:"买车"`
	Current  decimal.Decimal `json:"current" example:"1500.00"`
	Target   decimal.Decimal `json:"target" binding:"required" example:"20000.00"`
	Deadline string          `json:"deadline" binding:"required" example:"2026-12-31"`
}

// GoalUpdateRequest 更新储蓄目标请求
type GoalUpdateRequest struct {
	Name     string           `json:"name" binding:"omitempty,min=1,max=100"`
	Current  *decimal.Decimal `json:"current"`
	Target   *decimal.Decimal `json:"target"`
	Deadline string           `json:"deadline"`
}

// Create 创建储蓄目标
// @Summary 创建储蓄目标
// @Description 为当前用户创建储蓄目标
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GoalCreateRequest true "目标信息"
// @Success 200 {object} Response{data=models.Goal} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req GoalCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	deadline, err := time.ParseInLocation("2006-01-02", req.Deadline, time.Local)
	if err != nil {
		BadRequest(c, "截止日期格式错误，应为 YYYY-MM-DD")
		return
	}

	goal := models.Goal{
		UserID:   userID,
		Name:     req.Name,
		Current:  req.Current,
		Target:   req.Target,
		Deadline: deadline,
	}
	if err := database.DB.Create(&goal).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建目标失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", goal)
}

// List 获取储蓄目标列表
// @Summary 获取储蓄目标列表
// @Description 获取当前用户的全部储蓄目标
// @Tags 储蓄目标
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Goal} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var goals []models.Goal
	if err := database.DB.Where("user_id = ?", userID).Order("deadline ASC").Find(&goals).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, goals)
}

// Update 更新储蓄目标
// @Summary 更新储蓄目标
// @Description 更新当前用户指定的储蓄目标
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Param request body GoalUpdateRequest true "更新的目标信息"
// @Success 200 {object} Response{data=models.Goal} "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id} [put]
func (h *GoalHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var goal models.Goal
	if err := database.DB.Where("id = ? AND user_id = ?", uint(id), userID).First(&goal).Error; err != nil {
		NotFound(c, "目标不存在")
		return
	}

	var req GoalUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Current != nil {
		updates["current"] = *req.Current
	}
	if req.Target != nil {
		updates["target"] = *req.Target
	}
	if req.Deadline != "" {
		deadline, err := time.ParseInLocation("2006-01-02", req.Deadline, time.Local)
		if err != nil {
			BadRequest(c, "截止日期格式错误，应为 YYYY-MM-DD")
			return
		}
		updates["deadline"] = deadline
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&goal).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}

	SuccessWithMessage(c, "更新成功", goal)
}

// Delete 删除储蓄目标
// @Summary 删除储蓄目标
// @Description 软删除当前用户指定的储蓄目标
// @Tags 储蓄目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "目标ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "目标不存在"
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var goal models.Goal
	if err := database.DB.Where("id = ? AND user_id = ?", uint(id), userID).First(&goal).Error; err != nil {
		NotFound(c, "目标不存在")
		return
	}

	if err := database.DB.Delete(&goal).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
