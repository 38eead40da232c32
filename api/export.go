package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"budget/database"
	"budget/middleware"
	"budget/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

func parseExportRange(c *gin.Context) (start, end time.Time, startStr, endStr string, ok bool) {
	startStr = c.Query("start_time")
	endStr = c.Query("end_time")

	if startStr == "" || endStr == "" {
		BadRequest(c, "请提供开始时间和结束时间")
		return
	}

	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		BadRequest(c, "开始时间格式错误，应为: 2006-01-02")
		return
	}

	end, err = time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		BadRequest(c, "结束时间格式错误，应为: 2006-01-02")
		return
	}
	end = end.Add(24*time.Hour - time.Second)
	ok = true
	return
}

// ExportCSV 导出交易记录为 CSV
// @Summary 导出交易记录
// @Description 根据日期范围导出当前用户的交易记录为 CSV 文件
// @Tags 导出
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2025-01-01)"
// @Param end_time query string true "结束时间 (2025-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	start, end, startStr, endStr, ok := parseExportRange(c)
	if !ok {
		return
	}

	// 查询数据
	var transactions []models.Transaction
	if err := database.DB.Preload("Category").
		Where("user_id = ? AND transaction_date >= ? AND transaction_date <= ?", userID, start, end).
		Order("transaction_date DESC").
		Find(&transactions).Error; err != nil {
		InternalError(c, "查询数据失败: "+err.Error())
		return
	}

	// 生成 CSV
	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)

	// 写入表头
	headers := []string{"ID", "类型", "金额", "分类", "描述", "交易日期", "创建时间"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	// 写入数据
	for _, txn := range transactions {
		row := []string{
			fmt.Sprintf("%d", txn.ID),
			txn.Type,
			txn.Amount.StringFixed(2),
			txn.Category.Name,
			txn.Description,
			txn.TransactionDate.Format("2006-01-02"),
			txn.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	// 设置响应头
	filename := fmt.Sprintf("transactions_%s_%s.csv", startStr, endStr)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出交易记录为 Excel
// @Summary 导出交易记录为Excel
// @Description 根据日期范围导出当前用户的交易记录为 Excel 文件，末尾附带合计行
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_time query string true "开始时间 (YYYY-MM-DD)"
// @Param end_time query string true "结束时间 (YYYY-MM-DD)"
// @Success 200 {file} file "Excel文件"
// @Failure 400 {object} Response "参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	start, end, startStr, endStr, ok := parseExportRange(c)
	if !ok {
		return
	}

	// 查询数据
	var transactions []models.Transaction
	if err := database.DB.Preload("Category").
		Where("user_id = ? AND transaction_date >= ? AND transaction_date <= ?", userID, start, end).
		Order("transaction_date DESC").
		Find(&transactions).Error; err != nil {
		InternalError(c, "查询数据失败: "+err.Error())
		return
	}

	// 创建 Excel 文件
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "交易记录"
	f.SetSheetName("Sheet1", sheetName)

	// 设置表头样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	// 数据样式
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 15)
	f.SetColWidth(sheetName, "D", "D", 15)
	f.SetColWidth(sheetName, "E", "E", 30)
	f.SetColWidth(sheetName, "F", "F", 15)
	f.SetColWidth(sheetName, "G", "G", 20)

	// 写入表头
	headers := []string{"ID", "类型", "金额", "分类", "描述", "交易日期", "创建时间"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// 写入数据
	total := decimal.Zero
	for i, txn := range transactions {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), txn.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), txn.Type)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), txn.Amount.StringFixed(2))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), txn.Category.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), txn.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), txn.TransactionDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), txn.CreatedAt.Format("2006-01-02 15:04:05"))

		// 设置数据样式
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)
		total = total.Add(txn.Amount)
	}

	// 添加汇总行
	summaryRow := len(transactions) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("B%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", summaryRow), total.StringFixed(2))
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(transactions)))
	f.MergeCell(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("G%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	// 设置响应头
	filename := fmt.Sprintf("交易记录_%s_%s.xlsx", startStr, endStr)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	// 写入响应
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}
