package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 报表模块 HTTP 处理器（管理员）
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Overview 管理员总览
// GET /api/reports/overview
func (h *ReportHandler) Overview(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.reportSvc.Overview(c.Request.Context(), caller)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportStudents 导出学生进度表
// GET /api/reports/students.xlsx
func (h *ReportHandler) ExportStudents(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.reportSvc.ExportStudents(c.Request.Context(), caller)
	if err != nil {
		handleError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
