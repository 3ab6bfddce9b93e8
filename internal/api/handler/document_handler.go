package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

// DocumentHandler 文档模块 HTTP 处理器
type DocumentHandler struct {
	documentSvc service.DocumentService
}

// NewDocumentHandler 创建 DocumentHandler
func NewDocumentHandler(documentSvc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentSvc: documentSvc}
}

// ListDocuments 文档列表
// GET /api/documents?studentId=&weeklySubmissionId=
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.documentSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Upload 上传文档
// POST /api/documents (multipart/form-data, field="file")
func (h *DocumentHandler) Upload(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var form dto.UploadDocumentForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	var file *multipart.FileHeader
	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		file = fh
	case errors.Is(err, http.ErrMissingFile):
		// 交由 Service 返回 ErrFileMissing
	default:
		bindError(c, err)
		return
	}

	doc, err := h.documentSvc.Upload(c.Request.Context(), caller, &form, file)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, doc)
}

// GetDocument 文档元数据
// GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	doc, err := h.documentSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, doc)
}

// Download 下载文档
// GET /api/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	doc, path, err := h.documentSvc.Open(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	if doc.MimeType != "" {
		c.Header("Content-Type", doc.MimeType)
	}
	c.FileAttachment(path, doc.FileName)
}

// DeleteDocument 删除文档（仅上传者或管理员）
// DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.documentSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
