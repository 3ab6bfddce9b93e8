package dto

// ── 文档模块 DTO ──

// DocumentListRequest 文档列表查询参数
type DocumentListRequest struct {
	StudentID          string `form:"studentId"          binding:"omitempty,uuid"`
	WeeklySubmissionID string `form:"weeklySubmissionId" binding:"omitempty,uuid"`
}

// UploadDocumentForm 上传文档表单字段（文件通过 multipart file 字段传入）
type UploadDocumentForm struct {
	StudentID          string `form:"student_id"           binding:"omitempty,uuid"` // 导师/管理员上传时必填
	WeeklySubmissionID string `form:"weekly_submission_id" binding:"omitempty,uuid"`
	Description        string `form:"description"          binding:"omitempty,max=2000"`
}

// DocumentResponse 文档元数据响应
type DocumentResponse struct {
	ID                     string `json:"id"`
	StudentID              string `json:"student_id"`
	UploadedByStudentID    string `json:"uploaded_by_student_id,omitempty"`
	UploadedBySupervisorID string `json:"uploaded_by_supervisor_id,omitempty"`
	WeeklySubmissionID     string `json:"weekly_submission_id,omitempty"`
	FileName               string `json:"file_name"`
	MimeType               string `json:"mime_type"`
	Size                   int64  `json:"size"`
	Description            string `json:"description,omitempty"`
	CreatedAt              string `json:"created_at"`
}
