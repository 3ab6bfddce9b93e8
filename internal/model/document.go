package model

// Document 文档表 — 对应 documents
// 上传者为学生或导师之一（uploaded_by_student_id XOR uploaded_by_supervisor_id）
type Document struct {
	DocumentID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"document_id"`
	StudentID              string  `gorm:"type:uuid;not null;index"                       json:"student_id"`
	UploadedByStudentID    *string `gorm:"type:uuid"                                      json:"uploaded_by_student_id,omitempty"`
	UploadedBySupervisorID *string `gorm:"type:uuid"                                      json:"uploaded_by_supervisor_id,omitempty"`
	WeeklySubmissionID     *string `gorm:"type:uuid;index"                                json:"weekly_submission_id,omitempty"`
	FileName               string  `gorm:"type:varchar(255);not null"                     json:"file_name"`
	MimeType               string  `gorm:"type:varchar(100)"                              json:"mime_type"`
	Size                   int64   `gorm:"not null"                                       json:"size"`
	StoragePath            string  `gorm:"type:varchar(500);not null"                     json:"-"`
	Description            string  `gorm:"type:text"                                      json:"description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Document) TableName() string { return "documents" }

// UploaderStudentID 上传学生 ID，导师上传时为空串
func (d *Document) UploaderStudentID() string {
	if d.UploadedByStudentID == nil {
		return ""
	}
	return *d.UploadedByStudentID
}

// UploaderSupervisorID 上传导师 ID，学生上传时为空串
func (d *Document) UploaderSupervisorID() string {
	if d.UploadedBySupervisorID == nil {
		return ""
	}
	return *d.UploadedBySupervisorID
}
