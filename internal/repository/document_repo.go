package repository

import (
	"context"

	"gorm.io/gorm"

	"pgss/backend/internal/access"
	"pgss/backend/internal/model"
)

// DocumentFilter 文档列表过滤条件
type DocumentFilter struct {
	Scope              access.Filter
	StudentID          string
	WeeklySubmissionID string
}

// DocumentRepository 文档元数据访问接口
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id string) (*model.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	// AttachToSubmission 仅关联属于 studentID 的文档，返回实际关联数量
	AttachToSubmission(ctx context.Context, submissionID, studentID string, documentIDs []string) (int64, error)
}

type documentRepo struct {
	db *gorm.DB
}

// NewDocumentRepo 创建 DocumentRepository 实例
func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Where("document_id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", id).
		Delete(&model.Document{}).Error
}

func (r *documentRepo) List(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	var docs []model.Document

	db := r.db.WithContext(ctx)
	switch {
	case filter.Scope.Deny:
		db = db.Where("1 = 0")
	case filter.Scope.SupervisorID != "":
		// 导师可见：名下学生的文档，以及自己上传的文档
		db = db.Where("(student_id IN ("+supervisedStudentsSQL+") OR uploaded_by_supervisor_id = ?)",
			filter.Scope.SupervisorID, filter.Scope.SupervisorID)
	case filter.Scope.StudentID != "":
		db = db.Where("student_id = ?", filter.Scope.StudentID)
	}

	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.WeeklySubmissionID != "" {
		db = db.Where("weekly_submission_id = ?", filter.WeeklySubmissionID)
	}

	err := db.Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *documentRepo) AttachToSubmission(ctx context.Context, submissionID, studentID string, documentIDs []string) (int64, error) {
	if len(documentIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("document_id IN ? AND student_id = ?", documentIDs, studentID).
		Update("weekly_submission_id", submissionID)
	return result.RowsAffected, result.Error
}
