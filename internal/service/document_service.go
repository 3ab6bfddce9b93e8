package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pgss/backend/config"
	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
	"pgss/backend/internal/repository"
)

// DocumentService 文档业务接口，文件内容保存在本地目录
type DocumentService interface {
	List(ctx context.Context, caller *access.Caller, req *dto.DocumentListRequest) ([]dto.DocumentResponse, error)
	Upload(ctx context.Context, caller *access.Caller, form *dto.UploadDocumentForm, file *multipart.FileHeader) (*dto.DocumentResponse, error)
	GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.DocumentResponse, error)
	// Open 返回文档元数据与磁盘路径，供下载
	Open(ctx context.Context, caller *access.Caller, id string) (*model.Document, string, error)
	Delete(ctx context.Context, caller *access.Caller, id string) error
}

type documentService struct {
	uploadDir string
	maxBytes  int64
	repo      *repository.Repository
	notifier  *notifier
	logger    *zap.Logger
}

// NewDocumentService 创建 DocumentService 实例
func NewDocumentService(cfg *config.StorageConfig, repo *repository.Repository, n *notifier, logger *zap.Logger) DocumentService {
	return &documentService{
		uploadDir: cfg.UploadDir,
		maxBytes:  cfg.MaxUploadMB * 1024 * 1024,
		repo:      repo,
		notifier:  n,
		logger:    logger,
	}
}

// ────────────────────── List ──────────────────────

func (s *documentService) List(ctx context.Context, caller *access.Caller, req *dto.DocumentListRequest) ([]dto.DocumentResponse, error) {
	docs, err := s.repo.Document.List(ctx, repository.DocumentFilter{
		Scope:              access.Scope(caller),
		StudentID:          req.StudentID,
		WeeklySubmissionID: req.WeeklySubmissionID,
	})
	if err != nil {
		s.logger.Error("查询文档列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		list = append(list, toDocumentResponse(&docs[i]))
	}
	return list, nil
}

// ────────────────────── Upload ──────────────────────

// Upload 学生上传到自己名下；导师与管理员上传需指定学生
func (s *documentService) Upload(ctx context.Context, caller *access.Caller, form *dto.UploadDocumentForm, file *multipart.FileHeader) (*dto.DocumentResponse, error) {
	if file == nil || file.Size == 0 {
		return nil, ErrFileMissing
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	studentID := form.StudentID
	if caller.IsStudent() {
		if studentID != "" && studentID != caller.StudentID {
			return nil, ErrForbidden
		}
		studentID = caller.StudentID
	}
	if studentID == "" {
		return nil, ErrStudentRequired
	}

	student, res, err := studentResource(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, res, access.Write); err != nil {
		return nil, err
	}

	doc := &model.Document{
		StudentID:   student.StudentID,
		FileName:    filepath.Base(file.Filename),
		MimeType:    file.Header.Get("Content-Type"),
		Size:        file.Size,
		Description: form.Description,
		BaseModel:   model.BaseModel{CreatedBy: &caller.UserID},
	}
	switch {
	case caller.IsStudent():
		doc.UploadedByStudentID = &caller.StudentID
	case caller.IsSupervisor():
		doc.UploadedBySupervisorID = &caller.SupervisorID
	default:
		// 管理员代为上传时记在学生名下
		doc.UploadedByStudentID = &student.StudentID
	}

	if form.WeeklySubmissionID != "" {
		submission, err := s.repo.WeeklySubmission.GetByID(ctx, form.WeeklySubmissionID)
		if err != nil {
			return nil, notFound(err, ErrSubmissionNotFound)
		}
		if submission.StudentID != student.StudentID {
			return nil, ErrSubmissionMismatch
		}
		doc.WeeklySubmissionID = &submission.SubmissionID
	}

	path, err := s.store(student.StudentID, file)
	if err != nil {
		s.logger.Error("保存上传文件失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}
	doc.StoragePath = path

	if err := s.repo.Document.Create(ctx, doc); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			s.logger.Warn("清理上传文件失败", zap.String("path", path), zap.Error(rmErr))
		}
		s.logger.Error("保存文档记录失败", zap.Error(err))
		return nil, err
	}

	// 通知对方：学生上传通知导师，导师或管理员上传通知学生
	var ns []model.Notification
	if caller.IsStudent() {
		if student.Supervisor != nil {
			ns = appendNotification(ns, student.Supervisor.UserID, model.NotificationDocumentUploaded,
				"学生上传了新文档", doc.FileName, "document", doc.DocumentID, nil)
		}
	} else {
		ns = appendNotification(ns, student.UserID, model.NotificationDocumentUploaded,
			"收到新文档", doc.FileName, "document", doc.DocumentID, nil)
	}
	s.notifier.send(ctx, ns...)

	resp := toDocumentResponse(doc)
	return &resp, nil
}

// store 写入 uploadDir/<studentID>/<uuid><ext>
func (s *documentService) store(studentID string, file *multipart.FileHeader) (string, error) {
	dir := filepath.Join(s.uploadDir, studentID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("创建上传目录失败: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	path := filepath.Join(dir, uuid.NewString()+ext)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return path, nil
}

// load 加载文档并按动作校验访问权限
func (s *documentService) load(ctx context.Context, caller *access.Caller, id string, action access.Action) (*model.Document, error) {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDocumentNotFound)
	}

	var student *model.Student
	if action == access.Read {
		if student, err = s.repo.Student.GetByID(ctx, doc.StudentID); err != nil {
			return nil, notFound(err, ErrDocumentNotFound)
		}
	}
	if err := access.Check(caller, documentResource(doc, student, action), action); err != nil {
		return nil, err
	}
	return doc, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *documentService) GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.DocumentResponse, error) {
	doc, err := s.load(ctx, caller, id, access.Read)
	if err != nil {
		return nil, err
	}
	resp := toDocumentResponse(doc)
	return &resp, nil
}

// ────────────────────── Open ──────────────────────

func (s *documentService) Open(ctx context.Context, caller *access.Caller, id string) (*model.Document, string, error) {
	doc, err := s.load(ctx, caller, id, access.Read)
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(doc.StoragePath); err != nil {
		s.logger.Error("文档文件缺失", zap.String("id", id), zap.String("path", doc.StoragePath), zap.Error(err))
		return nil, "", ErrFileGone
	}
	return doc, doc.StoragePath, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 仅上传者（或管理员）可删除
func (s *documentService) Delete(ctx context.Context, caller *access.Caller, id string) error {
	doc, err := s.load(ctx, caller, id, access.Write)
	if err != nil {
		return err
	}

	if err := s.repo.Document.Delete(ctx, doc.DocumentID); err != nil {
		s.logger.Error("删除文档失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if doc.StoragePath != "" {
		if err := os.Remove(doc.StoragePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("删除文档文件失败", zap.String("path", doc.StoragePath), zap.Error(err))
		}
	}
	return nil
}
