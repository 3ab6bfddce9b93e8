package service

import (
	"context"

	"pgss/backend/internal/access"
	"pgss/backend/internal/model"
	"pgss/backend/internal/repository"
)

// studentResource 加载学生并返回其归属信息
// 学生不存在时返回 ErrStudentNotFound
func studentResource(ctx context.Context, repo *repository.Repository, studentID string) (*model.Student, access.Resource, error) {
	student, err := repo.Student.GetByID(ctx, studentID)
	if err != nil {
		return nil, access.Resource{}, notFound(err, ErrStudentNotFound)
	}
	return student, access.Resource{
		StudentID:    student.StudentID,
		SupervisorID: student.AssignedSupervisorID(),
	}, nil
}

// documentResource 文档归属
// 写操作仅考虑上传者，所属学生与其导师只能读取对方上传的文档
func documentResource(doc *model.Document, student *model.Student, action access.Action) access.Resource {
	r := access.Resource{
		UploadedByStudentID:    doc.UploaderStudentID(),
		UploadedBySupervisorID: doc.UploaderSupervisorID(),
	}
	if action == access.Read {
		r.StudentID = doc.StudentID
		if student != nil {
			r.SupervisorID = student.AssignedSupervisorID()
		}
	}
	return r
}
