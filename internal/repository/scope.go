package repository

import (
	"gorm.io/gorm"

	"pgss/backend/internal/access"
)

const supervisedStudentsSQL = "SELECT student_id FROM students WHERE supervisor_id = ? AND deleted_at IS NULL"

// applyOwnedScope 为归属于学生的表（里程碑、周报、文档等）套用访问范围
// column 为该表中指向学生档案的列
func applyOwnedScope(db *gorm.DB, f access.Filter, column string) *gorm.DB {
	if f.Deny {
		return db.Where("1 = 0")
	}
	if f.StudentID != "" {
		db = db.Where(column+" = ?", f.StudentID)
	}
	if f.SupervisorID != "" {
		db = db.Where(column+" IN ("+supervisedStudentsSQL+")", f.SupervisorID)
	}
	return db
}

// applyPairScope 为同时记录学生与导师的表（students、meetings）套用访问范围
func applyPairScope(db *gorm.DB, f access.Filter, studentColumn, supervisorColumn string) *gorm.DB {
	if f.Deny {
		return db.Where("1 = 0")
	}
	if f.StudentID != "" {
		db = db.Where(studentColumn+" = ?", f.StudentID)
	}
	if f.SupervisorID != "" {
		db = db.Where(supervisorColumn+" = ?", f.SupervisorID)
	}
	return db
}

func likePattern(s string) string {
	return "%" + s + "%"
}
