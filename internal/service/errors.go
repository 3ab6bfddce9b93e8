package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pgss/backend/internal/access"
	apperrors "pgss/backend/pkg/errors"
)

// ── 业务错误 ──
// 业务码分段：11xxx 认证 / 12xxx 用户 / 13xxx 学生 / 14xxx 导师 / 15xxx 里程碑
// 16xxx 周报 / 17xxx 文档 / 18xxx 会议 / 19xxx 消息 / 20xxx 通知 / 21xxx 报表

// ErrForbidden 归属校验失败
var ErrForbidden = access.ErrForbidden

// 认证
var (
	ErrInvalidCredentials  = apperrors.New(apperrors.KindUnauthenticated, 11001, "邮箱或密码错误")
	ErrAccountDisabled     = apperrors.New(apperrors.KindUnauthenticated, 11002, "账号已停用")
	ErrInvalidRefreshToken = apperrors.New(apperrors.KindUnauthenticated, 11003, "Refresh Token 无效或已过期")
	ErrWrongOldPassword    = apperrors.New(apperrors.KindValidation, 11004, "原密码错误")
	ErrUnauthenticated     = apperrors.New(apperrors.KindUnauthenticated, 11005, "用户不存在或已删除")
	ErrSamePassword        = apperrors.New(apperrors.KindValidation, 11006, "新密码不能与原密码相同")
)

// 用户
var (
	ErrUserNotFound      = apperrors.New(apperrors.KindNotFound, 12001, "用户不存在")
	ErrEmailExists       = apperrors.New(apperrors.KindConflict, 12002, "邮箱已被注册")
	ErrUserSelfDelete    = apperrors.New(apperrors.KindValidation, 12003, "不能删除自己")
	ErrImportNoData      = apperrors.New(apperrors.KindValidation, 12004, "Excel文件无数据行（第一行为表头）")
	ErrImportBadHeader   = apperrors.New(apperrors.KindValidation, 12005, "Excel表头缺少必要列（姓名/邮箱）")
	ErrImportTooManyRows = apperrors.New(apperrors.KindValidation, 12006, fmt.Sprintf("数据行数超过上限 %d 行", maxImportRows))
	ErrImportBadFile     = apperrors.New(apperrors.KindValidation, 12007, "无法解析Excel文件")
	ErrUserSelfStatus    = apperrors.New(apperrors.KindValidation, 12008, "不能停用自己的账号")
)

// 学生
var (
	ErrStudentNotFound       = apperrors.New(apperrors.KindNotFound, 13001, "学生不存在")
	ErrInvalidDate           = apperrors.New(apperrors.KindValidation, 13002, "日期格式错误，应为 YYYY-MM-DD")
	ErrCompletionBeforeStart = apperrors.New(apperrors.KindValidation, 13003, "预计完成日期不能早于入学日期")
	ErrStudentRequired       = apperrors.New(apperrors.KindValidation, 13004, "请指定学生")
)

// 导师
var (
	ErrSupervisorNotFound   = apperrors.New(apperrors.KindNotFound, 14001, "导师不存在")
	ErrCapacityExceeded     = apperrors.New(apperrors.KindCapacityExceeded, 14002, "导师名额已满")
	ErrCapacityBelowCurrent = apperrors.New(apperrors.KindValidation, 14003, "容量不能小于当前指导学生数")
	ErrSupervisorInactive   = apperrors.New(apperrors.KindValidation, 14004, "导师账号不可用")
)

// 里程碑
var (
	ErrMilestoneNotFound  = apperrors.New(apperrors.KindNotFound, 15001, "里程碑不存在")
	ErrMilestoneStaffOnly = apperrors.New(apperrors.KindForbidden, 15002, "学生仅可修改里程碑描述")
)

// 周报
var (
	ErrSubmissionNotFound     = apperrors.New(apperrors.KindNotFound, 16001, "周报不存在")
	ErrWeekOutOfRange         = apperrors.New(apperrors.KindValidation, 16002, "周次超出范围")
	ErrSubmissionNotSubmitted = apperrors.New(apperrors.KindValidation, 16003, "周报尚未提交，无法反馈")
	ErrDocumentNotOwned       = apperrors.New(apperrors.KindValidation, 16004, "关联文档不存在或不属于该学生")
	ErrSubmissionConflict     = apperrors.New(apperrors.KindConflict, 16005, "该周周报正在提交，请稍后重试")
)

// 文档
var (
	ErrDocumentNotFound   = apperrors.New(apperrors.KindNotFound, 17001, "文档不存在")
	ErrFileTooLarge       = apperrors.New(apperrors.KindValidation, 17002, "文件大小超出限制")
	ErrFileMissing        = apperrors.New(apperrors.KindValidation, 17003, "请选择要上传的文件")
	ErrFileGone           = apperrors.New(apperrors.KindNotFound, 17004, "文件已丢失")
	ErrSubmissionMismatch = apperrors.New(apperrors.KindValidation, 17005, "周报与学生不匹配")
)

// 会议
var (
	ErrMeetingNotFound         = apperrors.New(apperrors.KindNotFound, 18001, "会议不存在")
	ErrNoSupervisorAssigned    = apperrors.New(apperrors.KindValidation, 18002, "尚未分配导师，无法预约会议")
	ErrMeetingInPast           = apperrors.New(apperrors.KindValidation, 18003, "会议时间必须晚于当前时间")
	ErrInvalidStatusTransition = apperrors.New(apperrors.KindValidation, 18004, "会议状态不允许该变更")
	ErrMeetingLocationRequired = apperrors.New(apperrors.KindValidation, 18005, "线下会议需填写地点")
	ErrOnlyCounterpartConfirm  = apperrors.New(apperrors.KindForbidden, 18006, "只能由对方确认会议")
)

// 消息
var (
	ErrMessageNotFound   = apperrors.New(apperrors.KindNotFound, 19001, "消息不存在")
	ErrRecipientNotFound = apperrors.New(apperrors.KindNotFound, 19002, "收件人不存在")
	ErrMessageNotAllowed = apperrors.New(apperrors.KindForbidden, 19003, "无权向该用户发送消息")
	ErrMessageToSelf     = apperrors.New(apperrors.KindValidation, 19004, "不能给自己发送消息")
)

// 通知
var (
	ErrNotificationNotFound = apperrors.New(apperrors.KindNotFound, 20001, "通知不存在")
)

// 报表
var (
	ErrExportGenerateFail = apperrors.New(apperrors.KindUnexpected, 21001, "生成 Excel 文件失败")
)

// notFound 将 gorm.ErrRecordNotFound 映射为模块级哨兵错误，其他错误原样返回
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
