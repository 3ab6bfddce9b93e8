// Package progress 提供学生总进度与里程碑状态的计算规则。
package progress

import "math"

// 每个部署只启用一种总进度方案
const (
	SchemeMilestone = "milestone"
	SchemeWeekly    = "weekly"
)

// DefaultTotalWeeks 周报方案默认总周数
const DefaultTotalWeeks = 6

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Clamp 将进度限制在 [0, 100]
func Clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// MilestoneMean 里程碑进度均值（四舍五入），无里程碑时为 0
func MilestoneMean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += Clamp(v)
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}

// SubmissionRatio 已提交周数占总周数的百分比（四舍五入，上限 100）
func SubmissionRatio(submitted, totalWeeks int) int {
	if totalWeeks <= 0 || submitted <= 0 {
		return 0
	}
	return Clamp(int(math.Round(float64(submitted) / float64(totalWeeks) * 100)))
}

// Status 由进度派生状态：100 完成，0 待开始，其余进行中
func Status(p int) string {
	switch p = Clamp(p); {
	case p >= 100:
		return StatusCompleted
	case p > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}
