package dto

// ── 报表模块 DTO ──

// OverviewResponse 管理员总览
type OverviewResponse struct {
	UsersByRole        map[string]int64    `json:"users_by_role"`
	UsersByStatus      map[string]int64    `json:"users_by_status"`
	TotalStudents      int64               `json:"total_students"`
	UnassignedStudents int64               `json:"unassigned_students"`
	AverageProgress    float64             `json:"average_progress"`
	PendingFeedback    int64               `json:"pending_feedback"`
	UpcomingMeetings   int64               `json:"upcoming_meetings"`
	SupervisorLoad     []SupervisorLoadDTO `json:"supervisor_load"`
	GeneratedAt        string              `json:"generated_at"`
}

// SupervisorLoadDTO 导师负载
type SupervisorLoadDTO struct {
	SupervisorID    string `json:"supervisor_id"`
	Name            string `json:"name"`
	Department      string `json:"department"`
	Capacity        int    `json:"capacity"`
	CurrentStudents int64  `json:"current_students"`
}
