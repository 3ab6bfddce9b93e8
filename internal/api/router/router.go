package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pgss/backend/config"
	"pgss/backend/internal/api/handler"
	"pgss/backend/internal/api/middleware"
	"pgss/backend/internal/model"
	"pgss/backend/pkg/jwt"
	"pgss/backend/pkg/redis"
)

// multipart 表单头部等额外开销
const multipartOverhead = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：登录限流降级放行
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	resolver middleware.CallerResolver,
	rdb *redis.Client,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit, true))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	uploadLimit := middleware.BodyLimit(cfg.Storage.MaxUploadMB<<20+multipartOverhead, false)
	adminOnly := middleware.RoleAuth(model.RoleAdministrator)
	staffOnly := middleware.RoleAuth(model.RoleSupervisor, model.RoleAdministrator)

	api := r.Group("/api")
	{
		// 认证模块（无需认证）
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, logger), h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, resolver, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块（管理员）
			users := authorized.Group("/users", adminOnly)
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.POST("/import", uploadLimit, h.User.ImportStudents)
				users.GET("/:id", h.User.GetUser)
				users.PATCH("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// 学生模块（Service 层按归属鉴权）
			students := authorized.Group("/students")
			{
				students.GET("", h.Student.ListStudents)
				students.GET("/:id", h.Student.GetStudent)
				students.PATCH("/:id", h.Student.UpdateStudent)
				students.PUT("/:id/supervisor", adminOnly, h.Student.AssignSupervisor)
				students.GET("/:id/progress", h.Student.GetProgress)
			}

			// 导师模块
			supervisors := authorized.Group("/supervisors")
			{
				supervisors.GET("", h.Supervisor.ListSupervisors)
				supervisors.GET("/:id", h.Supervisor.GetSupervisor)
				supervisors.PATCH("/:id", staffOnly, h.Supervisor.UpdateSupervisor) // admin 或本人（Service 层鉴权）
				supervisors.GET("/:id/students", staffOnly, h.Supervisor.ListStudents)
			}

			// 里程碑模块
			milestones := authorized.Group("/milestones")
			{
				milestones.GET("", h.Milestone.ListMilestones)
				milestones.POST("", staffOnly, h.Milestone.CreateMilestone)
				milestones.GET("/:id", h.Milestone.GetMilestone)
				milestones.PATCH("/:id", h.Milestone.UpdateMilestone)
				milestones.DELETE("/:id", staffOnly, h.Milestone.DeleteMilestone)
			}

			// 周报模块
			weekly := authorized.Group("/weekly-submissions")
			{
				weekly.GET("", h.WeeklySubmission.ListSubmissions)
				weekly.POST("", middleware.RoleAuth(model.RoleStudent), h.WeeklySubmission.Submit)
				weekly.GET("/:id", h.WeeklySubmission.GetSubmission)
				weekly.PATCH("/:id/feedback", staffOnly, h.WeeklySubmission.Feedback)
				weekly.DELETE("/:id", h.WeeklySubmission.DeleteSubmission)
			}

			// 文档模块
			documents := authorized.Group("/documents")
			{
				documents.GET("", h.Document.ListDocuments)
				documents.POST("", uploadLimit, h.Document.Upload)
				documents.GET("/:id", h.Document.GetDocument)
				documents.GET("/:id/download", h.Document.Download)
				documents.DELETE("/:id", h.Document.DeleteDocument)
			}

			// 会议模块
			meetings := authorized.Group("/meetings")
			{
				meetings.GET("", h.Meeting.ListMeetings)
				meetings.POST("", h.Meeting.CreateMeeting)
				meetings.GET("/calendar.ics", h.Meeting.Calendar)
				meetings.GET("/:id", h.Meeting.GetMeeting)
				meetings.PATCH("/:id", h.Meeting.UpdateMeeting)
				meetings.DELETE("/:id", h.Meeting.DeleteMeeting)
			}

			// 站内消息
			messages := authorized.Group("/messages")
			{
				messages.GET("", h.Message.ListMessages)
				messages.POST("", h.Message.SendMessage)
				messages.GET("/unread-count", h.Message.UnreadCount)
				messages.PATCH("/:id/read", h.Message.MarkRead)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PATCH("/read-all", h.Notification.MarkAllRead)
				notifications.PATCH("/:id/read", h.Notification.MarkRead)
				notifications.DELETE("/:id", h.Notification.DeleteNotification)
			}

			// 报表模块（管理员）
			reports := authorized.Group("/reports", adminOnly)
			{
				reports.GET("/overview", h.Report.Overview)
				reports.GET("/students.xlsx", h.Report.ExportStudents)
			}
		}
	}

	return r
}
