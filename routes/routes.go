package routes

import (
	"lab-loan-backend/app"
	"lab-loan-backend/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	userCtl := controllers.NewUserController(s)
	labCtl := controllers.NewLaboratoryController(s)
	eqCtl := controllers.NewEquipmentController(s)
	loanCtl := controllers.NewLoanRequestController(s)
	resetCtl := controllers.NewPasswordResetController(s)
	auditCtl := controllers.NewAuditLogController(s)
	reportCtl := controllers.NewReportController(s)

	authMW := app.AuthRequired(a.Sessions(), a.Repo)
	adminMW := app.AdminOnly()
	staffMW := app.StaffOnly()

	// ------------------------------
	// Public
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
	}
	resets := r.Group("/password-resets")
	{
		resets.POST("", resetCtl.CreateResetRequest)
		resets.GET("/token/:token", resetCtl.GetResetByToken)
	}

	// ------------------------------
	// Session-scoped
	// ------------------------------
	authed := r.Group("", authMW)
	{
		authed.POST("/auth/logout", authCtl.Logout)
		authed.GET("/auth/whoami", authCtl.WhoAmI)
		authed.POST("/auth/change-password", authCtl.ChangePassword)
	}

	// ------------------------------
	// Users (admin everywhere; lab staff manage their students)
	// ------------------------------
	users := r.Group("/api/users", authMW)
	{
		users.GET("", userCtl.ListUsers)
		users.POST("", userCtl.CreateUser)
		users.GET("/:id", userCtl.GetUser)
		users.PATCH("/:id", userCtl.UpdateUser)
		users.PUT("/:id/status", userCtl.SetStatus)
		users.DELETE("/:id", userCtl.DeleteUser)
	}

	// ------------------------------
	// Laboratories (admin only)
	// ------------------------------
	labs := r.Group("/api/laboratories", authMW, adminMW)
	{
		labs.GET("", labCtl.ListLaboratories)
		labs.POST("", labCtl.CreateLaboratory)
		labs.GET("/:id", labCtl.GetLaboratory)
		labs.PATCH("/:id", labCtl.UpdateLaboratory)
		labs.DELETE("/:id", labCtl.DeleteLaboratory)
	}

	// ------------------------------
	// Equipment (read for everyone, writes lab-scoped in policy)
	// ------------------------------
	equipment := r.Group("/api/equipment", authMW)
	{
		equipment.GET("", eqCtl.ListEquipment)
		equipment.GET("/:id", eqCtl.GetEquipment)
		equipment.POST("", eqCtl.CreateEquipment)
		equipment.PATCH("/:id", eqCtl.UpdateEquipment)
		equipment.DELETE("/:id", eqCtl.DeleteEquipment)
	}

	// ------------------------------
	// Loan requests
	// ------------------------------
	loans := r.Group("/api/loan-requests", authMW)
	{
		loans.POST("", loanCtl.SubmitLoanRequest)
		loans.GET("", loanCtl.ListLoanRequests)
		loans.GET("/overdue", loanCtl.ListOverdue)
		loans.GET("/:id", loanCtl.GetLoanRequest)
		loans.PATCH("/:id", loanCtl.UpdateLoanRequest)
		loans.PUT("/:id/status", loanCtl.Transition)
		loans.DELETE("/:id", loanCtl.DeleteLoanRequest)
	}

	// ------------------------------
	// Password reset decisions (staff)
	// ------------------------------
	staffResets := r.Group("/api/password-resets", authMW, staffMW)
	{
		staffResets.GET("", resetCtl.ListResetRequests)
		staffResets.PUT("/:id/approve", resetCtl.Approve)
		staffResets.PUT("/:id/reject", resetCtl.Reject)
	}

	// ------------------------------
	// Audit + reports (admin)
	// ------------------------------
	admin := r.Group("/api", authMW, adminMW)
	{
		admin.GET("/audit-logs", auditCtl.ListAuditLogs)
		admin.GET("/reports/loan-requests.xlsx", reportCtl.ExportLoanRequests)
	}
}
