package controllers

import (
	"log"
	"net/http"

	"lab-loan-backend/app"
	"lab-loan-backend/db"
	"lab-loan-backend/models"
	"lab-loan-backend/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// Register is self-service sign-up; the account waits in
// pending_verification until staff activate it.
func (ac *AuthController) Register(c *gin.Context) {
	var in struct {
		Email     string `json:"email" binding:"required"`
		FullName  string `json:"fullName" binding:"required"`
		StudentID string `json:"studentId"`
		Password  string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	u, err := ac.Repo.Register(c.Request.Context(), db.RegisterInput{
		Email:     in.Email,
		FullName:  in.FullName,
		StudentID: in.StudentID,
		Password:  in.Password,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, u)
}

// Login refuses non-active accounts outright, each with its own message,
// and never establishes a session for them.
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	u, err := ac.Repo.FindUserByEmail(c.Request.Context(), in.Email)
	if err != nil || !utils.CheckPassword(u.PasswordHash, in.Password) {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid email or password"})
		return
	}
	switch u.Status {
	case models.UserPendingVerification:
		c.JSON(http.StatusForbidden, app.H{"error": "account is awaiting verification"})
		return
	case models.UserInactive:
		c.JSON(http.StatusForbidden, app.H{"error": "account has been deactivated"})
		return
	}

	if err := ac.issueSession(c.Request.Context(), c.Writer, u.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": "could not create session"})
		return
	}
	ac.Repo.RecordAudit(c.Request.Context(), db.AuditEntry{
		ActorID:    &u.ID,
		Action:     models.ActionLogin,
		TargetType: "user",
		TargetID:   &u.ID,
		Meta:       meta(c),
	})
	utils.Success(c, http.StatusOK, app.H{
		"user":                u,
		"forcePasswordChange": u.ForcePasswordChange,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	a := app.Actor(c)
	if ck, err := c.Request.Cookie(app.SessionCookie); err == nil && ck.Value != "" {
		_ = ac.Sess.Delete(c.Request.Context(), ck.Value)
	}
	ac.clearSessionCookie(c.Writer)
	ac.Repo.RecordAudit(c.Request.Context(), db.AuditEntry{
		ActorID:    &a.ID,
		Action:     models.ActionLogout,
		TargetType: "user",
		TargetID:   &a.ID,
		Meta:       meta(c),
	})
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (ac *AuthController) WhoAmI(c *gin.Context) {
	utils.Success(c, http.StatusOK, app.CurrentUser(c))
}

// ChangePassword also serves the forced change after a temporary password;
// all other sessions are revoked and the current one is re-issued.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var in struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	a := app.Actor(c)
	if err := ac.Repo.ChangePassword(c.Request.Context(), a.ID, in.CurrentPassword, in.NewPassword, meta(c)); err != nil {
		utils.Fail(c, err)
		return
	}
	if err := ac.Sess.RevokeAllForUser(c.Request.Context(), a.ID); err != nil {
		log.Printf("session revoke failed for user %s: %v", a.ID, err)
	} else {
		_ = ac.issueSession(c.Request.Context(), c.Writer, a.ID, c.ClientIP(), c.Request.UserAgent())
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
