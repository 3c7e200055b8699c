package controllers

import (
	"net/http"
	"strconv"

	"lab-loan-backend/app"
	"lab-loan-backend/models"
	"lab-loan-backend/utils"

	"github.com/gin-gonic/gin"
)

type PasswordResetController struct{ *Srv }

func NewPasswordResetController(s *Srv) *PasswordResetController {
	return &PasswordResetController{Srv: s}
}

// CreateResetRequest is unauthenticated: it is how a locked-out user asks
// for help. The response echoes the tracking token, not a password.
func (pc *PasswordResetController) CreateResetRequest(c *gin.Context) {
	var in struct {
		Email  string `json:"email" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	req, err := pc.Repo.CreateResetRequest(c.Request.Context(), in.Email, in.Reason, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"token": req.Token, "expiresAt": req.ExpiresAt})
}

// GetResetByToken lets the requester poll the outcome without logging in.
func (pc *PasswordResetController) GetResetByToken(c *gin.Context) {
	req, err := pc.Repo.FindResetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"status": req.Status, "expiresAt": req.ExpiresAt})
}

func (pc *PasswordResetController) ListResetRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := pc.Repo.ListResetRequests(c.Request.Context(), app.Actor(c),
		models.ResetStatus(c.Query("status")), page, size)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, res)
}

// Approve issues the temporary password and returns it once, for delivery
// to the user out of band.
func (pc *PasswordResetController) Approve(c *gin.Context) {
	var in struct {
		ApprovalNotes string `json:"approvalNotes"`
	}
	_ = c.ShouldBindJSON(&in)
	req, tempPW, err := pc.Repo.ApproveResetRequest(c.Request.Context(), app.Actor(c), c.Param("id"), in.ApprovalNotes, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"request": req, "temporaryPassword": tempPW})
}

func (pc *PasswordResetController) Reject(c *gin.Context) {
	var in struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&in)
	req, err := pc.Repo.RejectResetRequest(c.Request.Context(), app.Actor(c), c.Param("id"), in.Notes, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, req)
}
