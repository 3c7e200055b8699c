package controllers

import (
	"net/http"
	"strconv"
	"time"

	"lab-loan-backend/app"
	"lab-loan-backend/db"
	"lab-loan-backend/models"
	"lab-loan-backend/utils"

	"github.com/gin-gonic/gin"
)

type LoanRequestController struct{ *Srv }

func NewLoanRequestController(s *Srv) *LoanRequestController {
	return &LoanRequestController{Srv: s}
}

func (lc *LoanRequestController) SubmitLoanRequest(c *gin.Context) {
	var in struct {
		EquipmentID string    `json:"equipmentId" binding:"required"`
		Quantity    int       `json:"quantityRequested" binding:"required"`
		StartDate   time.Time `json:"requestedStartDate" binding:"required"`
		EndDate     time.Time `json:"requestedEndDate" binding:"required"`
		Purpose     string    `json:"purpose"`
		Notes       string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	req, err := lc.Repo.SubmitLoanRequest(c.Request.Context(), app.Actor(c), db.SubmitLoanInput{
		EquipmentID: in.EquipmentID,
		Quantity:    in.Quantity,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Purpose:     in.Purpose,
		Notes:       in.Notes,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, req)
}

func (lc *LoanRequestController) ListLoanRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := lc.Repo.ListLoanRequests(c.Request.Context(), app.Actor(c), db.LoanFilter{
		Status:      models.LoanStatus(c.Query("status")),
		EquipmentID: c.Query("equipmentId"),
		Page:        page,
		Size:        size,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, res)
}

func (lc *LoanRequestController) GetLoanRequest(c *gin.Context) {
	req, err := lc.Repo.GetLoanRequest(c.Request.Context(), app.Actor(c), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, req)
}

// UpdateLoanRequest: requester-only edits while still pending.
func (lc *LoanRequestController) UpdateLoanRequest(c *gin.Context) {
	var in struct {
		Quantity  *int       `json:"quantityRequested"`
		StartDate *time.Time `json:"requestedStartDate"`
		EndDate   *time.Time `json:"requestedEndDate"`
		Purpose   *string    `json:"purpose"`
		Notes     *string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	req, err := lc.Repo.UpdateLoanRequest(c.Request.Context(), app.Actor(c), c.Param("id"), db.UpdateLoanInput{
		Quantity:  in.Quantity,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Purpose:   in.Purpose,
		Notes:     in.Notes,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, req)
}

// Transition applies one lifecycle edge (approve, reject, borrow, return,
// overdue); the repo enforces both the edge table and the actor scoping.
func (lc *LoanRequestController) Transition(c *gin.Context) {
	var in struct {
		Status          models.LoanStatus `json:"status" binding:"required"`
		RejectionReason string            `json:"rejectionReason"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	req, err := lc.Repo.TransitionLoanRequest(c.Request.Context(), app.Actor(c), c.Param("id"), in.Status, in.RejectionReason, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, req)
}

func (lc *LoanRequestController) DeleteLoanRequest(c *gin.Context) {
	if err := lc.Repo.DeleteLoanRequest(c.Request.Context(), app.Actor(c), c.Param("id"), meta(c)); err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// ListOverdue evaluates "overdue as of now" on the fly; nothing is stored
// until staff explicitly mark a request overdue.
func (lc *LoanRequestController) ListOverdue(c *gin.Context) {
	reqs, err := lc.Repo.OverdueLoanRequests(c.Request.Context(), app.Actor(c), lc.Repo.Now())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, reqs)
}
