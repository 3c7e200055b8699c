package controllers

import (
	"net/http"
	"strconv"

	"lab-loan-backend/app"
	"lab-loan-backend/db"
	"lab-loan-backend/models"
	"lab-loan-backend/utils"

	"github.com/gin-gonic/gin"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

func (uc *UserController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := uc.Repo.ListUsers(c.Request.Context(), app.Actor(c), c.Query("q"), page, size)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, res)
}

func (uc *UserController) GetUser(c *gin.Context) {
	u, err := uc.Repo.GetUser(c.Request.Context(), app.Actor(c), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, u)
}

// CreateUser is the staff path: accounts start active, unlike self-service
// registration.
func (uc *UserController) CreateUser(c *gin.Context) {
	var in struct {
		Email        string      `json:"email" binding:"required"`
		FullName     string      `json:"fullName" binding:"required"`
		StudentID    string      `json:"studentId"`
		Password     string      `json:"password" binding:"required"`
		Role         models.Role `json:"role" binding:"required"`
		LaboratoryID *string     `json:"laboratoryId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	u, err := uc.Repo.CreateUser(c.Request.Context(), app.Actor(c), db.CreateUserInput{
		Email:        in.Email,
		FullName:     in.FullName,
		StudentID:    in.StudentID,
		Password:     in.Password,
		Role:         in.Role,
		LaboratoryID: in.LaboratoryID,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, u)
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	var in struct {
		FullName     *string      `json:"fullName"`
		StudentID    *string      `json:"studentId"`
		Role         *models.Role `json:"role"`
		LaboratoryID *string      `json:"laboratoryId"`
		ClearLab     bool         `json:"clearLaboratory"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	u, err := uc.Repo.UpdateUser(c.Request.Context(), app.Actor(c), c.Param("id"), db.UpdateUserInput{
		FullName:     in.FullName,
		StudentID:    in.StudentID,
		Role:         in.Role,
		LaboratoryID: in.LaboratoryID,
		ClearLab:     in.ClearLab,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, u)
}

// SetStatus drives activation of pending accounts and the active/inactive
// toggle. Deactivation also revokes every live session of the target.
func (uc *UserController) SetStatus(c *gin.Context) {
	var in struct {
		Status models.UserStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	u, err := uc.Repo.SetUserStatus(c.Request.Context(), app.Actor(c), c.Param("id"), in.Status, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if u.Status == models.UserInactive {
		_ = uc.Sess.RevokeAllForUser(c.Request.Context(), u.ID)
	}
	utils.Success(c, http.StatusOK, u)
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := uc.Repo.DeleteUser(c.Request.Context(), app.Actor(c), id, meta(c)); err != nil {
		utils.Fail(c, err)
		return
	}
	_ = uc.Sess.RevokeAllForUser(c.Request.Context(), id)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
