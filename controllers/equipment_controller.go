package controllers

import (
	"net/http"

	"lab-loan-backend/app"
	"lab-loan-backend/db"
	"lab-loan-backend/models"
	"lab-loan-backend/utils"

	"github.com/gin-gonic/gin"
)

type EquipmentController struct{ *Srv }

func NewEquipmentController(s *Srv) *EquipmentController {
	return &EquipmentController{Srv: s}
}

// ListEquipment is open to every authenticated role; students browse here
// before submitting a loan request.
func (ec *EquipmentController) ListEquipment(c *gin.Context) {
	items, err := ec.Repo.ListEquipment(c.Request.Context(), app.Actor(c),
		c.Query("laboratoryId"), models.EquipmentStatus(c.Query("status")))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, items)
}

func (ec *EquipmentController) GetEquipment(c *gin.Context) {
	eq, err := ec.Repo.FindEquipmentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, eq)
}

func (ec *EquipmentController) CreateEquipment(c *gin.Context) {
	var in struct {
		LaboratoryID  string                 `json:"laboratoryId" binding:"required"`
		Code          string                 `json:"code" binding:"required"`
		Name          string                 `json:"name" binding:"required"`
		TotalQuantity int                    `json:"totalQuantity"`
		Condition     models.Condition       `json:"condition"`
		Status        models.EquipmentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	eq, err := ec.Repo.CreateEquipment(c.Request.Context(), app.Actor(c), db.EquipmentInput{
		LaboratoryID:  in.LaboratoryID,
		Code:          in.Code,
		Name:          in.Name,
		TotalQuantity: in.TotalQuantity,
		Condition:     in.Condition,
		Status:        in.Status,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, eq)
}

func (ec *EquipmentController) UpdateEquipment(c *gin.Context) {
	var in struct {
		Name          *string                 `json:"name"`
		TotalQuantity *int                    `json:"totalQuantity"`
		Condition     *models.Condition       `json:"condition"`
		Status        *models.EquipmentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	eq, err := ec.Repo.UpdateEquipment(c.Request.Context(), app.Actor(c), c.Param("id"), db.UpdateEquipmentInput{
		Name:          in.Name,
		TotalQuantity: in.TotalQuantity,
		Condition:     in.Condition,
		Status:        in.Status,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, eq)
}

func (ec *EquipmentController) DeleteEquipment(c *gin.Context) {
	if err := ec.Repo.DeleteEquipment(c.Request.Context(), app.Actor(c), c.Param("id"), meta(c)); err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
