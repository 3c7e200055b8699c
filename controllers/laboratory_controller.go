package controllers

import (
	"net/http"

	"lab-loan-backend/app"
	"lab-loan-backend/db"
	"lab-loan-backend/models"
	"lab-loan-backend/utils"

	"github.com/gin-gonic/gin"
)

type LaboratoryController struct{ *Srv }

func NewLaboratoryController(s *Srv) *LaboratoryController {
	return &LaboratoryController{Srv: s}
}

func (lc *LaboratoryController) ListLaboratories(c *gin.Context) {
	labs, err := lc.Repo.ListLaboratories(c.Request.Context(), app.Actor(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, labs)
}

func (lc *LaboratoryController) GetLaboratory(c *gin.Context) {
	lab, err := lc.Repo.GetLaboratory(c.Request.Context(), app.Actor(c), c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, lab)
}

func (lc *LaboratoryController) CreateLaboratory(c *gin.Context) {
	var in struct {
		Name   string           `json:"name" binding:"required"`
		Code   string           `json:"code" binding:"required"`
		Status models.LabStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	lab, err := lc.Repo.CreateLaboratory(c.Request.Context(), app.Actor(c), db.LaboratoryInput{
		Name:   in.Name,
		Code:   in.Code,
		Status: in.Status,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, lab)
}

func (lc *LaboratoryController) UpdateLaboratory(c *gin.Context) {
	var in struct {
		Name   string           `json:"name"`
		Code   string           `json:"code"`
		Status models.LabStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	lab, err := lc.Repo.UpdateLaboratory(c.Request.Context(), app.Actor(c), c.Param("id"), db.LaboratoryInput{
		Name:   in.Name,
		Code:   in.Code,
		Status: in.Status,
	}, meta(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, lab)
}

func (lc *LaboratoryController) DeleteLaboratory(c *gin.Context) {
	if err := lc.Repo.DeleteLaboratory(c.Request.Context(), app.Actor(c), c.Param("id"), meta(c)); err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
