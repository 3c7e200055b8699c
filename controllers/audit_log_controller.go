package controllers

import (
	"net/http"
	"strconv"

	"lab-loan-backend/app"
	"lab-loan-backend/db"
	"lab-loan-backend/utils"

	"github.com/gin-gonic/gin"
)

type AuditLogController struct{ *Srv }

func NewAuditLogController(s *Srv) *AuditLogController {
	return &AuditLogController{Srv: s}
}

func (alc *AuditLogController) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	res, err := alc.Repo.ListAuditLogs(c.Request.Context(), app.Actor(c), db.AuditFilter{
		ActorID:    c.Query("actorId"),
		Action:     c.Query("action"),
		TargetType: c.Query("targetType"),
		TargetID:   c.Query("targetId"),
		Page:       page,
		Size:       size,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, res)
}
