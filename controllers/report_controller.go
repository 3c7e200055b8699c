package controllers

import (
	"fmt"
	"net/http"

	"lab-loan-backend/app"
	"lab-loan-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

var loanReportHeader = []string{
	"Request Number", "Requester", "Equipment", "Quantity",
	"Start Date", "End Date", "Status", "Rejection Reason",
}

// ExportLoanRequests streams the loan request table as an xlsx workbook.
func (rc *ReportController) ExportLoanRequests(c *gin.Context) {
	reqs, err := rc.Repo.AllLoanRequestsForExport(c.Request.Context(), app.Actor(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Loan Requests"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for col, title := range loanReportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for i, req := range reqs {
		requester, equipment := "", ""
		if req.Requester != nil {
			requester = req.Requester.Email
		}
		if req.Equipment != nil {
			equipment = req.Equipment.Name
		}
		row := []any{
			req.RequestNumber,
			requester,
			equipment,
			req.QuantityRequested,
			req.RequestedStartDate.Format("2006-01-02"),
			req.RequestedEndDate.Format("2006-01-02"),
			string(req.Status),
			req.RejectionReason,
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "loan-requests.xlsx"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
