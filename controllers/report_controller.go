package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"terrainhub/middlewares"
	"terrainhub/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) File(c *gin.Context) {
	var in services.ReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	report, err := h.reports.File(c.Request.Context(), middlewares.PrincipalFrom(c), in)
	if err != nil {
		respondError(c, err, "Failed to submit report")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Report submitted", "report": report})
}
