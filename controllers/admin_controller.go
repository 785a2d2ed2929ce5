package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"terrainhub/middlewares"
	"terrainhub/models"
	"terrainhub/structs"
)

// List serves the moderation queue, optionally filtered by ?status=.
func (h *ReportHandler) List(c *gin.Context) {
	status := models.ReportStatus(c.Query("status"))
	reports, err := h.reports.List(c.Request.Context(), middlewares.PrincipalFrom(c), status)
	if err != nil {
		respondError(c, err, "Failed to list reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *ReportHandler) Review(c *gin.Context) {
	var req structs.ReviewReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	report, err := h.reports.Review(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id"), models.ReportStatus(req.Status))
	if err != nil {
		respondError(c, err, "Failed to review report")
		return
	}
	c.JSON(http.StatusOK, report)
}
