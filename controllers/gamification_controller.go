package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"terrainhub/middlewares"
	"terrainhub/structs"
)

func (h *ProfileHandler) Points(c *gin.Context) {
	view, err := h.profiles.Points(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		respondError(c, err, "Failed to load points")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ProfileHandler) AwardPoints(c *gin.Context) {
	var req structs.AwardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Action and amount are required", err)
		return
	}
	res, err := h.profiles.Award(c.Request.Context(), middlewares.PrincipalFrom(c), req.Action, req.Amount)
	if err != nil {
		respondError(c, err, "Failed to award points")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) Badges(c *gin.Context) {
	view, err := h.profiles.Badges(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		respondError(c, err, "Failed to load badges")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ProfileHandler) UnlockBadge(c *gin.Context) {
	var req structs.UnlockBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Badge id is required", err)
		return
	}
	badge, err := h.profiles.UnlockBadge(c.Request.Context(), middlewares.PrincipalFrom(c), req.BadgeID)
	if err != nil {
		respondError(c, err, "Failed to unlock badge")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Badge %q unlocked", badge.Name),
		"badge":   badge,
	})
}
